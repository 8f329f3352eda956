package core

import "errors"

var (
	ErrBankFull    = errors.New("softpwm bank: no free channel")
	ErrPeriodRange = errors.New("softpwm bank: period out of range")
)

// maxBankPeriod keeps rate*period within 32 bits for the full rate range
const maxBankPeriod = 0xFFFFFFFF / DefaultMaxRate

// SoftBank groups channels that share one output driver and one period and
// addresses them by index, the way hardware PWM slices hand out channels.
// Device drivers written against such peripherals can drive soft channels
// through it. Like SoftPWM it does no locking.
type SoftBank struct {
	out    OutputDriver
	clock  Clock
	period uint32
	chans  []*SoftPWM
}

// NewSoftBank creates an empty bank using the default period
func NewSoftBank(out OutputDriver, clock Clock) *SoftBank {
	return &SoftBank{out: out, clock: clock, period: DefaultPeriod}
}

// SetPeriod sets the period in microseconds for channels attached
// afterwards. Zero selects the default.
func (b *SoftBank) SetPeriod(periodUS uint32) error {
	if periodUS == 0 {
		periodUS = DefaultPeriod
	}
	if periodUS > maxBankPeriod {
		return ErrPeriodRange
	}
	b.period = periodUS
	return nil
}

// Period returns the period used for new channels
func (b *SoftBank) Period() uint32 { return b.period }

// Channel attaches pin and returns its index. A pin that already has a
// channel returns the existing index.
func (b *SoftBank) Channel(pin GPIOPin) (uint8, error) {
	for i, p := range b.chans {
		if p.Pin() == pin {
			return uint8(i), nil
		}
	}
	if len(b.chans) > 0xFF {
		return 0, ErrBankFull
	}
	p := NewSoftPWM(b.out, b.clock)
	if err := p.Attach(pin, WithPeriod(b.period)); err != nil {
		return 0, err
	}
	b.chans = append(b.chans, p)
	return uint8(len(b.chans) - 1), nil
}

// Top is the value Set treats as 100% duty
func (b *SoftBank) Top() uint32 {
	return DefaultMaxRate - DefaultMinRate
}

// Set applies value (0..Top) to a channel. Zero stops the channel and
// drives it LOW at once; values above Top saturate. Unknown channels are
// ignored.
func (b *SoftBank) Set(ch uint8, value uint32) {
	p := b.PWM(ch)
	if p == nil {
		return
	}
	if value == 0 {
		p.Stop()
		return
	}
	if value > b.Top() {
		value = b.Top()
	}
	p.SetRate(uint8(value + DefaultMinRate))
}

// PWM returns the channel at index ch, or nil
func (b *SoftBank) PWM(ch uint8) *SoftPWM {
	if int(ch) >= len(b.chans) {
		return nil
	}
	return b.chans[ch]
}

// Len returns the number of attached channels
func (b *SoftBank) Len() int { return len(b.chans) }

// Poll polls every channel in index order
func (b *SoftBank) Poll() {
	for _, p := range b.chans {
		p.Poll()
	}
}

// Detach releases every channel and empties the bank
func (b *SoftBank) Detach() {
	for _, p := range b.chans {
		p.Detach()
	}
	b.chans = nil
}
