package bank

import (
	"fmt"
	"strings"
)

// Default display names used by the device for unconfigured presets
const (
	DefaultPresetName     = " EMPTY"
	DefaultExpressionName = " EXPRN"
)

// Bank is the full configuration of one device memory bank.
// Preset and expression preset counts are fixed by the device.
type Bank struct {
	Name              string
	Presets           [NumPresets]Preset
	ExpressionPresets [NumExpressionPresets]ExpressionPreset
}

// Preset is one footswitch: display names, flags and up to MaxMessages
// messages grouped into actions.
type Preset struct {
	ID         int // 0-based, shown on the device as 'A'+ID
	Name       string
	ToggleName string
	LongName   string
	ToggleMode bool
	BlinkMode  bool
	Actions    []Action
}

// ExpressionPreset configures one expression pedal input. Its messages are
// not grouped into actions.
type ExpressionPreset struct {
	ID         int
	Name       string
	ToggleName string
	LongName   string
	Messages   []Message
}

// Action binds messages to a trigger.
type Action struct {
	Type     ActionType
	Messages []Message
}

// Message is one output event in its wire form: the meaning of the three
// data bytes depends on Type (see BuildMessage and Message.Params).
type Message struct {
	Type    MessageType
	Channel int // 1-16
	Toggle  ToggleMode
	Data1   byte
	Data2   byte
	Data3   byte
}

// NewBank creates a bank with every preset in its default, empty state.
func NewBank(name string) *Bank {
	b := &Bank{Name: name}
	for i := range b.Presets {
		b.Presets[i] = Preset{
			ID:         i,
			Name:       DefaultPresetName,
			ToggleName: DefaultPresetName,
		}
	}
	for i := range b.ExpressionPresets {
		b.ExpressionPresets[i] = ExpressionPreset{
			ID:         i,
			Name:       DefaultExpressionName,
			ToggleName: DefaultExpressionName,
		}
	}
	return b
}

// Letter returns the footswitch letter for a preset ID.
func Letter(id int) string {
	return string(rune('A' + id))
}

// PresetIndex maps a footswitch letter ("A".."L") to a preset ID.
func PresetIndex(letter string) (int, bool) {
	if len(letter) != 1 {
		return 0, false
	}
	id := int(strings.ToUpper(letter)[0]) - 'A'
	if id < 0 || id >= NumPresets {
		return 0, false
	}
	return id, true
}

// Letter returns the footswitch letter of the preset.
func (p *Preset) Letter() string {
	return Letter(p.ID)
}

// MessageCount returns the number of slots the preset's actions occupy.
func (p *Preset) MessageCount() int {
	n := 0
	for _, a := range p.Actions {
		n += len(a.Messages)
	}
	return n
}

// IsEmpty reports whether the message carries nothing (type empty).
func (m Message) IsEmpty() bool {
	return m.Type == MessageEmpty
}

// String returns a compact representation of the message
func (m Message) String() string {
	return fmt.Sprintf("%s{ch=%d, data=%d/%d/%d, toggle=%s}",
		m.Type, m.Channel, m.Data1, m.Data2, m.Data3, m.Toggle)
}
