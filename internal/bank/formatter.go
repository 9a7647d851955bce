package bank

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the bank
func (b *Bank) Summary() string {
	used := 0
	messages := 0
	for i := range b.Presets {
		if n := b.Presets[i].MessageCount(); n > 0 {
			used++
			messages += n
		}
	}
	return fmt.Sprintf("Bank %q: %d/%d presets configured, %d messages", strings.TrimRight(b.Name, " "), used, NumPresets, messages)
}

// FormatPreset returns a multi-line description of one preset
func (p *Preset) FormatPreset() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Preset %s: %q / %q", p.Letter(), p.Name, p.ToggleName)
	if strings.TrimSpace(p.LongName) != "" {
		fmt.Fprintf(&b, " (%s)", strings.TrimRight(p.LongName, " "))
	}
	var flags []string
	if p.ToggleMode {
		flags = append(flags, "toggle")
	}
	if p.BlinkMode {
		flags = append(flags, "blink")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
	}
	b.WriteString("\n")

	for _, a := range p.Actions {
		fmt.Fprintf(&b, "  %s:\n", a.Type)
		for _, m := range a.Messages {
			fmt.Fprintf(&b, "    %s\n", FormatMessage(m))
		}
	}
	return b.String()
}

// FormatExpressionPreset returns a multi-line description of one expression preset
func (e *ExpressionPreset) FormatExpressionPreset() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Expression %d: %q / %q\n", e.ID+1, e.Name, e.ToggleName)
	for _, m := range e.Messages {
		fmt.Fprintf(&b, "    %s\n", FormatMessage(m))
	}
	return b.String()
}

// FormatMessage renders a message with its typed parameters when they can
// be reconstructed, and raw data bytes otherwise.
func FormatMessage(m Message) string {
	toggle := ""
	if m.Toggle != TogglePosition1 {
		toggle = fmt.Sprintf(" toggle=%s", m.Toggle)
	}

	p, err := m.Params()
	if err != nil {
		return fmt.Sprintf("%-24s ch=%-2d data=%d/%d/%d%s", m.Type, m.Channel, m.Data1, m.Data2, m.Data3, toggle)
	}
	return fmt.Sprintf("%-24s ch=%-2d %s%s", m.Type, m.Channel, formatParams(p), toggle)
}

func formatParams(p Params) string {
	switch v := p.(type) {
	case ControlChange:
		return fmt.Sprintf("number=%d value=%d", v.Number, v.Value)
	case Note:
		return fmt.Sprintf("number=%d velocity=%d", v.Number, v.Velocity)
	case SysEx:
		parts := make([]string, len(v.Bytes))
		for i, x := range v.Bytes {
			parts[i] = fmt.Sprintf("%02X", x)
		}
		return "bytes=[" + strings.Join(parts, " ") + "]"
	case Realtime:
		return "value=" + v.Value
	case MidiClock:
		return fmt.Sprintf("bpm=%d tap_menu=%v", v.BPM, v.TapMenu)
	case PCScroll:
		if v.Increment {
			return fmt.Sprintf("slot=%d increment lower=%d upper=%d", v.Slot, v.LowerLimit, v.UpperLimit)
		}
		return fmt.Sprintf("lower=%d upper=%d", v.LowerLimit, v.UpperLimit)
	case ExpressionCC:
		return fmt.Sprintf("number=%d min=%d max=%d", v.Number, v.Min, v.Max)
	case PedalCC:
		return fmt.Sprintf("number=%d value=%d", v.Number, v.Value)
	case ToggleChannel:
		return fmt.Sprintf("number=%d channel1=%d channel2=%d", v.Number, v.Channel1, v.Channel2)
	case ToggleCC:
		return fmt.Sprintf("number=%d cc1=%d cc2=%d", v.Number, v.CC1, v.CC2)
	case Scalar:
		return fmt.Sprintf("value=%d", v.Value)
	default:
		return ""
	}
}

// FormatDetailed returns every configured preset and expression preset.
// Presets without messages are listed by name only.
func (b *Bank) FormatDetailed() string {
	var out strings.Builder

	out.WriteString("=== " + b.Summary() + " ===\n\n")
	for i := range b.Presets {
		p := &b.Presets[i]
		if len(p.Actions) == 0 {
			fmt.Fprintf(&out, "Preset %s: %q (empty)\n", p.Letter(), p.Name)
			continue
		}
		out.WriteString(p.FormatPreset())
	}
	out.WriteString("\n")
	for i := range b.ExpressionPresets {
		out.WriteString(b.ExpressionPresets[i].FormatExpressionPreset())
	}
	return out.String()
}
