package bankfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/mc6sysex/internal/bank"
	"github.com/muurk/mc6sysex/internal/protocol"
)

// Load reads a bank file holding a single bank. For files with a banks
// list, the first bank is returned.
func Load(r io.Reader) (*bank.Bank, error) {
	banks, err := LoadAll(r)
	if err != nil {
		return nil, err
	}
	return banks[0], nil
}

// LoadFile opens and loads a bank file.
func LoadFile(path string) (*bank.Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bank file: %w", err)
	}
	defer f.Close()

	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// LoadAll reads every bank in a file, in document order.
func LoadAll(r io.Reader) ([]*bank.Bank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, protocol.NewValidationError("bank file is empty")
		}
		return nil, fmt.Errorf("failed to parse bank file: %w", err)
	}

	var docs []bankDoc
	if doc.Bank != nil {
		docs = append(docs, *doc.Bank)
	}
	docs = append(docs, doc.Banks...)
	if len(docs) == 0 {
		return nil, protocol.NewValidationError("bank file has no 'bank' or 'banks' entry")
	}

	banks := make([]*bank.Bank, 0, len(docs))
	for i, d := range docs {
		b, err := d.toBank()
		if err != nil {
			if len(docs) > 1 {
				return nil, fmt.Errorf("bank %d: %w", i+1, err)
			}
			return nil, err
		}
		banks = append(banks, b)
	}
	return banks, nil
}

func (d bankDoc) toBank() (*bank.Bank, error) {
	b := bank.NewBank(d.Name)

	presetKeys := make(map[int]string)
	expressionKeysSeen := make(map[int]string)
	for key, pd := range d.Presets {
		if id, ok := bank.PresetIndex(key); ok {
			if prev, dup := presetKeys[id]; dup {
				return nil, duplicateKeyError(prev, key)
			}
			presetKeys[id] = key
			if len(pd.Messages) > 0 {
				return nil, protocol.NewValidationError(fmt.Sprintf("preset %s: footswitch presets take actions, not messages", key))
			}
			if err := pd.applyPreset(&b.Presets[id]); err != nil {
				return nil, fmt.Errorf("preset %s: %w", key, err)
			}
			continue
		}
		if id, ok := expressionIndex(key); ok {
			if prev, dup := expressionKeysSeen[id]; dup {
				return nil, duplicateKeyError(prev, key)
			}
			expressionKeysSeen[id] = key
			if len(pd.Actions) > 0 || pd.ToggleMode || pd.BlinkMode {
				return nil, protocol.NewValidationError(fmt.Sprintf("%s: expression presets take messages only", key))
			}
			if err := pd.applyExpression(&b.ExpressionPresets[id]); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		return nil, protocol.NewValidationError(fmt.Sprintf("unknown preset key %q (expected A-L, expression1 or expression2)", key))
	}

	return b, nil
}

// duplicateKeyError names two preset keys in sorted order so the message
// does not depend on map iteration.
func duplicateKeyError(a, b string) error {
	if b < a {
		a, b = b, a
	}
	return protocol.NewValidationError(fmt.Sprintf("preset keys %q and %q name the same preset", a, b))
}

func expressionIndex(key string) (int, bool) {
	for i, k := range expressionKeys {
		if strings.EqualFold(k, key) {
			return i, true
		}
	}
	return 0, false
}

func (pd presetDoc) applyNames(name, toggleName, longName *string) {
	if pd.Name != nil {
		*name = *pd.Name
	}
	if pd.ToggleName != nil {
		*toggleName = *pd.ToggleName
	}
	if pd.LongName != nil {
		*longName = *pd.LongName
	}
}

func (pd presetDoc) applyPreset(p *bank.Preset) error {
	pd.applyNames(&p.Name, &p.ToggleName, &p.LongName)
	p.ToggleMode = pd.ToggleMode
	p.BlinkMode = pd.BlinkMode

	for i, ad := range pd.Actions {
		action, err := ad.toAction()
		if err != nil {
			return fmt.Errorf("action %d: %w", i+1, err)
		}
		p.Actions = append(p.Actions, action)
	}
	return nil
}

func (pd presetDoc) applyExpression(e *bank.ExpressionPreset) error {
	pd.applyNames(&e.Name, &e.ToggleName, &e.LongName)

	for i, md := range pd.Messages {
		if !md.Type.IsExpression() && md.Type != bank.MessageEmpty {
			return protocol.NewUnknownMessageTypeError(fmt.Sprintf("message %d: %s is not an expression message type", i+1, md.Type))
		}
		msg, err := md.toMessage(0)
		if err != nil {
			return fmt.Errorf("message %d: %w", i+1, err)
		}
		e.Messages = append(e.Messages, msg)
	}
	return nil
}

// toAction builds the action's messages: inline messages first, then the
// messages list. Inline messages take the action's toggle default.
func (ad actionDoc) toAction() (bank.Action, error) {
	t, err := bank.ParseActionType(ad.Type)
	if err != nil {
		return bank.Action{}, err
	}
	action := bank.Action{Type: t}

	all := append(append([]messageDoc{}, ad.Inline...), ad.Messages...)
	for i, md := range all {
		if md.Type.IsExpression() {
			return bank.Action{}, protocol.NewUnknownMessageTypeError(fmt.Sprintf("message %d: %s is only valid in expression presets", i+1, md.Type))
		}
		msg, err := md.toMessage(ad.Channel)
		if err != nil {
			return bank.Action{}, fmt.Errorf("message %d: %w", i+1, err)
		}
		action.Messages = append(action.Messages, msg)
	}
	return action, nil
}

// toMessage resolves the channel (value mapping, then message entry, then
// container) and builds the wire message.
func (md messageDoc) toMessage(containerChannel int) (bank.Message, error) {
	params, inner, err := decodeParams(md.Type, md.Value)
	if err != nil {
		return bank.Message{}, err
	}

	channel := md.Channel
	if inner != 0 {
		channel = inner
	}
	return bank.BuildMessage(md.Type, params, bank.ResolveChannel(channel, containerChannel), md.Toggle)
}

// decodeParams decodes the value under a message type key. Mapping values
// may also carry a channel, which is returned separately.
func decodeParams(t bank.MessageType, node *yaml.Node) (bank.Params, int, error) {
	var channel int
	if node != nil && node.Kind == yaml.MappingNode {
		var c struct {
			Channel int `yaml:"channel"`
		}
		if err := node.Decode(&c); err != nil {
			return nil, 0, err
		}
		channel = c.Channel
	}

	var (
		p   bank.Params
		err error
	)
	switch t {
	case bank.MessageControlChange:
		p, err = decodeMapping[bank.ControlChange](t, node)
	case bank.MessageNoteOn, bank.MessageNoteOff:
		p, err = decodeMapping[bank.Note](t, node)
	case bank.MessageMidiClock:
		p, err = decodeMapping[bank.MidiClock](t, node)
	case bank.MessagePCScrollUp, bank.MessagePCScrollDown:
		p, err = decodeMapping[bank.PCScroll](t, node)
	case bank.MessageExpressionCC:
		p, err = decodeMapping[bank.ExpressionCC](t, node)
	case bank.MessageCCToeDown, bank.MessageCCHeelDown:
		p, err = decodeMapping[bank.PedalCC](t, node)
	case bank.MessageToeDownToggleChannel:
		p, err = decodeMapping[bank.ToggleChannel](t, node)
	case bank.MessageToeDownToggleCC:
		p, err = decodeMapping[bank.ToggleCC](t, node)

	case bank.MessageSysex:
		var data []int
		if node == nil || node.Kind != yaml.SequenceNode {
			return nil, 0, valueError(t, node, "a list of bytes")
		}
		if err := node.Decode(&data); err != nil {
			return nil, 0, err
		}
		p = bank.SysEx{Bytes: data}

	case bank.MessageRealtime:
		if node == nil || node.Kind != yaml.ScalarNode {
			return nil, 0, valueError(t, node, "one of "+strings.Join(bank.RealtimeValues, ", "))
		}
		p = bank.Realtime{Value: node.Value}

	case bank.MessageEmpty, bank.MessageMidiClockTap:
		p = bank.NoParams{}

	default:
		var v int
		if node == nil || node.Kind != yaml.ScalarNode {
			return nil, 0, valueError(t, node, "a number")
		}
		if err := node.Decode(&v); err != nil {
			return nil, 0, valueError(t, node, "a number")
		}
		p = bank.Scalar{Value: v}
	}
	if err != nil {
		return nil, 0, err
	}
	return p, channel, nil
}

func decodeMapping[T bank.Params](t bank.MessageType, node *yaml.Node) (bank.Params, error) {
	var v T
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, valueError(t, node, "a mapping")
	}
	known := yamlKeys(reflect.TypeOf(v))
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Value != "channel" && !known[key.Value] {
			return nil, nodeError(key, fmt.Sprintf("%s: unknown field %q (expected %s)", t, key.Value, strings.Join(sortedKeys(known), ", ")))
		}
	}
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// yamlKeys returns the mapping keys a params struct decodes.
func yamlKeys(rt reflect.Type) map[string]bool {
	keys := make(map[string]bool, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		keys[name] = true
	}
	return keys
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m)+1)
	for k := range m {
		out = append(out, k)
	}
	out = append(out, "channel")
	sort.Strings(out)
	return out
}

func valueError(t bank.MessageType, node *yaml.Node, want string) error {
	line := 0
	if node != nil {
		line = node.Line
	}
	return protocol.NewValidationError(fmt.Sprintf("line %d: %s value must be %s", line, t, want))
}
