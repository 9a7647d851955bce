package bankfile

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/mc6sysex/internal/bank"
)

// Marshal renders a bank in the bank file format. Trailing display padding
// is trimmed from names; message parameters are reconstructed from their
// data bytes. For banks decoded from a device dump, loading the output and
// encoding it again yields the same frames, except for data bytes stored
// under the empty message type.
func Marshal(b *bank.Bank) ([]byte, error) {
	root, err := bankNode(b)
	if err != nil {
		return nil, err
	}

	doc := mapping()
	addPair(doc, "bank", root)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode bank: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode bank: %w", err)
	}
	return buf.Bytes(), nil
}

func bankNode(b *bank.Bank) (*yaml.Node, error) {
	presets := mapping()
	for i := range b.Presets {
		node, err := presetNode(&b.Presets[i])
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", b.Presets[i].Letter(), err)
		}
		addPair(presets, b.Presets[i].Letter(), node)
	}
	for i := range b.ExpressionPresets {
		node, err := expressionNode(&b.ExpressionPresets[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", expressionKeys[i], err)
		}
		addPair(presets, expressionKeys[i], node)
	}

	root := mapping()
	addPair(root, "name", scalar(trimName(b.Name)))
	addPair(root, "presets", presets)
	return root, nil
}

func presetNode(p *bank.Preset) (*yaml.Node, error) {
	node := mapping()
	addNames(node, p.Name, p.ToggleName, p.LongName)
	if p.ToggleMode {
		addPair(node, "toggle_mode", boolNode(true))
	}
	if p.BlinkMode {
		addPair(node, "blink_mode", boolNode(true))
	}

	if len(p.Actions) > 0 {
		actions := sequence()
		for ai, a := range p.Actions {
			action := mapping()
			addPair(action, keyType, scalar(a.Type.String()))
			msgs := sequence()
			for mi, m := range a.Messages {
				mn, err := messageNode(m)
				if err != nil {
					return nil, fmt.Errorf("action %d message %d: %w", ai+1, mi+1, err)
				}
				msgs.Content = append(msgs.Content, mn)
			}
			addPair(action, keyMessages, msgs)
			actions.Content = append(actions.Content, action)
		}
		addPair(node, "actions", actions)
	}
	return node, nil
}

func expressionNode(e *bank.ExpressionPreset) (*yaml.Node, error) {
	node := mapping()
	addNames(node, e.Name, e.ToggleName, e.LongName)

	if len(e.Messages) > 0 {
		msgs := sequence()
		for i, m := range e.Messages {
			mn, err := messageNode(m)
			if err != nil {
				return nil, fmt.Errorf("message %d: %w", i+1, err)
			}
			msgs.Content = append(msgs.Content, mn)
		}
		addPair(node, keyMessages, msgs)
	}
	return node, nil
}

// messageNode renders a message entry with its channel always explicit and
// its toggle position only when it is not the default.
func messageNode(m bank.Message) (*yaml.Node, error) {
	params, err := m.Params()
	if err != nil {
		return nil, err
	}

	value := &yaml.Node{}
	switch p := params.(type) {
	case bank.NoParams:
		value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bank.Scalar:
		value = intNode(p.Value)
	case bank.Realtime:
		value = scalar(p.Value)
	case bank.SysEx:
		value = sequence()
		value.Style = yaml.FlowStyle
		for _, v := range p.Bytes {
			value.Content = append(value.Content, intNode(v))
		}
	default:
		if err := value.Encode(p); err != nil {
			return nil, err
		}
		value.Style = yaml.FlowStyle
	}

	node := mapping()
	addPair(node, m.Type.String(), value)
	addPair(node, keyChannel, intNode(m.Channel))
	if m.Toggle != bank.TogglePosition1 {
		addPair(node, keyTogglePosition, scalar(m.Toggle.String()))
	}
	return node, nil
}

func addNames(node *yaml.Node, name, toggleName, longName string) {
	addPair(node, "name", scalar(trimName(name)))
	addPair(node, "toggle_name", scalar(trimName(toggleName)))
	if l := trimName(longName); l != "" {
		addPair(node, "long_name", scalar(l))
	}
}

func trimName(s string) string {
	return strings.TrimRight(s, " ")
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// scalar returns a string node. Strings are quoted when yaml would otherwise
// read them as another type or drop their leading spaces.
func scalar(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if s == "" || s != strings.TrimSpace(s) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", v)}
}

func boolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", v)}
}

func addPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}
