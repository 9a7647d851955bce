package bankfile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/muurk/mc6sysex/internal/bank"
	"github.com/muurk/mc6sysex/internal/protocol"
)

// Reserved keys in action and message mappings
const (
	keyType           = "type"
	keyChannel        = "channel"
	keyMessages       = "messages"
	keyTogglePosition = "toggle_position"
)

// Expression preset keys in the presets mapping
var expressionKeys = [bank.NumExpressionPresets]string{"expression1", "expression2"}

// document is the top level of a bank file. It holds either one bank or a
// list of banks.
type document struct {
	Bank  *bankDoc  `yaml:"bank"`
	Banks []bankDoc `yaml:"banks"`
}

type bankDoc struct {
	Name    string               `yaml:"name"`
	Presets map[string]presetDoc `yaml:"presets,omitempty"`
}

// presetDoc covers both footswitch presets (actions) and expression presets
// (messages). Names are pointers so a missing key keeps the device default.
type presetDoc struct {
	Name       *string      `yaml:"name,omitempty"`
	ToggleName *string      `yaml:"toggle_name,omitempty"`
	LongName   *string      `yaml:"long_name,omitempty"`
	ToggleMode bool         `yaml:"toggle_mode,omitempty"`
	BlinkMode  bool         `yaml:"blink_mode,omitempty"`
	Actions    []actionDoc  `yaml:"actions,omitempty"`
	Messages   []messageDoc `yaml:"messages,omitempty"`
}

// actionDoc is an action mapping: a type, an optional channel, any number
// of inline messages keyed by message type, and an optional messages list.
type actionDoc struct {
	Type     string
	Channel  int
	Inline   []messageDoc
	Messages []messageDoc
}

// messageDoc is one message: the message type key with its value, plus an
// optional channel and toggle position.
type messageDoc struct {
	Type    bank.MessageType
	Value   *yaml.Node
	Channel int
	Toggle  bank.ToggleMode
}

// UnmarshalYAML decodes an action mapping. Keys that are neither reserved
// nor message type names are rejected.
func (a *actionDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return nodeError(node, "action must be a mapping")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case keyType:
			if err := value.Decode(&a.Type); err != nil {
				return err
			}
		case keyChannel:
			if err := value.Decode(&a.Channel); err != nil {
				return err
			}
		case keyMessages:
			if err := value.Decode(&a.Messages); err != nil {
				return err
			}
		default:
			t, err := bank.ParseMessageType(key.Value)
			if err != nil {
				return nodeError(key, fmt.Sprintf("unknown action key %q", key.Value))
			}
			a.Inline = append(a.Inline, messageDoc{Type: t, Value: value})
		}
	}

	if a.Type == "" {
		return nodeError(node, "action does not have a type")
	}
	return nil
}

// UnmarshalYAML decodes a message mapping. Exactly one message type key
// is required.
func (m *messageDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return nodeError(node, "message must be a mapping")
	}

	found := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case keyChannel:
			if err := value.Decode(&m.Channel); err != nil {
				return err
			}
		case keyTogglePosition:
			toggle, err := bank.ParseToggleMode(value.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", value.Line, err)
			}
			m.Toggle = toggle
		default:
			t, err := bank.ParseMessageType(key.Value)
			if err != nil {
				return nodeError(key, fmt.Sprintf("unknown message key %q", key.Value))
			}
			if found {
				return nodeError(key, fmt.Sprintf("message has more than one type (%s and %s)", m.Type, t))
			}
			m.Type = t
			m.Value = value
			found = true
		}
	}

	if !found {
		return nodeError(node, "message does not have a message type key")
	}
	return nil
}

func nodeError(node *yaml.Node, msg string) error {
	return protocol.NewValidationError(fmt.Sprintf("line %d: %s", node.Line, msg))
}
