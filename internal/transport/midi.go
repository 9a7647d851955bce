package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/muurk/mc6sysex/internal/logging"
	"github.com/muurk/mc6sysex/internal/protocol"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
	"go.uber.org/zap"
)

// DefaultDeviceName is the port name prefix the MC6 Mk2 registers under.
const DefaultDeviceName = "Morningstar MC6MK2"

// MIDIConfig selects the ports a MIDIPort opens.
type MIDIConfig struct {
	// DeviceName is the output port name. Empty selects a port starting with
	// DefaultDeviceName, or the only port present.
	DeviceName string

	// InputName is the input port name used by Receive. Empty uses the
	// same rules as DeviceName.
	InputName string

	// Listen opens the input port. Without it Receive returns ErrClosed.
	Listen bool

	// FrameDelay is the pause between consecutive frames of one Send.
	FrameDelay time.Duration

	// Progress, when set, is called after each frame is sent.
	Progress ProgressFunc
}

// Ports lists the MIDI ports known to the driver.
type Ports struct {
	Inputs  []string
	Outputs []string
}

// ListPorts returns the names of all MIDI input and output ports.
func ListPorts() Ports {
	var ports Ports
	for _, in := range midi.GetInPorts() {
		ports.Inputs = append(ports.Inputs, in.String())
	}
	for _, out := range midi.GetOutPorts() {
		ports.Outputs = append(ports.Outputs, out.String())
	}
	return ports
}

// CloseDriver releases the MIDI driver. Call once when the process is done with MIDI.
func CloseDriver() {
	midi.CloseDriver()
}

// MIDIPort sends and receives sysex frames over a local MIDI connection.
type MIDIPort struct {
	config MIDIConfig
	name   string
	out    drivers.Out
	in     drivers.In
	send   func(midi.Message) error

	frames chan []byte
	stop   func()

	mu        sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

// OpenMIDI opens the output port selected by config and, when config.Listen
// is set, starts listening for sysex on the matching input port.
func OpenMIDI(config MIDIConfig) (*MIDIPort, error) {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}

	idx, err := matchPort(names, config.DeviceName)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	out := outs[idx]

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open output port %q: %w", out.String(), err)
	}

	p := &MIDIPort{
		config: config,
		name:   out.String(),
		out:    out,
		send:   send,
		frames: make(chan []byte, receiveBuffer),
		closed: make(chan struct{}),
	}

	logging.Info("Opened MIDI output", zap.String("port", out.String()))

	if config.Listen {
		if err := p.listen(); err != nil {
			_ = out.Close()
			return nil, err
		}
	}

	return p, nil
}

func (p *MIDIPort) listen() error {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}

	want := p.config.InputName
	if want == "" {
		want = p.config.DeviceName
	}
	idx, err := matchPort(names, want)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	in := ins[idx]

	stop, err := midi.ListenTo(in, p.onMessage, midi.UseSysEx())
	if err != nil {
		return fmt.Errorf("failed to start listening on %q: %w", in.String(), err)
	}

	p.in = in
	p.stop = stop
	logging.Info("Listening on MIDI input", zap.String("port", in.String()))
	return nil
}

func (p *MIDIPort) onMessage(msg midi.Message, timestampms int32) {
	var data []byte
	if !msg.GetSysEx(&data) {
		return
	}

	frame := make([]byte, 0, len(data)+2)
	frame = append(frame, protocol.SysexStart)
	frame = append(frame, data...)
	frame = append(frame, protocol.SysexEnd)

	logging.LogFrame(logging.DirectionIn, frame)

	select {
	case p.frames <- frame:
	default:
		logging.Warn("Receive buffer full, dropping frame", zap.Int("length", len(frame)))
	}
}

// Name returns the output port name.
func (p *MIDIPort) Name() string {
	return p.name
}

// Send validates every frame, then writes each as one sysex message,
// pausing FrameDelay between frames.
func (p *MIDIPort) Send(ctx context.Context, frames [][]byte) error {
	for i, frame := range frames {
		if _, err := protocol.ParseFrame(frame); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i, frame := range frames {
		select {
		case <-p.closed:
			return ErrClosed
		default:
		}

		if i > 0 {
			if err := pause(ctx, p.config.FrameDelay); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		logging.LogFrame(logging.DirectionOut, frame)
		if err := p.send(midi.SysEx(frame[1 : len(frame)-1])); err != nil {
			return fmt.Errorf("failed to send frame %d to %q: %w", i+1, p.name, err)
		}
		p.config.Progress.report(i+1, len(frames))
	}

	logging.Info("Sent frames over MIDI",
		zap.String("port", p.name),
		zap.Int("frames", len(frames)),
	)
	return nil
}

// Receive returns the next sysex frame from the input port.
func (p *MIDIPort) Receive(ctx context.Context) ([]byte, error) {
	if p.in == nil {
		return nil, ErrClosed
	}
	select {
	case frame := <-p.frames:
		return frame, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops listening and closes the ports.
func (p *MIDIPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		if p.stop != nil {
			p.stop()
		}
		if p.in != nil {
			if cerr := p.in.Close(); cerr != nil {
				err = cerr
			}
		}
		if cerr := p.out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

// matchPort picks a port by exact name. Without a name it takes the first
// port starting with DefaultDeviceName, then a solitary port.
func matchPort(names []string, want string) (int, error) {
	if len(names) == 0 {
		return -1, fmt.Errorf("%w: no MIDI ports available", ErrNoPort)
	}

	if want != "" {
		for i, name := range names {
			if name == want {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %q is not available (available: %s)",
			ErrNoPort, want, strings.Join(names, ", "))
	}

	for i, name := range names {
		if strings.HasPrefix(name, DefaultDeviceName) {
			return i, nil
		}
	}
	if len(names) == 1 {
		return 0, nil
	}

	return -1, fmt.Errorf("%w: found %d ports but none named %q, specify one of: %s",
		ErrNoPort, len(names), DefaultDeviceName, strings.Join(names, ", "))
}
