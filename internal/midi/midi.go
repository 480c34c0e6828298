package midi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/hub"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
)

// Emitter receives translated events
type Emitter interface {
	Emit(hub.Event)
}

// CCKey returns the source key for a control change. Channels are 1-based.
func CCKey(channel, controller uint8) string {
	return fmt.Sprintf("cc:%d:%d", channel+1, controller)
}

// NoteKey returns the source key for a note
func NoteKey(channel, key uint8) string {
	return fmt.Sprintf("note:%d:%d", channel+1, key)
}

// Translate converts a MIDI message into a hub event. Only control changes
// and notes are bindable; everything else returns false.
func Translate(msg midi.Message) (hub.Event, bool) {
	var channel, key, value uint8

	switch {
	case msg.GetControlChange(&channel, &key, &value):
		return hub.Event{
			Category: binding.MidiCC,
			Key:      CCKey(channel, key),
			Value:    float64(value),
		}, true

	case msg.GetNoteOn(&channel, &key, &value):
		// Note On with velocity 0 is a release
		return hub.Event{
			Category: binding.MidiNote,
			Key:      NoteKey(channel, key),
			Value:    float64(value),
		}, true

	case msg.GetNoteOff(&channel, &key, &value):
		return hub.Event{
			Category: binding.MidiNote,
			Key:      NoteKey(channel, key),
			Value:    0,
		}, true
	}

	return hub.Event{}, false
}

// Manager handles MIDI port discovery and listening
type Manager struct {
	mu       sync.Mutex
	log      *slog.Logger
	pollRate time.Duration
	stops    map[string]func() // port name -> stop listening
	wanted   []string          // empty means every input port
}

// NewManager creates a new MIDI manager
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:      log,
		pollRate: time.Second,
		stops:    make(map[string]func()),
	}
}

// Close stops all listeners and cleans up the MIDI driver
func (m *Manager) Close() {
	m.mu.Lock()
	for name, stop := range m.stops {
		stop()
		delete(m.stops, name)
	}
	m.mu.Unlock()
	midi.CloseDriver()
}

// ListInPorts returns the names of available MIDI input ports
func (m *Manager) ListInPorts() []string {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// GetInPort returns an input port by name
func (m *Manager) GetInPort(name string) (drivers.In, error) {
	for _, in := range midi.GetInPorts() {
		if in.String() == name {
			return in, nil
		}
	}
	return nil, fmt.Errorf("input port not found: %s", name)
}

// StartListening forwards every bindable message on the named port to e
func (m *Manager) StartListening(inPortName string, e Emitter) (func(), error) {
	inPort, err := m.GetInPort(inPortName)
	if err != nil {
		return nil, err
	}

	stop, err := midi.ListenTo(inPort, func(msg midi.Message, timestampms int32) {
		ev, ok := Translate(msg)
		if !ok {
			return
		}
		ev.Meta = map[string]any{"port": inPortName, "timestamp_ms": timestampms}
		e.Emit(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start listening on %s: %w", inPortName, err)
	}

	m.log.Info("midi: listening", "port", inPortName)
	return stop, nil
}

// Listening returns the ports currently being listened to
func (m *Manager) Listening() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.stops))
	for name := range m.stops {
		out = append(out, name)
	}
	return out
}

// SetWanted changes the ports Run keeps connected. Listeners on ports that
// are no longer wanted are dropped on the next scan.
func (m *Manager) SetWanted(wanted []string) {
	m.mu.Lock()
	m.wanted = append([]string(nil), wanted...)
	m.mu.Unlock()
}

func (m *Manager) wantedPorts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wanted
}

// Run keeps the wanted ports connected until ctx is done, picking up
// devices that are plugged in later. An empty list means every input port.
func (m *Manager) Run(ctx context.Context, wanted []string, e Emitter) {
	m.SetWanted(wanted)
	ticker := time.NewTicker(m.pollRate)
	defer ticker.Stop()

	m.scan(e)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.scan(e)
		}
	}
}

func (m *Manager) scan(e Emitter) {
	// Port enumeration can hang on some platforms; skip the round if it does
	ch := make(chan []string, 1)
	go func() { ch <- m.ListInPorts() }()

	var present []string
	select {
	case present = <-ch:
	case <-time.After(3 * time.Second):
		m.log.Warn("midi: port scan timed out")
		return
	}

	wanted := m.wantedPorts()
	for _, name := range reconcile(present, wanted, m.Listening()).connect {
		stop, err := m.StartListening(name, e)
		if err != nil {
			m.log.Warn("midi: could not open port", "port", name, "err", err)
			continue
		}
		m.mu.Lock()
		m.stops[name] = stop
		m.mu.Unlock()
	}

	for _, name := range reconcile(present, wanted, m.Listening()).drop {
		m.mu.Lock()
		if stop, ok := m.stops[name]; ok {
			stop()
			delete(m.stops, name)
		}
		m.mu.Unlock()
		m.log.Info("midi: port released", "port", name)
	}
}

type plan struct {
	connect []string
	drop    []string
}

// reconcile works out which ports to open and which listeners to drop
func reconcile(present, wanted, listening []string) plan {
	want := func(name string) bool {
		if len(wanted) == 0 {
			return true
		}
		for _, w := range wanted {
			if w == name {
				return true
			}
		}
		return false
	}

	isPresent := make(map[string]bool, len(present))
	for _, p := range present {
		isPresent[p] = true
	}
	isListening := make(map[string]bool, len(listening))
	for _, l := range listening {
		isListening[l] = true
	}

	var p plan
	for _, name := range present {
		if want(name) && !isListening[name] {
			p.connect = append(p.connect, name)
		}
	}
	for _, name := range listening {
		if !isPresent[name] || !want(name) {
			p.drop = append(p.drop, name)
		}
	}
	return p
}
