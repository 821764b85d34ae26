// Package speech issues spoken notifications, one utterance at a time.
package speech

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Delivery parameters for every utterance.
const (
	DefaultRate   = 0.9
	DefaultPitch  = 1.0
	DefaultVolume = 1.0
)

// Utterance is one queued piece of speech.
type Utterance struct {
	ID     string
	Text   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer is the runtime speech capability.
type Synthesizer interface {
	// Available reports whether speech can be produced at all.
	Available() bool
	// Speak starts playing u without waiting for it to finish. done is
	// called once playback ends, naturally or by Cancel, and never from
	// inside Speak or Cancel.
	Speak(u Utterance, done func()) error
	// Cancel stops whatever is playing or queued.
	Cancel()
}

// Dispatcher is the single point that enforces at most one live utterance.
// Chat and alert components share one instance.
type Dispatcher struct {
	synth Synthesizer

	mu        sync.Mutex
	currentID string
}

// NewDispatcher returns a Dispatcher backed by synth. A nil synth behaves as a
// runtime without speech.
func NewDispatcher(synth Synthesizer) *Dispatcher {
	return &Dispatcher{synth: synth}
}

// Speak cancels any live utterance and enqueues text. It is a silent no-op
// when no speech capability exists.
func (d *Dispatcher) Speak(text string) {
	if d == nil || d.synth == nil || !d.synth.Available() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.synth.Cancel()
	d.currentID = ""

	u := Utterance{
		ID:     newUtteranceID(),
		Text:   text,
		Rate:   DefaultRate,
		Pitch:  DefaultPitch,
		Volume: DefaultVolume,
	}
	if err := d.synth.Speak(u, func() { d.finished(u.ID) }); err != nil {
		slog.Warn("speech: speak failed", "utterance_id", u.ID, "err", err)
		return
	}
	d.currentID = u.ID
}

// finished clears the live id unless a newer utterance replaced id.
func (d *Dispatcher) finished(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.currentID == id {
		d.currentID = ""
	}
}

// CurrentUtteranceID returns the id of the utterance still playing, or "" if
// none is live.
func (d *Dispatcher) CurrentUtteranceID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentID
}

// Stop cancels the live utterance, if any.
func (d *Dispatcher) Stop() {
	if d == nil || d.synth == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.synth.Cancel()
	d.currentID = ""
}

var newUtteranceID = func() string {
	return uuid.NewString()
}
