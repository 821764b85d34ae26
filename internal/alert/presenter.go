package alert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"health-companion/internal/domain"
)

// Fixed overlay copy.
const (
	Headline        = "EMERGENCY DETECTED"
	Subheading      = "DO NOT WASTE TIME"
	OverlayMessage  = "Your medical report indicates a critical health risk. Immediate medical attention is required."
	CanonicalPhrase = "Emergency detected. Your health report shows critical values. Please seek immediate medical attention."
)

// View is everything an overlay needs to draw one emergency alert.
type View struct {
	Score             int
	Headline          string
	Subheading        string
	Message           string
	HospitalSearchURL string
	Contacts          []Contact
}

// Overlay is the presentation sink for the emergency alert.
type Overlay interface {
	ShowOverlay(v View)
	RemoveOverlay()
	SetScrollLocked(locked bool)
}

// Speaker is the shared voice dispatcher.
type Speaker interface {
	Speak(text string)
}

// Journal records shown alerts. It is optional.
type Journal interface {
	SaveRaisedAlert(ctx context.Context, clientID string, score int, source domain.AlertSource, filenames []string) (domain.AlertRecord, error)
	AcknowledgeAlert(ctx context.Context, rec domain.AlertRecord, at time.Time) error
}

// Presenter owns the process-wide alert state: at most one overlay is
// visible, and a new escalation replaces the old overlay.
type Presenter struct {
	overlay  Overlay
	speaker  Speaker
	journal  Journal
	clientID string
	now      func() time.Time

	mu      sync.Mutex
	visible bool
	score   int
	gen     int
	record  *domain.AlertRecord
}

type Option func(*Presenter)

// WithJournal records every shown alert under clientID.
func WithJournal(j Journal, clientID string) Option {
	return func(p *Presenter) {
		p.journal = j
		p.clientID = clientID
	}
}

func NewPresenter(overlay Overlay, speaker Speaker, opts ...Option) (*Presenter, error) {
	if overlay == nil {
		return nil, errors.New("alert: overlay must not be nil")
	}
	if speaker == nil {
		return nil, errors.New("alert: speaker must not be nil")
	}
	p := &Presenter{overlay: overlay, speaker: speaker, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Evaluate escalates a single assessment if it is critical.
func (p *Presenter) Evaluate(ctx context.Context, a domain.RiskAssessment, source domain.AlertSource) bool {
	if !IsCritical(a) {
		return false
	}
	p.Escalate(ctx, a.Score, source, nil)
	return true
}

// EvaluateBatch escalates once with the batch maximum when any report is critical.
func (p *Presenter) EvaluateBatch(ctx context.Context, batch domain.Batch) bool {
	score, fire := BatchEscalation(batch.Assessments())
	if !fire {
		return false
	}
	files := make([]string, 0, len(batch.Reports))
	for _, r := range batch.Reports {
		files = append(files, r.Filename)
	}
	p.Escalate(ctx, score, domain.AlertFromBatch, files)
	return true
}

// Escalate shows the emergency overlay for score, removing any visible one
// first, locks background scroll and speaks the canonical phrase.
func (p *Presenter) Escalate(ctx context.Context, score int, source domain.AlertSource, filenames []string) {
	p.mu.Lock()
	if p.visible {
		p.overlay.RemoveOverlay()
	}
	p.overlay.ShowOverlay(View{
		Score:             score,
		Headline:          Headline,
		Subheading:        Subheading,
		Message:           OverlayMessage,
		HospitalSearchURL: HospitalSearchURL,
		Contacts:          EmergencyContacts(),
	})
	p.overlay.SetScrollLocked(true)
	p.visible = true
	p.score = score
	p.gen++
	gen := p.gen
	p.record = nil
	p.mu.Unlock()

	p.speaker.Speak(CanonicalPhrase)
	p.journalRaise(ctx, gen, score, source, filenames)
}

// Dismiss removes the overlay after the user acknowledges it and restores
// scrolling. It returns false when no overlay was visible.
func (p *Presenter) Dismiss(ctx context.Context) bool {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return false
	}
	p.overlay.RemoveOverlay()
	p.overlay.SetScrollLocked(false)
	p.visible = false
	rec := p.record
	p.record = nil
	p.mu.Unlock()

	if p.journal != nil && rec != nil {
		if err := p.journal.AcknowledgeAlert(ctx, *rec, p.now()); err != nil {
			slog.Warn("alert: acknowledge journal entry failed", "alert_id", rec.ID, "err", err)
		}
	}
	return true
}

// Visible reports whether an overlay is showing and the score it carries.
func (p *Presenter) Visible() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score, p.visible
}

func (p *Presenter) journalRaise(ctx context.Context, gen, score int, source domain.AlertSource, filenames []string) {
	if p.journal == nil {
		return
	}
	rec, err := p.journal.SaveRaisedAlert(ctx, p.clientID, score, source, filenames)
	if err != nil {
		slog.Warn("alert: journal write failed", "score", score, "source", source, "err", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// A newer alert may have replaced this one while the write was in flight.
	if p.visible && p.gen == gen {
		p.record = &rec
	}
}
