package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"health-companion/internal/domain"
)

// ChatFailureMessage is shown in place of a reply when a turn fails.
const ChatFailureMessage = "Sorry, I encountered an error. Please try again."

// speechTriggers are matched case-sensitively as plain substrings. The backend
// gives no structured "speak this" flag, so keyword matching is all we have.
var speechTriggers = []string{"emergency", "immediately"}

type ChatSender interface {
	SendChat(ctx context.Context, message string) (domain.BotReply, error)
}

// ChatView is the chat region of the UI. Typing placeholders are addressed by
// handle so that concurrent turns never remove each other's placeholder.
type ChatView interface {
	AppendBubble(sender domain.Sender, text string)
	ClearInput()
	ShowTyping(handle string)
	RemoveTyping(handle string)
}

type Speaker interface {
	Speak(text string)
}

type AssessmentEvaluator interface {
	Evaluate(ctx context.Context, a domain.RiskAssessment, source domain.AlertSource) bool
}

// ExchangeClient runs chat turns against the remote assistant.
type ExchangeClient struct {
	sender    ChatSender
	view      ChatView
	speaker   Speaker
	evaluator AssessmentEvaluator

	inflight errgroup.Group
}

func NewExchangeClient(sender ChatSender, view ChatView, speaker Speaker, evaluator AssessmentEvaluator) (*ExchangeClient, error) {
	if sender == nil {
		return nil, errors.New("usecase: chat sender must not be nil")
	}
	if view == nil {
		return nil, errors.New("usecase: chat view must not be nil")
	}
	if speaker == nil {
		return nil, errors.New("usecase: speaker must not be nil")
	}
	if evaluator == nil {
		return nil, errors.New("usecase: evaluator must not be nil")
	}
	return &ExchangeClient{sender: sender, view: view, speaker: speaker, evaluator: evaluator}, nil
}

// Submit runs one turn to completion. Blank text is rejected without touching
// the view or the network. A failed round trip is rendered as the fixed
// apology and also returned so callers can inspect it; it is never retried.
func (c *ExchangeClient) Submit(ctx context.Context, text string) (domain.ChatTurn, error) {
	message := strings.TrimSpace(text)
	if message == "" {
		return domain.ChatTurn{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	id := newTurnID()
	turn := domain.ChatTurn{
		ID:          id,
		UserText:    message,
		State:       domain.TurnComposing,
		Placeholder: "typing-" + id,
	}

	turn.State = domain.TurnSending
	c.view.AppendBubble(domain.SenderUser, message)
	c.view.ClearInput()
	c.view.ShowTyping(turn.Placeholder)

	turn.State = domain.TurnAwaitingResponse
	reply, err := c.sender.SendChat(ctx, message)
	c.view.RemoveTyping(turn.Placeholder)
	if err != nil {
		turn.State = domain.TurnFailed
		c.view.AppendBubble(domain.SenderBot, ChatFailureMessage)
		slog.Warn("chat turn failed", "turn_id", turn.ID, "err", err)
		return turn, roundTripError("chat_round_trip", err)
	}

	turn.State = domain.TurnResolved
	turn.Reply = reply.Text
	c.view.AppendBubble(domain.SenderBot, reply.Text)

	if ShouldSpeak(reply.Text) {
		c.speaker.Speak(reply.Text)
	}
	if reply.Assessment != nil {
		c.evaluator.Evaluate(ctx, *reply.Assessment, domain.AlertFromChat)
	}
	return turn, nil
}

// Go starts a turn without waiting for it. Use Wait to drain in-flight turns.
func (c *ExchangeClient) Go(ctx context.Context, text string) {
	c.inflight.Go(func() error {
		_, _ = c.Submit(ctx, text)
		return nil
	})
}

// Wait blocks until every turn started with Go has finished.
func (c *ExchangeClient) Wait() {
	_ = c.inflight.Wait()
}

// ShouldSpeak reports whether a reply mentions one of the voice triggers.
func ShouldSpeak(reply string) bool {
	for _, trigger := range speechTriggers {
		if strings.Contains(reply, trigger) {
			return true
		}
	}
	return false
}

var newTurnID = func() string {
	return uuid.NewString()
}
