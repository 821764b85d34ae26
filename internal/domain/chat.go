package domain

// TurnState is the lifecycle position of a single chat turn.
type TurnState string

const (
	TurnComposing        TurnState = "composing"
	TurnSending          TurnState = "sending"
	TurnAwaitingResponse TurnState = "awaiting_response"
	TurnResolved         TurnState = "resolved"
	TurnFailed           TurnState = "failed"
)

// Sender identifies who a chat bubble belongs to.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatTurn is one user message and its eventual reply. A turn is owned by the
// call that created it and is discarded once rendered.
type ChatTurn struct {
	ID          string
	UserText    string
	State       TurnState
	Placeholder string
	Reply       string
}

// Done reports whether the turn reached a terminal state.
func (t ChatTurn) Done() bool {
	return t.State == TurnResolved || t.State == TurnFailed
}

// BotReply is the remote collaborator's answer to a chat message. Assessment is
// set only when the collaborator attached a risk level and score to the reply.
type BotReply struct {
	Text       string
	Assessment *RiskAssessment
}
