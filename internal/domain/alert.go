package domain

import "time"

// AlertSource names the component that raised an emergency alert.
type AlertSource string

const (
	AlertFromChat  AlertSource = "chat"
	AlertFromBatch AlertSource = "batch"
)

// AlertRecord is a journal entry for one shown emergency overlay.
type AlertRecord struct {
	PK             string
	SK             string
	ID             string
	ClientID       string
	Score          int
	Source         AlertSource
	Filenames      []string
	RaisedAt       time.Time
	AcknowledgedAt *time.Time
	TTL            int64
}
