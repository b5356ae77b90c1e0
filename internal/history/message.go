package history

import "time"

// Submission is one persisted message row.
type Submission struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"uuid"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}
