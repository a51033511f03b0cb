package relay

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ChangeEvent is one observed mutation of the transaction collection,
// published for downstream consumers (bookkeeping exports, backups).
type ChangeEvent struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Caption   string    `json:"caption,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Observed  time.Time `json:"observed"`
}

func newChangeEvent(op string, tx core.Transaction, observed time.Time) ChangeEvent {
	ev := ChangeEvent{
		Op:       op,
		ID:       tx.ID,
		Observed: observed,
	}
	if op != OpDeleted {
		ev.Caption = tx.Caption
		ev.Amount = tx.Amount
		ev.Type = string(tx.Type)
		if !tx.CreatedAt.Pending() {
			ev.CreatedAt = tx.CreatedAt.Time
		}
	}
	return ev
}

func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}
