package outbox

import (
	"encoding/json"
	"time"

	"github.com/erp-period-closing/internal/domain/closing"
	"github.com/erp-period-closing/internal/domain/shared"
	"github.com/google/uuid"
)

// Message carries a committed close run to the audit log publisher
type Message struct {
	ID            int64               `json:"id"`
	RunID         uuid.UUID           `json:"run_id"`
	PeriodID      uuid.UUID           `json:"period_id"`
	EventType     shared.EventType    `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(run *closing.CloseRun) (*Message, error) {
	payload, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}

	return &Message{
		RunID:     run.RunID,
		PeriodID:  run.PeriodID,
		EventType: run.EventType(),
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetCloseRun decodes the close run carried in the payload
func (m *Message) GetCloseRun() (*closing.CloseRun, error) {
	var run closing.CloseRun
	if err := json.Unmarshal(m.Payload, &run); err != nil {
		return nil, err
	}
	return &run, nil
}
