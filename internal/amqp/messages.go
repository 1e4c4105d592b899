package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reasons a statement recompute was requested.
const (
	ReasonConsumptionCreated = "consumption_created"
	ReasonConsumptionUpdated = "consumption_updated"
	ReasonConsumptionDeleted = "consumption_deleted"
	ReasonReconcile          = "reconcile"
)

// StatementRecomputeMessage asks the worker to rebuild one statement from
// its consumptions. It carries only the statement key; the worker reads the
// current consumptions from the store, so redelivery is harmless.
type StatementRecomputeMessage struct {
	CardID           string    `json:"card_id"`
	ClosingYearMonth string    `json:"closing_year_month"`
	Reason           string    `json:"reason"`
	Timestamp        time.Time `json:"timestamp"`
}

// NewStatementRecomputeMessage creates a recompute message stamped now
func NewStatementRecomputeMessage(cardID, closingYM, reason string) *StatementRecomputeMessage {
	return &StatementRecomputeMessage{
		CardID:           cardID,
		ClosingYearMonth: closingYM,
		Reason:           reason,
		Timestamp:        time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StatementRecomputeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatementRecomputeMessageFromJSON decodes and validates a message
func StatementRecomputeMessageFromJSON(data []byte) (*StatementRecomputeMessage, error) {
	var msg StatementRecomputeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.CardID == "" || msg.ClosingYearMonth == "" {
		return nil, fmt.Errorf("recompute message missing card or month")
	}
	return &msg, nil
}
