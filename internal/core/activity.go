package core

import "time"

const (
	ActionTransactionCreated ActivityAction = "transaction.created"
	ActionTransactionUpdated ActivityAction = "transaction.updated"
	ActionTransactionDeleted ActivityAction = "transaction.deleted"
)

type ActivityAction string

// ActivityEvent records a change to a user's transactions. ID is unique per
// event so that redelivered messages are recorded once.
type ActivityEvent struct {
	ID            string         `json:"id"`
	Action        ActivityAction `json:"action"`
	UserID        int64          `json:"userId"`
	TransactionID int64          `json:"transactionId"`
	Amount        Money          `json:"amount"`
	Date          Date           `json:"date"`
	OccurredAt    time.Time      `json:"occurredAt"`
}
