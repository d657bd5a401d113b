package models

// UserBalance is the currency ledger row. The ledger shares the database with
// the subscription store but has no dependency on the notification pipeline.
type UserBalance struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}
