package domain

import "time"

// Task is the remote task record a dispute references. Only the fields this
// layer reads are decoded.
type Task struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
}

// EscrowSnapshot is the read-only external ledger record tied to a task. It
// names the client and the freelancer counter-party; amounts move only in
// systems outside this core.
type EscrowSnapshot struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	ClientID     int64     `json:"client_id"`
	FreelancerID int64     `json:"freelancer_id"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the slice of the remote profile record used for name display.
type Profile struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
