package domain

import "time"

// DisputeStatus enumerates arbitration states. Resolved is terminal.
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusAssigned DisputeStatus = "assigned"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// Dispute is a task-scoped arbitration thread. AssignedAdmin is set only in
// assigned or resolved, Resolution only in resolved; transitions go through
// Assign and Resolve so the combinations stay valid.
type Dispute struct {
	ID     int64
	TaskID int64
	// OpenedBy is the participant who raised the dispute. ClientID and
	// FreelancerID snapshot the task participants at creation time, taken
	// from the task record and the escrow counter-party, so access checks
	// and listings work without a remote round trip.
	OpenedBy      int64
	ClientID      int64
	FreelancerID  int64
	Status        DisputeStatus
	AssignedAdmin *int64
	Resolution    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Assign moves the dispute from open to assigned.
func (d *Dispute) Assign(adminID int64) bool {
	if d.Status != DisputeStatusOpen || d.AssignedAdmin != nil {
		return false
	}
	d.Status = DisputeStatusAssigned
	d.AssignedAdmin = &adminID
	return true
}

// Resolve moves the dispute from assigned to resolved. The stricter policy
// applies: a dispute never resolves before assignment.
func (d *Dispute) Resolve(adminID int64, resolution string) bool {
	if d.Status != DisputeStatusAssigned {
		return false
	}
	if d.AssignedAdmin == nil || *d.AssignedAdmin != adminID {
		return false
	}
	d.Status = DisputeStatusResolved
	d.Resolution = &resolution
	return true
}

// Participant reports whether the user is the opener, the task's client or
// the escrow counter-party.
func (d *Dispute) Participant(userID int64) bool {
	return d.OpenedBy == userID || d.ClientID == userID || d.FreelancerID == userID
}

// DisputeMessage is one entry of a dispute's thread.
type DisputeMessage struct {
	ID        int64
	DisputeID int64
	SenderID  int64
	Message   string
	CreatedAt time.Time
}
