package dto

import (
	"time"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/service"
)

// CreateDisputeRequest payload.
type CreateDisputeRequest struct {
	TaskID int64  `json:"task_id"`
	Reason string `json:"reason"`
}

// DisputeMessageRequest payload.
type DisputeMessageRequest struct {
	Message string `json:"message"`
}

// ResolveDisputeRequest payload.
type ResolveDisputeRequest struct {
	Resolution string `json:"resolution"`
}

// DisputeResponse mirrors a dispute record.
type DisputeResponse struct {
	ID            int64     `json:"id"`
	TaskID        int64     `json:"task_id"`
	OpenedBy      int64     `json:"opened_by"`
	ClientID      int64     `json:"client_id"`
	FreelancerID  int64     `json:"freelancer_id"`
	Status        string    `json:"status"`
	AssignedAdmin *int64    `json:"assigned_admin,omitempty"`
	Resolution    *string   `json:"resolution,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisputeDetailResponse bundles everything an arbitration screen shows.
type DisputeDetailResponse struct {
	Dispute  DisputeResponse        `json:"dispute"`
	Task     *domain.Task           `json:"task"`
	Escrow   *domain.EscrowSnapshot `json:"escrow"`
	Messages []ChatMessageResponse  `json:"messages"`
	Admin    *DisputeAdminResponse  `json:"admin,omitempty"`
}

// DisputeAdminResponse names the handling admin.
type DisputeAdminResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// NewDisputeResponse maps a domain dispute.
func NewDisputeResponse(d *domain.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:            d.ID,
		TaskID:        d.TaskID,
		OpenedBy:      d.OpenedBy,
		ClientID:      d.ClientID,
		FreelancerID:  d.FreelancerID,
		Status:        string(d.Status),
		AssignedAdmin: d.AssignedAdmin,
		Resolution:    d.Resolution,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// NewDisputeDetailResponse maps the service bundle.
func NewDisputeDetailResponse(details *service.DisputeDetails) DisputeDetailResponse {
	resp := DisputeDetailResponse{
		Dispute: NewDisputeResponse(details.Dispute),
		Task:    details.Task,
		Escrow:  details.Escrow,
	}
	resp.Messages = make([]ChatMessageResponse, 0, len(details.Messages))
	for _, m := range details.Messages {
		resp.Messages = append(resp.Messages, NewChatMessageResponse(m))
	}
	if details.Dispute.AssignedAdmin != nil {
		resp.Admin = &DisputeAdminResponse{
			UserID: *details.Dispute.AssignedAdmin,
			Name:   details.AdminName,
		}
	}
	return resp
}
