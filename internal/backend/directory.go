package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mfrelance/workflow-service/internal/domain"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

// ProfileDirectory looks up display names in the remote profile service. It
// satisfies identity.Directory.
type ProfileDirectory struct {
	client *Client
	bearer string
}

// NewProfileDirectory builds a directory bound to the caller's bearer token.
func NewProfileDirectory(client *Client, bearer string) *ProfileDirectory {
	return &ProfileDirectory{client: client, bearer: bearer}
}

// DisplayName fetches the username for a user id. Non-200 responses come
// back as errors so the resolver can fall back without caching.
func (d *ProfileDirectory) DisplayName(ctx context.Context, userID int64) (string, error) {
	status, body, err := d.client.Call(ctx, fmt.Sprintf("profile/by_id?user_id=%d", userID), d.bearer, nil, false)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", util.NewUpstreamError(fmt.Sprintf("profile lookup returned %d", status), nil)
	}
	var profile domain.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", util.NewUpstreamError("malformed profile response", err)
	}
	return profile.Username, nil
}

// TaskDirectory fetches task records from the task service.
type TaskDirectory struct {
	client *Client
	bearer string
}

func NewTaskDirectory(client *Client, bearer string) *TaskDirectory {
	return &TaskDirectory{client: client, bearer: bearer}
}

// Task fetches the referenced task; absence maps to NOT_FOUND so dispute
// preconditions can surface it as a business rejection, not an upstream one.
func (d *TaskDirectory) Task(ctx context.Context, taskID int64) (*domain.Task, error) {
	status, body, err := d.client.Call(ctx, fmt.Sprintf("api/task/get?id=%d", taskID), d.bearer, nil, false)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, util.NewNotFound("task", map[string]any{"task_id": taskID})
	}
	if status != http.StatusOK {
		return nil, util.NewUpstreamError(fmt.Sprintf("task lookup returned %d", status), nil)
	}
	var task domain.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, util.NewUpstreamError("malformed task response", err)
	}
	return &task, nil
}

// EscrowDirectory fetches read-only escrow snapshots from the ledger service.
type EscrowDirectory struct {
	client *Client
	bearer string
}

func NewEscrowDirectory(client *Client, bearer string) *EscrowDirectory {
	return &EscrowDirectory{client: client, bearer: bearer}
}

// SnapshotByTask fetches the escrow record tied to a task.
func (d *EscrowDirectory) SnapshotByTask(ctx context.Context, taskID int64) (*domain.EscrowSnapshot, error) {
	status, body, err := d.client.Call(ctx, fmt.Sprintf("api/escrow/byTask?task_id=%d", taskID), d.bearer, nil, false)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, util.NewNotFound("escrow", map[string]any{"task_id": taskID})
	}
	if status != http.StatusOK {
		return nil, util.NewUpstreamError(fmt.Sprintf("escrow lookup returned %d", status), nil)
	}
	var snapshot domain.EscrowSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, util.NewUpstreamError("malformed escrow response", err)
	}
	return &snapshot, nil
}
