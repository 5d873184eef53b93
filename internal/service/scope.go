package service

import (
	"context"

	"github.com/mfrelance/workflow-service/internal/domain"
	"github.com/mfrelance/workflow-service/internal/identity"
)

// TaskSource fetches remote task records.
type TaskSource interface {
	Task(ctx context.Context, taskID int64) (*domain.Task, error)
}

// EscrowSource fetches read-only escrow snapshots.
type EscrowSource interface {
	SnapshotByTask(ctx context.Context, taskID int64) (*domain.EscrowSnapshot, error)
}

// DirectoryFactory builds the remote lookups bound to a caller's bearer
// token. The HTTP layer creates one Scope per inbound request.
type DirectoryFactory interface {
	Profiles(bearer string) identity.Directory
	Tasks(bearer string) TaskSource
	Escrows(bearer string) EscrowSource
}

// Scope bundles the request-scoped collaborators: the memoizing name
// resolver and the directory clients carrying the caller's token. It must
// not outlive the request; the resolver cache in particular is per-session
// by contract.
type Scope struct {
	Resolver *identity.Resolver
	Tasks    TaskSource
	Escrows  EscrowSource
}

// NewScope builds a request scope from the factory.
func NewScope(factory DirectoryFactory, bearer string) *Scope {
	return &Scope{
		Resolver: identity.NewResolver(factory.Profiles(bearer)),
		Tasks:    factory.Tasks(bearer),
		Escrows:  factory.Escrows(bearer),
	}
}
