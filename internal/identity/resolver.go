// Package identity resolves numeric user ids to display names. A Resolver is
// scoped to one request: render paths for a single response may hit the same
// sender many times, and the memo keeps that to one remote lookup per id
// without leaking names between sessions.
package identity

import (
	"context"
	"fmt"
)

// UnknownName is returned for non-positive ids without any lookup.
const UnknownName = "Unknown"

// Directory is the remote profile lookup the resolver memoizes.
type Directory interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Resolver memoizes directory lookups for a single request scope. Not safe
// for concurrent use; construct one per request.
type Resolver struct {
	directory Directory
	cache     map[int64]string
	lookups   int
}

// NewResolver builds a resolver over the given directory.
func NewResolver(directory Directory) *Resolver {
	return &Resolver{
		directory: directory,
		cache:     make(map[int64]string),
	}
}

// Resolve maps a user id to a display name. Ids <= 0 return the Unknown
// sentinel with no remote call. A failed lookup falls back to a synthesized
// label without caching it, so a later successful call can still populate
// the memo.
func (r *Resolver) Resolve(ctx context.Context, userID int64) string {
	if userID <= 0 {
		return UnknownName
	}
	if name, ok := r.cache[userID]; ok {
		return name
	}

	r.lookups++
	name, err := r.directory.DisplayName(ctx, userID)
	if err != nil {
		return syntheticName(userID)
	}
	if name == "" {
		name = syntheticName(userID)
	}
	r.cache[userID] = name
	return name
}

// Lookups reports how many remote calls the resolver has issued.
func (r *Resolver) Lookups() int {
	return r.lookups
}

func syntheticName(userID int64) string {
	return fmt.Sprintf("User %d", userID)
}
