package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mfrelance/workflow-service/internal/identity"
)

type fakeDirectory struct {
	names map[int64]string
	errs  map[int64]error
	calls int
}

func (d *fakeDirectory) DisplayName(_ context.Context, userID int64) (string, error) {
	d.calls++
	if err, ok := d.errs[userID]; ok {
		return "", err
	}
	return d.names[userID], nil
}

func TestResolveSentinelSkipsBackend(t *testing.T) {
	dir := &fakeDirectory{}
	r := identity.NewResolver(dir)
	ctx := context.Background()

	if got := r.Resolve(ctx, 0); got != identity.UnknownName {
		t.Fatalf("Resolve(0) = %q, want %q", got, identity.UnknownName)
	}
	if got := r.Resolve(ctx, -5); got != identity.UnknownName {
		t.Fatalf("Resolve(-5) = %q, want %q", got, identity.UnknownName)
	}
	if dir.calls != 0 {
		t.Fatalf("sentinel resolution issued %d backend calls, want 0", dir.calls)
	}
}

func TestResolveMemoizesPerScope(t *testing.T) {
	dir := &fakeDirectory{names: map[int64]string{7: "alice"}}
	r := identity.NewResolver(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got := r.Resolve(ctx, 7); got != "alice" {
			t.Fatalf("Resolve(7) = %q, want alice", got)
		}
	}
	if dir.calls != 1 {
		t.Fatalf("expected 1 lookup for repeated resolves, got %d", dir.calls)
	}
	if r.Lookups() != 1 {
		t.Fatalf("Lookups() = %d, want 1", r.Lookups())
	}
}

func TestResolveEmptyUsernameSynthesized(t *testing.T) {
	dir := &fakeDirectory{names: map[int64]string{9: ""}}
	r := identity.NewResolver(dir)

	if got := r.Resolve(context.Background(), 9); got != "User 9" {
		t.Fatalf("Resolve(9) = %q, want synthesized label", got)
	}
	// The synthesized label for a successful lookup is cached.
	r.Resolve(context.Background(), 9)
	if dir.calls != 1 {
		t.Fatalf("expected cached synthesized label, got %d calls", dir.calls)
	}
}

func TestResolveFailureNotCached(t *testing.T) {
	dir := &fakeDirectory{
		names: map[int64]string{3: "bob"},
		errs:  map[int64]error{3: errors.New("backend down")},
	}
	r := identity.NewResolver(dir)
	ctx := context.Background()

	if got := r.Resolve(ctx, 3); got != "User 3" {
		t.Fatalf("failed lookup should synthesize, got %q", got)
	}

	// Backend recovers; the miss must retry because failures are not cached.
	delete(dir.errs, 3)
	if got := r.Resolve(ctx, 3); got != "bob" {
		t.Fatalf("recovered lookup = %q, want bob", got)
	}
	if dir.calls != 2 {
		t.Fatalf("expected 2 calls (failure then retry), got %d", dir.calls)
	}
}
