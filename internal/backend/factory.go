package backend

import (
	"github.com/mfrelance/workflow-service/internal/identity"
	"github.com/mfrelance/workflow-service/internal/service"
)

// Factory hands out directory clients bound to a caller's bearer token. It
// implements service.DirectoryFactory; the HTTP layer builds one scope per
// request from it.
type Factory struct {
	client *Client
}

// NewFactory wraps the shared transport client.
func NewFactory(client *Client) *Factory {
	return &Factory{client: client}
}

func (f *Factory) Profiles(bearer string) identity.Directory {
	return NewProfileDirectory(f.client, bearer)
}

func (f *Factory) Tasks(bearer string) service.TaskSource {
	return NewTaskDirectory(f.client, bearer)
}

func (f *Factory) Escrows(bearer string) service.EscrowSource {
	return NewEscrowDirectory(f.client, bearer)
}
