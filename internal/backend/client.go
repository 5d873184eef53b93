// Package backend is the generic transport to the external service fabric
// (profile directory, task service, escrow ledger). Everything this layer
// needs from outside goes through Call: method, path, bearer token, optional
// JSON body, returning a status code and raw body.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	util "github.com/mfrelance/workflow-service/pkg/util"
)

// Client issues requests against the backend base URL. Reads may be retried
// once on transport failure; writes never are, to avoid duplicate side
// effects such as double room creation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryReads bool
}

// Options configures the transport.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryReads bool
}

// NewClient builds the transport.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retryReads: opts.RetryReads,
	}
}

// Call performs one backend request. isWrite selects POST over GET and
// disables the retry. Non-2xx statuses are returned to the caller for
// interpretation; only transport failures produce an error, wrapped as
// UPSTREAM_ERROR.
func (c *Client) Call(ctx context.Context, path, bearer string, body any, isWrite bool) (int, []byte, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, util.NewInternalError(err)
		}
		payload = encoded
	}

	status, respBody, err := c.do(ctx, path, bearer, payload, isWrite)
	if err != nil && !isWrite && c.retryReads {
		status, respBody, err = c.do(ctx, path, bearer, payload, isWrite)
	}
	if err != nil {
		return 0, nil, util.NewUpstreamError("backend call failed", err)
	}
	return status, respBody, nil
}

func (c *Client) do(ctx context.Context, path, bearer string, payload []byte, isWrite bool) (int, []byte, error) {
	method := http.MethodGet
	var reader io.Reader
	if isWrite {
		method = http.MethodPost
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
