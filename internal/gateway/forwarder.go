package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SubgraphResponse is the raw GraphQL response of one subgraph. Data stays
// raw so the gateway merges without interpreting resolver output.
type SubgraphResponse struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors,omitempty"`
}

// DataFields decodes the top-level response keys, if any.
func (r *SubgraphResponse) DataFields() (map[string]json.RawMessage, error) {
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil, nil
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(r.Data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Forwarder relays operations to subgraphs. The session cookie and
// authorization header travel verbatim in both directions: the gateway holds
// no identity logic.
type Forwarder struct {
	client *http.Client
}

// NewForwarder builds a forwarder with the given client.
func NewForwarder(client *http.Client) *Forwarder {
	return &Forwarder{client: client}
}

// Forward posts the operation body to a subgraph, propagating credentials,
// and returns the decoded response plus any Set-Cookie headers to relay back.
func (f *Forwarder) Forward(ctx context.Context, url string, body []byte, cookie, authorization string) (*SubgraphResponse, []string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		httpReq.Header.Set("Cookie", cookie)
	}
	if authorization != "" {
		httpReq.Header.Set("Authorization", authorization)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
	}

	var decoded SubgraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, err
	}
	return &decoded, resp.Header.Values("Set-Cookie"), nil
}
