package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no subgraph endpoint is set.
var ErrNotConfigured = errors.New("subgraph endpoint is not configured")

// StatusError reports a non-OK HTTP response from the indexer.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("subgraph request failed: status %d", e.StatusCode)
}

// GraphQLError carries the errors array of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "subgraph query error: " + strings.Join(e.Messages, "; ")
}

// Opts configures a Client.
type Opts struct {
	Endpoint     string
	MetaEndpoint string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client issues GraphQL queries against a subgraph endpoint.
type Client struct {
	endpoint     string
	metaEndpoint string
	client       *http.Client
	logger       *zap.Logger
}

// NewClient builds a Client. The meta endpoint defaults to the query endpoint.
func NewClient(o Opts) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	meta := o.MetaEndpoint
	if meta == "" {
		meta = o.Endpoint
	}
	return &Client{
		endpoint:     o.Endpoint,
		metaEndpoint: meta,
		client:       client,
		logger:       logger,
	}
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query posts a GraphQL document and returns the data field.
func (c *Client) Query(ctx context.Context, query string, vars map[string]interface{}) (json.RawMessage, error) {
	return c.post(ctx, c.endpoint, query, vars)
}

// QueryInto runs Query and decodes the data field into out.
func (c *Client) QueryInto(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	data, err := c.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode subgraph data: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint, query string, vars map[string]interface{}) (json.RawMessage, error) {
	if endpoint == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode subgraph response: %w", err)
	}
	if len(out.Errors) > 0 {
		messages := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &GraphQLError{Messages: messages}
	}
	return out.Data, nil
}
