package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tweet-indexer/config"
)

// TweetsIndex is the index every run writes to.
const TweetsIndex = "tweets_index"

// BackendError wraps a connection, authentication or index failure.
type BackendError struct {
	Op     string
	Status int
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("elasticsearch %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("elasticsearch %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// BulkDocument is one (index, id, body) triple of a bulk request.
type BulkDocument struct {
	Index string
	ID    string
	Body  any
}

// BulkResult summarises a bulk response. Item failures are reported, not returned.
type BulkResult struct {
	Indexed int
	Failed  int
	Errors  []BulkItemError
}

type BulkItemError struct {
	ID     string
	Status int
	Type   string
	Reason string
}

// Client is a thin wrapper around the official Elasticsearch client.
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates an authenticated client. No request is sent until the first call.
func NewClient(cfg *config.ElasticsearchConfig) (*Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.Address()},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		esCfg.Transport = t
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, &BackendError{Op: "connect", Err: err}
	}
	return &Client{es: es}, nil
}

// IndexExists reports whether the index is present.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &BackendError{Op: "index exists", Err: err}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("index exists", res)
	}
}

// CreateIndex creates the index with the given body (settings and mappings).
func (c *Client) CreateIndex(ctx context.Context, name string, mapping map[string]any) error {
	opts := []func(*esapi.IndicesCreateRequest){c.es.Indices.Create.WithContext(ctx)}
	if mapping != nil {
		body, err := json.Marshal(mapping)
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}
		opts = append(opts, c.es.Indices.Create.WithBody(bytes.NewReader(body)))
	}

	res, err := c.es.Indices.Create(name, opts...)
	if err != nil {
		return &BackendError{Op: "create index", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

// BulkWrite indexes all documents in a single _bulk request.
// An empty batch sends nothing.
func (c *Client) BulkWrite(ctx context.Context, docs []BulkDocument) (*BulkResult, error) {
	result := &BulkResult{}
	if len(docs) == 0 {
		return result, nil
	}

	body, err := encodeBulk(docs)
	if err != nil {
		return nil, err
	}

	res, err := c.es.Bulk(bytes.NewReader(body), c.es.Bulk.WithContext(ctx))
	if err != nil {
		return nil, &BackendError{Op: "bulk", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("bulk", res)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &BackendError{Op: "bulk", Err: fmt.Errorf("decode response: %w", err)}
	}

	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				result.Indexed++
				continue
			}
			result.Failed++
			e := BulkItemError{ID: op.ID, Status: op.Status}
			if op.Error != nil {
				e.Type = op.Error.Type
				e.Reason = op.Error.Reason
			}
			result.Errors = append(result.Errors, e)
		}
	}

	if result.Failed > 0 {
		config.Logger.Warnf("bulk indexed %d documents, %d failed (first: %s %s)",
			result.Indexed, result.Failed, result.Errors[0].Type, result.Errors[0].Reason)
	}
	return result, nil
}

func encodeBulk(docs []BulkDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		meta := map[string]any{
			"index": map[string]any{"_index": d.Index, "_id": d.ID},
		}
		if err := enc.Encode(meta); err != nil {
			return nil, fmt.Errorf("encode bulk action for %s: %w", d.ID, err)
		}
		if err := enc.Encode(d.Body); err != nil {
			return nil, fmt.Errorf("encode bulk document %s: %w", d.ID, err)
		}
	}
	return buf.Bytes(), nil
}

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemOutcome `json:"items"`
}

type bulkItemOutcome struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

func responseError(op string, res *esapi.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return &BackendError{
		Op:     op,
		Status: res.StatusCode,
		Err:    fmt.Errorf("%s", bytes.TrimSpace(bodyBytes)),
	}
}
