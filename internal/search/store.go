// Package search is the slide index adapter. It hides the Elasticsearch client
// behind index/get/search/update/delete calls on a single index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lecture-slides-backend/internal/logger"
	"lecture-slides-backend/internal/telemetry"
)

// ErrStore matches every *StoreError with errors.Is.
var ErrStore = errors.New("slide store failure")

// StoreError wraps transport and store-side failures. Status is 0 for transport errors.
type StoreError struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *StoreError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("store %s: status %d: %s", e.Op, e.Status, e.Reason)
	default:
		return fmt.Sprintf("store %s: %s", e.Op, e.Reason)
	}
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// Hit is one stored document: its store-assigned id and raw JSON source.
type Hit struct {
	ID     string
	Source json.RawMessage
}

// Index is the adapter contract shared by Store and MemoryStore.
type Index interface {
	Index(ctx context.Context, doc any) (string, error)
	Get(ctx context.Context, id string) (Hit, bool, error)
	SearchTerm(ctx context.Context, field, value string) ([]Hit, error)
	Update(ctx context.Context, id string, partial any) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Options struct {
	Index          string
	Pipeline       string   // ingest pipeline applied at index time, optional
	Refresh        string   // "", "true", "false" or "wait_for"
	MaxResults     int      // search size
	SearchExcludes []string // _source fields left out of search hits
	Metrics        *telemetry.Metrics
}

// Store talks to one Elasticsearch index. It performs no retries.
type Store struct {
	es   *elasticsearch.Client
	opts Options
}

func NewStore(es *elasticsearch.Client, opts Options) *Store {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10000
	}
	return &Store{es: es, opts: opts}
}

func (s *Store) IndexName() string { return s.opts.Index }

func (s *Store) Index(ctx context.Context, doc any) (string, error) {
	ctx, span := s.startSpan(ctx, "search.index")
	defer span.End()

	body, err := json.Marshal(doc)
	if err != nil {
		return "", s.fail(span, &StoreError{Op: "index", Err: err})
	}

	opts := []func(*esapi.IndexRequest){s.es.Index.WithContext(ctx)}
	if s.opts.Pipeline != "" {
		opts = append(opts, s.es.Index.WithPipeline(s.opts.Pipeline))
		span.SetAttributes(attribute.String("search.pipeline", s.opts.Pipeline))
	}
	if s.opts.Refresh != "" {
		opts = append(opts, s.es.Index.WithRefresh(s.opts.Refresh))
	}

	res, err := s.es.Index(s.opts.Index, bytes.NewReader(body), opts...)
	if err != nil {
		return "", s.fail(span, &StoreError{Op: "index", Err: err})
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", s.fail(span, responseError("index", res))
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", s.fail(span, &StoreError{Op: "index", Err: fmt.Errorf("decode response: %w", err)})
	}

	s.opts.Metrics.RecordStoreOperation("index", true)
	span.SetAttributes(attribute.String("search.document_id", out.ID))
	return out.ID, nil
}

// Get returns found=false, with no error, when the document does not exist.
func (s *Store) Get(ctx context.Context, id string) (Hit, bool, error) {
	ctx, span := s.startSpan(ctx, "search.get")
	defer span.End()
	span.SetAttributes(attribute.String("search.document_id", id))

	res, err := s.es.Get(s.opts.Index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return Hit{}, false, s.fail(span, &StoreError{Op: "get", Err: err})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return Hit{}, false, s.fail(span, &StoreError{Op: "get", Err: err})
	}

	var out struct {
		ID     string          `json:"_id"`
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	decodeErr := json.Unmarshal(raw, &out)

	if res.StatusCode == http.StatusNotFound && decodeErr == nil && !out.Found && !hasErrorField(raw) {
		s.opts.Metrics.RecordStoreOperation("get", true)
		return Hit{}, false, nil
	}
	if res.IsError() {
		return Hit{}, false, s.fail(span, decodeError("get", res.StatusCode, raw))
	}
	if decodeErr != nil {
		return Hit{}, false, s.fail(span, &StoreError{Op: "get", Err: fmt.Errorf("decode response: %w", decodeErr)})
	}

	s.opts.Metrics.RecordStoreOperation("get", true)
	if !out.Found {
		return Hit{}, false, nil
	}
	return Hit{ID: out.ID, Source: out.Source}, true, nil
}

// SearchTerm runs an exact-match term query. Hit order is the store's scoring order.
func (s *Store) SearchTerm(ctx context.Context, field, value string) ([]Hit, error) {
	ctx, span := s.startSpan(ctx, "search.term")
	defer span.End()
	span.SetAttributes(attribute.String("search.field", field))

	query := map[string]any{
		"size": s.opts.MaxResults,
		"query": map[string]any{
			"term": map[string]any{field: value},
		},
	}
	if len(s.opts.SearchExcludes) > 0 {
		query["_source"] = map[string]any{"excludes": s.opts.SearchExcludes}
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, s.fail(span, &StoreError{Op: "search", Err: err})
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.opts.Index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, s.fail(span, &StoreError{Op: "search", Err: err})
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, s.fail(span, responseError("search", res))
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, s.fail(span, &StoreError{Op: "search", Err: fmt.Errorf("decode response: %w", err)})
	}

	hits := make([]Hit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Source: h.Source})
	}

	s.opts.Metrics.RecordStoreOperation("search", true)
	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	return hits, nil
}

// Update applies a partial document. found=false means the id does not exist.
func (s *Store) Update(ctx context.Context, id string, partial any) (bool, error) {
	ctx, span := s.startSpan(ctx, "search.update")
	defer span.End()
	span.SetAttributes(attribute.String("search.document_id", id))

	body, err := json.Marshal(map[string]any{"doc": partial})
	if err != nil {
		return false, s.fail(span, &StoreError{Op: "update", Err: err})
	}

	opts := []func(*esapi.UpdateRequest){s.es.Update.WithContext(ctx)}
	if s.opts.Refresh != "" {
		opts = append(opts, s.es.Update.WithRefresh(s.opts.Refresh))
	}

	res, err := s.es.Update(s.opts.Index, id, bytes.NewReader(body), opts...)
	if err != nil {
		return false, s.fail(span, &StoreError{Op: "update", Err: err})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return false, s.fail(span, &StoreError{Op: "update", Err: err})
	}

	if res.StatusCode == http.StatusNotFound && errorType(raw) == "document_missing_exception" {
		s.opts.Metrics.RecordStoreOperation("update", true)
		return false, nil
	}
	if res.IsError() {
		return false, s.fail(span, decodeError("update", res.StatusCode, raw))
	}

	s.opts.Metrics.RecordStoreOperation("update", true)
	return true, nil
}

// Delete is idempotent: deleting a missing id returns deleted=false and no error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := s.startSpan(ctx, "search.delete")
	defer span.End()
	span.SetAttributes(attribute.String("search.document_id", id))

	opts := []func(*esapi.DeleteRequest){s.es.Delete.WithContext(ctx)}
	if s.opts.Refresh != "" {
		opts = append(opts, s.es.Delete.WithRefresh(s.opts.Refresh))
	}

	res, err := s.es.Delete(s.opts.Index, id, opts...)
	if err != nil {
		return false, s.fail(span, &StoreError{Op: "delete", Err: err})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return false, s.fail(span, &StoreError{Op: "delete", Err: err})
	}

	var out struct {
		Result string `json:"result"`
	}
	_ = json.Unmarshal(raw, &out)

	if res.StatusCode == http.StatusNotFound && out.Result == "not_found" {
		s.opts.Metrics.RecordStoreOperation("delete", true)
		return false, nil
	}
	if res.IsError() {
		return false, s.fail(span, decodeError("delete", res.StatusCode, raw))
	}

	s.opts.Metrics.RecordStoreOperation("delete", true)
	return out.Result == "deleted", nil
}

// EnsureIndex creates the index with the given mappings when it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context, mappings map[string]any) error {
	res, err := s.es.Indices.Exists([]string{s.opts.Index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return &StoreError{Op: "exists", Err: err}
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		drift, err := s.mappingDrift(ctx, mappings)
		if err != nil {
			logger.Warn("Could not read index mapping", "index", s.opts.Index, "error", err)
			return nil
		}
		if len(drift) > 0 {
			logger.Warn("Existing index mapping does not match the embedding mode; recreate or reindex it",
				"index", s.opts.Index, "fields", drift)
		}
		return nil
	case http.StatusNotFound:
	default:
		return &StoreError{Op: "exists", Status: res.StatusCode, Reason: res.Status()}
	}

	body, err := json.Marshal(map[string]any{"mappings": mappings})
	if err != nil {
		return &StoreError{Op: "create_index", Err: err}
	}

	res, err = s.es.Indices.Create(s.opts.Index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return &StoreError{Op: "create_index", Err: err}
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.IsError() {
		// Another instance won the race.
		if errorType(raw) == "resource_already_exists_exception" {
			return nil
		}
		return decodeError("create_index", res.StatusCode, raw)
	}
	return nil
}

// mappingDrift lists the embedding fields whose live mapping differs from the wanted one.
// Only vector fields are compared; the rest are created the same way in every mode.
func (s *Store) mappingDrift(ctx context.Context, mappings map[string]any) ([]string, error) {
	res, err := s.es.Indices.GetMapping(
		s.es.Indices.GetMapping.WithContext(ctx),
		s.es.Indices.GetMapping.WithIndex(s.opts.Index),
	)
	if err != nil {
		return nil, &StoreError{Op: "get_mapping", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("get_mapping", res)
	}

	var live map[string]struct {
		Mappings struct {
			Properties map[string]map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&live); err != nil {
		return nil, &StoreError{Op: "get_mapping", Err: fmt.Errorf("decode response: %w", err)}
	}
	props := live[s.opts.Index].Mappings.Properties

	want, _ := mappings["properties"].(map[string]any)
	var drift []string
	for _, field := range []string{FieldVectorContent, FieldTextEmbedding} {
		w, ok := want[field].(map[string]any)
		if !ok {
			continue
		}
		got, ok := props[field]
		if !ok || got["type"] != w["type"] {
			drift = append(drift, field)
			continue
		}
		if dims, ok := w["dims"]; ok && fmt.Sprint(got["dims"]) != fmt.Sprint(dims) {
			drift = append(drift, field)
		}
	}
	return drift, nil
}

func (s *Store) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("slide-index").Start(ctx, name)
	span.SetAttributes(attribute.String("search.index", s.opts.Index))
	return ctx, span
}

func (s *Store) fail(span trace.Span, err *StoreError) error {
	span.RecordError(err)
	s.opts.Metrics.RecordStoreOperation(err.Op, false)
	return err
}

func responseError(op string, res *esapi.Response) *StoreError {
	raw, _ := io.ReadAll(res.Body)
	return decodeError(op, res.StatusCode, raw)
}

func decodeError(op string, status int, raw []byte) *StoreError {
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	reason := http.StatusText(status)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Reason != "" {
		reason = body.Error.Type + ": " + body.Error.Reason
	}
	return &StoreError{Op: op, Status: status, Reason: reason}
}

func errorType(raw []byte) string {
	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Error.Type
}

func hasErrorField(raw []byte) bool {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return false
	}
	_, ok := body["error"]
	return ok
}
