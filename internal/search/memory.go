package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Index used by tests and the CLI's dry-run mode.
// It keeps insertion order for search results.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[string]any
	order    []string
	excludes []string

	// When VectorField is set, indexed documents carrying it must have VectorDims values.
	VectorField string
	VectorDims  int
}

func NewMemoryStore(excludes ...string) *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]any),
		excludes: excludes,
	}
}

func (m *MemoryStore) Index(_ context.Context, doc any) (string, error) {
	src, err := toMap(doc)
	if err != nil {
		return "", &StoreError{Op: "index", Err: err}
	}
	if err := m.checkVector(src); err != nil {
		return "", err
	}

	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = src
	m.order = append(m.order, id)
	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Hit, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src, ok := m.docs[id]
	if !ok {
		return Hit{}, false, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return Hit{}, false, &StoreError{Op: "get", Err: err}
	}
	return Hit{ID: id, Source: raw}, true, nil
}

func (m *MemoryStore) SearchTerm(_ context.Context, field, value string) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := []Hit{}
	for _, id := range m.order {
		src := m.docs[id]
		v, ok := src[field].(string)
		if !ok || v != value {
			continue
		}

		trimmed := make(map[string]any, len(src))
		for k, v := range src {
			trimmed[k] = v
		}
		for _, k := range m.excludes {
			delete(trimmed, k)
		}

		raw, err := json.Marshal(trimmed)
		if err != nil {
			return nil, &StoreError{Op: "search", Err: err}
		}
		hits = append(hits, Hit{ID: id, Source: raw})
	}
	return hits, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, partial any) (bool, error) {
	fields, err := toMap(partial)
	if err != nil {
		return false, &StoreError{Op: "update", Err: err}
	}
	if err := m.checkVector(fields); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.docs[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		src[k] = v
	}
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len reports how many documents are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) checkVector(src map[string]any) error {
	if m.VectorField == "" {
		return nil
	}
	v, ok := src[m.VectorField]
	if !ok || v == nil {
		return nil
	}
	vals, ok := v.([]any)
	if !ok || len(vals) != m.VectorDims {
		return &StoreError{
			Op:     "index",
			Status: http.StatusBadRequest,
			Reason: fmt.Sprintf("mapper_parsing_exception: %s must have %d dimensions", m.VectorField, m.VectorDims),
		}
	}
	return nil
}

func toMap(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return out, nil
}
