package search

import "lecture-slides-backend/internal/config"

// Field names that never come back in search hits.
const (
	FieldPDFBinary     = "pdf_binary"
	FieldVectorContent = "vector_content"
	FieldTextEmbedding = "text_embedding"
)

// DefaultSearchExcludes keeps list responses small; GetBinary reads the binary by id instead.
var DefaultSearchExcludes = []string{FieldPDFBinary, FieldVectorContent, FieldTextEmbedding}

// SlideMappings returns the index mappings for the given embedding mode.
func SlideMappings(mode string, dims int) map[string]any {
	props := map[string]any{
		"course_id":    map[string]any{"type": "keyword"},
		"course_name":  map[string]any{"type": "text"},
		"filename":     map[string]any{"type": "keyword"},
		"title":        map[string]any{"type": "text"},
		"text_content": map[string]any{"type": "text"},
		"pdf_size":     map[string]any{"type": "long"},
		"has_binary":   map[string]any{"type": "boolean"},
		"pages":        map[string]any{"type": "integer"},
		"uploaded_at":  map[string]any{"type": "date"},
		FieldPDFBinary: map[string]any{
			"type":       "binary",
			"store":      true,
			"doc_values": false,
		},
	}

	switch mode {
	case config.EmbeddingModeDense:
		props[FieldVectorContent] = map[string]any{
			"type":       "dense_vector",
			"dims":       dims,
			"index":      true,
			"similarity": "cosine",
		}
	case config.EmbeddingModeSparse:
		props[FieldTextEmbedding] = map[string]any{"type": "sparse_vector"}
	}

	return map[string]any{"properties": props}
}
