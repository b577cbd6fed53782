package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrEncoderUnavailable = errors.New("embedding service unavailable")
)

// Encoder turns extracted slide text into a dense vector of fixed length.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// checkDimensions rejects vectors that would not fit the index's dense_vector field.
// Vectors are never truncated or padded.
func checkDimensions(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: got %d values, index expects %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}
