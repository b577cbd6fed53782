// Package extract turns uploaded PDF bytes into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"lecture-slides-backend/internal/logger"
)

var (
	ErrEmptyPDF       = errors.New("pdf content is empty")
	ErrInvalidPDF     = errors.New("invalid pdf")
	ErrPageExtraction = errors.New("page text extraction failed")
)

// Policy decides what happens when some pages of an otherwise readable PDF fail.
type Policy string

const (
	// PolicyStrict aborts on the first unreadable page.
	PolicyStrict Policy = "strict"
	// PolicyLenient skips unreadable pages and reports them in Result.FailedPages.
	PolicyLenient Policy = "lenient"
)

func init() {
	// pdfcpu would otherwise create ~/.config/pdfcpu on first use.
	api.DisableConfigDir()
}

type Options struct {
	Policy   Policy
	Validate bool
}

// Extractor handles PDF text extraction
type Extractor struct {
	policy   Policy
	validate bool
}

func NewExtractor(opts Options) *Extractor {
	policy := opts.Policy
	if policy != PolicyLenient {
		policy = PolicyStrict
	}
	return &Extractor{policy: policy, validate: opts.Validate}
}

// Result contains the result of PDF text extraction
type Result struct {
	Text           string
	Pages          int
	FailedPages    []int
	WordCount      int
	CharacterCount int
	ProcessingTime time.Duration
}

// ExtractText concatenates the plain text of every page in document order, with no separator.
func (e *Extractor) ExtractText(ctx context.Context, content []byte) (res *Result, err error) {
	start := time.Now()

	if len(content) == 0 {
		return nil, ErrEmptyPDF
	}

	if e.validate {
		if err := validatePDF(content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
		}
	}

	// ledongthuc/pdf panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	pages := reader.NumPage()
	text, failed, err := joinPages(ctx, pages, e.policy, func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
	if err != nil {
		return nil, err
	}

	if len(failed) > 0 {
		logger.Warn("Skipped unreadable PDF pages", "failed_pages", failed, "pages", pages)
	}

	return &Result{
		Text:           text,
		Pages:          pages,
		FailedPages:    failed,
		WordCount:      len(strings.Fields(text)),
		CharacterCount: len(text),
		ProcessingTime: time.Since(start),
	}, nil
}

type pageReader func(page int) (string, error)

// joinPages reads pages 1..n in order and concatenates their text.
func joinPages(ctx context.Context, n int, policy Policy, read pageReader) (string, []int, error) {
	var textBuilder strings.Builder
	var failed []int

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		text, err := safeRead(read, i)
		if err != nil {
			if policy == PolicyStrict {
				return "", nil, fmt.Errorf("%w: page %d: %v", ErrPageExtraction, i, err)
			}
			failed = append(failed, i)
			continue
		}
		textBuilder.WriteString(text)
	}

	return textBuilder.String(), failed, nil
}

func safeRead(read pageReader, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return read(page)
}

func validatePDF(content []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.Validate(bytes.NewReader(content), conf)
}
