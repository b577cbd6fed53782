package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lecture-slides-backend/internal/ai"
	"lecture-slides-backend/internal/extract"
	"lecture-slides-backend/internal/logger"
	"lecture-slides-backend/internal/search"
	"lecture-slides-backend/internal/telemetry"
	"lecture-slides-backend/models"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrExtraction        = errors.New("text extraction failed")
	ErrEmbedding         = errors.New("embedding failed")
	ErrStore             = errors.New("slide store unavailable")
	ErrNotFound          = errors.New("not found")
	ErrBinaryUnavailable = errors.New("pdf binary not available")
)

// TextExtractor is satisfied by *extract.Extractor.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (*extract.Result, error)
}

// SlideService runs the upload pipeline and the course/binary lookups on top of the slide index.
type SlideService struct {
	store       search.Index
	extractor   TextExtractor
	encoder     ai.Encoder // nil unless dense embeddings are enabled
	storeBinary bool
	metrics     *telemetry.Metrics
	now         func() time.Time
}

func NewSlideService(store search.Index, extractor TextExtractor, encoder ai.Encoder, storeBinary bool, metrics *telemetry.Metrics) *SlideService {
	return &SlideService{
		store:       store,
		extractor:   extractor,
		encoder:     encoder,
		storeBinary: storeBinary,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Upload validates, extracts, optionally embeds, and indexes one deck. Nothing is
// written when validation fails.
func (s *SlideService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResult, error) {
	start := s.now()

	if err := normalizeUpload(req); err != nil {
		s.metrics.RecordPDFProcessing(time.Since(start).Seconds(), "invalid")
		return nil, err
	}
	log := logger.With("course_id", req.CourseID, "filename", req.Filename)

	extracted, err := s.extractor.ExtractText(ctx, req.Content)
	if err != nil {
		s.metrics.RecordPDFProcessing(time.Since(start).Seconds(), "extraction_failed")
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if len(extracted.FailedPages) > 0 {
		log.Warn("Indexed with partial text", "failed_pages", extracted.FailedPages, "pages", extracted.Pages)
	}

	doc := &models.SlideDocument{
		CourseID:    req.CourseID,
		CourseName:  req.CourseName,
		Filename:    req.Filename,
		Title:       req.Title,
		TextContent: extracted.Text,
		Pages:       extracted.Pages,
		UploadedAt:  s.now().UTC(),
	}

	if s.encoder != nil {
		if strings.TrimSpace(extracted.Text) == "" {
			log.Warn("No text extracted, skipping embedding")
		} else {
			vec, err := s.encoder.Encode(ctx, extracted.Text)
			if err != nil {
				s.metrics.RecordPDFProcessing(time.Since(start).Seconds(), "embedding_failed")
				return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
			}
			doc.VectorContent = vec
		}
	}

	if s.storeBinary {
		doc.PDFBinary = base64.StdEncoding.EncodeToString(req.Content)
		doc.PDFSize = int64(len(req.Content))
		doc.HasBinary = true
	}

	id, err := s.store.Index(ctx, doc)
	if err != nil {
		s.metrics.RecordPDFProcessing(time.Since(start).Seconds(), "store_failed")
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.metrics.RecordPDFProcessing(time.Since(start).Seconds(), "completed")
	log.Info("Slide indexed",
		"document_id", id,
		"pages", extracted.Pages,
		"chars", extracted.CharacterCount,
		"has_binary", doc.HasBinary,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &models.UploadResult{
		DocumentID:  id,
		CourseID:    req.CourseID,
		CourseName:  req.CourseName,
		Title:       req.Title,
		Filename:    req.Filename,
		Pages:       extracted.Pages,
		FailedPages: extracted.FailedPages,
		PDFSize:     doc.PDFSize,
		HasBinary:   doc.HasBinary,
	}, nil
}

func normalizeUpload(req *models.UploadRequest) error {
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.CourseName = strings.TrimSpace(req.CourseName)
	req.Title = strings.TrimSpace(req.Title)
	req.Filename = strings.TrimSpace(req.Filename)

	var missing []string
	if req.CourseID == "" {
		missing = append(missing, "course_id")
	}
	if req.CourseName == "" {
		missing = append(missing, "course_name")
	}
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if len(req.Content) == 0 {
		missing = append(missing, "file")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}

	if req.Filename == "" {
		req.Filename = "slides.pdf"
	}
	return nil
}

// storedSlide is the subset of the indexed source the read paths decode.
type storedSlide struct {
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name"`
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	PDFBinary   string `json:"pdf_binary"`
	PDFSize     int64  `json:"pdf_size"`
	HasBinary   *bool  `json:"has_binary"`
}

// ListByCourse returns every slide whose course_id matches exactly.
func (s *SlideService) ListByCourse(ctx context.Context, courseID string) (*models.SlideList, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, fmt.Errorf("%w: course_id is required", ErrValidation)
	}

	hits, err := s.store.SearchTerm(ctx, "course_id", courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	slides := make([]models.Slide, 0, len(hits))
	for _, hit := range hits {
		var src storedSlide
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			logger.Warn("Skipping undecodable slide", "document_id", hit.ID, "error", err)
			continue
		}
		slides = append(slides, models.Slide{
			ID:          hit.ID,
			CourseID:    src.CourseID,
			CourseName:  src.CourseName,
			Filename:    src.Filename,
			Title:       src.Title,
			TextContent: src.TextContent,
			HasBinary:   src.HasBinary,
		})
	}

	return &models.SlideList{Slides: slides, Total: len(slides)}, nil
}

// GetBinary returns the stored base64 payload verbatim. A document without a
// captured binary is ErrBinaryUnavailable, not ErrNotFound.
func (s *SlideService) GetBinary(ctx context.Context, documentID string) (*models.PDFBinary, error) {
	hit, found, err := s.store.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}

	var src storedSlide
	if err := json.Unmarshal(hit.Source, &src); err != nil {
		return nil, fmt.Errorf("%w: decode document %s: %w", ErrStore, documentID, err)
	}
	if src.HasBinary == nil || !*src.HasBinary || src.PDFBinary == "" {
		return nil, fmt.Errorf("%w: document %s", ErrBinaryUnavailable, documentID)
	}

	return &models.PDFBinary{
		DocumentID: hit.ID,
		Filename:   src.Filename,
		PDFBinary:  src.PDFBinary,
		PDFSize:    src.PDFSize,
		Title:      src.Title,
	}, nil
}

// Download decodes the stored payload back into the original PDF bytes.
func (s *SlideService) Download(ctx context.Context, documentID string) (*models.PDFBinary, []byte, error) {
	bin, err := s.GetBinary(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(bin.PDFBinary)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: corrupt binary for %s: %w", ErrBinaryUnavailable, documentID, err)
	}
	return bin, raw, nil
}

// Delete removes a document. Deleting an id that does not exist is ErrNotFound.
func (s *SlideService) Delete(ctx context.Context, documentID string) error {
	deleted, err := s.store.Delete(ctx, documentID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !deleted {
		return fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}
	logger.Info("Slide deleted", "document_id", documentID)
	return nil
}
