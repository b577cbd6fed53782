package models

import "time"

// SlideDocument is the record indexed per uploaded deck. At most one of
// VectorContent (dense mode) or TextEmbedding (sparse mode, written by the
// store's ingest pipeline) is set.
type SlideDocument struct {
	CourseID      string         `json:"course_id"`
	CourseName    string         `json:"course_name"`
	Filename      string         `json:"filename"`
	Title         string         `json:"title"`
	TextContent   string         `json:"text_content"`
	Pages         int            `json:"pages,omitempty"`
	UploadedAt    time.Time      `json:"uploaded_at"`
	VectorContent []float32      `json:"vector_content,omitempty"`
	TextEmbedding map[string]any `json:"text_embedding,omitempty"`
	PDFBinary     string         `json:"pdf_binary,omitempty"` // base64
	PDFSize       int64          `json:"pdf_size,omitempty"`
	HasBinary     bool           `json:"has_binary,omitempty"`
}

// UploadRequest carries the multipart form fields of POST /api/upload.
type UploadRequest struct {
	CourseID   string
	CourseName string
	Title      string
	Filename   string
	Content    []byte
}

// UploadResult echoes the caller's fields plus the store-assigned id.
type UploadResult struct {
	DocumentID  string `json:"document_id"`
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name"`
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	Pages       int    `json:"pages"`
	FailedPages []int  `json:"failed_pages,omitempty"`
	PDFSize     int64  `json:"pdf_size,omitempty"`
	HasBinary   bool   `json:"has_binary,omitempty"`
}

// Slide is one entry of a course listing.
type Slide struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name"`
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	TextContent string `json:"text_content"`
	HasBinary   *bool  `json:"has_binary,omitempty"`
}

type SlideList struct {
	Slides []Slide `json:"slides"`
	Total  int     `json:"total"`
}

// PDFBinary is the stored payload of GET /api/pdf/:document_id, base64 verbatim.
type PDFBinary struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	PDFBinary  string `json:"pdf_binary"`
	PDFSize    int64  `json:"pdf_size"`
	Title      string `json:"title"`
}
