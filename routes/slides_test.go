package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecture-slides-backend/internal/extract"
	"lecture-slides-backend/internal/search"
	"lecture-slides-backend/internal/testutil"
	"lecture-slides-backend/middleware"
	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSlideRouter(storeBinary bool) (*gin.Engine, *search.MemoryStore) {
	store := search.NewMemoryStore(search.DefaultSearchExcludes...)
	extractor := extract.NewExtractor(extract.Options{Policy: extract.PolicyStrict})
	svc := services.NewSlideService(store, extractor, nil, storeBinary, nil)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	SetupSlideRoutes(r, svc, 10<<20)
	return r, store
}

func uploadForm(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if content != nil {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func lectureFields() map[string]string {
	return map[string]string{
		"course_id":   "CIS150",
		"course_name": "Intro CS",
		"title":       "Lecture 1",
	}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestUploadThenListSlides(t *testing.T) {
	r, _ := newSlideRouter(true)

	w := serve(r, uploadForm(t, lectureFields(), "lecture1.pdf", testutil.BuildPDF("Hello", "World")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	up := decode[models.UploadResult](t, w)
	assert.NotEmpty(t, up.DocumentID)
	assert.Equal(t, "CIS150", up.CourseID)
	assert.Equal(t, "Intro CS", up.CourseName)
	assert.Equal(t, "Lecture 1", up.Title)
	assert.Equal(t, "lecture1.pdf", up.Filename)
	assert.True(t, up.HasBinary)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/slides/CIS150", nil))
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[models.SlideList](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, up.DocumentID, list.Slides[0].ID)
	assert.Equal(t, "Lecture 1", list.Slides[0].Title)
	assert.Equal(t, "HelloWorld", list.Slides[0].TextContent)
	assert.NotContains(t, w.Body.String(), "pdf_binary")
}

func TestUploadMissingFieldIsRejected(t *testing.T) {
	r, store := newSlideRouter(true)

	fields := lectureFields()
	fields["course_id"] = ""
	w := serve(r, uploadForm(t, fields, "lecture1.pdf", testutil.BuildPDF("Hello")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[utils.ErrorResponse](t, w)
	assert.Equal(t, "bad_request", body.ErrorCode)
	assert.Contains(t, body.Message, "course_id")
	assert.Equal(t, 0, store.Len())
}

func TestUploadMissingFile(t *testing.T) {
	r, store := newSlideRouter(true)

	w := serve(r, uploadForm(t, lectureFields(), "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file")
	assert.Equal(t, 0, store.Len())
}

func TestUploadCorruptPDFIsUnprocessable(t *testing.T) {
	r, store := newSlideRouter(true)

	w := serve(r, uploadForm(t, lectureFields(), "broken.pdf", []byte("%PDF-1.4 truncated")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, store.Len())
}

func TestUploadNotMultipart(t *testing.T) {
	r, _ := newSlideRouter(true)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewBufferString(`{"course_id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSlideTwice(t *testing.T) {
	r, _ := newSlideRouter(true)

	w := serve(r, uploadForm(t, lectureFields(), "lecture1.pdf", testutil.BuildPDF("Hello")))
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[models.UploadResult](t, w).DocumentID

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/slides/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/slides/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[utils.ErrorResponse](t, w).ErrorCode)
}

func TestGetPDFWithoutBinary(t *testing.T) {
	r, _ := newSlideRouter(false)

	w := serve(r, uploadForm(t, lectureFields(), "lecture1.pdf", testutil.BuildPDF("Hello", "World")))
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[models.UploadResult](t, w).DocumentID

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/pdf/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "pdf_not_available", decode[utils.ErrorResponse](t, w).ErrorCode)
	assert.NotContains(t, w.Body.String(), "HelloWorld")
}

func TestGetAndDownloadPDF(t *testing.T) {
	r, _ := newSlideRouter(true)
	content := testutil.BuildPDF("Hello")

	w := serve(r, uploadForm(t, lectureFields(), "lecture1.pdf", content))
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[models.UploadResult](t, w).DocumentID

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/pdf/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	bin := decode[models.PDFBinary](t, w)
	assert.Equal(t, id, bin.DocumentID)
	assert.Equal(t, int64(len(content)), bin.PDFSize)
	assert.Equal(t, "Lecture 1", bin.Title)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/pdf/"+id+"/download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, content, w.Body.Bytes())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/pdf/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[utils.ErrorResponse](t, w).ErrorCode)
}

func TestExportSlidesRoute(t *testing.T) {
	r, _ := newSlideRouter(false)

	w := serve(r, uploadForm(t, lectureFields(), "lecture1.pdf", testutil.BuildPDF("Hello")))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/slides/CIS150/export?format=json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "slides_CIS150_")
	assert.Equal(t, "1", w.Header().Get("X-Record-Count"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/slides/CIS150/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// slideIndex gives the embedded interface a field name that does not clash with its Index method.
type slideIndex = search.Index

type downStore struct{ slideIndex }

func (downStore) SearchTerm(context.Context, string, string) ([]search.Hit, error) {
	return nil, &search.StoreError{Op: "search", Err: errors.New("dial tcp: connection refused")}
}

func TestStoreOutageIsBadGateway(t *testing.T) {
	svc := services.NewSlideService(downStore{}, extract.NewExtractor(extract.Options{}), nil, true, nil)
	r := gin.New()
	SetupSlideRoutes(r, svc, 10<<20)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/slides/CIS150", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "upstream_error", decode[utils.ErrorResponse](t, w).ErrorCode)
}
