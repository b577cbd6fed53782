package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"lecture-slides-backend/internal/config"
	"lecture-slides-backend/internal/search"
	"lecture-slides-backend/internal/testutil"
	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		CORSOrigins:      []string{"*"},
		MaxFileSize:      10 << 20,
		SlidesIndex:      "lecture-slides-test",
		SearchMaxResults: 100,
		EmbeddingMode:    config.EmbeddingModeNone,
		ExtractionPolicy: config.ExtractionStrict,
		StorePDFBinary:   true,
		RequestTimeout:   5 * time.Second,
	}
}

func TestNewSlideServiceWithoutEmbeddings(t *testing.T) {
	store := search.NewMemoryStore(search.DefaultSearchExcludes...)

	svc, closeEncoder, err := NewSlideService(context.Background(), testConfig(), store, nil)
	require.NoError(t, err)
	defer closeEncoder()

	res, err := svc.Upload(context.Background(), &models.UploadRequest{
		CourseID:   "CIS150",
		CourseName: "Intro CS",
		Title:      "Lecture 1",
		Content:    testutil.BuildPDF("Hello", "World"),
	})
	require.NoError(t, err)
	assert.True(t, res.HasBinary)
	assert.Equal(t, 1, store.Len())
}

func TestNewSlideServiceDenseRequiresKey(t *testing.T) {
	cfg := testConfig()
	cfg.EmbeddingMode = config.EmbeddingModeDense
	cfg.VectorDimensions = 768

	_, _, err := NewSlideService(context.Background(), cfg, search.NewMemoryStore(), nil)
	assert.Error(t, err)
}

func TestRouterWiresEveryRoute(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("routes", func(mt *mtest.T) {
		cfg := testConfig()
		slides, _, err := NewSlideService(context.Background(), cfg, search.NewMemoryStore(), nil)
		require.NoError(mt, err)

		a := &App{
			Config:  cfg,
			Slides:  slides,
			Courses: services.NewCourseService(mt.DB),
			Notes:   services.NewNoteService(mt.DB),
			Folders: services.NewFolderService(mt.DB),
		}
		router := a.Router("test")

		registered := map[string]bool{}
		for _, r := range router.Routes() {
			registered[r.Method+" "+r.Path] = true
		}
		for _, want := range []string{
			"GET /health",
			"GET /ready",
			"POST /api/upload",
			"GET /api/slides/:course_id",
			"DELETE /api/slides/:document_id",
			"GET /api/pdf/:document_id",
			"GET /api/courses",
			"GET /api/courses/dropdown/options",
			"GET /api/notes",
			"GET /api/folders",
		} {
			assert.True(mt, registered[want], "missing route %s", want)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(mt, http.StatusOK, w.Code)
		assert.NotEmpty(mt, w.Header().Get("X-Request-ID"))
	})
}

func TestCloseOnEmptyApp(t *testing.T) {
	a := &App{}
	assert.NoError(t, a.Close(context.Background()))
}
