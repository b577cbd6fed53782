package routes

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCourseRoutes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	newRouter := func(mt *mtest.T) *gin.Engine {
		r := gin.New()
		SetupCourseRoutes(r, services.NewCourseService(mt.DB))
		return r
	}

	mt.Run("create duplicate is 400", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "slides_db.courses", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "course_id", Value: "CIS150"},
			{Key: "course_name", Value: "Intro CS"},
		}))

		w := serve(r, jsonRequest(http.MethodPost, "/api/courses", `{"course_id":"CIS150","course_name":"Intro CS"}`))
		assert.Equal(mt, http.StatusBadRequest, w.Code)
		assert.Equal(mt, "course_exists", decode[utils.ErrorResponse](mt.T, w).ErrorCode)
	})

	mt.Run("create missing field is 400", func(mt *mtest.T) {
		r := newRouter(mt)

		w := serve(r, jsonRequest(http.MethodPost, "/api/courses", `{"course_id":"CIS150"}`))
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})

	mt.Run("get missing is 404", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "slides_db.courses", mtest.FirstBatch))

		w := serve(r, httptest.NewRequest(http.MethodGet, "/api/courses/NOPE", nil))
		assert.Equal(mt, http.StatusNotFound, w.Code)
	})

	mt.Run("dropdown options", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "slides_db.courses", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "course_id", Value: "CIS150"},
			{Key: "course_name", Value: "Intro CS"},
		}))

		w := serve(r, httptest.NewRequest(http.MethodGet, "/api/courses/dropdown/options", nil))
		require.Equal(mt, http.StatusOK, w.Code)
		assert.Equal(mt, []models.CourseOption{{ID: "CIS150", Name: "Intro CS"}}, decode[[]models.CourseOption](mt.T, w))
	})
}

func TestNoteAndFolderRoutes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	newRouter := func(mt *mtest.T) *gin.Engine {
		r := gin.New()
		SetupNoteRoutes(r, services.NewNoteService(mt.DB))
		SetupFolderRoutes(r, services.NewFolderService(mt.DB))
		return r
	}

	mt.Run("malformed note id is 404", func(mt *mtest.T) {
		r := newRouter(mt)

		w := serve(r, httptest.NewRequest(http.MethodGet, "/api/notes/not-an-id", nil))
		assert.Equal(mt, http.StatusNotFound, w.Code)
	})

	mt.Run("create note", func(mt *mtest.T) {
		r := newRouter(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		w := serve(r, jsonRequest(http.MethodPost, "/api/notes", `{"title":"Week 1","notes":"Big-O"}`))
		require.Equal(mt, http.StatusCreated, w.Code, w.Body.String())
		note := decode[models.Note](mt.T, w)
		assert.Equal(mt, "Week 1", note.Title)
		assert.False(mt, note.CreatedAt.IsZero())
	})

	mt.Run("delete folder twice", func(mt *mtest.T) {
		r := newRouter(mt)
		id := primitive.NewObjectID().Hex()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		w := serve(r, httptest.NewRequest(http.MethodDelete, "/api/folders/"+id, nil))
		assert.Equal(mt, http.StatusOK, w.Code)
		w = serve(r, httptest.NewRequest(http.MethodDelete, "/api/folders/"+id, nil))
		assert.Equal(mt, http.StatusNotFound, w.Code)
	})

	mt.Run("rename folder requires name", func(mt *mtest.T) {
		r := newRouter(mt)

		w := serve(r, jsonRequest(http.MethodPut, "/api/folders/"+primitive.NewObjectID().Hex(), `{}`))
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestHealthAndReady(t *testing.T) {
	healthy := ReadinessCheck{Name: "mongodb", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "elasticsearch", Check: func(context.Context) error { return errors.New("connection refused") }}

	r := gin.New()
	SetupHealthRoutes(r, "test", healthy)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = gin.New()
	SetupHealthRoutes(r, "test", healthy, down)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
