package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

func SetupNoteRoutes(router *gin.Engine, notes *services.NoteService) {
	group := router.Group("/api/notes")

	group.GET("", handleListNotes(notes))
	group.POST("", handleCreateNote(notes))
	group.GET("/:note_id", handleGetNote(notes))
	group.PUT("/:note_id", handleUpdateNote(notes))
	group.DELETE("/:note_id", handleDeleteNote(notes))
}

func handleListNotes(notes *services.NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := notes.List(c.Request.Context(), c.Query("folder_id"))
		if err != nil {
			respondServiceError(c, err, "list notes")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleGetNote(notes *services.NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		note, err := notes.Get(c.Request.Context(), c.Param("note_id"))
		if err != nil {
			respondServiceError(c, err, "fetch note")
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func handleCreateNote(notes *services.NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		note, err := notes.Create(c.Request.Context(), &req)
		if err != nil {
			respondServiceError(c, err, "create note")
			return
		}
		c.JSON(http.StatusCreated, note)
	}
}

func handleUpdateNote(notes *services.NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		note, err := notes.Update(c.Request.Context(), c.Param("note_id"), &req)
		if err != nil {
			respondServiceError(c, err, "update note")
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func handleDeleteNote(notes *services.NoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := notes.Delete(c.Request.Context(), c.Param("note_id")); err != nil {
			respondServiceError(c, err, "delete note")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
	}
}
