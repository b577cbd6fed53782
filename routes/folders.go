package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

func SetupFolderRoutes(router *gin.Engine, folders *services.FolderService) {
	group := router.Group("/api/folders")

	group.GET("", handleListFolders(folders))
	group.POST("", handleSaveFolder(folders, ""))
	group.GET("/:folder_id", handleGetFolder(folders))
	group.PUT("/:folder_id", handleSaveFolder(folders, "folder_id"))
	group.DELETE("/:folder_id", handleDeleteFolder(folders))
}

func handleListFolders(folders *services.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := folders.List(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "list folders")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleGetFolder(folders *services.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		folder, err := folders.Get(c.Request.Context(), c.Param("folder_id"))
		if err != nil {
			respondServiceError(c, err, "fetch folder")
			return
		}
		c.JSON(http.StatusOK, folder)
	}
}

// handleSaveFolder creates a folder, or renames the one named by idParam.
func handleSaveFolder(folders *services.FolderService, idParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FolderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		if idParam == "" {
			folder, err := folders.Create(c.Request.Context(), &req)
			if err != nil {
				respondServiceError(c, err, "create folder")
				return
			}
			c.JSON(http.StatusCreated, folder)
			return
		}

		folder, err := folders.Update(c.Request.Context(), c.Param(idParam), &req)
		if err != nil {
			respondServiceError(c, err, "update folder")
			return
		}
		c.JSON(http.StatusOK, folder)
	}
}

func handleDeleteFolder(folders *services.FolderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := folders.Delete(c.Request.Context(), c.Param("folder_id")); err != nil {
			respondServiceError(c, err, "delete folder")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Folder deleted successfully"})
	}
}
