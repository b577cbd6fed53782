package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lecture-slides-backend/middleware"
	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

func SetupSlideRoutes(router *gin.Engine, slides *services.SlideService, maxFileSize int64) {
	api := router.Group("/api")

	api.POST("/upload", middleware.RequestSizeLimit(maxFileSize), handleUpload(slides, maxFileSize))
	api.GET("/slides/:course_id", handleListSlides(slides))
	api.GET("/slides/:course_id/export", handleExportSlides(slides))
	api.DELETE("/slides/:document_id", handleDeleteSlide(slides))
	api.GET("/pdf/:document_id", handleGetPDF(slides))
	api.GET("/pdf/:document_id/download", handleDownloadPDF(slides))
}

func handleUpload(slides *services.SlideService, maxFileSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "request_too_large",
					"Request body exceeds maximum size", gin.H{"max_size": maxFileSize})
				return
			}
			utils.RespondWithBadRequest(c, "Expected a multipart form upload", gin.H{"error": err.Error()})
			return
		}

		req := &models.UploadRequest{
			CourseID:   c.PostForm("course_id"),
			CourseName: c.PostForm("course_name"),
			Title:      c.PostForm("title"),
		}

		// A missing file is reported by the service together with any missing fields.
		if file, header, err := c.Request.FormFile("file"); err == nil {
			defer file.Close()
			content, err := io.ReadAll(file)
			if err != nil {
				utils.RespondWithBadRequest(c, "Failed to read uploaded file", gin.H{"error": err.Error()})
				return
			}
			req.Content = content
			req.Filename = header.Filename
		}

		res, err := slides.Upload(c.Request.Context(), req)
		if err != nil {
			respondServiceError(c, err, "upload PDF")
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

func handleListSlides(slides *services.SlideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := slides.ListByCourse(c.Request.Context(), c.Param("course_id"))
		if err != nil {
			respondServiceError(c, err, "list slides")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleExportSlides(slides *services.SlideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := slides.ExportSlides(c.Request.Context(), c.Param("course_id"), c.DefaultQuery("format", services.ExportFormatXLSX))
		if err != nil {
			respondServiceError(c, err, "export slides")
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
		c.Header("X-Record-Count", strconv.Itoa(file.RecordCount))
		c.Data(http.StatusOK, file.ContentType, file.Data)
	}
}

func handleDeleteSlide(slides *services.SlideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("document_id")
		if err := slides.Delete(c.Request.Context(), id); err != nil {
			respondServiceError(c, err, "delete slide")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":     "Slide deleted successfully",
			"document_id": id,
		})
	}
}

func handleGetPDF(slides *services.SlideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bin, err := slides.GetBinary(c.Request.Context(), c.Param("document_id"))
		if err != nil {
			respondServiceError(c, err, "fetch PDF")
			return
		}
		c.JSON(http.StatusOK, bin)
	}
}

func handleDownloadPDF(slides *services.SlideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bin, raw, err := slides.Download(c.Request.Context(), c.Param("document_id"))
		if err != nil {
			respondServiceError(c, err, "download PDF")
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bin.Filename))
		c.Data(http.StatusOK, "application/pdf", raw)
	}
}
