package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
	"lecture-slides-backend/utils"
)

func SetupCourseRoutes(router *gin.Engine, courses *services.CourseService) {
	group := router.Group("/api/courses")

	group.GET("", handleListCourses(courses))
	group.POST("", handleCreateCourse(courses))
	group.GET("/dropdown/options", handleCourseOptions(courses))
	group.GET("/:course_id", handleGetCourse(courses))
	group.PUT("/:course_id", handleUpdateCourse(courses))
	group.DELETE("/:course_id", handleDeleteCourse(courses))
}

func handleListCourses(courses *services.CourseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := courses.List(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "list courses")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleCourseOptions(courses *services.CourseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := courses.DropdownOptions(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "list course options")
			return
		}
		c.JSON(http.StatusOK, opts)
	}
}

func handleGetCourse(courses *services.CourseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := courses.Get(c.Request.Context(), c.Param("course_id"))
		if err != nil {
			respondServiceError(c, err, "fetch course")
			return
		}
		c.JSON(http.StatusOK, course)
	}
}

func handleCreateCourse(courses *services.CourseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateCourseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		course, err := courses.Create(c.Request.Context(), &req)
		if err != nil {
			respondServiceError(c, err, "create course")
			return
		}
		c.JSON(http.StatusCreated, course)
	}
}

func handleUpdateCourse(courses *services.CourseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateCourseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", gin.H{"error": err.Error()})
			return
		}

		course, err := courses.Update(c.Request.Context(), c.Param("course_id"), &req)
		if err != nil {
			respondServiceError(c, err, "update course")
			return
		}
		c.JSON(http.StatusOK, course)
	}
}

func handleDeleteCourse(courses *services.CourseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := courses.Delete(c.Request.Context(), c.Param("course_id")); err != nil {
			respondServiceError(c, err, "delete course")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Course deleted successfully"})
	}
}
