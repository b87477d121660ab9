package routes

import (
	"errors"
	"net/http"

	"tasknest/tasknest/database"
	"tasknest/tasknest/middleware"
	"tasknest/tasknest/models"
	"tasknest/tasknest/services"

	"github.com/gin-gonic/gin"
)

func RegisterTaskRoutes(router *gin.Engine, db *database.Database, taskService services.TaskServiceInterface, authenticator services.Authenticator) {
	group := router.Group("/tasks")
	group.Use(middleware.AuthMiddleware(authenticator))
	{
		group.GET("", func(c *gin.Context) { ListTasks(c, db, taskService) })
		group.POST("", func(c *gin.Context) { CreateTask(c, db, taskService) })
		group.PATCH("/:id", func(c *gin.Context) { UpdateTask(c, db, taskService) })
		group.DELETE("/:id", func(c *gin.Context) { DeleteTask(c, db, taskService) })
	}
}

func ListTasks(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	tasks, err := taskService.ListTasks(c.Request.Context(), db, middleware.CallerSubject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func CreateTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	var input models.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := taskService.CreateTask(c.Request.Context(), db, input, middleware.CallerSubject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func UpdateTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := taskService.UpdateTask(c.Request.Context(), db, c.Param("id"), patch, middleware.CallerSubject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func DeleteTask(c *gin.Context, db *database.Database, taskService services.TaskServiceInterface) {
	err := taskService.DeleteTask(c.Request.Context(), db, c.Param("id"), middleware.CallerSubject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// respondError maps service errors onto the wire taxonomy. Anything not
// recognized is an internal error; the process never crashes on a handler
// failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
