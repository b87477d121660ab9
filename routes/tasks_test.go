package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasknest/tasknest/database"
	"tasknest/tasknest/models"
	"tasknest/tasknest/services"
	"tasknest/tasknest/testutils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenTableAuth authenticates from a fixed token-to-subject table.
type tokenTableAuth map[string]string

func (a tokenTableAuth) Enabled() bool { return true }

func (a tokenTableAuth) Authenticate(tokenString string) (*services.Identity, error) {
	if subject, ok := a[tokenString]; ok {
		return &services.Identity{Subject: subject}, nil
	}
	return nil, errors.New("signature mismatch")
}

func setupTaskRouter(t *testing.T, authenticator services.Authenticator) (*gin.Engine, *database.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, close := testutils.SetupTestDB()
	t.Cleanup(close)

	router := gin.New()
	RegisterTaskRoutes(router, db, services.NewTaskService(nil, time.Second), authenticator)
	return router, db
}

func doJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTask(t *testing.T) {
	router, db := setupTaskRouter(t, services.NoAuth{})

	t.Run("Valid JSON", func(t *testing.T) {
		w := doJSON(router, "POST", "/tasks", `{"title":"Test Task"}`, "")
		assert.Equal(t, http.StatusCreated, w.Code)

		var task models.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, "Test Task", task.Title)
		assert.Equal(t, models.PriorityMedium, task.Priority)
		assert.False(t, task.Completed)
		assert.False(t, task.CreatedAt.IsZero())
	})

	t.Run("Truthy Completed", func(t *testing.T) {
		w := doJSON(router, "POST", "/tasks", `{"title":"Coerced","completed":"yes"}`, "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"completed":true`)
	})

	t.Run("Missing Title", func(t *testing.T) {
		var before int64
		require.NoError(t, db.DB.Model(&models.Task{}).Count(&before).Error)

		w := doJSON(router, "POST", "/tasks", `{"description":"no title"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "error")

		var after int64
		require.NoError(t, db.DB.Model(&models.Task{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		w := doJSON(router, "POST", "/tasks", `{"title":`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid Priority", func(t *testing.T) {
		w := doJSON(router, "POST", "/tasks", `{"title":"x","priority":"urgent"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTasks_Ordering(t *testing.T) {
	router, db := setupTaskRouter(t, services.NoAuth{})

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"t1", "t2", "t3"} {
		task := models.Task{
			ID:        uuid.New(),
			Title:     title,
			Priority:  models.PriorityMedium,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.DB.Create(&task).Error)
	}

	w := doJSON(router, "GET", "/tasks", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	assert.Equal(t, "t3", tasks[0].Title)
	assert.Equal(t, "t2", tasks[1].Title)
	assert.Equal(t, "t1", tasks[2].Title)
}

func TestUpdateTask(t *testing.T) {
	router, _ := setupTaskRouter(t, services.NoAuth{})

	w := doJSON(router, "POST", "/tasks", `{"title":"Before"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("Partial Update", func(t *testing.T) {
		w := doJSON(router, "PATCH", "/tasks/"+created.ID.String(), `{"completed":true}`, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "Before", updated.Title)
		assert.True(t, updated.Completed)
	})

	t.Run("Unknown ID", func(t *testing.T) {
		w := doJSON(router, "PATCH", "/tasks/"+uuid.NewString(), `{"completed":true}`, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Task not found"}`, w.Body.String())
	})

	t.Run("Malformed ID", func(t *testing.T) {
		w := doJSON(router, "PATCH", "/tasks/not-a-uuid", `{"completed":true}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		w := doJSON(router, "PATCH", "/tasks/"+created.ID.String(), `{"completed":"maybe"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteTask(t *testing.T) {
	router, _ := setupTaskRouter(t, services.NoAuth{})

	w := doJSON(router, "POST", "/tasks", `{"title":"Short-lived"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("Task Deleted", func(t *testing.T) {
		w := doJSON(router, "DELETE", "/tasks/"+created.ID.String(), "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "message")
	})

	t.Run("Already Deleted", func(t *testing.T) {
		w := doJSON(router, "DELETE", "/tasks/"+created.ID.String(), "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTasks_OwnershipIsolation(t *testing.T) {
	auth := tokenTableAuth{"token-x": "user-x", "token-y": "user-y"}
	router, _ := setupTaskRouter(t, auth)

	w := doJSON(router, "POST", "/tasks", `{"title":"X's task"}`, "token-x")
	require.Equal(t, http.StatusCreated, w.Code)
	var taskX models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &taskX))
	assert.Equal(t, "user-x", taskX.UserID)

	t.Run("List Excludes Foreign Tasks", func(t *testing.T) {
		w := doJSON(router, "GET", "/tasks", "", "token-y")
		assert.Equal(t, http.StatusOK, w.Code)

		var tasks []models.Task
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
		assert.Empty(t, tasks)
	})

	t.Run("Foreign Patch Is NotFound", func(t *testing.T) {
		w := doJSON(router, "PATCH", "/tasks/"+taskX.ID.String(), `{"title":"stolen"}`, "token-y")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Foreign Delete Is NotFound", func(t *testing.T) {
		w := doJSON(router, "DELETE", "/tasks/"+taskX.ID.String(), "", "token-y")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Owner Still Sees Task", func(t *testing.T) {
		w := doJSON(router, "GET", "/tasks", "", "token-x")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "X's task")
	})
}

// countingTaskService fails the test if any store operation runs.
type countingTaskService struct {
	calls int
}

func (s *countingTaskService) ListTasks(context.Context, *database.Database, string) ([]models.Task, error) {
	s.calls++
	return nil, nil
}

func (s *countingTaskService) CreateTask(context.Context, *database.Database, models.TaskInput, string) (models.Task, error) {
	s.calls++
	return models.Task{}, nil
}

func (s *countingTaskService) UpdateTask(context.Context, *database.Database, string, models.TaskPatch, string) (models.Task, error) {
	s.calls++
	return models.Task{}, nil
}

func (s *countingTaskService) DeleteTask(context.Context, *database.Database, string, string) error {
	s.calls++
	return nil
}

func TestTasks_UnauthenticatedNeverTouchesStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	svc := &countingTaskService{}
	RegisterTaskRoutes(router, &database.Database{}, svc, tokenTableAuth{})

	for _, route := range []struct{ method, path string }{
		{"GET", "/tasks"},
		{"POST", "/tasks"},
		{"PATCH", "/tasks/" + uuid.NewString()},
		{"DELETE", "/tasks/" + uuid.NewString()},
	} {
		w := doJSON(router, route.method, route.path, `{"title":"x"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
		assert.JSONEq(t, `{"error":"Missing Bearer token"}`, w.Body.String())
	}
	assert.Zero(t, svc.calls)
}

var _ services.TaskServiceInterface = (*countingTaskService)(nil)
