package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tasknest/tasknest/broker"
	"tasknest/tasknest/database"
	"tasknest/tasknest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskServiceInterface interface {
	ListTasks(ctx context.Context, db *database.Database, owner string) ([]models.Task, error)
	CreateTask(ctx context.Context, db *database.Database, input models.TaskInput, owner string) (models.Task, error)
	UpdateTask(ctx context.Context, db *database.Database, id string, patch models.TaskPatch, owner string) (models.Task, error)
	DeleteTask(ctx context.Context, db *database.Database, id string, owner string) error
}

// TaskService performs task CRUD against the store. Ownership is enforced
// by folding the caller's subject into every query, so a foreign task and a
// missing task are indistinguishable: both match zero rows.
type TaskService struct {
	publisher broker.Publisher
	timeout   time.Duration
}

func NewTaskService(publisher broker.Publisher, timeout time.Duration) *TaskService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TaskService{publisher: publisher, timeout: timeout}
}

// ownedScope applies the ownership filter. An empty owner means auth is
// disabled and all tasks are visible.
func ownedScope(tx *gorm.DB, owner string) *gorm.DB {
	if owner == "" {
		return tx
	}
	return tx.Where("user_id = ?", owner)
}

func parseTaskID(id string) (uuid.UUID, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed task id %q", ErrInvalidInput, id)
	}
	return taskID, nil
}

func (s *TaskService) ListTasks(ctx context.Context, db *database.Database, owner string) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tasks := []models.Task{}
	result := ownedScope(db.DB.WithContext(ctx), owner).
		Order("created_at DESC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, db *database.Database, input models.TaskInput, owner string) (models.Task, error) {
	if err := input.Validate(); err != nil {
		return models.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	task := input.NewTask(owner)
	if err := db.DB.WithContext(ctx).Create(&task).Error; err != nil {
		return models.Task{}, err
	}

	s.publishEvent(broker.TaskCreated, task)
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, db *database.Database, id string, patch models.TaskPatch, owner string) (models.Task, error) {
	taskID, err := parseTaskID(id)
	if err != nil {
		return models.Task{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.Task{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	changes := patch.Changes()
	if len(changes) > 0 {
		result := ownedScope(db.DB.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID), owner).
			Updates(changes)
		if result.Error != nil {
			return models.Task{}, result.Error
		}
		if result.RowsAffected == 0 {
			return models.Task{}, ErrTaskNotFound
		}
	}

	var task models.Task
	if err := ownedScope(db.DB.WithContext(ctx).Where("id = ?", taskID), owner).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}

	if len(changes) > 0 {
		s.publishEvent(broker.TaskUpdated, task)
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, db *database.Database, id string, owner string) error {
	taskID, err := parseTaskID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := ownedScope(db.DB.WithContext(ctx).Where("id = ?", taskID), owner).
		Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	s.publishEvent(broker.TaskDeleted, models.Task{ID: taskID, UserID: owner})
	return nil
}

// publishEvent emits a lifecycle event to the broker. Best-effort: a
// missing or failing broker never fails the request.
func (s *TaskService) publishEvent(eventType broker.EventType, task models.Task) {
	if s.publisher == nil {
		return
	}

	event, err := models.NewEvent(string(eventType), "task", map[string]interface{}{
		"taskId": task.ID.String(),
		"userId": task.UserID,
		"title":  task.Title,
	})
	if err != nil {
		log.Printf("Failed to build %s event: %v", eventType, err)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", eventType, err)
		return
	}

	if err := s.publisher.Publish(string(eventType), payload); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
