package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string     `gorm:"index" json:"userId,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `gorm:"not null;default:'medium'" json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `gorm:"not null" json:"completed"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"createdAt"`
}

// Boolish accepts the loose boolean encodings the original clients send
// (true/"true"/1/"1"/"yes" and their false counterparts) and normalizes
// them to a strict bool. Anything else is a decode error.
type Boolish bool

func (b *Boolish) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case bool:
		*b = Boolish(v)
		return nil
	case float64:
		if v == 0 {
			*b = false
			return nil
		}
		if v == 1 {
			*b = true
			return nil
		}
	case string:
		switch v {
		case "true", "1", "yes":
			*b = true
			return nil
		case "false", "0", "no":
			*b = false
			return nil
		}
	}
	return fmt.Errorf("cannot cast %s to boolean", strings.TrimSpace(string(data)))
}

func (b Boolish) Bool() bool { return bool(b) }

// Date accepts either an RFC 3339 timestamp or a plain YYYY-MM-DD day.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("date must be a string")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t.UTC()
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t.UTC()
		return nil
	}
	return fmt.Errorf("invalid date %q", s)
}

// TaskInput is the validated body of a task creation request.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     *Date    `json:"dueDate"`
	Completed   Boolish  `json:"completed"`
}

func (in *TaskInput) Validate() error {
	if in.Title == "" {
		return errors.New("title is required")
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", in.Priority)
	}
	return nil
}

// NewTask builds a persistable task from a validated input. The id and
// creation timestamp are assigned here and never change afterwards.
func (in *TaskInput) NewTask(userID string) Task {
	task := Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Completed:   in.Completed.Bool(),
		CreatedAt:   time.Now().UTC(),
	}
	if in.DueDate != nil {
		due := in.DueDate.Time
		task.DueDate = &due
	}
	return task
}

// TaskPatch is the validated body of a partial update. Nil fields were
// absent from the request and leave the stored value untouched.
type TaskPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *Priority `json:"priority"`
	DueDate     *Date     `json:"dueDate"`
	Completed   *Boolish  `json:"completed"`
}

func (p *TaskPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return errors.New("title cannot be empty")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", *p.Priority)
	}
	return nil
}

// Changes returns the column assignments for the supplied fields only.
func (p *TaskPatch) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Priority != nil {
		changes["priority"] = *p.Priority
	}
	if p.DueDate != nil {
		changes["due_date"] = p.DueDate.Time
	}
	if p.Completed != nil {
		changes["completed"] = p.Completed.Bool()
	}
	return changes
}
