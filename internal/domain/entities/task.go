package entities

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task is a unit of team work. Only the fields needed to convert an
// action item are modelled here.
type Task struct {
	ID              uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	TeamID          uuid.UUID    `json:"team_id" gorm:"type:uuid;not null;index"`
	CreatedByID     *uuid.UUID   `json:"created_by_id,omitempty" gorm:"type:uuid"`
	SourceMeetingID *uuid.UUID   `json:"source_meeting_id,omitempty" gorm:"type:uuid;index"`
	Title           string       `json:"title" gorm:"type:varchar(500);not null"`
	Description     *string      `json:"description,omitempty" gorm:"type:text"`
	Status          TaskStatus   `json:"status" gorm:"type:varchar(20);not null"`
	Priority        TaskPriority `json:"priority" gorm:"type:varchar(20);not null"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	CreatedAt       time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

const maxTaskTitleLen = 500

// NewTaskFromActionItem builds a todo task carrying the item's description.
// Mentions that could not be resolved to structured fields are kept in the body.
func NewTaskFromActionItem(item *ActionItem, teamID uuid.UUID, createdBy *uuid.UUID) *Task {
	title := item.Description
	if len(title) > maxTaskTitleLen {
		title = title[:maxTaskTitleLen]
	}

	var body string
	if item.AssigneeMentioned != nil && *item.AssigneeMentioned != "" {
		body += "Assignee mentioned: " + *item.AssigneeMentioned + "\n"
	}
	if item.DeadlineMentioned != nil && *item.DeadlineMentioned != "" {
		body += "Deadline mentioned: " + *item.DeadlineMentioned + "\n"
	}

	now := time.Now()
	task := &Task{
		ID:              uuid.New(),
		TeamID:          teamID,
		CreatedByID:     createdBy,
		SourceMeetingID: item.MeetingID,
		Title:           title,
		Status:          TaskStatusTodo,
		Priority:        TaskPriorityMedium,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if body != "" {
		task.Description = &body
	}
	return task
}
