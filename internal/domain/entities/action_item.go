package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemStatus represents the review state of an extracted action item
type ActionItemStatus string

const (
	ActionItemStatusPending   ActionItemStatus = "pending"
	ActionItemStatusConverted ActionItemStatus = "converted" // Turned into a Task
	ActionItemStatusRejected  ActionItemStatus = "rejected"
)

// ActionItem is a candidate task extracted from a meeting or message
type ActionItem struct {
	ID                uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	MeetingID         *uuid.UUID       `json:"meeting_id,omitempty" gorm:"type:uuid;index"`
	MessageID         *uuid.UUID       `json:"message_id,omitempty" gorm:"type:uuid;index"`
	TaskID            *uuid.UUID       `json:"task_id,omitempty" gorm:"type:uuid"`
	Description       string           `json:"description" gorm:"type:text;not null"`
	AssigneeMentioned *string          `json:"assignee_mentioned,omitempty" gorm:"type:varchar(255)"`
	DeadlineMentioned *string          `json:"deadline_mentioned,omitempty" gorm:"type:varchar(255)"`
	ConfidenceScore   float64          `json:"confidence_score" gorm:"not null"`
	Status            ActionItemStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedAt         time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ActionItem) TableName() string {
	return "action_items"
}

// NewMeetingActionItem creates a pending action item owned by a meeting
func NewMeetingActionItem(meetingID uuid.UUID, description string, confidence float64) *ActionItem {
	now := time.Now()
	return &ActionItem{
		ID:              uuid.New(),
		MeetingID:       &meetingID,
		Description:     description,
		ConfidenceScore: confidence,
		Status:          ActionItemStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsPending reports whether the item can still be converted or rejected
func (a *ActionItem) IsPending() bool {
	return a.Status == ActionItemStatusPending
}

// BelongsToMeeting reports whether the item was extracted from the given meeting
func (a *ActionItem) BelongsToMeeting(meetingID uuid.UUID) bool {
	return a.MeetingID != nil && *a.MeetingID == meetingID
}

// MarkAsConverted links the item to the created task
func (a *ActionItem) MarkAsConverted(taskID uuid.UUID) error {
	if !a.IsPending() {
		return ErrActionItemNotPending
	}
	a.Status = ActionItemStatusConverted
	a.TaskID = &taskID
	a.UpdatedAt = time.Now()
	return nil
}

// MarkAsRejected discards the item
func (a *ActionItem) MarkAsRejected() error {
	if !a.IsPending() {
		return ErrActionItemNotPending
	}
	a.Status = ActionItemStatusRejected
	a.UpdatedAt = time.Now()
	return nil
}
