package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
)

// ActionItemRepository defines the interface for action item data access
type ActionItemRepository interface {
	// FindByID retrieves an action item; entities.ErrActionItemNotFound if missing
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ActionItem, error)

	// ListByMeeting returns the items extracted from a meeting, oldest first
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error)

	// Convert creates the task and marks the pending item converted in one transaction.
	// Returns entities.ErrActionItemNotPending if the item was already processed.
	Convert(ctx context.Context, itemID uuid.UUID, task *entities.Task) error

	// Reject marks a pending item rejected
	Reject(ctx context.Context, itemID uuid.UUID) error
}
