package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
)

// actionItemRepository implements the ActionItemRepository interface
type actionItemRepository struct {
	db *gorm.DB
}

// NewActionItemRepository creates a new action item repository
func NewActionItemRepository(db *gorm.DB) repositories.ActionItemRepository {
	return &actionItemRepository{db: db}
}

// FindByID retrieves an action item by its ID
func (r *actionItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ActionItem, error) {
	var item entities.ActionItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrActionItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListByMeeting retrieves all action items of a meeting
func (r *actionItemRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	var items []*entities.ActionItem
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Convert creates the task and links it to the pending item atomically
func (r *actionItemRepository) Convert(ctx context.Context, itemID uuid.UUID, task *entities.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		res := tx.Model(&entities.ActionItem{}).
			Where("id = ? AND status = ?", itemID, entities.ActionItemStatusPending).
			Updates(map[string]interface{}{
				"status":     entities.ActionItemStatusConverted,
				"task_id":    task.ID,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entities.ErrActionItemNotPending
		}
		return nil
	})
}

// Reject marks a pending action item rejected
func (r *actionItemRepository) Reject(ctx context.Context, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&entities.ActionItem{}).
		Where("id = ? AND status = ?", itemID, entities.ActionItemStatusPending).
		Updates(map[string]interface{}{
			"status":     entities.ActionItemStatusRejected,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrActionItemNotPending
	}
	return nil
}
