package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
)

// errStaleStatus aborts a transaction whose conditional update matched nothing
var errStaleStatus = errors.New("meeting status changed")

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create creates a new meeting
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID retrieves a meeting by its ID with its action items
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Preload("ActionItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&meeting).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// List retrieves a team's meetings, newest first
func (r *meetingRepository) List(ctx context.Context, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	var meetings []*entities.Meeting
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Meeting{}).Where("team_id = ?", filters.TeamID)

	// Apply filters
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC").Preload("ActionItems")

	// Apply pagination
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&meetings).Error; err != nil {
		return nil, 0, err
	}
	return meetings, total, nil
}

// UpdateDetails updates title and scheduled_at, leaving processing output untouched
func (r *meetingRepository) UpdateDetails(ctx context.Context, id uuid.UUID, title *string, scheduledAt *time.Time) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if title != nil {
		updates["title"] = *title
	}
	if scheduledAt != nil {
		updates["scheduled_at"] = *scheduledAt
	}

	res := r.db.WithContext(ctx).Model(&entities.Meeting{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrMeetingNotFound
	}
	return nil
}

// Delete removes a meeting together with its action items
func (r *meetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", id).Delete(&entities.ActionItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.Meeting{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entities.ErrMeetingNotFound
		}
		return nil
	})
}

// transition moves the meeting to `to` only if it is still in one of from.
// Every from status must be allowed by the meeting state machine.
func (r *meetingRepository) transition(db *gorm.DB, id uuid.UUID, from []entities.MeetingStatus, to entities.MeetingStatus, updates map[string]interface{}) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("%w: no status may move to %s", entities.ErrInvalidTransition, to)
	}
	for _, f := range from {
		if err := f.ValidateTransition(to); err != nil {
			return false, err
		}
	}

	updates["status"] = to
	updates["updated_at"] = time.Now()
	res := db.Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkProcessing moves scheduled -> processing
func (r *meetingRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.transition(r.db.WithContext(ctx), id,
		entities.TransitionSources(entities.MeetingStatusProcessing),
		entities.MeetingStatusProcessing,
		map[string]interface{}{},
	)
}

// MarkTranscribed stores the transcript and moves processing -> transcribed
func (r *meetingRepository) MarkTranscribed(ctx context.Context, id uuid.UUID, update repositories.TranscriptUpdate) (bool, error) {
	return r.transition(r.db.WithContext(ctx), id,
		entities.TransitionSources(entities.MeetingStatusTranscribed),
		entities.MeetingStatusTranscribed,
		map[string]interface{}{
			"transcript":          update.Transcript,
			"transcript_segments": datatypes.NewJSONType(update.Segments),
			"duration_minutes":    update.DurationMinutes,
		},
	)
}

// Complete stores the summary and action items and moves transcribed -> completed
// in one transaction. Nothing is written if the meeting moved on.
func (r *meetingRepository) Complete(ctx context.Context, id uuid.UUID, summary string, items []*entities.ActionItem) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := r.transition(tx, id,
			entities.TransitionSources(entities.MeetingStatusCompleted),
			entities.MeetingStatusCompleted,
			map[string]interface{}{
				"summary":      summary,
				"processed_at": time.Now(),
			},
		)
		if err != nil {
			return err
		}
		if !ok {
			return errStaleStatus
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(items).Error
	})

	if errors.Is(err, errStaleStatus) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkFailed moves the meeting from the status the run observed to failed.
// It reports false when the meeting has left observed in the meantime.
func (r *meetingRepository) MarkFailed(ctx context.Context, id uuid.UUID, observed entities.MeetingStatus, reason string) (bool, error) {
	return r.transition(r.db.WithContext(ctx), id,
		[]entities.MeetingStatus{observed},
		entities.MeetingStatusFailed,
		map[string]interface{}{
			"failure_reason": reason,
			"processed_at":   time.Now(),
		},
	)
}
