package meeting

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
)

type mockMeetingRepo struct {
	mock.Mock
}

func (m *mockMeetingRepo) Create(ctx context.Context, meeting *entities.Meeting) error {
	return m.Called(ctx, meeting).Error(0)
}

func (m *mockMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*entities.Meeting), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMeetingRepo) List(ctx context.Context, f repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	args := m.Called(ctx, f)
	if v := args.Get(0); v != nil {
		return v.([]*entities.Meeting), args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *mockMeetingRepo) UpdateDetails(ctx context.Context, id uuid.UUID, title *string, at *time.Time) error {
	return m.Called(ctx, id, title, at).Error(0)
}

func (m *mockMeetingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockMeetingRepo) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) MarkTranscribed(ctx context.Context, id uuid.UUID, u repositories.TranscriptUpdate) (bool, error) {
	args := m.Called(ctx, id, u)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) Complete(ctx context.Context, id uuid.UUID, summary string, items []*entities.ActionItem) (bool, error) {
	args := m.Called(ctx, id, summary, items)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) MarkFailed(ctx context.Context, id uuid.UUID, observed entities.MeetingStatus, reason string) (bool, error) {
	args := m.Called(ctx, id, observed, reason)
	return args.Bool(0), args.Error(1)
}

type mockActionItemRepo struct {
	mock.Mock
}

func (m *mockActionItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.ActionItem, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*entities.ActionItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockActionItemRepo) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	args := m.Called(ctx, meetingID)
	if v := args.Get(0); v != nil {
		return v.([]*entities.ActionItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockActionItemRepo) Convert(ctx context.Context, itemID uuid.UUID, task *entities.Task) error {
	return m.Called(ctx, itemID, task).Error(0)
}

func (m *mockActionItemRepo) Reject(ctx context.Context, itemID uuid.UUID) error {
	return m.Called(ctx, itemID).Error(0)
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []uuid.UUID
	err        error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, meetingID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, meetingID)
	return nil
}

func (d *fakeDispatcher) Stop(ctx context.Context) error { return nil }

type staticProvider struct {
	name string
	err  error
}

func (p staticProvider) Name() string { return p.name }
func (p staticProvider) Ready() error { return p.err }
