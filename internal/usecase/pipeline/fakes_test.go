package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/repositories"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/events"
	"github.com/johnquangdev/meeting-pipeline/pkg/ai"
)

// memMeetings is an in-memory MeetingRepository with the same conditional semantics as the gorm one
type memMeetings struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*entities.Meeting
	items    map[uuid.UUID][]*entities.ActionItem

	failMarkFailed error
	failComplete   error
	// beforeTranscribed runs inside MarkTranscribed, used to simulate a concurrent run
	beforeTranscribed func(m *entities.Meeting)
}

func newMemMeetings() *memMeetings {
	return &memMeetings{
		meetings: map[uuid.UUID]*entities.Meeting{},
		items:    map[uuid.UUID][]*entities.ActionItem{},
	}
}

func (r *memMeetings) put(m *entities.Meeting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.meetings[m.ID] = &cp
}

func (r *memMeetings) get(id uuid.UUID) *entities.Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.meetings[id]
	return &cp
}

func (r *memMeetings) Create(ctx context.Context, m *entities.Meeting) error {
	r.put(m)
	return nil
}

func (r *memMeetings) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, entities.ErrMeetingNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMeetings) List(ctx context.Context, f repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *memMeetings) UpdateDetails(ctx context.Context, id uuid.UUID, title *string, at *time.Time) error {
	return errors.New("not implemented")
}

func (r *memMeetings) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (r *memMeetings) transition(id uuid.UUID, from []entities.MeetingStatus, to entities.MeetingStatus, apply func(*entities.Meeting)) bool {
	m, ok := r.meetings[id]
	if !ok {
		return false
	}
	for _, f := range from {
		if m.Status == f {
			m.Status = to
			if apply != nil {
				apply(m)
			}
			return true
		}
	}
	return false
}

func (r *memMeetings) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(id, []entities.MeetingStatus{entities.MeetingStatusScheduled}, entities.MeetingStatusProcessing, nil), nil
}

func (r *memMeetings) MarkTranscribed(ctx context.Context, id uuid.UUID, u repositories.TranscriptUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeTranscribed != nil {
		r.beforeTranscribed(r.meetings[id])
	}
	return r.transition(id, []entities.MeetingStatus{entities.MeetingStatusProcessing}, entities.MeetingStatusTranscribed, func(m *entities.Meeting) {
		t := u.Transcript
		d := u.DurationMinutes
		m.Transcript = &t
		m.DurationMinutes = &d
		m.TranscriptSegments = datatypes.NewJSONType(u.Segments)
	}), nil
}

func (r *memMeetings) Complete(ctx context.Context, id uuid.UUID, summary string, items []*entities.ActionItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failComplete != nil {
		return false, r.failComplete
	}
	ok := r.transition(id, []entities.MeetingStatus{entities.MeetingStatusTranscribed}, entities.MeetingStatusCompleted, func(m *entities.Meeting) {
		s := summary
		m.Summary = &s
	})
	if ok {
		r.items[id] = append(r.items[id], items...)
	}
	return ok, nil
}

func (r *memMeetings) MarkFailed(ctx context.Context, id uuid.UUID, observed entities.MeetingStatus, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMarkFailed != nil {
		return false, r.failMarkFailed
	}
	if err := observed.ValidateTransition(entities.MeetingStatusFailed); err != nil {
		return false, err
	}
	return r.transition(id,
		[]entities.MeetingStatus{observed},
		entities.MeetingStatusFailed,
		func(m *entities.Meeting) { m.FailureReason = &reason },
	), nil
}

type fakeDownloader struct {
	calls int
	err   error
	paths []string
}

func (d *fakeDownloader) Download(ctx context.Context, ref entities.StorageRef, destPath string) error {
	d.calls++
	d.paths = append(d.paths, destPath)
	if d.err != nil {
		return d.err
	}
	return os.WriteFile(destPath, []byte("audio"), 0o600)
}

type fakeTranscriber struct {
	calls    int
	readyErr error
	result   *ai.Transcription
	err      error
	// during runs while the transcription is in flight
	during func(ctx context.Context)
}

func (f *fakeTranscriber) Name() string { return "fake-transcriber" }
func (f *fakeTranscriber) Ready() error { return f.readyErr }

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (*ai.Transcription, error) {
	f.calls++
	if f.during != nil {
		f.during(ctx)
	}
	if f.err != nil {
		return nil, f.err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return f.result, nil
}

type fakeSummarizer struct {
	summarizeCalls int
	extractCalls   int
	readyErr       error
	summary        string
	summarizeErr   error
	candidates     []ai.ActionItemCandidate
	extractErr     error
	lastTranscript string
}

func (f *fakeSummarizer) Name() string { return "fake-summarizer" }
func (f *fakeSummarizer) Ready() error { return f.readyErr }

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript, title string) (string, error) {
	f.summarizeCalls++
	f.lastTranscript = transcript
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return f.summary, nil
}

func (f *fakeSummarizer) ExtractActionItems(ctx context.Context, summary string) ([]ai.ActionItemCandidate, error) {
	f.extractCalls++
	return f.candidates, f.extractErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.MeetingProcessed
	err    error
}

func (p *recordingPublisher) PublishMeetingProcessed(ctx context.Context, evt events.MeetingProcessed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
