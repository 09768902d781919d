package pipeline

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-pipeline/internal/adapter/repository"
	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/pkg/ai"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

func newSQLiteMeetings(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:pipeline_interleave?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Meeting{}, &entities.ActionItem{}, &entities.Task{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Run B loads the meeting while processing, run A transcribes and completes
// it, and B's late transcription failure must not flip A's result to failed.
func TestProcess_InterleavedRunsOnGormRepository(t *testing.T) {
	repo := repository.NewMeetingRepository(newSQLiteMeetings(t))
	ctx := context.Background()

	m := entities.NewRecordedMeeting(uuid.New(), nil, "Kickoff", entities.StorageRef{
		Backend: entities.StorageBackendLocal,
		Key:     "meetings/m1.mp3",
	})
	require.NoError(t, repo.Create(ctx, m))
	require.Equal(t, entities.MeetingStatusProcessing, m.Status)

	cfg := &config.PipelineConfig{MinConfidence: 0.6, TempDir: t.TempDir()}
	summarizer := &fakeSummarizer{summary: "KEY TOPICS: kickoff"}

	runA := NewService(repo, &fakeDownloader{}, &fakeTranscriber{result: &ai.Transcription{
		Provider: "fake",
		Segments: []ai.Segment{{Start: 0, End: 5, Text: "hello"}},
	}}, summarizer, nil, cfg, nil)

	var resA *Result
	var errA error
	transcriberB := &fakeTranscriber{
		err: &ai.ProviderError{Provider: "fake", StatusCode: 500},
		during: func(ctx context.Context) {
			resA, errA = runA.Process(ctx, m.ID)
		},
	}
	publisherB := &recordingPublisher{}
	runB := NewService(repo, &fakeDownloader{}, transcriberB, summarizer, publisherB, cfg, nil)

	resB, errB := runB.Process(ctx, m.ID)
	require.NoError(t, errA)
	assert.Equal(t, entities.MeetingStatusCompleted, resA.Status)

	require.NoError(t, errB)
	assert.True(t, resB.Skipped)
	assert.Empty(t, publisherB.events)

	stored, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusCompleted, stored.Status)
	assert.Nil(t, stored.FailureReason)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "KEY TOPICS: kickoff", *stored.Summary)
}
