package entities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from MeetingStatus
		to   MeetingStatus
		want bool
	}{
		{MeetingStatusScheduled, MeetingStatusProcessing, true},
		{MeetingStatusProcessing, MeetingStatusTranscribed, true},
		{MeetingStatusProcessing, MeetingStatusFailed, true},
		{MeetingStatusTranscribed, MeetingStatusCompleted, true},
		{MeetingStatusTranscribed, MeetingStatusFailed, true},

		{MeetingStatusScheduled, MeetingStatusFailed, false},
		{MeetingStatusProcessing, MeetingStatusCompleted, false},
		{MeetingStatusTranscribed, MeetingStatusProcessing, false},
		{MeetingStatusCompleted, MeetingStatusFailed, false},
		{MeetingStatusCompleted, MeetingStatusProcessing, false},
		{MeetingStatusFailed, MeetingStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
			if tt.want {
				assert.NoError(t, tt.from.ValidateTransition(tt.to))
			} else {
				assert.ErrorIs(t, tt.from.ValidateTransition(tt.to), ErrInvalidTransition)
			}
		})
	}
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []MeetingStatus{MeetingStatusScheduled}, TransitionSources(MeetingStatusProcessing))
	assert.Equal(t, []MeetingStatus{MeetingStatusProcessing}, TransitionSources(MeetingStatusTranscribed))
	assert.Equal(t, []MeetingStatus{MeetingStatusTranscribed}, TransitionSources(MeetingStatusCompleted))
	assert.Equal(t,
		[]MeetingStatus{MeetingStatusProcessing, MeetingStatusTranscribed},
		TransitionSources(MeetingStatusFailed),
	)
	assert.Empty(t, TransitionSources(MeetingStatusScheduled))
}

func TestMeetingStatus_IsTerminal(t *testing.T) {
	assert.True(t, MeetingStatusCompleted.IsTerminal())
	assert.True(t, MeetingStatusFailed.IsTerminal())
	assert.False(t, MeetingStatusScheduled.IsTerminal())
	assert.False(t, MeetingStatusProcessing.IsTerminal())
	assert.False(t, MeetingStatusTranscribed.IsTerminal())
	assert.False(t, MeetingStatus("archived").IsValid())
}

func TestNewRecordedMeeting(t *testing.T) {
	teamID := uuid.New()
	ref := StorageRef{Backend: StorageBackendLocal, Key: "meetings/abc.MP3"}

	m := NewRecordedMeeting(teamID, nil, "Weekly sync", ref)

	require.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, MeetingStatusProcessing, m.Status)
	assert.True(t, m.HasRecording())
	assert.Equal(t, ".mp3", m.Recording.Ext())
	assert.Nil(t, m.Transcript)
	assert.Nil(t, m.Summary)
}

func TestMeeting_HasRecording(t *testing.T) {
	m := NewMeeting(uuid.New(), nil, "Planning", nil)
	assert.Equal(t, MeetingStatusScheduled, m.Status)
	assert.False(t, m.HasRecording())

	legacy := "https://bucket.s3.amazonaws.com/meetings/a.wav"
	m.RecordingURL = &legacy
	assert.True(t, m.HasRecording())
}

func TestActionItem_Transitions(t *testing.T) {
	meetingID := uuid.New()

	item := NewMeetingActionItem(meetingID, "Send the deck", 0.8)
	require.True(t, item.IsPending())
	assert.True(t, item.BelongsToMeeting(meetingID))
	assert.False(t, item.BelongsToMeeting(uuid.New()))

	taskID := uuid.New()
	require.NoError(t, item.MarkAsConverted(taskID))
	assert.Equal(t, ActionItemStatusConverted, item.Status)
	require.NotNil(t, item.TaskID)
	assert.Equal(t, taskID, *item.TaskID)

	assert.ErrorIs(t, item.MarkAsRejected(), ErrActionItemNotPending)
	assert.ErrorIs(t, item.MarkAsConverted(uuid.New()), ErrActionItemNotPending)

	other := NewMeetingActionItem(meetingID, "Book room", 0.7)
	require.NoError(t, other.MarkAsRejected())
	assert.ErrorIs(t, other.MarkAsRejected(), ErrActionItemNotPending)
}

func TestNewTaskFromActionItem(t *testing.T) {
	meetingID := uuid.New()
	teamID := uuid.New()
	item := NewMeetingActionItem(meetingID, "Prepare budget", 0.9)
	assignee := "alice@example.com"
	deadline := "next Friday"
	item.AssigneeMentioned = &assignee
	item.DeadlineMentioned = &deadline

	task := NewTaskFromActionItem(item, teamID, nil)

	assert.Equal(t, "Prepare budget", task.Title)
	assert.Equal(t, TaskStatusTodo, task.Status)
	assert.Equal(t, TaskPriorityMedium, task.Priority)
	assert.Equal(t, teamID, task.TeamID)
	require.NotNil(t, task.SourceMeetingID)
	assert.Equal(t, meetingID, *task.SourceMeetingID)
	require.NotNil(t, task.Description)
	assert.Contains(t, *task.Description, "alice@example.com")
	assert.Contains(t, *task.Description, "next Friday")
}
