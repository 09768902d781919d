package pipeline

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-pipeline/internal/domain/entities"
	"github.com/johnquangdev/meeting-pipeline/pkg/ai"
)

// DefaultMinConfidence is the gate threshold when none is configured
const DefaultMinConfidence = 0.6

// Gate keeps candidates whose confidence is at least threshold
// and returns them as pending action items of the meeting.
func Gate(meetingID uuid.UUID, candidates []ai.ActionItemCandidate, threshold float64) (kept []*entities.ActionItem, skipped int) {
	for _, c := range candidates {
		if c.Confidence < threshold {
			skipped++
			continue
		}
		item := entities.NewMeetingActionItem(meetingID, c.Description, c.Confidence)
		item.AssigneeMentioned = c.Assignee
		item.DeadlineMentioned = c.Deadline
		kept = append(kept, item)
	}
	return kept, skipped
}
