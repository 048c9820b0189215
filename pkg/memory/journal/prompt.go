package journal

import (
	"fmt"

	"github.com/taleweave/taleweave/pkg/models"
)

const analysisSystem = `You are a meticulous story archivist. Given a roleplay conversation, extract a journal entry describing what happened.

Respond with a single JSON object and nothing else. Required keys:
  "summary": string, 1-3 sentences describing the events.
  "emotions": object with numeric "positive", "negative", "neutral" weights.
  "decisions": array of strings, commitments or choices made (may be empty).
  "topics": array of strings, subjects discussed (may be empty).
  "importance": integer from 1 (mundane) to 10 (pivotal).
  "relationshipDelta": number from -1 to 1, how the conversation shifted the character's feelings toward the user.
Optional keys: "conversationDrivers", "participants", "plotElements" (arrays of strings).

Do not wrap the JSON in markdown fences or commentary.`

// AnalysisMessages builds the structured-extraction conversation handed
// to the text-generation capability.
func AnalysisMessages(owner string, turns []models.Message) []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: analysisSystem},
		{
			Role: models.RoleUser,
			Content: fmt.Sprintf("The character keeping this journal is %q.\n\nConversation:\n%s",
				owner, models.Transcript(turns)),
		},
	}
}
