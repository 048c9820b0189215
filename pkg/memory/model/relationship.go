package model

// RelationshipStatus is a coarse label derived from sentiment.
type RelationshipStatus string

const (
	StatusFriendly     RelationshipStatus = "friendly"
	StatusAcquaintance RelationshipStatus = "acquaintance"
	StatusNeutral      RelationshipStatus = "neutral"
	StatusWary         RelationshipStatus = "wary"
	StatusHostile      RelationshipStatus = "hostile"
)

// RelationshipState tracks how a character currently feels about the
// user. It is produced alongside journal entries and handed back to the
// caller; this package never persists it.
type RelationshipState struct {
	Sentiment float64            `json:"sentiment"`
	Status    RelationshipStatus `json:"status"`
}

// ApplyDelta returns the state after shifting sentiment by delta,
// clamping to [-1, 1] and re-deriving the status label.
func (r RelationshipState) ApplyDelta(delta float64) RelationshipState {
	sentiment := Clamp(r.Sentiment+delta, -1.0, 1.0)
	return RelationshipState{
		Sentiment: sentiment,
		Status:    StatusForSentiment(sentiment),
	}
}

// StatusForSentiment maps sentiment onto a status label. Boundaries are
// exclusive: 0.4 is still acquaintance, -0.4 is still wary.
func StatusForSentiment(sentiment float64) RelationshipStatus {
	switch {
	case sentiment > 0.4:
		return StatusFriendly
	case sentiment > 0.1:
		return StatusAcquaintance
	case sentiment < -0.4:
		return StatusHostile
	case sentiment < -0.1:
		return StatusWary
	default:
		return StatusNeutral
	}
}
