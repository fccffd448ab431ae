package notes

import (
	"math"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// baseDecayDays maps a note's type to its base staleness decay constant D,
// in days. A context note goes stale fast; a guideline or gotcha holds its
// value much longer. Assertion notes are machine-reverifiable and never
// decay on a clock (D = +Inf), handled as a special case below.
func baseDecayDays(t model.NoteType) float64 {
	switch t {
	case model.NoteGuideline:
		return 180
	case model.NoteGotcha:
		return 120
	case model.NotePattern:
		return 120
	case model.NoteTip:
		return 90
	case model.NoteContext:
		return 21
	case model.NoteObservation:
		return 14
	default:
		return 30
	}
}

// importanceDecayFactor scales the raw decay curve by a note's importance:
// a critical note is held to look fresher for longer than its base-decay
// curve alone would say, a low-importance note is let go faster.
func importanceDecayFactor(imp model.NoteImportance) float64 {
	switch imp {
	case model.ImportanceCritical:
		return 0.6
	case model.ImportanceHigh:
		return 0.8
	case model.ImportanceMedium:
		return 1.0
	case model.ImportanceLow:
		return 1.3
	default:
		return 1.0
	}
}

// staleThreshold is the score at which an active note transitions to stale.
const staleThreshold = 0.8

// ComputeStaleness returns the staleness score for a note as of now, given
// the time since it was last confirmed (or created, absent a confirmation).
// Assertion notes are machine-reverifiable and never decay on a clock; they
// pin at 0 here and rely on VerifyFile/EvaluateAssertion to move them.
func ComputeStaleness(n model.Note, now time.Time) float64 {
	if n.Type == model.NoteAssertion {
		return 0
	}
	anchor := n.CreatedAt
	if n.LastConfirmedAt != nil {
		anchor = *n.LastConfirmedAt
	}
	age := now.Sub(anchor).Hours() / 24
	if age <= 0 {
		return 0
	}
	d := baseDecayDays(n.Type)
	raw := 1 - math.Exp(-age/d)
	score := raw * importanceDecayFactor(n.Importance)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// UpdateStalenessScores recomputes staleness for every active note in a
// project and transitions any note that crosses staleThreshold into
// NoteStale. Grounded on the teacher's learned_store.go DecayConfidence
// sweep, generalized from multiplicative confidence decay to the
// exponential staleness curve spec'd for notes.
func (m *Manager) UpdateStalenessScores(projectID string) (updated, transitioned int, err error) {
	notes, err := m.graph.ListActiveNotes(projectID)
	if err != nil {
		return 0, 0, err
	}
	now := time.Now().UTC()
	for _, n := range notes {
		score := ComputeStaleness(n, now)
		changed := score != n.StalenessScore
		n.StalenessScore = score

		if n.Status == model.NoteActive && score > staleThreshold {
			n.Status = model.NoteStale
			transitioned++
			changed = true
		}
		if !changed {
			continue
		}
		n.UpdatedAt = now
		if err := m.graph.PutNote(n); err != nil {
			logging.GraphWarn("notes: failed to persist staleness update for %s: %v", n.ID, err)
			continue
		}
		updated++
	}
	return updated, transitioned, nil
}

// Confirm resets a note's staleness clock, the operation a user or an agent
// runs after reviewing a note and finding it still accurate.
func (m *Manager) Confirm(noteID string) error {
	n, err := m.graph.GetNote(noteID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	n.LastConfirmedAt = &now
	n.StalenessScore = 0
	if n.Status == model.NoteStale || n.Status == model.NoteNeedsReview {
		n.Status = model.NoteActive
	}
	n.UpdatedAt = now
	return m.graph.PutNote(*n)
}
