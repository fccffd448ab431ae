package neural

import (
	"fmt"
	"math"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/model"
)

const (
	defaultEnergy  = 1.0
	maxEnergy      = 2.0
	minEnergy      = 0.0
	defaultBoost   = 0.2
)

// InitNoteEnergy sets every note in a project with Energy == 0 to the
// default starting energy, the one-time setup step before a project's
// notes first participate in spreading activation.
func (e *Engine) InitNoteEnergy(projectID string) (int, error) {
	notes, err := e.graph.ListActiveNotes(projectID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range notes {
		if n.Energy != 0 {
			continue
		}
		n.Energy = defaultEnergy
		n.UpdatedAt = time.Now().UTC()
		if err := e.graph.PutNote(n); err != nil {
			logging.GraphWarn("neural: init energy failed for %s: %v", n.ID, err)
			continue
		}
		count++
	}
	return count, nil
}

// UpdateEnergyScores applies exponential decay since each note's last boost
// (or creation, absent a boost), the energy analogue of staleness.UpdateStalenessScores.
func (e *Engine) UpdateEnergyScores(projectID string, halfLifeDays float64) (int, error) {
	if halfLifeDays <= 0 {
		halfLifeDays = 30
	}
	notes, err := e.graph.ListActiveNotes(projectID)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	updated := 0
	for _, n := range notes {
		anchor := n.CreatedAt
		if n.LastConfirmedAt != nil && n.LastConfirmedAt.After(anchor) {
			anchor = *n.LastConfirmedAt
		}
		age := now.Sub(anchor).Hours() / 24
		if age <= 0 {
			continue
		}
		decayed := energyOf(n) * math.Exp(-age*math.Ln2/halfLifeDays)
		if decayed == n.Energy {
			continue
		}
		n.Energy = decayed
		n.UpdatedAt = now
		if err := e.graph.PutNote(n); err != nil {
			logging.GraphWarn("neural: energy decay failed for %s: %v", n.ID, err)
			continue
		}
		updated++
	}
	return updated, nil
}

// BoostEnergy additively raises a note's energy, clamped to [minEnergy,
// maxEnergy], and records the boost time so UpdateEnergyScores decays from
// the right anchor. Retrieval and explicit "this was useful" feedback both
// call this.
func (e *Engine) BoostEnergy(noteID string, amount float64) error {
	n, err := e.graph.GetNote(noteID)
	if err != nil {
		return err
	}
	if amount == 0 {
		amount = defaultBoost
	}
	energy := energyOf(*n) + amount
	if energy > maxEnergy {
		energy = maxEnergy
	}
	if energy < minEnergy {
		energy = minEnergy
	}
	now := time.Now().UTC()
	n.Energy = energy
	n.LastConfirmedAt = &now
	n.UpdatedAt = now
	return e.graph.PutNote(*n)
}

// ReinforceSynapses strengthens the edges between every pair of co-activated
// notes by boost, creating the edge at the base weight if it does not yet
// exist. Called after a retrieval whose results a caller confirms were
// jointly useful.
func (e *Engine) ReinforceSynapses(noteIDs []string, boost float64) error {
	if boost == 0 {
		boost = defaultBoost
	}
	for i, from := range noteIDs {
		existing, err := e.graph.OutgoingSynapses(from)
		if err != nil {
			return fmt.Errorf("load synapses for %s: %w", from, err)
		}
		weights := make(map[string]float64, len(existing))
		for _, s := range existing {
			weights[s.ToNoteID] = s.Weight
		}
		for j, to := range noteIDs {
			if i == j {
				continue
			}
			w := weights[to] + boost
			if w > 1.0 {
				w = 1.0
			}
			if err := e.graph.PutSynapse(model.Synapse{FromNoteID: from, ToNoteID: to, Weight: w}); err != nil {
				return fmt.Errorf("reinforce synapse %s->%s: %w", from, to, err)
			}
		}
	}
	return nil
}

// DecaySynapses multiplicatively decays every synapse's weight and prunes
// any that fall below pruneThreshold, mirroring
// internal/store/learned_store.go's DecayConfidence two-step "decay then
// prune" shape but applied to edge weights instead of pattern confidence.
func (e *Engine) DecaySynapses(projectID string, decay, pruneThreshold float64) (decayed, pruned int, err error) {
	if decay <= 0 || decay >= 1 {
		decay = 0.9
	}
	notes, err := e.graph.ListActiveNotes(projectID)
	if err != nil {
		return 0, 0, err
	}
	for _, n := range notes {
		synapses, err := e.graph.OutgoingSynapses(n.ID)
		if err != nil {
			continue
		}
		for _, syn := range synapses {
			newWeight := syn.Weight * decay
			if newWeight < pruneThreshold {
				if err := e.graph.DeleteSynapse(syn.FromNoteID, syn.ToNoteID); err != nil {
					logging.GraphWarn("neural: prune synapse %s->%s failed: %v", syn.FromNoteID, syn.ToNoteID, err)
					continue
				}
				pruned++
				continue
			}
			syn.Weight = newWeight
			if err := e.graph.PutSynapse(syn); err != nil {
				logging.GraphWarn("neural: decay synapse %s->%s failed: %v", syn.FromNoteID, syn.ToNoteID, err)
				continue
			}
			decayed++
		}
	}
	return decayed, pruned, nil
}

// CreateSynapses wires a new note to its neighbors at a base weight,
// typically called right after a note is anchored near existing notes
// (e.g. sharing a scope or entity).
func (e *Engine) CreateSynapses(noteID string, neighbors []string, weight float64) error {
	if weight <= 0 {
		weight = 0.5
	}
	for _, neighbor := range neighbors {
		if neighbor == noteID {
			continue
		}
		if err := e.graph.PutSynapse(model.Synapse{FromNoteID: noteID, ToNoteID: neighbor, Weight: weight}); err != nil {
			return fmt.Errorf("create synapse %s->%s: %w", noteID, neighbor, err)
		}
	}
	return nil
}
