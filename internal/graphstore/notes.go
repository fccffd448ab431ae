package graphstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/antigravity-dev/codegraph/internal/errs"
	"github.com/antigravity-dev/codegraph/internal/model"
)

// PutNote inserts or updates a Note.
func (s *Store) PutNote(n model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, _ := json.Marshal(n.Tags)
	var ruleJSON []byte
	if n.AssertionRule != nil {
		ruleJSON, _ = json.Marshal(n.AssertionRule)
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO notes (
			id, project_id, note_type, status, importance, scope_kind, scope_value,
			content, tags_json, created_by, last_confirmed_at, staleness_score,
			assertion_rule_json, supersedes, energy, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			note_type = excluded.note_type, status = excluded.status,
			importance = excluded.importance, scope_kind = excluded.scope_kind,
			scope_value = excluded.scope_value, content = excluded.content,
			tags_json = excluded.tags_json, last_confirmed_at = excluded.last_confirmed_at,
			staleness_score = excluded.staleness_score, assertion_rule_json = excluded.assertion_rule_json,
			supersedes = excluded.supersedes, energy = excluded.energy, updated_at = excluded.updated_at`,
		n.ID, n.ProjectID, string(n.Type), string(n.Status), string(n.Importance),
		string(n.Scope.Kind), n.Scope.Value, n.Content, string(tagsJSON), n.CreatedBy,
		n.LastConfirmedAt, n.StalenessScore, string(ruleJSON), n.Supersedes, n.Energy, now, now,
	)
	return err
}

func scanNote(row *sql.Row) (*model.Note, error) {
	var n model.Note
	var noteType, status, importance, scopeKind, tagsJSON, ruleJSON sql.NullString
	var scopeValue, supersedes sql.NullString
	if err := row.Scan(
		&n.ID, &n.ProjectID, &noteType, &status, &importance, &scopeKind, &scopeValue,
		&n.Content, &tagsJSON, &n.CreatedBy, &n.LastConfirmedAt, &n.StalenessScore,
		&ruleJSON, &supersedes, &n.Energy, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	n.Type = model.NoteType(noteType.String)
	n.Status = model.NoteStatus(status.String)
	n.Importance = model.NoteImportance(importance.String)
	n.Scope = model.NoteScope{Kind: model.NoteScopeKind(scopeKind.String), Value: scopeValue.String}
	n.Supersedes = supersedes.String
	if tagsJSON.Valid {
		_ = json.Unmarshal([]byte(tagsJSON.String), &n.Tags)
	}
	if ruleJSON.Valid && ruleJSON.String != "" {
		var rule model.AssertionRule
		if err := json.Unmarshal([]byte(ruleJSON.String), &rule); err == nil {
			n.AssertionRule = &rule
		}
	}
	return &n, nil
}

const noteColumns = `id, project_id, note_type, status, importance, scope_kind, scope_value,
	content, tags_json, created_by, last_confirmed_at, staleness_score,
	assertion_rule_json, supersedes, energy, created_at, updated_at`

// GetNote fetches a note by id.
func (s *Store) GetNote(id string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := scanNote(s.db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, errs.NotFound(fmt.Sprintf("note %s", id))
	}
	return n, err
}

// ListNotesByScope returns notes anchored to a scope kind/value within a
// project (context retrieval uses it for workspace-scoped notes).
func (s *Store) ListNotesByScope(projectID string, kind model.NoteScopeKind, value string) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT `+noteColumns+` FROM notes WHERE project_id = ? AND scope_kind = ? AND scope_value = ?`,
		projectID, string(kind), value,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		n, err := scanNoteRows(rows)
		if err != nil {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

// scanNoteRows mirrors scanNote but against *sql.Rows, needed because
// database/sql does not give *sql.Row a Columns-compatible scan target from
// a multi-row cursor.
func scanNoteRows(rows *sql.Rows) (*model.Note, error) {
	var n model.Note
	var noteType, status, importance, scopeKind, tagsJSON, ruleJSON sql.NullString
	var scopeValue, supersedes sql.NullString
	if err := rows.Scan(
		&n.ID, &n.ProjectID, &noteType, &status, &importance, &scopeKind, &scopeValue,
		&n.Content, &tagsJSON, &n.CreatedBy, &n.LastConfirmedAt, &n.StalenessScore,
		&ruleJSON, &supersedes, &n.Energy, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	n.Type = model.NoteType(noteType.String)
	n.Status = model.NoteStatus(status.String)
	n.Importance = model.NoteImportance(importance.String)
	n.Scope = model.NoteScope{Kind: model.NoteScopeKind(scopeKind.String), Value: scopeValue.String}
	n.Supersedes = supersedes.String
	if tagsJSON.Valid {
		_ = json.Unmarshal([]byte(tagsJSON.String), &n.Tags)
	}
	if ruleJSON.Valid && ruleJSON.String != "" {
		var rule model.AssertionRule
		if err := json.Unmarshal([]byte(ruleJSON.String), &rule); err == nil {
			n.AssertionRule = &rule
		}
	}
	return &n, nil
}

// ListActiveNotes returns every non-archived note in a project, the working
// set staleness scoring sweeps over.
func (s *Store) ListActiveNotes(projectID string) ([]model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT `+noteColumns+` FROM notes WHERE project_id = ? AND status != ?`,
		projectID, string(model.NoteArchived),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		n, err := scanNoteRows(rows)
		if err != nil {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

// DeleteNote removes a note and its anchors/synapses.
func (s *Store) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM note_anchors WHERE note_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM synapses WHERE from_note_id = ? OR to_note_id = ?`, id, id)
	return err
}

// PutNoteAnchor inserts or updates a NoteAnchor.
func (s *Store) PutNoteAnchor(a model.NoteAnchor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO note_anchors (id, note_id, entity_type, entity_id, signature_hash, body_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   signature_hash = excluded.signature_hash, body_hash = excluded.body_hash, updated_at = excluded.updated_at`,
		a.ID, a.NoteID, string(a.EntityType), a.EntityID, a.SignatureHash, a.BodyHash, now, now,
	)
	return err
}

// ListAnchors returns every anchor for a note.
func (s *Store) ListAnchors(noteID string) ([]model.NoteAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT id, note_id, entity_type, entity_id, signature_hash, body_hash, created_at, updated_at
		 FROM note_anchors WHERE note_id = ?`, noteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.NoteAnchor
	for rows.Next() {
		var a model.NoteAnchor
		var entityType string
		if err := rows.Scan(&a.ID, &a.NoteID, &entityType, &a.EntityID, &a.SignatureHash, &a.BodyHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			continue
		}
		a.EntityType = model.NoteAnchorEntityType(entityType)
		out = append(out, a)
	}
	return out, nil
}

// AnchorsByEntity returns every anchor currently pointing at entityID,
// used by the sync pipeline to find notes affected by a changed/renamed
// entity.
func (s *Store) AnchorsByEntity(entityType model.NoteAnchorEntityType, entityID string) ([]model.NoteAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT id, note_id, entity_type, entity_id, signature_hash, body_hash, created_at, updated_at
		 FROM note_anchors WHERE entity_type = ? AND entity_id = ?`, string(entityType), entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.NoteAnchor
	for rows.Next() {
		var a model.NoteAnchor
		var et string
		if err := rows.Scan(&a.ID, &a.NoteID, &et, &a.EntityID, &a.SignatureHash, &a.BodyHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			continue
		}
		a.EntityType = model.NoteAnchorEntityType(et)
		out = append(out, a)
	}
	return out, nil
}

// PutSynapse inserts a synapse between two notes, or overwrites the weight
// of an existing one with syn.Weight.
func (s *Store) PutSynapse(syn model.Synapse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO synapses (from_note_id, to_note_id, weight, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(from_note_id, to_note_id) DO UPDATE SET weight = excluded.weight`,
		syn.FromNoteID, syn.ToNoteID, syn.Weight, time.Now().UTC(),
	)
	return err
}

// OutgoingSynapses returns every synapse originating at noteID, the edge
// set the spreading-activation pass expands from.
func (s *Store) OutgoingSynapses(noteID string) ([]model.Synapse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(
		`SELECT from_note_id, to_note_id, weight, created_at FROM synapses WHERE from_note_id = ?`, noteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Synapse
	for rows.Next() {
		var syn model.Synapse
		if err := rows.Scan(&syn.FromNoteID, &syn.ToNoteID, &syn.Weight, &syn.CreatedAt); err != nil {
			continue
		}
		out = append(out, syn)
	}
	return out, nil
}

// DeleteSynapse removes a single synapse edge, used by the neural
// retrieval substrate's decay sweep to prune edges below its weight floor.
func (s *Store) DeleteSynapse(fromNoteID, toNoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM synapses WHERE from_note_id = ? AND to_note_id = ?`, fromNoteID, toNoteID)
	return err
}
