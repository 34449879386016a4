package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"show-of-hands/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Write-through persistence. The in-memory store stays the live authority;
// every accepted mutation is mirrored to Postgres so sessions survive a
// restart. All funcs are no-ops without a configured database, which keeps
// the whole server testable in memory.

func (s *Server) persistGroup(group *Group) error {
	if s.db == nil {
		return nil
	}
	record := db.Group{
		Name:     group.Name,
		JoinCode: group.JoinCode,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	group.DBID = record.ID
	newID := fmt.Sprintf("group-%d", record.ID)
	if group.ID != newID {
		s.store.UpdateGroupID(group, newID)
	}
	return s.persistGroupEvent(group, "group_created", EventPayload{
		GroupID:  group.ID,
		JoinCode: group.JoinCode,
	})
}

func (s *Server) ensureGroupDBID(group *Group) error {
	if group.DBID != 0 {
		return nil
	}
	var record db.Group
	if err := s.db.Where("join_code = ?", group.JoinCode).First(&record).Error; err != nil {
		return err
	}
	group.DBID = record.ID
	return nil
}

func (s *Server) persistSession(sess *Session) error {
	if s.db == nil {
		return nil
	}
	group := sess.group
	if group.DBID == 0 {
		if err := s.ensureGroupDBID(group); err != nil {
			return err
		}
	}
	record := db.Session{
		GroupID:      group.DBID,
		Question:     sess.Question,
		TimerSeconds: sess.TimerSeconds,
		Status:       sess.Status,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	sess.DBID = record.ID
	newID := fmt.Sprintf("session-%d", record.ID)
	if sess.ID != newID {
		s.store.UpdateSessionID(sess, newID)
	}
	return s.persistSessionEvent(sess, "session_created", EventPayload{
		SessionID:    sess.ID,
		Question:     sess.Question,
		TimerSeconds: sess.TimerSeconds,
	})
}

func (s *Server) persistSessionUpdate(sess *Session) error {
	if s.db == nil {
		return nil
	}
	if sess.DBID == 0 {
		return errors.New("session not persisted")
	}
	updates := map[string]any{
		"question":      sess.Question,
		"timer_seconds": sess.TimerSeconds,
		"status":        sess.Status,
		"started_at":    sess.StartedAt,
		"ends_at":       sess.EndsAt,
		"ended_at":      sess.EndedAt,
	}
	return s.db.Model(&db.Session{}).
		Where("id = ?", sess.DBID).
		Updates(updates).Error
}

// persistSessionClose writes the terminal state and the score records in one
// transaction, guarded so a session row already marked computed is never
// rescored.
func (s *Server) persistSessionClose(sess *Session) error {
	if s.db == nil {
		return nil
	}
	if sess.DBID == 0 {
		return errors.New("session not persisted")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Session{}).
			Where("id = ? AND results_computed = false", sess.DBID).
			Updates(map[string]any{
				"status":           sess.Status,
				"ended_at":         sess.EndedAt,
				"results_computed": true,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another process already closed it; stored records win.
			return nil
		}
		for _, row := range sess.Results.Rows {
			participant, ok := s.store.GetParticipant(sess.GroupID, row.ParticipantID)
			if !ok || participant.DBID == 0 {
				continue
			}
			record := db.ScoreRecord{
				SessionID:     sess.DBID,
				ParticipantID: participant.DBID,
				Points:        row.Points,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) persistParticipant(group *Group, participant *Participant) error {
	if s.db == nil {
		return nil
	}
	if participant.DBID != 0 {
		return nil
	}
	if group.DBID == 0 {
		if err := s.ensureGroupDBID(group); err != nil {
			return err
		}
	}
	record := db.Participant{
		GroupID: group.DBID,
		Name:    participant.Name,
		Token:   participant.Token,
	}
	if participant.AdminName != "" {
		record.AdminName = &participant.AdminName
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findParticipantDBID(group.DBID, participant.Name)
			if lookupErr == nil && existing != 0 {
				participant.DBID = existing
				return nil
			}
		}
		return err
	}
	participant.DBID = record.ID
	return nil
}

func (s *Server) findParticipantDBID(groupDBID uint, name string) (uint, error) {
	var record db.Participant
	if err := s.db.Where("group_id = ? AND name = ?", groupDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (s *Server) persistSubmission(sess *Session, sub *Submission) error {
	if s.db == nil {
		return nil
	}
	if sess.DBID == 0 {
		return errors.New("session not persisted")
	}
	participant, ok := s.store.GetParticipant(sess.GroupID, sub.ParticipantID)
	if !ok {
		return errNotFound
	}
	if participant.DBID == 0 {
		if err := s.persistParticipant(sess.group, participant); err != nil {
			return err
		}
	}
	record := db.Submission{
		SessionID:     sess.DBID,
		ParticipantID: participant.DBID,
		Vote:          sub.Vote,
		Guess:         sub.Guess,
		SubmittedAt:   sub.SubmittedAt,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "participant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "guess", "submitted_at", "updated_at"}),
	}).Create(&record).Error
}

func (s *Server) persistSessionEvent(sess *Session, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	group := sess.group
	if group.DBID == 0 {
		if err := s.ensureGroupDBID(group); err != nil {
			return err
		}
	}
	var sessionDBID *uint
	if sess.DBID != 0 {
		id := sess.DBID
		sessionDBID = &id
	}
	return s.createEvent(group.DBID, sessionDBID, eventType, payload)
}

func (s *Server) persistGroupEvent(group *Group, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if group.DBID == 0 {
		if err := s.ensureGroupDBID(group); err != nil {
			return err
		}
	}
	return s.createEvent(group.DBID, nil, eventType, payload)
}

func (s *Server) createEvent(groupDBID uint, sessionDBID *uint, eventType string, payload EventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		GroupID:   groupDBID,
		SessionID: sessionDBID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
