package server

import (
	"fmt"
	"log"
	"time"

	"show-of-hands/internal/db"
)

// RestoreActiveSessions reloads every unfinished session from the database
// after a restart. Draft sessions come back as drafts; live sessions whose
// deadline already passed are closed immediately, the rest get their timers
// re-armed for the remaining time.
func (s *Server) RestoreActiveSessions() error {
	if s.db == nil {
		return nil
	}
	var sessionRecords []db.Session
	if err := s.db.Where("status IN ?", []string{statusDraft, statusLive}).
		Order("id asc").Find(&sessionRecords).Error; err != nil {
		return err
	}
	if len(sessionRecords) == 0 {
		return nil
	}

	groupIDs := make([]uint, 0, len(sessionRecords))
	seen := make(map[uint]struct{})
	for _, record := range sessionRecords {
		if _, ok := seen[record.GroupID]; ok {
			continue
		}
		seen[record.GroupID] = struct{}{}
		groupIDs = append(groupIDs, record.GroupID)
	}

	groups, err := s.loadGroups(groupIDs)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.store.RestoreGroup(group); err != nil {
			log.Printf("restore group skipped group_id=%s error=%v", group.ID, err)
		}
	}

	restored := 0
	for _, record := range sessionRecords {
		sess, err := s.buildSession(record)
		if err != nil {
			log.Printf("restore session failed session_id=session-%d error=%v", record.ID, err)
			continue
		}
		if err := s.store.RestoreSession(sess); err != nil {
			log.Printf("restore session skipped session_id=%s error=%v", sess.ID, err)
			continue
		}
		restored++
		if sess.Status != statusLive {
			continue
		}
		if sess.EndsAt == nil || !time.Now().Before(*sess.EndsAt) {
			log.Printf("session past deadline at restore session_id=%s", sess.ID)
			s.expireSession(sess.ID)
			continue
		}
		s.scheduleSessionTimers(sess.ID)
	}
	log.Printf("restore complete sessions=%d groups=%d", restored, len(groups))
	return nil
}

func (s *Server) loadGroups(groupIDs []uint) ([]*Group, error) {
	var groupRecords []db.Group
	if err := s.db.Where("id IN ?", groupIDs).Order("id asc").Find(&groupRecords).Error; err != nil {
		return nil, err
	}
	var participantRecords []db.Participant
	if err := s.db.Where("group_id IN ?", groupIDs).Order("id asc").Find(&participantRecords).Error; err != nil {
		return nil, err
	}
	byGroup := make(map[uint][]db.Participant)
	for _, record := range participantRecords {
		byGroup[record.GroupID] = append(byGroup[record.GroupID], record)
	}
	groups := make([]*Group, 0, len(groupRecords))
	for _, record := range groupRecords {
		group := &Group{
			ID:       fmt.Sprintf("group-%d", record.ID),
			DBID:     record.ID,
			Name:     record.Name,
			JoinCode: record.JoinCode,
		}
		for _, pr := range byGroup[record.ID] {
			participant := Participant{
				ID:      int(pr.ID),
				DBID:    pr.ID,
				GroupID: group.ID,
				Name:    pr.Name,
				Token:   pr.Token,
			}
			if pr.AdminName != nil {
				participant.AdminName = *pr.AdminName
			}
			group.Participants = append(group.Participants, participant)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Server) buildSession(record db.Session) (*Session, error) {
	sess := &Session{
		ID:              fmt.Sprintf("session-%d", record.ID),
		DBID:            record.ID,
		GroupID:         fmt.Sprintf("group-%d", record.GroupID),
		Question:        record.Question,
		TimerSeconds:    record.TimerSeconds,
		Status:          record.Status,
		StartedAt:       record.StartedAt,
		EndsAt:          record.EndsAt,
		EndedAt:         record.EndedAt,
		ResultsComputed: record.ResultsComputed,
		Submissions:     make(map[int]*Submission),
	}
	var submissionRecords []db.Submission
	if err := s.db.Where("session_id = ?", record.ID).Order("id asc").Find(&submissionRecords).Error; err != nil {
		return nil, err
	}
	for _, sr := range submissionRecords {
		sess.Submissions[int(sr.ParticipantID)] = &Submission{
			ParticipantID: int(sr.ParticipantID),
			DBID:          sr.ID,
			Vote:          sr.Vote,
			Guess:         sr.Guess,
			SubmittedAt:   sr.SubmittedAt,
		}
	}
	return sess, nil
}
