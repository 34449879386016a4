package server

import (
	"log"
	"sort"
	"time"
)

// Session lifecycle: draft -> live -> closed, or draft -> canceled. Every
// operation re-checks its precondition inside the store closure so that a
// state change racing in between a read and the commit is caught at commit
// time.

func (s *Server) createSession(groupID, question string, timerSeconds int) (*Session, error) {
	sess, err := s.store.CreateSession(groupID, question, timerSeconds)
	if err != nil {
		return nil, err
	}
	if err := s.persistSession(sess); err != nil {
		return nil, err
	}
	log.Printf("session created session_id=%s group_id=%s timer=%ds", sess.ID, sess.GroupID, sess.TimerSeconds)
	return sess, nil
}

func (s *Server) editDraft(sessionID, question string, timerSeconds int) (*Session, error) {
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.Status != statusDraft {
			return errInvalidTransition
		}
		if question != "" {
			sess.Question = question
		}
		if timerSeconds > 0 {
			sess.TimerSeconds = timerSeconds
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistSessionUpdate(sess); err != nil {
		log.Printf("persist draft edit failed session_id=%s error=%v", sessionID, err)
	}
	return sess, nil
}

// startSession transitions draft -> live, stamps the deadline and arms the
// session timers.
func (s *Server) startSession(sessionID string) (*Session, error) {
	now := timeNowUTC()
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.Status != statusDraft {
			return errInvalidTransition
		}
		ends := now.Add(time.Duration(sess.TimerSeconds) * time.Second)
		sess.Status = statusLive
		sess.StartedAt = &now
		sess.EndsAt = &ends
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistSessionUpdate(sess); err != nil {
		log.Printf("persist session start failed session_id=%s error=%v", sessionID, err)
	}
	s.persistSessionEvent(sess, "session_started", EventPayload{
		SessionID: sess.ID,
		Status:    sess.Status,
	})
	s.scheduleSessionTimers(sess.ID)
	log.Printf("session started session_id=%s ends_at=%s", sess.ID, sess.EndsAt.Format(time.RFC3339))
	s.hub.Broadcast(sess.ID, outMessage{Type: msgSessionStarted, Payload: startedPayload(sess)})
	return sess, nil
}

// submitAnswer upserts the participant's submission with merge semantics:
// fields omitted from the request keep their previous value, the timestamp
// always advances. Rejected once the deadline has passed even if the close
// has not been processed yet.
func (s *Server) submitAnswer(sessionID string, participantID int, vote *string, guess *int) (*Submission, error) {
	now := timeNowUTC()
	var saved Submission
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.Status != statusLive {
			return errSessionNotLive
		}
		if sess.EndsAt == nil || !now.Before(*sess.EndsAt) {
			return errSessionExpired
		}
		if findParticipantLocked(sess.group, participantID) == nil {
			return errNotFound
		}
		sub := sess.Submissions[participantID]
		if sub == nil {
			sub = &Submission{ParticipantID: participantID}
			sess.Submissions[participantID] = sub
		}
		if vote != nil {
			sub.Vote = vote
		}
		if guess != nil {
			sub.Guess = guess
		}
		sub.SubmittedAt = now
		saved = *sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistSubmission(sess, &saved); err != nil {
		log.Printf("persist submission failed session_id=%s participant_id=%d error=%v", sessionID, participantID, err)
	}
	return &saved, nil
}

// joinSession resolves or creates the participant and returns the session
// together with any submission the participant already has, so a
// reconnecting client can restore its state.
func (s *Server) joinSession(sessionID string, participantID int, displayName string) (*Session, *Participant, *Submission, error) {
	sess, participant, sub, created, err := s.store.JoinSession(sessionID, participantID, displayName, s.cfg.JoinCutoff())
	if err != nil {
		return nil, nil, nil, err
	}
	if created {
		if err := s.persistParticipant(sess.group, participant); err != nil {
			log.Printf("persist participant failed group_id=%s name=%s error=%v", sess.GroupID, participant.Name, err)
		}
		s.persistSessionEvent(sess, "participant_joined", EventPayload{
			SessionID:       sess.ID,
			ParticipantID:   participant.ID,
			ParticipantName: participant.Name,
		})
		log.Printf("participant joined session_id=%s participant_id=%d name=%s", sess.ID, participant.ID, participant.Name)
	}
	return sess, participant, sub, nil
}

// endSession transitions live -> closed and computes results exactly once.
// Both the deadline timer and a manual end land here; whichever arrives
// second finds resultsComputed set and returns the stored results without
// rescoring or rebroadcasting.
func (s *Server) endSession(sessionID, reason string) (*Session, *SessionResults, error) {
	s.cancelSessionTimers(sessionID)
	now := timeNowUTC()
	var didClose bool
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.ResultsComputed {
			return nil
		}
		if sess.Status != statusLive {
			return errInvalidTransition
		}
		sess.Status = statusClosed
		sess.EndedAt = &now
		sess.Results = assembleResults(sess)
		sess.ResultsComputed = true
		didClose = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !didClose {
		return sess, sess.Results, nil
	}
	if err := s.persistSessionClose(sess); err != nil {
		// The in-memory close stands; the failure is recorded so the
		// session is never silently stuck.
		log.Printf("persist session close failed session_id=%s error=%v", sessionID, err)
		s.persistSessionEvent(sess, "session_close_failed", EventPayload{
			SessionID: sess.ID,
			Reason:    err.Error(),
		})
	}
	s.persistSessionEvent(sess, "session_closed", EventPayload{
		SessionID: sess.ID,
		Status:    sess.Status,
		Reason:    reason,
	})
	log.Printf("session closed session_id=%s reason=%s yes=%d no=%d scored=%d",
		sess.ID, reason, sess.Results.YesCount, sess.Results.NoCount, len(sess.Results.Rows))
	s.hub.Broadcast(sess.ID, outMessage{Type: msgSessionResults, Payload: sess.Results})
	return sess, sess.Results, nil
}

func (s *Server) cancelSession(sessionID string) (*Session, error) {
	sess, err := s.store.UpdateSession(sessionID, func(sess *Session) error {
		if sess.Status != statusDraft {
			return errInvalidTransition
		}
		sess.Status = statusCanceled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cancelSessionTimers(sessionID)
	if err := s.persistSessionUpdate(sess); err != nil {
		log.Printf("persist session cancel failed session_id=%s error=%v", sessionID, err)
	}
	s.persistSessionEvent(sess, "session_canceled", EventPayload{
		SessionID: sess.ID,
		Status:    sess.Status,
	})
	log.Printf("session canceled session_id=%s", sess.ID)
	s.hub.Broadcast(sess.ID, outMessage{Type: msgSessionCanceled, Payload: map[string]any{
		"sessionId": sess.ID,
	}})
	return sess, nil
}

// assembleResults scores the final submission set. Caller must hold the
// store lock (it runs inside an UpdateSession closure).
func assembleResults(sess *Session) *SessionResults {
	subs := make([]Submission, 0, len(sess.Submissions))
	for _, sub := range sess.Submissions {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ParticipantID < subs[j].ParticipantID
	})
	yesCount, noCount, points := scoreSubmissions(subs)
	results := &SessionResults{
		YesCount:         yesCount,
		NoCount:          noCount,
		Rows:             make([]ScoreRow, 0, len(subs)),
		LeaderboardDelta: make([]LeaderboardDelta, 0, len(subs)),
	}
	for _, sub := range subs {
		name := ""
		if participant := findParticipantLocked(sess.group, sub.ParticipantID); participant != nil {
			name = participant.Name
		}
		results.Rows = append(results.Rows, ScoreRow{
			ParticipantID: sub.ParticipantID,
			DisplayName:   name,
			Vote:          sub.Vote,
			Guess:         sub.Guess,
			Points:        points[sub.ParticipantID],
		})
		results.LeaderboardDelta = append(results.LeaderboardDelta, LeaderboardDelta{
			ParticipantID: sub.ParticipantID,
			DeltaPoints:   points[sub.ParticipantID],
		})
	}
	return results
}
