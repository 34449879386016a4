package server

import (
	"time"
)

// Projections sent to clients. While a session is live every caller — the
// join reply, the status fetch, the tick broadcast, the admin observer —
// receives the live-safe projection, which carries no vote counts, no guess
// counts and no other participant's submission content. The full projection
// with results exists only once the session is closed.

func (s *Server) sessionSnapshot(sess *Session) map[string]any {
	if sess.Status == statusClosed {
		return closedSnapshot(sess)
	}
	return liveSafeSnapshot(sess)
}

func liveSafeSnapshot(sess *Session) map[string]any {
	snapshot := map[string]any{
		"sessionId":    sess.ID,
		"groupId":      sess.GroupID,
		"status":       sess.Status,
		"question":     sess.Question,
		"timerSeconds": sess.TimerSeconds,
	}
	if sess.EndsAt != nil {
		snapshot["endsAt"] = sess.EndsAt.Format(time.RFC3339)
		snapshot["timeRemaining"] = remainingSeconds(time.Until(*sess.EndsAt))
	}
	return snapshot
}

func closedSnapshot(sess *Session) map[string]any {
	snapshot := liveSafeSnapshot(sess)
	if sess.StartedAt != nil {
		snapshot["startedAt"] = sess.StartedAt.Format(time.RFC3339)
	}
	if sess.EndedAt != nil {
		snapshot["endedAt"] = sess.EndedAt.Format(time.RFC3339)
	}
	if sess.Results != nil {
		snapshot["results"] = sess.Results
	}
	return snapshot
}

func startedPayload(sess *Session) map[string]any {
	payload := map[string]any{
		"session": liveSafeSnapshot(sess),
	}
	if sess.EndsAt != nil {
		payload["timeRemaining"] = remainingSeconds(time.Until(*sess.EndsAt))
	}
	return payload
}

func participantPayload(participant *Participant) map[string]any {
	return map[string]any{
		"participantId": participant.ID,
		"displayName":   participant.Name,
		"groupId":       participant.GroupID,
		"token":         participant.Token,
	}
}

func submissionPayload(sub *Submission) map[string]any {
	payload := map[string]any{
		"participantId": sub.ParticipantID,
		"submittedAt":   sub.SubmittedAt.Format(time.RFC3339),
	}
	if sub.Vote != nil {
		payload["vote"] = *sub.Vote
	}
	if sub.Guess != nil {
		payload["guessYesCount"] = *sub.Guess
	}
	return payload
}
