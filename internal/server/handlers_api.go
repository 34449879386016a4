package server

import (
	"log"
	"net/http"
)

// The synchronous query surface: a thin request/response fallback for
// environments without a live connection. It drives the same lifecycle
// operations as the realtime protocol and returns the same projections.

type createGroupRequest struct {
	Name string `json:"name"`
}

type createSessionRequest struct {
	Question     string `json:"question"`
	TimerSeconds int    `json:"timer_seconds"`
}

type editSessionRequest struct {
	Question     string `json:"question"`
	TimerSeconds int    `json:"timer_seconds"`
}

type joinSessionRequest struct {
	ParticipantID int    `json:"participant_id"`
	DisplayName   string `json:"display_name"`
}

type submitRequest struct {
	ParticipantID int     `json:"participant_id"`
	Vote          *string `json:"vote"`
	GuessYesCount *int    `json:"guess_yes_count"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	name, err := validateGroupName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	group := s.store.CreateGroup(name)
	if err := s.persistGroup(group); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}
	log.Printf("group created group_id=%s join_code=%s", group.ID, group.JoinCode)
	writeJSON(w, http.StatusCreated, map[string]string{
		"group_id":  group.ID,
		"join_code": group.JoinCode,
	})
}

func (s *Server) handleGroupSubroutes(w http.ResponseWriter, r *http.Request) {
	groupID, action, ok := parseGroupPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case r.Method == http.MethodGet && action == "sessions":
		s.handleListSessions(w, r, groupID)
	case r.Method == http.MethodGet && action == "leaderboard":
		s.handleLeaderboard(w, r, groupID)
	case r.Method == http.MethodPost && action == "sessions":
		s.handleCreateSession(w, r, groupID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, groupID string) {
	if _, ok := s.store.GetGroup(groupID); !ok {
		http.NotFound(w, r)
		return
	}
	sessions := s.store.ListSessionsByGroup(groupID)
	snapshots := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		snapshots = append(snapshots, s.sessionSnapshot(sess))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": snapshots,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, groupID string) {
	rows, err := s.store.GroupLeaderboard(groupID)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leaderboard": rows,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, groupID string) {
	var req createSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	question, err := validateQuestion(req.Question)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validateTimerSeconds(req.TimerSeconds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.createSession(groupID, question, req.TimerSeconds)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"session":    s.sessionSnapshot(sess),
	})
}

func (s *Server) handleSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	sessionID, action, ok := parseSessionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodGet && action == "" {
		s.handleGetSession(w, r, sessionID)
		return
	}
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	switch action {
	case "":
		s.handleEditSession(w, r, sessionID)
	case "start":
		s.handleStartSession(w, r, sessionID)
	case "end":
		s.handleEndSession(w, r, sessionID)
	case "cancel":
		s.handleCancelSession(w, r, sessionID)
	case "join":
		s.handleJoinSession(w, r, sessionID)
	case "submissions":
		s.handleSubmit(w, r, sessionID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, ok := s.store.GetSession(sessionID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionSnapshot(sess))
}

func (s *Server) handleEditSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req editSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	question := ""
	if req.Question != "" {
		validated, err := validateQuestion(req.Question)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		question = validated
	}
	if req.TimerSeconds != 0 {
		if err := s.validateTimerSeconds(req.TimerSeconds); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	sess, err := s.editDraft(sessionID, question, req.TimerSeconds)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.sessionSnapshot(sess),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.startSession(sessionID)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.sessionSnapshot(sess),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, results, err := s.endSession(sessionID, "manual")
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.sessionSnapshot(sess),
		"results": results,
	})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.cancelSession(sessionID)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.sessionSnapshot(sess),
	})
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req joinSessionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	name := ""
	if req.ParticipantID <= 0 {
		validated, err := validateName(req.DisplayName)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		name = validated
	}
	sess, participant, sub, err := s.joinSession(sessionID, req.ParticipantID, name)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	payload := map[string]any{
		"participant_id": participant.ID,
		"participant":    participantPayload(participant),
		"session":        s.sessionSnapshot(sess),
	}
	if sub != nil {
		payload["current_submission"] = submissionPayload(sub)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req submitRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.ParticipantID <= 0 {
		writeError(w, http.StatusBadRequest, "participant_id is required")
		return
	}
	vote, guess, err := validateSubmission(req.Vote, req.GuessYesCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := s.submitAnswer(sessionID, req.ParticipantID, vote, guess)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submission": submissionPayload(sub),
	})
}
