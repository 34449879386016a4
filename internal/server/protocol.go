package server

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// Inbound message types.
const (
	msgSessionJoin   = "session:join"
	msgSessionSubmit = "session:submit"
	msgAdminJoin     = "admin:join"
)

// Outbound message types.
const (
	msgConnectionReady   = "connection:ready"
	msgSessionJoined     = "session:joined"
	msgSessionStarted    = "session:started"
	msgSessionTick       = "session:tick"
	msgSessionSubmitted  = "session:submitted"
	msgParticipantUpdate = "session:participant_update"
	msgSessionResults    = "session:results"
	msgSessionCanceled   = "session:canceled"
	msgError             = "error"
)

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID int    `json:"participantId,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
}

type submitPayload struct {
	Vote          *string `json:"vote"`
	GuessYesCount *int    `json:"guessYesCount"`
}

type adminJoinPayload struct {
	SessionID string `json:"sessionId"`
}

// dispatchWS routes one inbound frame. The message set is a closed union:
// adding a type means adding a case here, and anything else is rejected as
// malformed without dropping the connection.
func (s *Server) dispatchWS(conn *websocket.Conn, data []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.sendWSError(conn, "MalformedMessage", "invalid message envelope")
		return
	}
	switch env.Type {
	case msgSessionJoin:
		var req joinPayload
		if err := unmarshalPayload(env.Payload, &req); err != nil {
			s.sendWSError(conn, "MalformedMessage", "invalid join payload")
			return
		}
		s.handleWSJoin(conn, req)
	case msgSessionSubmit:
		var req submitPayload
		if err := unmarshalPayload(env.Payload, &req); err != nil {
			s.sendWSError(conn, "MalformedMessage", "invalid submit payload")
			return
		}
		s.handleWSSubmit(conn, req)
	case msgAdminJoin:
		var req adminJoinPayload
		if err := unmarshalPayload(env.Payload, &req); err != nil {
			s.sendWSError(conn, "MalformedMessage", "invalid admin join payload")
			return
		}
		s.handleWSAdminJoin(conn, req)
	default:
		s.sendWSError(conn, "MalformedMessage", "unknown message type")
	}
}

func unmarshalPayload(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func (s *Server) handleWSJoin(conn *websocket.Conn, req joinPayload) {
	name := ""
	if req.ParticipantID <= 0 {
		validated, err := validateName(req.DisplayName)
		if err != nil {
			s.sendWSError(conn, "MalformedMessage", err.Error())
			return
		}
		name = validated
	}
	sess, participant, sub, err := s.joinSession(req.SessionID, req.ParticipantID, name)
	if err != nil {
		s.sendWSError(conn, errorCode(err), joinErrorMessage(err))
		return
	}
	s.hub.Attach(conn, sess.ID, participant.ID, false)
	payload := map[string]any{
		"sessionId":     sess.ID,
		"participantId": participant.ID,
		"participant":   participantPayload(participant),
		"session":       s.sessionSnapshot(sess),
	}
	if sub != nil {
		payload["currentSubmission"] = submissionPayload(sub)
	}
	s.hub.Send(conn, outMessage{Type: msgSessionJoined, Payload: payload})
	s.broadcastParticipantCount(sess.ID)
}

func (s *Server) handleWSSubmit(conn *websocket.Conn, req submitPayload) {
	sessionID, participantID, observer := s.hub.ClientState(conn)
	if sessionID == "" || participantID <= 0 || observer {
		s.sendWSError(conn, "InvalidTransition", "join a session before submitting")
		return
	}
	vote, guess, err := validateSubmission(req.Vote, req.GuessYesCount)
	if err != nil {
		s.sendWSError(conn, "MalformedMessage", err.Error())
		return
	}
	sub, err := s.submitAnswer(sessionID, participantID, vote, guess)
	if err != nil {
		s.sendWSError(conn, errorCode(err), submitErrorMessage(err))
		return
	}
	// The acknowledgment is private: only the submitting connection ever
	// sees the submission content.
	s.hub.Send(conn, outMessage{Type: msgSessionSubmitted, Payload: map[string]any{
		"submission": submissionPayload(sub),
	}})
}

func (s *Server) handleWSAdminJoin(conn *websocket.Conn, req adminJoinPayload) {
	sess, ok := s.store.GetSession(req.SessionID)
	if !ok {
		s.sendWSError(conn, "NotFound", "session not found")
		return
	}
	s.hub.Attach(conn, sess.ID, 0, true)
	// Observers get the same live-safe projection as everyone else; the
	// no-leak rule has no admin exception.
	s.hub.Send(conn, outMessage{Type: msgSessionJoined, Payload: map[string]any{
		"sessionId": sess.ID,
		"observer":  true,
		"session":   s.sessionSnapshot(sess),
	}})
}

func (s *Server) broadcastParticipantCount(sessionID string) {
	s.hub.Broadcast(sessionID, outMessage{Type: msgParticipantUpdate, Payload: map[string]any{
		"participantCount": s.hub.ParticipantCount(sessionID),
	}})
}

func (s *Server) sendWSError(conn *websocket.Conn, code, message string) {
	payload := map[string]any{"message": message}
	if code != "" {
		payload["code"] = code
	}
	s.hub.Send(conn, outMessage{Type: msgError, Payload: payload})
}

func joinErrorMessage(err error) string {
	switch errorCode(err) {
	case "NotFound":
		return "session or participant not found"
	case "JoinWindowClosed":
		return "the session is about to close; new participants can no longer join"
	default:
		return err.Error()
	}
}

func submitErrorMessage(err error) string {
	switch errorCode(err) {
	case "SessionNotLive":
		return "the session is not accepting submissions"
	case "SessionExpired":
		return "the deadline has passed"
	case "NotFound":
		return "session or participant not found"
	default:
		return err.Error()
	}
}
