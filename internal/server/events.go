package server

type EventPayload struct {
	GroupID         string `json:"group_id,omitempty"`
	JoinCode        string `json:"join_code,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	Status          string `json:"status,omitempty"`
	Question        string `json:"question,omitempty"`
	TimerSeconds    int    `json:"timer_seconds,omitempty"`
	ParticipantID   int    `json:"participant_id,omitempty"`
	ParticipantName string `json:"participant,omitempty"`
	Reason          string `json:"reason,omitempty"`
}
