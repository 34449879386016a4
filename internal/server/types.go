package server

import "time"

const (
	statusDraft    = "draft"
	statusLive     = "live"
	statusClosed   = "closed"
	statusCanceled = "canceled"
)

const (
	voteYes = "YES"
	voteNo  = "NO"
)

const (
	pointsExact = 5
	pointsClose = 3
)

const maxGuessValue = 10000

type Group struct {
	ID           string
	DBID         uint
	Name         string
	JoinCode     string
	Participants []Participant
}

type Session struct {
	ID              string
	DBID            uint
	GroupID         string
	Question        string
	TimerSeconds    int
	Status          string
	StartedAt       *time.Time
	EndsAt          *time.Time
	EndedAt         *time.Time
	ResultsComputed bool
	Submissions     map[int]*Submission
	Results         *SessionResults

	// back-pointer to the owning group; only touched under the store lock.
	group *Group
}

type Participant struct {
	ID        int
	DBID      uint
	GroupID   string
	Name      string
	Token     string
	AdminName string
}

type Submission struct {
	ParticipantID int
	DBID          uint
	Vote          *string
	Guess         *int
	SubmittedAt   time.Time
}

type ScoreRow struct {
	ParticipantID int     `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Vote          *string `json:"vote"`
	Guess         *int    `json:"guess"`
	Points        int     `json:"points"`
}

type LeaderboardDelta struct {
	ParticipantID int `json:"participantId"`
	DeltaPoints   int `json:"deltaPoints"`
}

type SessionResults struct {
	YesCount         int                `json:"yesCount"`
	NoCount          int                `json:"noCount"`
	Rows             []ScoreRow         `json:"rows"`
	LeaderboardDelta []LeaderboardDelta `json:"leaderboardDelta"`
}

type LeaderboardRow struct {
	ParticipantID int    `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	TotalPoints   int    `json:"total_points"`
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
