package db

import (
	"time"

	"gorm.io/datatypes"
)

type Group struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:64;not null"`
	JoinCode     string    `gorm:"size:12;uniqueIndex;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Sessions     []Session
	Participants []Participant
	Events       []Event
}

type Session struct {
	ID              uint   `gorm:"primaryKey"`
	GroupID         uint   `gorm:"index;not null"`
	Question        string `gorm:"size:280;not null"`
	TimerSeconds    int    `gorm:"not null"`
	Status          string `gorm:"size:16;not null"`
	StartedAt       *time.Time
	EndsAt          *time.Time
	EndedAt         *time.Time
	ResultsComputed bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	Submissions     []Submission
	ScoreRecords    []ScoreRecord
}

type Participant struct {
	ID        uint      `gorm:"primaryKey"`
	GroupID   uint      `gorm:"index;not null;uniqueIndex:idx_participants_group_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_participants_group_name"`
	Token     string    `gorm:"size:36;not null"`
	AdminName *string   `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Submission struct {
	ID            uint    `gorm:"primaryKey"`
	SessionID     uint    `gorm:"index;not null;uniqueIndex:idx_submissions_session_participant"`
	ParticipantID uint    `gorm:"index;not null;uniqueIndex:idx_submissions_session_participant"`
	Vote          *string `gorm:"size:3"`
	Guess         *int
	SubmittedAt   time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type ScoreRecord struct {
	ID            uint      `gorm:"primaryKey"`
	SessionID     uint      `gorm:"index;not null;uniqueIndex:idx_scores_session_participant"`
	ParticipantID uint      `gorm:"index;not null;uniqueIndex:idx_scores_session_participant"`
	Points        int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type Event struct {
	ID            uint           `gorm:"primaryKey"`
	GroupID       uint           `gorm:"index;not null"`
	SessionID     *uint          `gorm:"index"`
	ParticipantID *uint          `gorm:"index"`
	Type          string         `gorm:"size:64;not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time      `gorm:"not null"`
}
