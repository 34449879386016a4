package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	mu                sync.Mutex
	nextGroupID       int
	nextSessionID     int
	nextParticipantID int
	groups            map[string]*Group
	sessions          map[string]*Session
}

func NewStore() *Store {
	return &Store{
		nextGroupID:       1,
		nextSessionID:     1,
		nextParticipantID: 1,
		groups:            make(map[string]*Group),
		sessions:          make(map[string]*Session),
	}
}

func (s *Store) CreateGroup(name string) *Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("group-%d", s.nextGroupID)
	s.nextGroupID++
	group := &Group{
		ID:       id,
		Name:     name,
		JoinCode: newJoinCode(),
	}
	s.groups[id] = group
	return group
}

func (s *Store) GetGroup(id string) (*Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	return group, ok
}

func (s *Store) FindGroupByJoinCode(code string) (*Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, group := range s.groups {
		if group.JoinCode == code {
			return group, true
		}
	}
	return nil, false
}

func (s *Store) CreateSession(groupID, question string, timerSeconds int) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return nil, errNotFound
	}
	id := fmt.Sprintf("session-%d", s.nextSessionID)
	s.nextSessionID++
	sess := &Session{
		ID:           id,
		GroupID:      group.ID,
		Question:     question,
		TimerSeconds: timerSeconds,
		Status:       statusDraft,
		Submissions:  make(map[int]*Submission),
		group:        group,
	}
	s.sessions[id] = sess
	return sess, nil
}

func (s *Store) GetSession(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// UpdateSession runs update with the store lock held. State-machine
// preconditions are re-validated inside the closure, never trusted from a
// read taken before the lock was acquired.
func (s *Store) UpdateSession(id string, update func(sess *Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errNotFound
	}
	if err := update(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) UpdateSessionID(sess *Session, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == newID {
		return
	}
	delete(s.sessions, sess.ID)
	sess.ID = newID
	s.sessions[newID] = sess
}

func (s *Store) UpdateGroupID(group *Group, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if group.ID == newID {
		return
	}
	delete(s.groups, group.ID)
	oldID := group.ID
	group.ID = newID
	s.groups[newID] = group
	for i := range group.Participants {
		group.Participants[i].GroupID = newID
	}
	for _, sess := range s.sessions {
		if sess.GroupID == oldID {
			sess.GroupID = newID
		}
	}
}

// JoinSession resolves or lazily creates the participant for a join request
// and enforces the join cutoff: inside the last cutoff window of a live
// session only participants with an existing submission may (re)attach.
func (s *Store) JoinSession(sessionID string, participantID int, name string, cutoff time.Duration) (*Session, *Participant, *Submission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, nil, false, errNotFound
	}
	group := sess.group

	var participant *Participant
	if participantID > 0 {
		participant = findParticipantLocked(group, participantID)
		if participant == nil {
			return nil, nil, nil, false, errNotFound
		}
	} else {
		participant = findParticipantByNameLocked(group, name)
	}

	var sub *Submission
	if participant != nil {
		sub = sess.Submissions[participant.ID]
	}
	if sess.Status == statusLive && sub == nil {
		if sess.EndsAt != nil && time.Until(*sess.EndsAt) < cutoff {
			return nil, nil, nil, false, errJoinWindowClosed
		}
	}

	created := false
	if participant == nil {
		group.Participants = append(group.Participants, Participant{
			ID:      s.nextParticipantID,
			GroupID: group.ID,
			Name:    name,
			Token:   uuid.NewString(),
		})
		s.nextParticipantID++
		participant = &group.Participants[len(group.Participants)-1]
		created = true
	}
	return sess, participant, sub, created, nil
}

func (s *Store) GetParticipant(groupID string, participantID int) (*Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, false
	}
	participant := findParticipantLocked(group, participantID)
	return participant, participant != nil
}

func (s *Store) ListSessionsByGroup(groupID string) []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Session, 0)
	for _, sess := range s.sessions {
		if sess.GroupID == groupID {
			list = append(list, sess)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return sessionSortKey(list[i].ID) < sessionSortKey(list[j].ID)
	})
	return list
}

// GroupLeaderboard sums stored score records across the group's closed
// sessions. Participants with no scored session are omitted.
func (s *Store) GroupLeaderboard(groupID string) ([]LeaderboardRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, errNotFound
	}
	totals := make(map[int]int)
	for _, sess := range s.sessions {
		if sess.GroupID != groupID || sess.Results == nil {
			continue
		}
		for _, row := range sess.Results.Rows {
			totals[row.ParticipantID] += row.Points
		}
	}
	rows := make([]LeaderboardRow, 0, len(totals))
	for i := range group.Participants {
		participant := &group.Participants[i]
		points, scored := totals[participant.ID]
		if !scored {
			continue
		}
		rows = append(rows, LeaderboardRow{
			ParticipantID: participant.ID,
			DisplayName:   participant.Name,
			TotalPoints:   points,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		return rows[i].ParticipantID < rows[j].ParticipantID
	})
	return rows, nil
}

// SessionCountdown reports status and remaining time for tick broadcasts.
func (s *Store) SessionCountdown(id string) (string, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", 0, false
	}
	if sess.EndsAt == nil {
		return sess.Status, 0, true
	}
	remaining := time.Until(*sess.EndsAt)
	if remaining < 0 {
		remaining = 0
	}
	return sess.Status, remaining, true
}

func (s *Store) RestoreGroup(group *Group) error {
	if group == nil {
		return errNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; ok {
		return fmt.Errorf("group %s already loaded", group.ID)
	}
	s.groups[group.ID] = group
	if id := idSortKey(group.ID); id >= s.nextGroupID {
		s.nextGroupID = id + 1
	}
	maxParticipantID := 0
	for _, participant := range group.Participants {
		if participant.ID > maxParticipantID {
			maxParticipantID = participant.ID
		}
	}
	if maxParticipantID >= s.nextParticipantID {
		s.nextParticipantID = maxParticipantID + 1
	}
	return nil
}

func (s *Store) RestoreSession(sess *Session) error {
	if sess == nil {
		return errNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[sess.GroupID]
	if !ok {
		return errNotFound
	}
	if _, ok := s.sessions[sess.ID]; ok {
		return fmt.Errorf("session %s already loaded", sess.ID)
	}
	sess.group = group
	if sess.Submissions == nil {
		sess.Submissions = make(map[int]*Submission)
	}
	s.sessions[sess.ID] = sess
	if id := sessionSortKey(sess.ID); id >= s.nextSessionID {
		s.nextSessionID = id + 1
	}
	return nil
}

func findParticipantLocked(group *Group, participantID int) *Participant {
	for i := range group.Participants {
		if group.Participants[i].ID == participantID {
			return &group.Participants[i]
		}
	}
	return nil
}

func findParticipantByNameLocked(group *Group, name string) *Participant {
	folded := strings.ToLower(strings.TrimSpace(name))
	for i := range group.Participants {
		if strings.ToLower(group.Participants[i].Name) == folded {
			return &group.Participants[i]
		}
	}
	return nil
}

func sessionSortKey(id string) int {
	return idSortKey(id)
}

func idSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}
