package server

import (
	"errors"
	"testing"
	"time"
)

func TestStoreCreateAndLookupGroup(t *testing.T) {
	store := NewStore()
	group := store.CreateGroup("Quiz Night")
	if group.ID != "group-1" {
		t.Fatalf("expected group-1, got %s", group.ID)
	}
	if len(group.JoinCode) != 6 {
		t.Fatalf("expected a 6-character join code, got %q", group.JoinCode)
	}

	found, ok := store.GetGroup(group.ID)
	if !ok || found != group {
		t.Fatalf("group lookup failed")
	}
	byCode, ok := store.FindGroupByJoinCode(group.JoinCode)
	if !ok || byCode != group {
		t.Fatalf("join code lookup failed")
	}
	if _, ok := store.FindGroupByJoinCode("NOPE42"); ok {
		t.Fatalf("unexpected match for an unknown join code")
	}
}

func TestStoreCreateSessionUnknownGroup(t *testing.T) {
	store := NewStore()
	if _, err := store.CreateSession("group-404", "Question?", 30); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound, got %v", err)
	}
}

func TestStoreIDRebase(t *testing.T) {
	store := NewStore()
	group := store.CreateGroup("Quiz Night")
	sess, err := store.CreateSession(group.ID, "Question?", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	_, participant, _, _, err := store.JoinSession(sess.ID, 0, "Ada", 10*time.Second)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	store.UpdateGroupID(group, "group-41")
	if _, ok := store.GetGroup("group-41"); !ok {
		t.Fatalf("group not reachable under the new id")
	}
	if sess.GroupID != "group-41" {
		t.Fatalf("session still references the old group id: %s", sess.GroupID)
	}
	if participant.GroupID != "group-41" {
		t.Fatalf("participant still references the old group id: %s", participant.GroupID)
	}

	store.UpdateSessionID(sess, "session-7")
	if _, ok := store.GetSession("session-7"); !ok {
		t.Fatalf("session not reachable under the new id")
	}
	if _, ok := store.GetSession("session-1"); ok {
		t.Fatalf("session still reachable under the old id")
	}
}

func TestStoreRestoreBumpsCounters(t *testing.T) {
	store := NewStore()
	group := &Group{
		ID:       "group-9",
		Name:     "Restored",
		JoinCode: "ABCDEF",
		Participants: []Participant{
			{ID: 14, GroupID: "group-9", Name: "Ada"},
		},
	}
	if err := store.RestoreGroup(group); err != nil {
		t.Fatalf("restore group: %v", err)
	}
	sess := &Session{
		ID:      "session-12",
		GroupID: "group-9",
		Status:  statusDraft,
	}
	if err := store.RestoreSession(sess); err != nil {
		t.Fatalf("restore session: %v", err)
	}

	next := store.CreateGroup("Fresh")
	if next.ID != "group-10" {
		t.Fatalf("expected group-10 after restore, got %s", next.ID)
	}
	created, err := store.CreateSession("group-9", "Question?", 30)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if created.ID != "session-13" {
		t.Fatalf("expected session-13 after restore, got %s", created.ID)
	}
	_, participant, _, _, err := store.JoinSession(created.ID, 0, "Bob", 10*time.Second)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if participant.ID != 15 {
		t.Fatalf("expected participant 15 after restore, got %d", participant.ID)
	}
}

func TestStoreRestoreRejectsDuplicates(t *testing.T) {
	store := NewStore()
	group := &Group{ID: "group-1", Name: "Dup", JoinCode: "ABCDEF"}
	if err := store.RestoreGroup(group); err != nil {
		t.Fatalf("restore group: %v", err)
	}
	if err := store.RestoreGroup(group); err == nil {
		t.Fatalf("expected duplicate group restore to fail")
	}
	sess := &Session{ID: "session-1", GroupID: "group-1", Status: statusDraft}
	if err := store.RestoreSession(sess); err != nil {
		t.Fatalf("restore session: %v", err)
	}
	if err := store.RestoreSession(&Session{ID: "session-1", GroupID: "group-1"}); err == nil {
		t.Fatalf("expected duplicate session restore to fail")
	}
	if err := store.RestoreSession(&Session{ID: "session-2", GroupID: "group-404"}); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound for orphan session, got %v", err)
	}
}

func TestStoreListSessionsSorted(t *testing.T) {
	store := NewStore()
	group := store.CreateGroup("Quiz Night")
	for i := 0; i < 3; i++ {
		if _, err := store.CreateSession(group.ID, "Question?", 30); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	list := store.ListSessionsByGroup(group.ID)
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	for i, sess := range list {
		if key := sessionSortKey(sess.ID); key != i+1 {
			t.Fatalf("sessions out of order: %s at index %d", sess.ID, i)
		}
	}
}

func TestGroupLeaderboard(t *testing.T) {
	store := NewStore()
	group := store.CreateGroup("Quiz Night")
	sessA, _ := store.CreateSession(group.ID, "A?", 30)
	sessB, _ := store.CreateSession(group.ID, "B?", 30)
	_, ada, _, _, err := store.JoinSession(sessA.ID, 0, "Ada", 10*time.Second)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	_, bob, _, _, err := store.JoinSession(sessA.ID, 0, "Bob", 10*time.Second)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	attach := func(sess *Session, rows []ScoreRow) {
		if _, err := store.UpdateSession(sess.ID, func(sess *Session) error {
			sess.Status = statusClosed
			sess.Results = &SessionResults{Rows: rows}
			return nil
		}); err != nil {
			t.Fatalf("attach results: %v", err)
		}
	}
	attach(sessA, []ScoreRow{
		{ParticipantID: ada.ID, Points: 3},
		{ParticipantID: bob.ID, Points: 5},
	})
	attach(sessB, []ScoreRow{
		{ParticipantID: ada.ID, Points: 5},
	})

	rows, err := store.GroupLeaderboard(group.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ParticipantID != ada.ID || rows[0].TotalPoints != 8 {
		t.Fatalf("expected Ada first with 8 points, got %+v", rows[0])
	}
	if rows[1].ParticipantID != bob.ID || rows[1].TotalPoints != 5 {
		t.Fatalf("expected Bob second with 5 points, got %+v", rows[1])
	}
}

func TestSessionCountdown(t *testing.T) {
	store := NewStore()
	group := store.CreateGroup("Quiz Night")
	sess, _ := store.CreateSession(group.ID, "Question?", 30)

	status, remaining, ok := store.SessionCountdown(sess.ID)
	if !ok || status != statusDraft || remaining != 0 {
		t.Fatalf("unexpected draft countdown: %s %v %v", status, remaining, ok)
	}

	if _, err := store.UpdateSession(sess.ID, func(sess *Session) error {
		ends := timeNowUTC().Add(20 * time.Second)
		sess.Status = statusLive
		sess.EndsAt = &ends
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	status, remaining, ok = store.SessionCountdown(sess.ID)
	if !ok || status != statusLive {
		t.Fatalf("unexpected live countdown: %s %v", status, ok)
	}
	if remaining <= 18*time.Second || remaining > 20*time.Second {
		t.Fatalf("remaining out of range: %v", remaining)
	}

	if _, _, ok := store.SessionCountdown("session-404"); ok {
		t.Fatalf("expected countdown lookup to miss")
	}
}
