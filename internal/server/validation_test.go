package server

import (
	"testing"

	"show-of-hands/internal/config"
)

func TestValidateQuestion(t *testing.T) {
	if _, err := validateQuestion("   "); err == nil {
		t.Fatalf("expected blank question to be rejected")
	}
	got, err := validateQuestion("  Has  everyone\t slept  enough? ")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != "Has everyone slept enough?" {
		t.Fatalf("whitespace not normalized: %q", got)
	}

	long := make([]byte, maxQuestionLength+1)
	for i := range long {
		long[i] = 'q'
	}
	if _, err := validateQuestion(string(long)); err == nil {
		t.Fatalf("expected over-length question to be rejected")
	}
}

func TestValidateTimerSeconds(t *testing.T) {
	srv := New(nil, config.Default())
	if err := srv.validateTimerSeconds(9); err == nil {
		t.Fatalf("expected timer below the minimum to be rejected")
	}
	if err := srv.validateTimerSeconds(301); err == nil {
		t.Fatalf("expected timer above the maximum to be rejected")
	}
	if err := srv.validateTimerSeconds(10); err != nil {
		t.Fatalf("minimum timer rejected: %v", err)
	}
	if err := srv.validateTimerSeconds(300); err != nil {
		t.Fatalf("maximum timer rejected: %v", err)
	}
}

func TestValidateSubmission(t *testing.T) {
	vote, guess, err := validateSubmission(strPtr(" yes "), intPtr(3))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if *vote != voteYes {
		t.Fatalf("vote not normalized: %q", *vote)
	}
	if *guess != 3 {
		t.Fatalf("guess changed: %d", *guess)
	}

	if _, _, err := validateSubmission(strPtr("maybe"), nil); err == nil {
		t.Fatalf("expected unknown vote to be rejected")
	}
	if _, _, err := validateSubmission(nil, intPtr(-1)); err == nil {
		t.Fatalf("expected negative guess to be rejected")
	}
	if _, _, err := validateSubmission(nil, intPtr(maxGuessValue+1)); err == nil {
		t.Fatalf("expected oversized guess to be rejected")
	}

	// An empty touch is allowed; it only advances the timestamp.
	vote, guess, err = validateSubmission(nil, nil)
	if err != nil || vote != nil || guess != nil {
		t.Fatalf("expected empty submission to pass unchanged: %v %v %v", vote, guess, err)
	}
}
