package server

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxNameLength     = 64
	maxQuestionLength = 280
	maxGroupNameLen   = 64
)

func validateName(name string) (string, error) {
	return validateText("display name", name, maxNameLength)
}

func validateGroupName(name string) (string, error) {
	return validateText("group name", name, maxGroupNameLen)
}

func validateQuestion(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", errors.New("question is required")
	}
	if len(trimmed) > maxQuestionLength {
		return "", fmt.Errorf("question must be %d characters or fewer", maxQuestionLength)
	}
	return trimmed, nil
}

func (s *Server) validateTimerSeconds(seconds int) error {
	if seconds < s.cfg.TimerMinSeconds || seconds > s.cfg.TimerMaxSeconds {
		return fmt.Errorf("timer must be between %d and %d seconds", s.cfg.TimerMinSeconds, s.cfg.TimerMaxSeconds)
	}
	return nil
}

// validateSubmission normalizes the optional vote and guess fields. Both
// absent is still a valid (empty) submission touch.
func validateSubmission(vote *string, guess *int) (*string, *int, error) {
	if vote != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*vote))
		if normalized != voteYes && normalized != voteNo {
			return nil, nil, fmt.Errorf("vote must be %s or %s", voteYes, voteNo)
		}
		vote = &normalized
	}
	if guess != nil {
		if *guess < 0 {
			return nil, nil, errors.New("guess must be zero or greater")
		}
		if *guess > maxGuessValue {
			return nil, nil, fmt.Errorf("guess must be %d or fewer", maxGuessValue)
		}
	}
	return vote, guess, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	return trimmed, nil
}
