package server

// The scoring engine is deterministic and free of I/O: given the final set
// of submissions it tallies the YES/NO votes and awards points for guess
// accuracy against the actual YES count. Vote and guess are independent
// fields; a submission with no guess scores zero but still counts its vote,
// and a submission with no vote is still scored on its guess.

func tallyVotes(subs []Submission) (yesCount, noCount int) {
	for _, sub := range subs {
		if sub.Vote == nil {
			continue
		}
		switch *sub.Vote {
		case voteYes:
			yesCount++
		case voteNo:
			noCount++
		}
	}
	return yesCount, noCount
}

// scoreGuess awards 5 points for an exact guess of the YES count, 3 for an
// off-by-one guess, and 0 otherwise (including an absent guess).
func scoreGuess(guess *int, actualYesCount int) int {
	if guess == nil {
		return 0
	}
	diff := *guess - actualYesCount
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return pointsExact
	case 1:
		return pointsClose
	default:
		return 0
	}
}

// scoreSubmissions computes the full result of a closing session: the vote
// tally plus per-participant points keyed by participant ID.
func scoreSubmissions(subs []Submission) (yesCount, noCount int, points map[int]int) {
	yesCount, noCount = tallyVotes(subs)
	points = make(map[int]int, len(subs))
	for _, sub := range subs {
		points[sub.ParticipantID] = scoreGuess(sub.Guess, yesCount)
	}
	return yesCount, noCount, points
}
