package board

import (
	"fmt"
	"sort"

	"github.com/memeboard/memeboard/internal/models"
)

// ParseAction maps a vote action string to its value. Anything other than
// "up" or "down" is rejected before the vote state machine is reached.
func ParseAction(action string) (int, error) {
	switch action {
	case "up":
		return 1, nil
	case "down":
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: vote action %q", ErrInvalidInput, action)
	}
}

// applyVote transitions the (meme, user) vote state. Per pair there are three
// states: no vote, +1, -1. Repeating the current vote toggles it off; any
// other request installs the requested value, so an up->down switch is a
// single transition, not a toggle-off followed by a new vote.
func applyVote(m *models.Meme, username string, requested int) {
	if m.Votes == nil {
		m.Votes = map[string]int{}
	}
	if m.Votes[username] == requested {
		delete(m.Votes, username)
		return
	}
	m.Votes[username] = requested
}

// Score is the sum of all current vote values on the meme.
func Score(m models.Meme) int {
	total := 0
	for _, v := range m.Votes {
		total += v
	}
	return total
}

// MyVote returns the user's current vote value on the meme, 0 when absent.
func MyVote(m models.Meme, username string) int {
	return m.Votes[username]
}

// sortFeed orders memes newest first. Timestamps have second granularity, so
// ties are broken by id descending to keep the order deterministic.
func sortFeed(memes []models.Meme) {
	sort.SliceStable(memes, func(i, j int) bool {
		if !memes[i].CreatedAt.Equal(memes[j].CreatedAt) {
			return memes[i].CreatedAt.After(memes[j].CreatedAt)
		}
		return memes[i].ID > memes[j].ID
	})
}
