package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightboard/brightboard-backend/internal/model"
)

func TestCapLeaderboard(t *testing.T) {
	entries := make([]model.LeaderboardEntry, finalLeaderboardLimit+20)
	for i := range entries {
		entries[i].Rank = i + 1
	}

	capped := capLeaderboard(entries)
	assert.Len(t, capped, finalLeaderboardLimit)
	assert.Equal(t, 1, capped[0].Rank)
	assert.Equal(t, finalLeaderboardLimit, capped[len(capped)-1].Rank)

	small := entries[:5]
	assert.Len(t, capLeaderboard(small), 5)
}
