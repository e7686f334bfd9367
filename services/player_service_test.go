package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/persistence"
)

// failingDatabase fails every call.
type failingDatabase struct{}

func (failingDatabase) LoadHistory(context.Context, string) ([]models.MatchResult, error) {
	return nil, errors.New("connection refused")
}

func (failingDatabase) AppendMatchResult(context.Context, string, models.MatchResult) error {
	return errors.New("connection refused")
}

func (failingDatabase) Close() error { return nil }

func TestPlayerService_RecordAndLoad(t *testing.T) {
	db := persistence.NewMemoryDatabase()
	svc := NewPlayerService(db, time.Second)
	ctx := context.Background()

	assert.Empty(t, svc.LoadHistory(ctx, "alice"))

	svc.RecordResults(map[string]models.MatchResult{
		"alice": {RoomID: "r", Outcome: models.OutcomeWin, Score: 300, Lines: 3},
		"bob":   {RoomID: "r", Outcome: models.OutcomeLose, Score: 40, Lines: 1},
	})
	svc.Wait()

	history := svc.LoadHistory(ctx, "alice")
	require.Len(t, history, 1)
	assert.Equal(t, 300, history[0].Score)

	stats := models.Summarize("bob", svc.LoadHistory(ctx, "bob"))
	assert.Equal(t, 1, stats.TotalGames)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 40, stats.BestScore)
}

func TestPlayerService_SwallowsDatabaseErrors(t *testing.T) {
	svc := NewPlayerService(failingDatabase{}, 0)

	assert.NotPanics(t, func() {
		svc.RecordResults(map[string]models.MatchResult{"x": {RoomID: "r"}})
		svc.Wait()
	})
	history := svc.LoadHistory(context.Background(), "x")
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
