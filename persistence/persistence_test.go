package persistence

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/tetrisserver/models"
)

func result(room string, outcome string, score int) models.MatchResult {
	return models.MatchResult{
		RoomID:     room,
		Mode:       models.ModeClassic,
		Players:    2,
		Outcome:    outcome,
		Score:      score,
		FinishedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// exerciseDatabase runs the behaviour every driver must share.
func exerciseDatabase(t *testing.T, db Database, username string) {
	ctx := context.Background()

	_, err := db.LoadHistory(ctx, username)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	require.NoError(t, db.AppendMatchResult(ctx, username, result("r1", models.OutcomeWin, 100)))
	require.NoError(t, db.AppendMatchResult(ctx, username, result("r2", models.OutcomeLose, 40)))

	history, err := db.LoadHistory(ctx, username)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "r1", history[0].RoomID)
	assert.Equal(t, models.OutcomeLose, history[1].Outcome)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, db.AppendMatchResult(ctx, username, result(fmt.Sprintf("c%d", i), models.OutcomeDraw, i)))
		}(i)
	}
	wg.Wait()

	history, err = db.LoadHistory(ctx, username)
	require.NoError(t, err)
	assert.Len(t, history, 12)
}

func TestMemoryDatabase(t *testing.T) {
	db, err := Open(Options{Driver: DriverMemory})
	require.NoError(t, err)
	defer db.Close()

	exerciseDatabase(t, db, "alice")
}

func TestMemoryDatabase_ReturnsCopies(t *testing.T) {
	db := NewMemoryDatabase()
	ctx := context.Background()
	require.NoError(t, db.AppendMatchResult(ctx, "bob", result("r", models.OutcomeWin, 1)))

	history, err := db.LoadHistory(ctx, "bob")
	require.NoError(t, err)
	history[0].Score = 999

	again, err := db.LoadHistory(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Score)
}

func TestMemoryDatabase_CancelledContext(t *testing.T) {
	db := NewMemoryDatabase()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, db.AppendMatchResult(ctx, "x", result("r", models.OutcomeWin, 1)), context.Canceled)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "mysql"})
	assert.Error(t, err)
}

func TestOptions_DSN(t *testing.T) {
	dsn := Options{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "tetris"}.DSN()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tetris sslmode=disable", dsn)
}

// postgresOptions reads a live server from TETRIS_TEST_PG_* or skips.
func postgresOptions(t *testing.T, driver string) Options {
	host := os.Getenv("TETRIS_TEST_PG_HOST")
	if host == "" {
		t.Skip("TETRIS_TEST_PG_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TETRIS_TEST_PG_PORT"))
	if port == 0 {
		port = 5432
	}
	return Options{
		Driver:   driver,
		Host:     host,
		Port:     port,
		User:     os.Getenv("TETRIS_TEST_PG_USER"),
		Password: os.Getenv("TETRIS_TEST_PG_PASSWORD"),
		DBName:   os.Getenv("TETRIS_TEST_PG_DB"),
	}
}

func TestPostgreSQL_Integration(t *testing.T) {
	db, err := Open(postgresOptions(t, DriverPostgres))
	require.NoError(t, err)
	defer db.Close()

	exerciseDatabase(t, db, fmt.Sprintf("pq-%d", time.Now().UnixNano()))
}

func TestGormPostgreSQL_Integration(t *testing.T) {
	db, err := Open(postgresOptions(t, DriverGorm))
	require.NoError(t, err)
	defer db.Close()

	exerciseDatabase(t, db, fmt.Sprintf("gorm-%d", time.Now().UnixNano()))
}
