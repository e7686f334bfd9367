// services/player_service.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/models"
	"github.com/wfunc/tetrisserver/persistence"
)

// DefaultTimeout bounds every database call made by the service.
const DefaultTimeout = 5 * time.Second

// PlayerService 玩家历史记录的读写. Database failures never reach the
// game: they are logged and swallowed.
type PlayerService struct {
	db      persistence.Database
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPlayerService(db persistence.Database, timeout time.Duration) *PlayerService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PlayerService{db: db, timeout: timeout}
}

// LoadHistory 获取玩家的比赛历史，未知玩家或数据库错误时返回空
func (s *PlayerService) LoadHistory(ctx context.Context, username string) []models.MatchResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	history, err := s.db.LoadHistory(ctx, username)
	if err != nil {
		if !errors.Is(err, persistence.ErrRecordNotFound) {
			logger.Log.Errorf("load history of %s: %v", username, err)
		}
		return []models.MatchResult{}
	}
	return history
}

// RecordResults appends each player's result in the background.
func (s *PlayerService) RecordResults(results map[string]models.MatchResult) {
	for username, result := range results {
		s.wg.Add(1)
		go func(username string, result models.MatchResult) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Errorf("record result of %s panicked: %v", username, r)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if err := s.db.AppendMatchResult(ctx, username, result); err != nil {
				logger.Log.Errorf("record result of %s in room %s: %v", username, result.RoomID, err)
				return
			}
			logger.Log.Debugf("recorded %s result for %s", result.Outcome, username)
		}(username, result)
	}
}

// Wait blocks until pending writes are done (shutdown and tests).
func (s *PlayerService) Wait() {
	s.wg.Wait()
}
