// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/tetrisserver/models"
)

// PostgreSQL 数据库实现 (database/sql + lib/pq)
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(opts Options) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", opts.DSN())
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构, column-compatible with the gorm driver
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS match_histories (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            username TEXT NOT NULL,
            matches JSONB NOT NULL DEFAULT '[]'::jsonb
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引
	_, err = db.ExecContext(ctx, `
        CREATE UNIQUE INDEX IF NOT EXISTS idx_match_histories_username ON match_histories(username);
        CREATE INDEX IF NOT EXISTS idx_match_histories_deleted_at ON match_histories(deleted_at);
    `)
	return err
}

// LoadHistory 加载玩家比赛历史
func (p *PostgreSQL) LoadHistory(ctx context.Context, username string) ([]models.MatchResult, error) {
	var data []byte
	query := `SELECT matches FROM match_histories WHERE username = $1 AND deleted_at IS NULL`
	err := p.db.QueryRowContext(ctx, query, username).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, describe(err)
	}

	var history []models.MatchResult
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// AppendMatchResult 追加一局结果 (UPSERT + jsonb 拼接)
func (p *PostgreSQL) AppendMatchResult(ctx context.Context, username string, result models.MatchResult) error {
	jsonData, err := json.Marshal([]models.MatchResult{result})
	if err != nil {
		return err
	}

	query := `
        INSERT INTO match_histories (username, matches)
        VALUES ($1, $2::jsonb)
        ON CONFLICT (username)
        DO UPDATE SET matches = match_histories.matches || EXCLUDED.matches,
                      updated_at = CURRENT_TIMESTAMP
    `
	if _, err := p.db.ExecContext(ctx, query, username, string(jsonData)); err != nil {
		return describe(err)
	}
	return nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

// describe adds the server's SQLSTATE to pq errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("postgres %s (%s): %w", pqErr.Code, pqErr.Code.Name(), err)
	}
	return err
}
