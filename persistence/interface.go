// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/tetrisserver/models"
)

// Database 数据库接口：每个用户名一份比赛历史
type Database interface {
	// LoadHistory returns ErrRecordNotFound for an unknown username.
	LoadHistory(ctx context.Context, username string) ([]models.MatchResult, error)
	AppendMatchResult(ctx context.Context, username string, result models.MatchResult) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// Driver names accepted by Open.
const (
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options 数据库连接参数
type Options struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (o Options) DSN() string {
	sslmode := o.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.User, o.Password, o.DBName, sslmode)
}

// Open connects the configured driver.
func Open(opts Options) (Database, error) {
	switch opts.Driver {
	case DriverGorm:
		return NewGormPostgreSQL(opts)
	case DriverPostgres:
		return NewPostgreSQL(opts)
	case DriverMemory, "":
		return NewMemoryDatabase(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
}
