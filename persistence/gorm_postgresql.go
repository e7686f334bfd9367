// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/tetrisserver/logger"
	"github.com/wfunc/tetrisserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// zapWriter routes gorm's logger into the service logger.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.Log.Infof(format, args...)
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(opts Options) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := gormlogger.New(
		zapWriter{},
		gormlogger.Config{
			SlowThreshold:             time.Second,     // 慢SQL阈值
			LogLevel:                  gormlogger.Warn, // 日志级别
			IgnoreRecordNotFoundError: true,            // 未注册用户是正常情况
			Colorful:                  false,           // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormMatchHistory{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// LoadHistory 加载玩家比赛历史
func (p *GormPostgreSQL) LoadHistory(ctx context.Context, username string) ([]models.MatchResult, error) {
	var record models.GormMatchHistory
	if err := p.db.WithContext(ctx).Where("username = ?", username).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record.Matches, nil
}

// AppendMatchResult 在事务中追加一局结果：先保证记录存在，再加行锁更新
func (p *GormPostgreSQL) AppendMatchResult(ctx context.Context, username string, result models.MatchResult) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.GormMatchHistory{Username: username, Matches: []models.MatchResult{}}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).Create(&seed).Error
		if err != nil {
			return err
		}

		var record models.GormMatchHistory
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("username = ?", username).
			First(&record).Error
		if err != nil {
			return err
		}

		record.Matches = append(record.Matches, result)
		return tx.Save(&record).Error
	})
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
