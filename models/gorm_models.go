// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormMatchHistory 每个玩家一条记录，比赛结果以 jsonb 数组保存
type GormMatchHistory struct {
	gorm.Model
	Username string        `gorm:"uniqueIndex;not null"`
	Matches  []MatchResult `gorm:"type:jsonb;serializer:json;not null"`
}

func (GormMatchHistory) TableName() string {
	return "match_histories"
}
