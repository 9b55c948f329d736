package models

import (
	"strconv"

	"gorm.io/gorm"
)

// Learner 代表系统中的一个学习者账户。
type Learner struct {
	gorm.Model

	Name     string `gorm:"size:255;not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"size:255" json:"-"` // 存储哈希后的密码，json中忽略
}

func (Learner) TableName() string {
	return "learners"
}

// LearnerKey 返回用于 Mongo 文档和 Redis 锁的字符串形式 ID。
func (l *Learner) LearnerKey() string {
	return strconv.FormatUint(uint64(l.ID), 10)
}
