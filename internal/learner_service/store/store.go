package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smartlearn/internal/learning"
	"smartlearn/internal/models"
)

// Store 封装了学习者账户的数据库访问。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 并自动迁移学习者表。
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&models.Learner{}); err != nil {
		return nil, fmt.Errorf("学习者表迁移失败: %w", err)
	}
	return &Store{DB: db}, nil
}

// CreateLearner 在数据库中创建一个新的学习者账户。
func (s *Store) CreateLearner(learner *models.Learner) error {
	return s.DB.Create(learner).Error
}

// GetLearnerByEmail 通过邮箱地址查找学习者。
func (s *Store) GetLearnerByEmail(email string) (*models.Learner, error) {
	var learner models.Learner
	err := s.DB.Where("email = ?", email).First(&learner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, learning.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &learner, nil
}

// GetLearnerByID 通过 ID 查找学习者。
func (s *Store) GetLearnerByID(id uint) (*models.Learner, error) {
	var learner models.Learner
	err := s.DB.First(&learner, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, learning.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &learner, nil
}
