package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"smartlearn/internal/learner_service/store"
	"smartlearn/internal/learning"
	"smartlearn/internal/models"
)

// ErrEmailTaken 表示注册时邮箱已被占用。
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials 表示登录凭据无效。登录失败时不区分
// 账户不存在与密码错误，避免泄露账户信息。
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service 封装了学习者账户的业务逻辑。
type Service struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService 创建一个新的 Service 实例。tokenTTL 为 0 时默认 7 天。
func NewService(s *store.Store, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Service{
		store:     s,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register 处理新学习者注册。
func (s *Service) Register(name, email, password string) (*models.Learner, error) {
	_, err := s.store.GetLearnerByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, learning.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	learner := &models.Learner{
		Name:     name,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.store.CreateLearner(learner); err != nil {
		return nil, err
	}
	return learner, nil
}

// Login 校验凭据并签发 JWT。
func (s *Service) Login(email, password string) (string, error) {
	learner, err := s.store.GetLearnerByEmail(email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(learner.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateJWT(learner.ID)
}

// GetLearner 通过 ID 加载学习者。
func (s *Service) GetLearner(id uint) (*models.Learner, error) {
	return s.store.GetLearnerByID(id)
}

// generateJWT 为指定学习者 ID 生成一个新的 JWT。
func (s *Service) generateJWT(learnerID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": learnerID,
		"iss": "smartlearn",
		"exp": time.Now().Add(s.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
