package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/truongnet3103/albion-GE/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBadCredentials = errors.New("wrong username or password")

type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Admin, error) {
	var a model.Admin
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &a, nil
}

// UpsertAdmin creates the account or resets its password and display name.
func (s *AuthService) UpsertAdmin(ctx context.Context, username, password, name string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: username required and password must be at least 8 characters", ErrInvalidValue)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if name == "" {
		name = username
	}
	a := model.Admin{Username: username, Password: string(hash), Name: name}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password", "name"}),
	}).Create(&a).Error
	if err != nil {
		return nil, fmt.Errorf("save admin: %w", err)
	}
	return &a, nil
}
