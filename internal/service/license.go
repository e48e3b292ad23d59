package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LicenseService struct{ db *gorm.DB }

func NewLicenseService(db *gorm.DB) *LicenseService { return &LicenseService{db: db} }

// Check reports ErrLicenseRequired unless key is on the allow-list and active.
func (s *LicenseService) Check(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrLicenseRequired
	}
	var l model.License
	err := s.db.WithContext(ctx).Where("`key` = ? AND active = ?", key, true).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLicenseRequired
	}
	if err != nil {
		return fmt.Errorf("check license: %w", err)
	}
	return nil
}

// Add inserts or re-activates a license key.
func (s *LicenseService) Add(ctx context.Context, key, owner string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty license key", ErrInvalidValue)
	}
	l := model.License{Key: key, Owner: owner, Active: true, CreatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "active"}),
	}).Create(&l).Error
	if err != nil {
		return fmt.Errorf("add license: %w", err)
	}
	return nil
}

func (s *LicenseService) Revoke(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Model(&model.License{}).Where("`key` = ?", key).Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("revoke license: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: unknown license key", ErrInvalidValue)
	}
	return nil
}
