package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	configKeyGemini = "gemini_api"
	configKeyTarget = "monthly_target"
)

// SettingsService stores the shared credential and the monthly target in
// system_config so every admin sees the same values.
type SettingsService struct {
	db            *gorm.DB
	defaultTarget int
}

func NewSettingsService(db *gorm.DB, defaultTarget int) *SettingsService {
	return &SettingsService{db: db, defaultTarget: defaultTarget}
}

func (s *SettingsService) get(ctx context.Context, key string) (string, bool, error) {
	var row model.SystemConfig
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return row.Value, true, nil
}

func (s *SettingsService) set(ctx context.Context, key, value string) error {
	row := model.SystemConfig{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SettingsService) SharedAPIKey(ctx context.Context) (string, error) {
	v, _, err := s.get(ctx, configKeyGemini)
	return v, err
}

// SetSharedAPIKey stores the shared credential; an empty key clears it.
func (s *SettingsService) SetSharedAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, configKeyGemini, strings.TrimSpace(key))
}

// MonthlyTarget returns the stored target, or the configured default when
// none has been saved.
func (s *SettingsService) MonthlyTarget(ctx context.Context) (int, error) {
	v, ok, err := s.get(ctx, configKeyTarget)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.defaultTarget, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		logger.Warn("settings.bad_monthly_target", "value", v, "default", s.defaultTarget, "err", err)
		return s.defaultTarget, nil
	}
	return n, nil
}

func (s *SettingsService) SetMonthlyTarget(ctx context.Context, target int) error {
	if target < 0 {
		return fmt.Errorf("%w: monthly target must not be negative", ErrInvalidValue)
	}
	return s.set(ctx, configKeyTarget, strconv.Itoa(target))
}
