package service

import (
	"context"
	"fmt"

	"github.com/truongnet3103/albion-GE/internal/model"

	"gorm.io/gorm"
)

type MaintenanceService struct {
	db       *gorm.DB
	pageSize int
}

func NewMaintenanceService(db *gorm.DB, pageSize int) *MaintenanceService {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &MaintenanceService{db: db, pageSize: pageSize}
}

type wipeTarget struct {
	name  string
	key   string
	model any
}

var wipeTargets = []wipeTarget{
	{"cta_events", "id", &model.Event{}},
	{"cta_attendance", "id", &model.Attendance{}},
	{"members", "name", &model.Member{}},
	{"member_role_history", "id", &model.RoleHistory{}},
}

// Wipe deletes at most one page of rows from each roster table. It does not
// loop; large tables need repeated calls until every count comes back 0.
func (s *MaintenanceService) Wipe(ctx context.Context) (*model.WipeResult, error) {
	res := &model.WipeResult{Deleted: map[string]int{}}
	db := s.db.WithContext(ctx)
	for _, t := range wipeTargets {
		var keys []string
		if err := db.Model(t.model).Limit(s.pageSize).Pluck(t.key, &keys).Error; err != nil {
			return res, fmt.Errorf("wipe %s: list: %w", t.name, err)
		}
		if len(keys) == 0 {
			res.Deleted[t.name] = 0
			continue
		}
		del := db.Where(t.key+" IN ?", keys).Delete(t.model)
		if del.Error != nil {
			return res, fmt.Errorf("wipe %s: delete: %w", t.name, del.Error)
		}
		res.Deleted[t.name] = int(del.RowsAffected)
	}
	return res, nil
}
