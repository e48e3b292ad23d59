package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CountMode decides whether re-committing an event already recorded for a
// member counts again.
type CountMode string

const (
	CountPerCommit CountMode = "per_commit"
	CountPerEvent  CountMode = "per_event"
)

// NoEvent is the placeholder selection that blocks a commit.
const NoEvent = "none"

var EventTypes = []string{"ZvZ", "Ganking", "Dungeon", "Other"}

type RosterService struct {
	db          *gorm.DB
	mode        CountMode
	roleHistory bool
	now         func() time.Time
}

func NewRosterService(db *gorm.DB, mode CountMode, roleHistory bool) *RosterService {
	if mode == "" {
		mode = CountPerCommit
	}
	return &RosterService{db: db, mode: mode, roleHistory: roleHistory, now: time.Now}
}

func (s *RosterService) Mode() CountMode { return s.mode }

func (s *RosterService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	name := strings.TrimSpace(req.Name)
	if err := ValidName(name); err != nil {
		return nil, err
	}
	if name == NoEvent {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	evType, err := canonicalEventType(req.Type)
	if err != nil {
		return nil, err
	}
	if req.EventDate != "" {
		if _, err := time.Parse("2006-01-02", req.EventDate); err != nil {
			return nil, fmt.Errorf("%w: event_date must be YYYY-MM-DD", ErrInvalidValue)
		}
	}

	ev := model.Event{ID: name, Name: name, Type: evType, EventDate: req.EventDate, CreatedAt: s.now()}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Event{}).Where("id = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEventExists
		}
		return tx.Create(&ev).Error
	})
	if err != nil {
		if errors.Is(err, ErrEventExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &ev, nil
}

func (s *RosterService) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes only the event row; its attendance and the members'
// counters are left as they are.
func (s *RosterService) DeleteEvent(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{})
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *RosterService) EventAttendance(ctx context.Context, id string) ([]model.Attendance, error) {
	var rows []model.Attendance
	if err := s.db.WithContext(ctx).Where("event_id = ?", id).Order("member_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// Commit writes a confirmed roster in one transaction: an attendance upsert,
// a member upsert with an atomic counter bump and, when enabled, a role
// history row for every member. Either everything lands or nothing does.
func (s *RosterService) Commit(ctx context.Context, eventID string, rows []model.RosterRow) (*model.CommitResult, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" || eventID == NoEvent {
		return nil, ErrNoEventSelected
	}
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}
	normalized, issues := ValidateRows(rows)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	res := &model.CommitResult{EventID: eventID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.Event
		if err := tx.Where("id = ?", eventID).First(&ev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("load event: %w", err)
		}

		now := s.now()
		for _, r := range normalized {
			if err := s.commitRow(tx, eventID, r, now, res); err != nil {
				return fmt.Errorf("commit %q: %w", r.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *RosterService) commitRow(tx *gorm.DB, eventID string, r model.RosterRow, now time.Time, res *model.CommitResult) error {
	attID := model.AttendanceID(eventID, r.Name)

	inc := 1
	if s.mode == CountPerEvent {
		var seen int64
		if err := tx.Model(&model.Attendance{}).Where("id = ?", attID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			inc = 0
		}
	}

	att := model.Attendance{ID: attID, EventID: eventID, MemberName: r.Name, Role: r.Role, Timestamp: now}
	if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&att).Error; err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	res.AttendanceWritten++

	var exists int64
	if err := tx.Model(&model.Member{}).Where("name = ?", r.Name).Count(&exists).Error; err != nil {
		return err
	}
	m := model.Member{Name: r.Name, LastRole: r.Role, ParticipationCount: 1, JoinDate: now, LastActive: now}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_role":           r.Role,
			"last_active":         now,
			"participation_count": gorm.Expr("participation_count + ?", inc),
		}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	if exists > 0 {
		res.MembersUpdated++
		res.Counted += inc
	} else {
		res.MembersCreated++
		res.Counted++
	}

	if s.roleHistory {
		h := model.RoleHistory{ID: uuid.NewString(), MemberName: r.Name, Role: r.Role, EventID: eventID, Timestamp: now}
		if err := tx.Create(&h).Error; err != nil {
			return fmt.Errorf("insert role history: %w", err)
		}
	}
	return nil
}

func canonicalEventType(t string) (string, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", nil
	}
	for _, known := range EventTypes {
		if strings.EqualFold(t, known) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: event type must be one of %s", ErrInvalidValue, strings.Join(EventTypes, "/"))
}
