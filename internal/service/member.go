package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/gosimple/slug"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gorm.io/gorm"
)

const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Classify labels a member against the monthly target. Reaching the target
// exactly is a pass.
func Classify(count, target int) string {
	if count >= target {
		return StatusPass
	}
	return StatusFail
}

type TargetSource interface {
	MonthlyTarget(ctx context.Context) (int, error)
}

type MemberService struct {
	db     *gorm.DB
	target TargetSource
	guild  string
	now    func() time.Time
}

func NewMemberService(db *gorm.DB, target TargetSource, guild string) *MemberService {
	return &MemberService{db: db, target: target, guild: guild, now: time.Now}
}

// List returns every member, most active first, with a pass/fail label.
func (s *MemberService) List(ctx context.Context) ([]model.MemberView, error) {
	target, err := s.target.MonthlyTarget(ctx)
	if err != nil {
		return nil, err
	}
	var members []model.Member
	err = s.db.WithContext(ctx).Order("participation_count DESC").Order("name ASC").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	views := make([]model.MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, model.MemberView{Member: m, Status: Classify(m.ParticipationCount, target), Target: target})
	}
	return views, nil
}

func (s *MemberService) Get(ctx context.Context, name string) (*model.Member, error) {
	var m model.Member
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// Add registers a member by hand, before they show up in any roster.
func (s *MemberService) Add(ctx context.Context, req model.AddMemberRequest) (*model.Member, error) {
	name := strings.TrimSpace(req.Name)
	if err := ValidName(name); err != nil {
		return nil, err
	}
	role := ""
	if strings.TrimSpace(req.Role) != "" {
		r, ok := CanonicalRole(req.Role)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidValue, req.Role)
		}
		role = r
	}

	now := s.now()
	m := model.Member{Name: name, LastRole: role, JoinDate: now, LastActive: now}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Member{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrMemberExists
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		if errors.Is(err, ErrMemberExists) {
			return nil, err
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	return &m, nil
}

// Update applies a hand edit. The counter is overwritten, not incremented.
func (s *MemberService) Update(ctx context.Context, name string, patch model.MemberPatch) (*model.Member, error) {
	updates := map[string]interface{}{}
	if patch.ParticipationCount != nil {
		if *patch.ParticipationCount < 0 {
			return nil, fmt.Errorf("%w: participation_count must not be negative", ErrInvalidValue)
		}
		updates["participation_count"] = *patch.ParticipationCount
	}
	if patch.LastRole != nil {
		r, ok := CanonicalRole(*patch.LastRole)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidValue, *patch.LastRole)
		}
		updates["last_role"] = r
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidValue)
	}

	res := s.db.WithContext(ctx).Model(&model.Member{}).Where("name = ?", name).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update member: %w", res.Error)
	}
	// RowsAffected is 0 on MySQL when the values are unchanged, so existence
	// is decided by reading the row back.
	return s.Get(ctx, name)
}

// Delete removes the member row only. Attendance and role history rows stay.
func (s *MemberService) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Member{})
	if res.Error != nil {
		return fmt.Errorf("delete member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ExportFilename names the CSV download, e.g. members-albion-ge-2026-10-19.csv.
func (s *MemberService) ExportFilename() string {
	base := "members"
	if g := slug.Make(s.guild); g != "" {
		base += "-" + g
	}
	return base + "-" + s.now().Format("2006-01-02") + ".csv"
}

// ExportCSV writes the member listing as CSV with a UTF-8 byte order mark so
// spreadsheet tools keep non-ASCII names intact.
func (s *MemberService) ExportCSV(ctx context.Context, w io.Writer) error {
	views, err := s.List(ctx)
	if err != nil {
		return err
	}

	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	cw.Write([]string{"Name", "Last Role", "Participation Count", "Target", "Status", "Join Date", "Last Active"})
	for _, v := range views {
		cw.Write([]string{
			v.Name,
			v.LastRole,
			strconv.Itoa(v.ParticipationCount),
			strconv.Itoa(v.Target),
			v.Status,
			formatDate(v.JoinDate),
			formatDate(v.LastActive),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return bw.Close()
}

// Stats summarizes one calendar month ("2006-01"); an empty month means the
// current one.
func (s *MemberService) Stats(ctx context.Context, month string) (*model.Stats, error) {
	start, err := monthStart(month, s.now())
	if err != nil {
		return nil, err
	}
	end := start.AddDate(0, 1, 0)
	target, err := s.target.MonthlyTarget(ctx)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var eventIDs []string
	if err := db.Model(&model.Event{}).Where("created_at >= ? AND created_at < ?", start, end).Pluck("id", &eventIDs).Error; err != nil {
		return nil, fmt.Errorf("stats events: %w", err)
	}
	var members []model.Member
	if err := db.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("stats members: %w", err)
	}
	var attendance []model.Attendance
	if len(eventIDs) > 0 {
		if err := db.Where("event_id IN ?", eventIDs).Find(&attendance).Error; err != nil {
			return nil, fmt.Errorf("stats attendance: %w", err)
		}
	}

	st := &model.Stats{Month: start.Format("2006-01"), Events: len(eventIDs), Members: len(members), Roles: []model.RoleShare{}}
	for _, m := range members {
		if Classify(m.ParticipationCount, target) == StatusPass {
			st.ActiveMembers++
		}
	}
	if st.Events > 0 {
		st.AverageAttendance = round1(float64(len(attendance)) / float64(st.Events))
		if st.Members > 0 {
			st.ParticipationRate = round1(100 * float64(len(attendance)) / float64(st.Events*st.Members))
		}
	}
	roles := make([]string, 0, len(attendance))
	for _, a := range attendance {
		roles = append(roles, a.Role)
	}
	st.Roles = RoleBreakdown(roles)
	return st, nil
}

// RoleBreakdown counts roles, most frequent first, ties by name.
func RoleBreakdown(roles []string) []model.RoleShare {
	counts := map[string]int{}
	for _, r := range roles {
		counts[r]++
	}
	shares := make([]model.RoleShare, 0, len(counts))
	for r, n := range counts {
		shares = append(shares, model.RoleShare{Role: r, Count: n, Percent: round1(100 * float64(n) / float64(len(roles)))})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Role < shares[j].Role
	})
	return shares
}

func monthStart(month string, now time.Time) (time.Time, error) {
	if month == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation("2006-01", month, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidValue)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
