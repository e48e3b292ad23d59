package service

import (
	"context"
	"testing"
	"time"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

func newRoster(t *testing.T, db *gorm.DB, mode CountMode, history bool) *RosterService {
	t.Helper()
	s := NewRosterService(db, mode, history)
	s.now = fixedClock(testNow)
	return s
}

func mustEvent(t *testing.T, s *RosterService, name string) {
	t.Helper()
	_, err := s.CreateEvent(context.Background(), model.CreateEventRequest{Name: name, Type: "zvz"})
	require.NoError(t, err)
}

func loadMember(t *testing.T, db *gorm.DB, name string) model.Member {
	t.Helper()
	var m model.Member
	require.NoError(t, db.Where("name = ?", name).First(&m).Error)
	return m
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	s := newRoster(t, newTestDB(t), CountPerCommit, true)

	ev, err := s.CreateEvent(ctx, model.CreateEventRequest{Name: " Castle 19/10 ", Type: "ZvZ"})
	require.ErrorIs(t, err, ErrInvalidName)
	assert.Nil(t, ev)

	ev, err = s.CreateEvent(ctx, model.CreateEventRequest{Name: " Castle Oct19 ", Type: "zvz", EventDate: "2026-10-19"})
	require.NoError(t, err)
	assert.Equal(t, "Castle Oct19", ev.ID)
	assert.Equal(t, "ZvZ", ev.Type)

	_, err = s.CreateEvent(ctx, model.CreateEventRequest{Name: "Castle Oct19"})
	assert.ErrorIs(t, err, ErrEventExists)

	_, err = s.CreateEvent(ctx, model.CreateEventRequest{Name: NoEvent})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.CreateEvent(ctx, model.CreateEventRequest{Name: "E2", Type: "raid"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.CreateEvent(ctx, model.CreateEventRequest{Name: "E3", EventDate: "19/10/2026"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestCommitCreatesAttendanceAndMembers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerCommit, true)
	mustEvent(t, s, "E1")

	res, err := s.Commit(ctx, "E1", []model.RosterRow{
		{Name: "Alice", Role: "Tank"},
		{Name: "Bob", Role: "healer"},
	})
	require.NoError(t, err)
	assert.Equal(t, &model.CommitResult{EventID: "E1", AttendanceWritten: 2, MembersCreated: 2, Counted: 2}, res)

	var att model.Attendance
	require.NoError(t, db.Where("id = ?", "E1_Alice").First(&att).Error)
	assert.Equal(t, "E1", att.EventID)
	assert.Equal(t, "Alice", att.MemberName)
	assert.Equal(t, RoleTank, att.Role)

	bob := loadMember(t, db, "Bob")
	assert.Equal(t, RoleHealer, bob.LastRole)
	assert.Equal(t, 1, bob.ParticipationCount)
	assert.True(t, bob.JoinDate.Equal(testNow))
	assert.True(t, bob.LastActive.Equal(testNow))

	var history int64
	require.NoError(t, db.Model(&model.RoleHistory{}).Count(&history).Error)
	assert.EqualValues(t, 2, history)
}

func TestCommitTwicePerCommitCountsAgain(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerCommit, false)
	mustEvent(t, s, "E1")

	rows := []model.RosterRow{{Name: "Alice", Role: "Tank"}}
	_, err := s.Commit(ctx, "E1", rows)
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	s.now = fixedClock(later)
	res, err := s.Commit(ctx, "E1", []model.RosterRow{{Name: "Alice", Role: "Melee"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.MembersUpdated)
	assert.Equal(t, 1, res.Counted)

	var n int64
	require.NoError(t, db.Model(&model.Attendance{}).Count(&n).Error)
	assert.EqualValues(t, 1, n, "attendance is keyed by event and member")

	alice := loadMember(t, db, "Alice")
	assert.Equal(t, 2, alice.ParticipationCount)
	assert.Equal(t, RoleMelee, alice.LastRole)
	assert.True(t, alice.JoinDate.Equal(testNow), "join date is set once")
	assert.True(t, alice.LastActive.Equal(later))

	var history int64
	require.NoError(t, db.Model(&model.RoleHistory{}).Count(&history).Error)
	assert.Zero(t, history)
}

func TestCommitTwicePerEventCountsOnce(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerEvent, true)
	mustEvent(t, s, "E1")
	mustEvent(t, s, "E2")

	rows := []model.RosterRow{{Name: "Alice", Role: "Tank"}}
	_, err := s.Commit(ctx, "E1", rows)
	require.NoError(t, err)
	res, err := s.Commit(ctx, "E1", rows)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Counted)
	assert.Equal(t, 1, loadMember(t, db, "Alice").ParticipationCount)

	_, err = s.Commit(ctx, "E2", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, loadMember(t, db, "Alice").ParticipationCount)
}

func TestCommitPerEventRecreatesDeletedMember(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerEvent, false)
	mustEvent(t, s, "E1")

	rows := []model.RosterRow{{Name: "Alice", Role: "Tank"}}
	_, err := s.Commit(ctx, "E1", rows)
	require.NoError(t, err)
	require.NoError(t, db.Where("name = ?", "Alice").Delete(&model.Member{}).Error)

	res, err := s.Commit(ctx, "E1", rows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MembersCreated)
	assert.Equal(t, 1, loadMember(t, db, "Alice").ParticipationCount)
}

func TestCommitRejections(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerCommit, true)
	mustEvent(t, s, "E1")
	rows := []model.RosterRow{{Name: "Alice", Role: "Tank"}}

	_, err := s.Commit(ctx, "", rows)
	assert.ErrorIs(t, err, ErrNoEventSelected)
	_, err = s.Commit(ctx, NoEvent, rows)
	assert.ErrorIs(t, err, ErrNoEventSelected)
	_, err = s.Commit(ctx, "E1", nil)
	assert.ErrorIs(t, err, ErrEmptyRoster)
	_, err = s.Commit(ctx, "missing", rows)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = s.Commit(ctx, "E1", []model.RosterRow{{Name: "Alice", Role: "Tank"}, {Name: "Bob", Role: "Bard"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, 1, verr.Issues[0].Index)

	_, err = s.Commit(ctx, "E1", []model.RosterRow{{Name: "Rex", Role: "Tank"}, {Name: "rex", Role: "Healer"}})
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "duplicate of row 1", verr.Issues[0].Message)

	assertNothingWritten(t, db)
}

func assertNothingWritten(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, m := range []any{&model.Attendance{}, &model.Member{}, &model.RoleHistory{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "nothing is written by a failed commit")
	}
}

func TestCommitFailingMidBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerCommit, true)
	mustEvent(t, s, "E1")
	failRoleHistoryFor(t, db, "Bob")

	res, err := s.Commit(ctx, "E1", []model.RosterRow{
		{Name: "Alice", Role: "Tank"},
		{Name: "Bob", Role: "Healer"},
		{Name: "Carol", Role: "Melee"},
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), `commit "Bob": insert role history`)

	assertNothingWritten(t, db)
}

func TestDeleteEventKeepsAttendance(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := newRoster(t, db, CountPerCommit, false)
	mustEvent(t, s, "E1")
	_, err := s.Commit(ctx, "E1", []model.RosterRow{{Name: "Alice", Role: "Tank"}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEvent(ctx, "E1"))
	assert.ErrorIs(t, s.DeleteEvent(ctx, "E1"), ErrEventNotFound)

	rows, err := s.EventAttendance(ctx, "E1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, loadMember(t, db, "Alice").ParticipationCount)
}
