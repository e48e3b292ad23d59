package service

import (
	"context"
	"testing"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRender(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	roster := newRoster(t, db, CountPerCommit, true)
	members := newMembers(t, db, 2)
	reports := NewReportService(db, members, staticTarget(2))

	for _, ev := range []string{"E1", "E2", "E3"} {
		mustEvent(t, roster, ev)
	}
	_, err := roster.Commit(ctx, "E1", []model.RosterRow{{Name: "Alice", Role: "Tank"}})
	require.NoError(t, err)
	_, err = roster.Commit(ctx, "E2", []model.RosterRow{{Name: "Alice", Role: "Tank"}})
	require.NoError(t, err)
	_, err = roster.Commit(ctx, "E3", []model.RosterRow{{Name: "Alice", Role: "Healer"}})
	require.NoError(t, err)

	text, err := reports.Render(ctx, "Alice")
	require.NoError(t, err)
	assert.Contains(t, text, "⚔️ CTA REPORT: Alice")
	assert.Contains(t, text, "Participation: 3 / 2")
	assert.Contains(t, text, "✅ PASS")
	assert.Contains(t, text, "Main role: Tank")
	assert.Contains(t, text, "Last role: Healer")
	assert.Contains(t, text, "• Tank: 2 (66.7%)")
	assert.Contains(t, text, "• Healer: 1 (33.3%)")
}

func TestReportWithoutHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	members := newMembers(t, db, 4)
	reports := NewReportService(db, members, staticTarget(4))

	_, err := members.Add(ctx, model.AddMemberRequest{Name: "Bob"})
	require.NoError(t, err)

	text, err := reports.Render(ctx, "Bob")
	require.NoError(t, err)
	assert.Contains(t, text, "❌ NOT YET")
	assert.Contains(t, text, "Main role: -")
	assert.Contains(t, text, "• no role history yet")

	_, err = reports.Render(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}
