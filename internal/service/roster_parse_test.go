package service

import (
	"strings"
	"testing"

	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []model.RosterRow
	}{
		{
			name: "bare array",
			in:   `[{"name":"Alice","role":"Tank"},{"name":"Bob","role":"Healer"}]`,
			want: []model.RosterRow{{Name: "Alice", Role: "Tank"}, {Name: "Bob", Role: "Healer"}},
		},
		{
			name: "fenced with prose",
			in:   "Here is the roster:\n```json\n[{\"name\":\"Alice\",\"role\":\"Tank\"}]\n```\nDone.",
			want: []model.RosterRow{{Name: "Alice", Role: "Tank"}},
		},
		{
			name: "bracketed prose after the array",
			in:   "```json\n[{\"name\":\"Rex\",\"role\":\"Tank\"}]\n```\nRoles used: [Tank]",
			want: []model.RosterRow{{Name: "Rex", Role: "Tank"}},
		},
		{
			name: "mistyped rows are blanked in place",
			in:   `[{"name":"Rex","role":"Tank"},{"name":42,"role":"Healer"},"Bob",{"name":"Ann","role":["Melee"]}]`,
			want: []model.RosterRow{{Name: "Rex", Role: "Tank"}, {Role: "Healer"}, {}, {Name: "Ann"}},
		},
		{
			name: "empty array",
			in:   "[]",
			want: []model.RosterRow{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoster(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRosterNoArray(t *testing.T) {
	_, err := ParseRoster("I could not find any players in this image.")
	require.ErrorIs(t, err, ErrNoRoster)
	assert.Contains(t, err.Error(), "could not find")

	_, err = ParseRoster(`[{"name": "Alice", "role": }]`)
	require.ErrorIs(t, err, ErrNoRoster)
}

func TestCanonicalRole(t *testing.T) {
	for in, want := range map[string]string{
		"tank":        RoleTank,
		" HEALER ":    RoleHealer,
		"Melee  DPS":  RoleMelee,
		"rdps":        RoleRanged,
		"Support":     RoleSupport,
		"utility":     RoleSupport,
		"Off Tank":    RoleTank,
		"ranged dps ": RoleRanged,
	} {
		got, ok := CanonicalRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := CanonicalRole(" Bard ")
	assert.False(t, ok)
	assert.Equal(t, "Bard", got)
}

func TestValidName(t *testing.T) {
	assert.NoError(t, ValidName("Alice"))
	assert.NoError(t, ValidName("Ñoño_42"))
	assert.ErrorIs(t, ValidName(""), ErrInvalidName)
	assert.ErrorIs(t, ValidName("a/b"), ErrInvalidName)
	assert.ErrorIs(t, ValidName("."), ErrInvalidName)
	assert.ErrorIs(t, ValidName(".."), ErrInvalidName)
	assert.ErrorIs(t, ValidName(strings.Repeat("x", 192)), ErrInvalidName)
	assert.NoError(t, ValidName(strings.Repeat("é", 191)))
}

func TestValidateRows(t *testing.T) {
	rows, issues := ValidateRows([]model.RosterRow{
		{Name: " Alice ", Role: "tank"},
		{Name: "Bob", Role: "Bard"},
		{Name: "Alice", Role: "Healer"},
		{Name: "", Role: "Melee"},
	})

	assert.Equal(t, []model.RosterRow{
		{Name: "Alice", Role: RoleTank},
		{Name: "Bob", Role: "Bard"},
		{Name: "Alice", Role: RoleHealer},
		{Name: "", Role: RoleMelee},
	}, rows)

	require.Len(t, issues, 3)
	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, "role", issues[0].Field)
	assert.Equal(t, 2, issues[1].Index)
	assert.Equal(t, "duplicate of row 1", issues[1].Message)
	assert.Equal(t, 3, issues[2].Index)
	assert.Equal(t, "name", issues[2].Field)
}

func TestValidateRowsCaseFoldedDuplicate(t *testing.T) {
	_, issues := ValidateRows([]model.RosterRow{
		{Name: "Rex", Role: "Tank"},
		{Name: "rex", Role: "Healer"},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, "duplicate of row 1", issues[0].Message)
}

func TestParsedMistypedRowIsFlagged(t *testing.T) {
	parsed, err := ParseRoster(`[{"name":"Rex","role":"Tank"},{"name":42,"role":"Healer"}]`)
	require.NoError(t, err)

	rows, issues := ValidateRows(parsed)
	assert.Equal(t, model.RosterRow{Name: "Rex", Role: RoleTank}, rows[0])
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, "name", issues[0].Field)
}

func TestValidateRowsClean(t *testing.T) {
	rows, issues := ValidateRows([]model.RosterRow{{Name: "Alice", Role: "Tank"}})
	assert.Len(t, rows, 1)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Issues: []model.RowIssue{{Index: 0, Field: "role", Message: "unknown role"}}}
	assert.Equal(t, "roster has invalid rows: row 1 role: unknown role", err.Error())
}
