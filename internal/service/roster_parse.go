package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/truongnet3103/albion-GE/internal/model"
)

const (
	RoleTank    = "Tank"
	RoleHealer  = "Healer"
	RoleMelee   = "Melee"
	RoleRanged  = "Ranged"
	RoleSupport = "Support"
)

// Roles is the closed set a committed row may carry.
var Roles = []string{RoleTank, RoleHealer, RoleMelee, RoleRanged, RoleSupport}

var roleAliases = map[string]string{
	"tank":       RoleTank,
	"main tank":  RoleTank,
	"off tank":   RoleTank,
	"healer":     RoleHealer,
	"heal":       RoleHealer,
	"healing":    RoleHealer,
	"melee":      RoleMelee,
	"melee dps":  RoleMelee,
	"mdps":       RoleMelee,
	"ranged":     RoleRanged,
	"range":      RoleRanged,
	"ranged dps": RoleRanged,
	"rdps":       RoleRanged,
	"support":    RoleSupport,
	"supp":       RoleSupport,
	"utility":    RoleSupport,
}

const maxNameLen = 191

var (
	fenceRe = regexp.MustCompile("```[A-Za-z]*")
	arrayRe = regexp.MustCompile(`(?s)\[.*\]`)
)

// ParseRoster decodes the first JSON array in a model answer. Code fences and
// prose around the array are ignored. Elements that are not {"name","role"}
// objects of strings keep their position with the bad field blanked, so the
// review flags them instead of losing the rest of the roster.
func ParseRoster(text string) ([]model.RosterRow, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
	if !arrayRe.MatchString(cleaned) {
		return nil, fmt.Errorf("%w (raw: %.200s)", ErrNoRoster, text)
	}
	start := strings.IndexByte(cleaned, '[')
	var elems []json.RawMessage
	if err := json.NewDecoder(strings.NewReader(cleaned[start:])).Decode(&elems); err != nil {
		return nil, fmt.Errorf("%w: %v (raw: %.200s)", ErrNoRoster, err, cleaned[start:])
	}

	rows := make([]model.RosterRow, 0, len(elems))
	for _, raw := range elems {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			rows = append(rows, model.RosterRow{})
			continue
		}
		rows = append(rows, model.RosterRow{Name: stringField(obj, "name"), Role: stringField(obj, "role")})
	}
	return rows, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// CanonicalRole folds case, spacing and common synonyms onto Roles.
// Unknown input is returned trimmed with ok=false.
func CanonicalRole(s string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if r, ok := roleAliases[key]; ok {
		return r, true
	}
	return strings.TrimSpace(s), false
}

// ValidName checks a string used as a record key (event id or member name).
func ValidName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.Contains(name, "/"):
		return fmt.Errorf("%w: %q contains '/'", ErrInvalidName, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case utf8.RuneCountInString(name) > maxNameLen:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, maxNameLen)
	}
	return nil
}

// ValidateRows normalizes names and roles and reports rows that cannot be
// committed as they are. The returned slice is index-aligned with the input.
// Names differing only in case count as duplicates.
func ValidateRows(rows []model.RosterRow) ([]model.RosterRow, []model.RowIssue) {
	out := make([]model.RosterRow, len(rows))
	issues := []model.RowIssue{}
	seen := make(map[string]int, len(rows))

	for i, r := range rows {
		name := strings.TrimSpace(r.Name)
		role, known := CanonicalRole(r.Role)
		out[i] = model.RosterRow{Name: name, Role: role}

		if err := ValidName(name); err != nil {
			issues = append(issues, model.RowIssue{Index: i, Name: name, Field: "name", Message: err.Error()})
		} else if first, dup := seen[strings.ToLower(name)]; dup {
			issues = append(issues, model.RowIssue{
				Index: i, Name: name, Field: "name",
				Message: fmt.Sprintf("duplicate of row %d", first+1),
			})
		} else {
			seen[strings.ToLower(name)] = i
		}
		if !known {
			issues = append(issues, model.RowIssue{
				Index: i, Name: name, Field: "role",
				Message: fmt.Sprintf("unknown role %q, expected one of %s", role, strings.Join(Roles, "/")),
			})
		}
	}
	return out, issues
}
