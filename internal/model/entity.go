package model

import "time"

// RosterRow is one extracted or hand-edited line of a party roster.
type RosterRow struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type RowIssue struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CreateEventRequest struct {
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type"`
	EventDate string `json:"event_date"`
}

type ReviewResponse struct {
	Token     string      `json:"token"`
	Source    string      `json:"source"`
	Rows      []RosterRow `json:"rows"`
	Issues    []RowIssue  `json:"issues"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type UpdateReviewRequest struct {
	Rows []RosterRow `json:"rows"`
}

type CommitRequest struct {
	EventID string `json:"event_id"`
}

type CommitResult struct {
	EventID           string `json:"event_id"`
	AttendanceWritten int    `json:"attendance_written"`
	MembersCreated    int    `json:"members_created"`
	MembersUpdated    int    `json:"members_updated"`
	Counted           int    `json:"counted"`
}

type AddMemberRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
}

// MemberPatch carries a hand edit; nil fields are left untouched.
type MemberPatch struct {
	ParticipationCount *int    `json:"participation_count"`
	LastRole           *string `json:"last_role"`
}

type MemberView struct {
	Member
	Status string `json:"status"`
	Target int    `json:"target"`
}

type RoleShare struct {
	Role    string  `json:"role"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Stats struct {
	Month             string      `json:"month"`
	Events            int         `json:"events"`
	Members           int         `json:"members"`
	ActiveMembers     int         `json:"active_members"`
	AverageAttendance float64     `json:"average_attendance"`
	ParticipationRate float64     `json:"participation_rate"`
	Roles             []RoleShare `json:"roles"`
}

type Settings struct {
	MonthlyTarget int  `json:"monthly_target"`
	SharedKeySet  bool `json:"shared_key_set"`
	LicenseGated  bool `json:"license_gated"`
	RoleHistory   bool `json:"role_history"`
	CountPerEvent bool `json:"count_per_event"`
}

type UpdateSettingsRequest struct {
	MonthlyTarget *int    `json:"monthly_target"`
	GeminiAPIKey  *string `json:"gemini_api_key"`
}

type WipeResult struct {
	Deleted map[string]int `json:"deleted"`
}
