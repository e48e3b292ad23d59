package model

import "time"

// Event is one call-to-arms. The event name doubles as its id.
type Event struct {
	ID        string    `gorm:"primaryKey;size:191" json:"id"`
	Name      string    `gorm:"size:191" json:"name"`
	Type      string    `gorm:"size:32" json:"type,omitempty"`
	EventDate string    `gorm:"size:10" json:"event_date,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Attendance is keyed by AttendanceID(eventID, memberName), so a repeated
// commit of the same pair overwrites the row.
type Attendance struct {
	ID         string    `gorm:"primaryKey;size:400" json:"id"`
	EventID    string    `gorm:"size:191;index" json:"event_id"`
	MemberName string    `gorm:"size:191;index" json:"member_name"`
	Role       string    `gorm:"size:32" json:"role"`
	Timestamp  time.Time `json:"timestamp"`
}

type Member struct {
	Name               string    `gorm:"primaryKey;size:191" json:"name"`
	LastRole           string    `gorm:"size:32" json:"last_role"`
	ParticipationCount int       `gorm:"not null;default:0;index" json:"participation_count"`
	JoinDate           time.Time `json:"join_date"`
	LastActive         time.Time `json:"last_active"`
}

// RoleHistory is append-only; one row per member per commit.
type RoleHistory struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	MemberName string    `gorm:"size:191;index" json:"member_name"`
	Role       string    `gorm:"size:32" json:"role"`
	EventID    string    `gorm:"size:191" json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
}

type SystemConfig struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type License struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Owner     string    `gorm:"size:191" json:"owner"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Admin is an account allowed to use the tool. Guild members are not users.
type Admin struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:64" json:"username"`
	Password string `json:"-"`
	Name     string `gorm:"size:191" json:"name"`
}

func (Event) TableName() string        { return "cta_events" }
func (Attendance) TableName() string   { return "cta_attendance" }
func (Member) TableName() string       { return "members" }
func (RoleHistory) TableName() string  { return "member_role_history" }
func (SystemConfig) TableName() string { return "system_config" }
func (License) TableName() string      { return "licenses" }
func (Admin) TableName() string        { return "admins" }

// AttendanceID builds the attendance key for an (event, member) pair.
func AttendanceID(eventID, memberName string) string {
	return eventID + "_" + memberName
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Event{}, &Attendance{}, &Member{}, &RoleHistory{},
		&SystemConfig{}, &License{}, &Admin{},
	}
}
