package model

import (
	"fmt"

	"gorm.io/gorm"
)

// BinaryCollation makes MySQL compare names byte for byte. The server default
// folds case and accents, which would merge "Rex" and "rex" into one member.
const BinaryCollation = "utf8mb4_bin"

// KeyColumn is a name-bearing column that must compare exactly.
type KeyColumn struct {
	Table   string
	Column  string
	Size    int
	NotNull bool
}

// KeyColumns lists the columns that hold event ids and member names.
func KeyColumns() []KeyColumn {
	return []KeyColumn{
		{Table: Event{}.TableName(), Column: "id", Size: 191, NotNull: true},
		{Table: Attendance{}.TableName(), Column: "id", Size: 400, NotNull: true},
		{Table: Attendance{}.TableName(), Column: "event_id", Size: 191},
		{Table: Attendance{}.TableName(), Column: "member_name", Size: 191},
		{Table: Member{}.TableName(), Column: "name", Size: 191, NotNull: true},
		{Table: RoleHistory{}.TableName(), Column: "member_name", Size: 191},
		{Table: RoleHistory{}.TableName(), Column: "event_id", Size: 191},
	}
}

// ModifySQL is the MySQL statement switching the column to BinaryCollation.
func (k KeyColumn) ModifySQL() string {
	null := "NULL"
	if k.NotNull {
		null = "NOT NULL"
	}
	return fmt.Sprintf("ALTER TABLE `%s` MODIFY `%s` varchar(%d) CHARACTER SET utf8mb4 COLLATE %s %s",
		k.Table, k.Column, k.Size, BinaryCollation, null)
}

// Migrate creates or updates every table. On MySQL it also pins the key
// columns to BinaryCollation; other dialects already compare exactly.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	if db.Dialector.Name() != "mysql" {
		return nil
	}
	for _, k := range KeyColumns() {
		var current string
		err := db.Raw(
			"SELECT COLLATION_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?",
			k.Table, k.Column,
		).Scan(&current).Error
		if err != nil {
			return fmt.Errorf("read collation of %s.%s: %w", k.Table, k.Column, err)
		}
		if current == BinaryCollation {
			continue
		}
		if err := db.Exec(k.ModifySQL()).Error; err != nil {
			return fmt.Errorf("set collation of %s.%s: %w", k.Table, k.Column, err)
		}
	}
	return nil
}
