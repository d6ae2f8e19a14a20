package models

import (
	"gorm.io/gorm"
)

// Capability names checked by the report access gate.
const (
	PermViewFullReport = "plagiarism:viewfullreport"
)

// Permission grants a user one named capability.
type Permission struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null"`
	Permission string `gorm:"not null"`
	IsDeleted  bool   `gorm:"default:false"`
}
