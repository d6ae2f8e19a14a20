package models

import (
	"gorm.io/gorm"
)

// CourseModule is the host's unit of a gradable activity instance (one specific
// assignment, forum or quiz). Plagiarism configuration and records are keyed by it.
type CourseModule struct {
	gorm.Model
	CourseID  uint   `gorm:"index;not null"`
	Name      string `gorm:"default:''"`
	ModName   string `gorm:"default:'assign'"` // assign, forum, quiz
	IsDeleted bool   `gorm:"default:false"`
}
