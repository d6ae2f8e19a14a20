package models

import (
	"gorm.io/gorm"
)

// SubmissionContent is the stored submittable the content extractor reads back
// at send time: a saved upload for file submissions, the raw text otherwise.
type SubmissionContent struct {
	gorm.Model
	CmID           uint   `gorm:"index;not null"`
	UserID         uint   `gorm:"index;not null"`
	ItemID         uint   `gorm:"default:0"`
	SubmissionType string `gorm:"not null"`
	Identifier     string `gorm:"index;not null"`
	FileName       string `gorm:"default:''"`
	MimeType       string `gorm:"default:''"`
	FilePath       string `gorm:"default:''"`
	TextContent    string `gorm:"type:text;default:''"`
	FileSize       int64  `gorm:"default:0"`
}
