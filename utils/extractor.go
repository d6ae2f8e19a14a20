package utils

import (
	"drillbit/models"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"
)

// ErrContentNotFound means the submittable behind a queued record is missing or
// unreadable. It is terminal for the record, unlike a retryable transport error.
var ErrContentNotFound = errors.New("submission content not found")

// ExtractedContent is one submittable turned into an uploadable byte stream.
type ExtractedContent struct {
	Data     []byte
	MimeType string
	FileName string
	Title    string
}

// ContentExtractor turns a queued record back into its content. The host
// collaborator owns where content actually lives; the lifecycle only consumes
// this interface.
type ContentExtractor interface {
	Extract(file *models.PlagiarismFile) (*ExtractedContent, error)
}

// StoredContentExtractor reads content the enqueue endpoint persisted: saved
// uploads for file submissions, the stored text for everything else.
type StoredContentExtractor struct {
	Db *gorm.DB
}

func (e *StoredContentExtractor) Extract(file *models.PlagiarismFile) (*ExtractedContent, error) {
	var content models.SubmissionContent
	err := e.Db.Where(
		"cm_id = ? AND user_id = ? AND identifier = ? AND submission_type = ?",
		file.CmID, file.UserID, file.Identifier, file.SubmissionType,
	).Order("created_at DESC").First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}

	if file.SubmissionType == models.SubmissionTypeFile {
		data, err := os.ReadFile(content.FilePath)
		if err != nil {
			return nil, ErrContentNotFound
		}
		return &ExtractedContent{
			Data:     data,
			MimeType: content.MimeType,
			FileName: content.FileName,
			Title:    content.FileName,
		}, nil
	}

	// Text-based submissions (online text, forum posts, quiz answers). An empty
	// document is still a successful extraction; only a missing row is an error.
	fileName := fmt.Sprintf("%s_%d_%d.txt", file.SubmissionType, file.UserID, file.ItemID)
	return &ExtractedContent{
		Data:     []byte(content.TextContent),
		MimeType: "text/plain",
		FileName: fileName,
		Title:    fileName,
	}, nil
}
