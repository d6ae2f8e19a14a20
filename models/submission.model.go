package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission status codes
const (
	StatusQueued    = "queued"
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Submission types
const (
	SubmissionTypeFile       = "file"
	SubmissionTypeText       = "text_content"
	SubmissionTypeForumPost  = "forum_post"
	SubmissionTypeQuizAnswer = "quiz_answer"
)

// Error codes persisted on failed records. The remote protocol references more
// codes than it defines, so the catalog is a map deployments can extend.
const (
	ErrorCodeNone            = 0
	ErrorCodeSubmitFailed    = 1
	ErrorCodeFileTooLarge    = 2
	ErrorCodeModuleMissing   = 3
	ErrorCodeUnsupportedType = 4
	ErrorCodeContentNotFound = 9
)

var ErrorCodeDescriptions = map[int]string{
	ErrorCodeSubmitFailed:    "submission could not be delivered to the checking service",
	ErrorCodeFileTooLarge:    "file exceeds the maximum upload size",
	ErrorCodeModuleMissing:   "course module no longer exists",
	ErrorCodeUnsupportedType: "file type is not supported",
	ErrorCodeContentNotFound: "submission content could not be found",
}

// ErrorCodeDescription returns the human readable text for a persisted error code.
func ErrorCodeDescription(code int) string {
	if desc, ok := ErrorCodeDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("unknown error (%d)", code)
}

// PlagiarismFile is one tracked submission: one row per (course module, user,
// content identifier, submission type) combination that has ever been checked.
// Older rows for the same tuple are superseded, never deleted.
type PlagiarismFile struct {
	gorm.Model
	CmID           uint   `gorm:"index;not null"`
	UserID         uint   `gorm:"index;not null"`
	SubmitterID    uint   `gorm:"not null"`
	ItemID         uint   `gorm:"default:0"`
	Identifier     string `gorm:"index;not null"`
	SubmissionType string `gorm:"not null"`
	StatusCode     string `gorm:"index;default:'queued'"`
	Attempt        int    `gorm:"default:0"`
	SubmissionID   string `gorm:"index;default:''"` // remote paper id
	DKey           string `gorm:"default:''"`
	CallbackURL    string `gorm:"default:''"`
	DownloadURL    string `gorm:"default:''"`
	SimilarityScore *float64
	ErrorCode      int    `gorm:"default:0"`
	ErrorMessage   string `gorm:"default:''"`
	LastResponse   datatypes.JSON
	Superseded     bool `gorm:"default:false"`
	LastModified   time.Time
}

var validSubmissionTypes = map[string]bool{
	SubmissionTypeFile:       true,
	SubmissionTypeText:       true,
	SubmissionTypeForumPost:  true,
	SubmissionTypeQuizAnswer: true,
}

// IsValidSubmissionType reports whether the given type is one the pipeline accepts.
func IsValidSubmissionType(submissionType string) bool {
	return validSubmissionTypes[submissionType]
}

// NewPlagiarismFile builds a fresh queued record. Attempt starts at zero and is
// only ever incremented by the send phase.
func NewPlagiarismFile(cmID, userID, submitterID uint, identifier, submissionType string, itemID uint) (*PlagiarismFile, error) {
	if identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	if !IsValidSubmissionType(submissionType) {
		return nil, fmt.Errorf("invalid submission type: %s", submissionType)
	}

	return &PlagiarismFile{
		CmID:           cmID,
		UserID:         userID,
		SubmitterID:    submitterID,
		ItemID:         itemID,
		Identifier:     identifier,
		SubmissionType: submissionType,
		StatusCode:     StatusQueued,
		Attempt:        0,
		LastModified:   time.Now(),
	}, nil
}

// validTransitions holds the allowed state machine edges. Completed records only
// move again through an explicit resubmission reset; error records only through
// a retry reset.
var validTransitions = map[string][]string{
	StatusQueued:    {StatusSubmitted, StatusError},
	StatusPending:   {StatusSubmitted, StatusError},
	StatusSubmitted: {StatusCompleted, StatusError, StatusPending},
	StatusCompleted: {StatusPending},
	StatusError:     {StatusPending},
}

// TransitionTo moves the record to the given status, enforcing the state
// machine. Transitioning to the current status is a no-op.
func (p *PlagiarismFile) TransitionTo(status string) error {
	if p.StatusCode == status {
		return nil
	}
	for _, allowed := range validTransitions[p.StatusCode] {
		if allowed == status {
			p.StatusCode = status
			p.LastModified = time.Now()
			return nil
		}
	}
	return fmt.Errorf("invalid status transition %s -> %s", p.StatusCode, status)
}

// IncrementAttempt bumps the monotonic attempt counter. Called once per send attempt.
func (p *PlagiarismFile) IncrementAttempt() {
	p.Attempt++
	p.LastModified = time.Now()
}

// MarkError puts the record into the error state with a persisted code and message.
// Allowed from any state: a failure report must never be lost to a transition rule.
func (p *PlagiarismFile) MarkError(code int, message string) {
	p.StatusCode = StatusError
	p.ErrorCode = code
	p.ErrorMessage = message
	p.LastModified = time.Now()
}

// ResetForRetry pushes an errored record back to pending, clearing the error
// fields but preserving the attempt counter.
func (p *PlagiarismFile) ResetForRetry() error {
	if err := p.TransitionTo(StatusPending); err != nil {
		return err
	}
	p.ErrorCode = ErrorCodeNone
	p.ErrorMessage = ""
	return nil
}

// ResetForResubmission rewinds a completed record for materially new content.
// The identifier changes, remote linkage and score are cleared, attempt is kept.
func (p *PlagiarismFile) ResetForResubmission(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if err := p.TransitionTo(StatusPending); err != nil {
		return err
	}
	p.Identifier = identifier
	p.SubmissionID = ""
	p.DKey = ""
	p.CallbackURL = ""
	p.DownloadURL = ""
	p.SimilarityScore = nil
	p.ErrorCode = ErrorCodeNone
	p.ErrorMessage = ""
	p.LastResponse = nil
	return nil
}
