package utils

import (
	"drillbit/config"
	"drillbit/models"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// QueueRequest is one host activity event: new or changed submittable content
// for a (course module, user) pair.
type QueueRequest struct {
	CmID           uint
	UserID         uint
	SubmitterID    uint
	ItemID         uint
	Identifier     string
	SubmissionType string
	FileName       string
	FileSize       int64
}

// QueueSubmission decides whether the activity event produces a queued record,
// resets an existing one, or is skipped. Returns the record id, or 0 when the
// module has checking disabled.
func QueueSubmission(db *gorm.DB, req QueueRequest) (uint, error) {
	if req.Identifier == "" {
		return 0, fmt.Errorf("identifier is required")
	}
	if !models.IsValidSubmissionType(req.SubmissionType) {
		return 0, fmt.Errorf("invalid submission type: %s", req.SubmissionType)
	}

	moduleSettings, err := models.GetModuleSettings(db, &req.CmID)
	if err != nil {
		return 0, err
	}
	siteDefaults, err := models.GetModuleSettings(db, nil)
	if err != nil {
		return 0, err
	}

	if !models.SettingEnabled(models.ResolveSetting(moduleSettings, siteDefaults, models.SettingUseDrillbit)) {
		return 0, nil
	}

	// Site kill switch, written by the settings surface when credential
	// verification fails. Absent means not yet verified, which only blocks
	// later, at send time.
	if enabled, err := models.GetSiteConfig(db, models.SiteKeyEnabled); err != nil {
		return 0, err
	} else if enabled == "0" {
		return 0, nil
	}

	precheckCode, precheckMessage := precheckSubmission(req, moduleSettings, siteDefaults)

	var prior models.PlagiarismFile
	err = db.Where(
		"cm_id = ? AND user_id = ? AND submission_type = ? AND superseded = false",
		req.CmID, req.UserID, req.SubmissionType,
	).Order("last_modified DESC").First(&prior).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		return createRecord(db, req, precheckCode, precheckMessage)
	}

	sameContent := prior.Identifier == req.Identifier

	switch {
	case sameContent && prior.StatusCode != models.StatusError:
		// Unchanged content already queued, in flight or completed: idempotent skip.
		return prior.ID, nil

	case prior.StatusCode == models.StatusError:
		// Errored records go back to pending, keeping the attempt counter.
		if err := prior.ResetForRetry(); err != nil {
			return 0, err
		}
		prior.Identifier = req.Identifier
		applyPrecheck(&prior, precheckCode, precheckMessage)
		if err := db.Save(&prior).Error; err != nil {
			return 0, err
		}
		return prior.ID, nil

	case prior.StatusCode == models.StatusQueued || prior.StatusCode == models.StatusPending:
		// Content replaced before it was ever sent: just point the record at the
		// new identifier.
		prior.Identifier = req.Identifier
		prior.LastModified = time.Now()
		applyPrecheck(&prior, precheckCode, precheckMessage)
		if err := db.Save(&prior).Error; err != nil {
			return 0, err
		}
		return prior.ID, nil

	default:
		// Completed (or in-flight) record with changed content.
		if models.SettingEnabled(models.ResolveSetting(moduleSettings, siteDefaults, models.SettingAllowResubmission)) {
			if err := prior.ResetForResubmission(req.Identifier); err != nil {
				return 0, err
			}
			applyPrecheck(&prior, precheckCode, precheckMessage)
			if err := db.Save(&prior).Error; err != nil {
				return 0, err
			}
			return prior.ID, nil
		}

		// Resubmission disallowed: the old record stays as the checked result of
		// its own content, a new record carries the new content.
		if err := db.Model(&prior).Updates(map[string]interface{}{"superseded": true, "last_modified": time.Now()}).Error; err != nil {
			return 0, err
		}
		return createRecord(db, req, precheckCode, precheckMessage)
	}
}

func createRecord(db *gorm.DB, req QueueRequest, precheckCode int, precheckMessage string) (uint, error) {
	record, err := models.NewPlagiarismFile(req.CmID, req.UserID, req.SubmitterID, req.Identifier, req.SubmissionType, req.ItemID)
	if err != nil {
		return 0, err
	}
	applyPrecheck(record, precheckCode, precheckMessage)
	if err := db.Create(record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

// precheckSubmission runs the file-specific checks that fail a submission
// before any network activity: upload size cap and the extension allowlist.
func precheckSubmission(req QueueRequest, moduleSettings, siteDefaults map[string]string) (int, string) {
	if req.SubmissionType != models.SubmissionTypeFile {
		return models.ErrorCodeNone, ""
	}

	if req.FileSize > config.AppConfig.MaxFileUploadSize {
		return models.ErrorCodeFileTooLarge, models.ErrorCodeDescription(models.ErrorCodeFileTooLarge)
	}

	allowAll := models.SettingEnabled(models.ResolveSetting(moduleSettings, siteDefaults, models.SettingAllowAllFileTypes))
	if !allowAll && !IsStandardFileType(req.FileName) {
		return models.ErrorCodeUnsupportedType, models.ErrorCodeDescription(models.ErrorCodeUnsupportedType)
	}

	return models.ErrorCodeNone, ""
}

func applyPrecheck(record *models.PlagiarismFile, code int, message string) {
	if code != models.ErrorCodeNone {
		record.MarkError(code, message)
	}
}
