package utils

import (
	"drillbit/models"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrAccessDenied is the user-facing denial for report access.
	ErrAccessDenied = errors.New("You do not have permission to view this report.")
	// ErrMissingCourseModule means the module behind the record no longer
	// exists; callers must stop with a distinct message, not silently deny.
	ErrMissingCourseModule = errors.New("course module not found")
)

// CanViewReport decides whether a viewer may fetch a completed report.
// Holders of the view-full-report capability always may; the report's own
// owner may when the show-student-reports setting (module first, site default
// fallback) is enabled.
func CanViewReport(db *gorm.DB, cmID, ownerUserID, requestingUserID uint) (bool, error) {
	var cm models.CourseModule
	if err := db.Where("id = ? AND is_deleted = false", cmID).First(&cm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrMissingCourseModule
		}
		return false, err
	}

	var permission models.Permission
	err := db.Where("user_id = ? AND permission = ? AND is_deleted = false",
		requestingUserID, models.PermViewFullReport).First(&permission).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if requestingUserID != ownerUserID {
		return false, nil
	}

	moduleSettings, err := models.GetModuleSettings(db, &cmID)
	if err != nil {
		return false, err
	}
	siteDefaults, err := models.GetModuleSettings(db, nil)
	if err != nil {
		return false, err
	}

	return models.SettingEnabled(models.ResolveSetting(moduleSettings, siteDefaults, models.SettingShowStudentReports)), nil
}
