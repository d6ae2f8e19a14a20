package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Module setting names. A row with a nil CmID is the site-wide default.
const (
	SettingUseDrillbit         = "use_drillbit"
	SettingExcludeReferences   = "plagiarism_exclude_references"
	SettingExcludeQuotes       = "plagiarism_exclude_quotes"
	SettingExcludeSmallSources = "plagiarism_exclude_smallsources"
	SettingShowStudentReports  = "plagiarism_show_student_reports"
	SettingAllowResubmission   = "plagiarism_allow_resubmission"
	SettingAllowAllFileTypes   = "plagiarism_allow_all_file_types"
)

// KnownModuleSettings lists every setting name the settings surface accepts.
var KnownModuleSettings = []string{
	SettingUseDrillbit,
	SettingExcludeReferences,
	SettingExcludeQuotes,
	SettingExcludeSmallSources,
	SettingShowStudentReports,
	SettingAllowResubmission,
	SettingAllowAllFileTypes,
}

// PluginConfig is one name/value setting row, keyed by course module. The
// computed hash key makes the (cm, name) pair upsertable.
type PluginConfig struct {
	gorm.Model
	CmID       *uint  `gorm:"index"`
	Name       string `gorm:"not null"`
	Value      string `gorm:"default:''"`
	ConfigHash string `gorm:"uniqueIndex;not null"`
}

// ConfigHashFor computes the upsert key for a (cm, name) pair.
func ConfigHashFor(cmID *uint, name string) string {
	if cmID == nil {
		return "default_" + name
	}
	return fmt.Sprintf("%d_%s", *cmID, name)
}

// UpsertModuleSetting creates or updates one setting row.
func UpsertModuleSetting(db *gorm.DB, cmID *uint, name, value string) error {
	row := PluginConfig{
		CmID:       cmID,
		Name:       name,
		Value:      value,
		ConfigHash: ConfigHashFor(cmID, name),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// GetModuleSettings loads all setting rows for a course module as a name/value
// map. Pass nil for the site defaults.
func GetModuleSettings(db *gorm.DB, cmID *uint) (map[string]string, error) {
	var rows []PluginConfig
	query := db.Model(&PluginConfig{})
	if cmID == nil {
		query = query.Where("cm_id IS NULL")
	} else {
		query = query.Where("cm_id = ?", *cmID)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Name] = row.Value
	}
	return settings, nil
}

// ResolveSetting returns the module-level value when present, otherwise the
// site default, otherwise empty. This fallback rule is used everywhere a
// setting is read.
func ResolveSetting(moduleSettings, siteDefaults map[string]string, name string) string {
	if value, ok := moduleSettings[name]; ok {
		return value
	}
	if value, ok := siteDefaults[name]; ok {
		return value
	}
	return ""
}

// SettingEnabled interprets a stored setting value as a boolean flag.
func SettingEnabled(value string) bool {
	switch value {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
