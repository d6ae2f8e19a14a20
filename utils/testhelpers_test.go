package utils

import (
	"drillbit/config"
	"drillbit/models"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDb opens a fresh in-memory database and resets the global config so
// every test starts from the same defaults.
func setupTestDb(t *testing.T) *gorm.DB {
	t.Helper()

	config.AppConfig = &config.Config{
		Port:                 "3000",
		JWTKey:               "test-secret",
		SaltRound:            4,
		DrillbitApiUrl:       "http://127.0.0.1:1",
		SendCronSpec:         "*/5 * * * *",
		PollCronSpec:         "*/10 * * * *",
		SubmissionBatchLimit: 100,
		MaxFileUploadSize:    104857600,
		MaxFileNameLength:    180,
		UploadDir:            t.TempDir(),
	}

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.CourseModule{},
		&models.SubmissionContent{},
		&models.PlagiarismFile{},
		&models.PluginConfig{},
		&models.SiteConfig{},
	))
	return db
}

// enableChecking turns the plugin on site-wide.
func enableChecking(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, models.UpsertModuleSetting(db, nil, models.SettingUseDrillbit, "1"))
}

// storeSiteCredentials writes a complete credential set.
func storeSiteCredentials(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, models.SetSiteConfig(db, models.SiteKeyEmail, "admin@example.com"))
	require.NoError(t, models.SetSiteConfig(db, models.SiteKeyPassword, "secret"))
	require.NoError(t, models.SetSiteConfig(db, models.SiteKeyApiKey, "api-key"))
	require.NoError(t, models.SetSiteConfig(db, models.SiteKeyFolderID, "1234"))
}

// mintRemoteToken signs a token with an arbitrary key. Validity checks only read
// the expiry claim, so the key does not matter.
func mintRemoteToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("remote-test-key"))
	require.NoError(t, err)
	return signed
}

// createTrackedFile persists a record directly in the given state.
func createTrackedFile(t *testing.T, db *gorm.DB, cmID, userID uint, identifier, submissionType, status string) *models.PlagiarismFile {
	t.Helper()
	record, err := models.NewPlagiarismFile(cmID, userID, userID, identifier, submissionType, 0)
	require.NoError(t, err)
	switch status {
	case models.StatusSubmitted:
		require.NoError(t, record.TransitionTo(models.StatusSubmitted))
	case models.StatusCompleted:
		require.NoError(t, record.TransitionTo(models.StatusSubmitted))
		require.NoError(t, record.TransitionTo(models.StatusCompleted))
	case models.StatusError:
		record.MarkError(models.ErrorCodeSubmitFailed, "previous failure")
	}
	require.NoError(t, db.Create(record).Error)
	return record
}
