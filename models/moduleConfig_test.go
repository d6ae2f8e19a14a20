package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openConfigTestDb(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&PluginConfig{}, &SiteConfig{}))
	return db
}

func TestResolveSettingModuleOverridesSiteDefault(t *testing.T) {
	moduleSettings := map[string]string{SettingExcludeQuotes: "0"}
	siteDefaults := map[string]string{SettingExcludeQuotes: "1", SettingUseDrillbit: "1"}

	assert.Equal(t, "0", ResolveSetting(moduleSettings, siteDefaults, SettingExcludeQuotes))
	assert.Equal(t, "1", ResolveSetting(moduleSettings, siteDefaults, SettingUseDrillbit))
	assert.Equal(t, "", ResolveSetting(moduleSettings, siteDefaults, SettingAllowResubmission))
}

func TestSettingEnabled(t *testing.T) {
	assert.True(t, SettingEnabled("1"))
	assert.True(t, SettingEnabled("true"))
	assert.False(t, SettingEnabled("0"))
	assert.False(t, SettingEnabled(""))
	assert.False(t, SettingEnabled("maybe"))
}

func TestUpsertModuleSettingIsIdempotentPerKey(t *testing.T) {
	db := openConfigTestDb(t)

	cmID := uint(12)
	require.NoError(t, UpsertModuleSetting(db, &cmID, SettingUseDrillbit, "1"))
	require.NoError(t, UpsertModuleSetting(db, &cmID, SettingUseDrillbit, "0"))
	require.NoError(t, UpsertModuleSetting(db, nil, SettingUseDrillbit, "1"))

	var count int64
	require.NoError(t, db.Model(&PluginConfig{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	settings, err := GetModuleSettings(db, &cmID)
	require.NoError(t, err)
	assert.Equal(t, "0", settings[SettingUseDrillbit])

	defaults, err := GetModuleSettings(db, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", defaults[SettingUseDrillbit])
}

func TestSiteConfigRoundTrip(t *testing.T) {
	db := openConfigTestDb(t)

	value, err := GetSiteConfig(db, SiteKeyJwt)
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, SetSiteConfig(db, SiteKeyJwt, "token-1"))
	require.NoError(t, SetSiteConfig(db, SiteKeyJwt, "token-2"))

	store := &DbTokenStore{Db: db}
	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "token-2", got)
}
