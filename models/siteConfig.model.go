package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Site-level configuration keys (credentials, remote token, enabled flag).
const (
	SiteKeyEmail    = "drillbit_emailid"
	SiteKeyPassword = "drillbit_password"
	SiteKeyApiKey   = "drillbit_apikey"
	SiteKeyFolderID = "drillbit_folderid"
	SiteKeyJwt      = "jwt"
	SiteKeyEnabled  = "enabled"
)

// SiteConfig is one site-wide key/value configuration row.
type SiteConfig struct {
	gorm.Model
	Name  string `gorm:"uniqueIndex;not null"`
	Value string `gorm:"default:''"`
}

// GetSiteConfig reads one site configuration value; missing keys read as empty.
func GetSiteConfig(db *gorm.DB, name string) (string, error) {
	var row SiteConfig
	if err := db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.Value, nil
}

// SetSiteConfig creates or updates one site configuration value.
func SetSiteConfig(db *gorm.DB, name, value string) error {
	row := SiteConfig{Name: name, Value: value}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// TokenStore owns the persisted remote bearer token so the refresh logic never
// touches hidden global state directly.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
}

// DbTokenStore persists the token as a site configuration row, so later process
// runs reuse it without re-authenticating.
type DbTokenStore struct {
	Db *gorm.DB
}

func (s *DbTokenStore) Get() (string, error) {
	return GetSiteConfig(s.Db, SiteKeyJwt)
}

func (s *DbTokenStore) Set(token string) error {
	return SetSiteConfig(s.Db, SiteKeyJwt, token)
}
