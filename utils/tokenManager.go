package utils

import (
	"drillbit/models"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

var (
	// ErrMissingCredentials means the site credentials are incomplete; no
	// network call is attempted.
	ErrMissingCredentials = errors.New("drillbit credentials are not configured")
	// ErrAuthFailed means the login call did not yield a token.
	ErrAuthFailed = errors.New("unable to authenticate against drillbit api")
)

// TokenManager owns the remote bearer token: it reuses the cached token while
// its expiry claim is in the future and logs in again only when needed.
type TokenManager struct {
	Db     *gorm.DB
	Store  models.TokenStore
	Client *DrillbitClient
}

// NewTokenManager wires a token manager over the site config token store.
func NewTokenManager(db *gorm.DB, client *DrillbitClient) *TokenManager {
	return &TokenManager{
		Db:     db,
		Store:  &models.DbTokenStore{Db: db},
		Client: client,
	}
}

// EnsureValidToken returns a usable bearer token, refreshing it via login when
// the persisted one is absent, unreadable or expired. On login failure the
// persisted token is left untouched.
func (tm *TokenManager) EnsureValidToken() (string, error) {
	existing, err := tm.Store.Get()
	if err != nil {
		return "", err
	}
	if existing != "" && tokenStillValid(existing) {
		return existing, nil
	}

	email, _ := models.GetSiteConfig(tm.Db, models.SiteKeyEmail)
	password, _ := models.GetSiteConfig(tm.Db, models.SiteKeyPassword)
	apiKey, _ := models.GetSiteConfig(tm.Db, models.SiteKeyApiKey)
	folderID, _ := models.GetSiteConfig(tm.Db, models.SiteKeyFolderID)

	if email == "" || password == "" || apiKey == "" || folderID == "" {
		return "", ErrMissingCredentials
	}

	token, err := tm.Client.GetLoginToken(email, password, folderID, apiKey)
	if err != nil {
		log.Printf("[TOKEN-MANAGER] Login call failed: %v", err)
		return "", ErrAuthFailed
	}
	if token == "" {
		return "", ErrAuthFailed
	}

	if err := tm.Store.Set(token); err != nil {
		return "", err
	}
	return token, nil
}

// tokenStillValid decodes the token without verifying the signature (we do not
// hold the remote signing key) and checks the expiry claim. Unreadable tokens
// and tokens without a readable exp claim count as expired.
func tokenStillValid(tokenString string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return false
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return time.Now().Before(time.Unix(int64(exp), 0))
}
