package plagiarismController

import (
	"drillbit/config"
	"drillbit/database"
	"drillbit/middleware"
	"drillbit/models"
	"drillbit/utils"
	"log"

	"github.com/gofiber/fiber/v2"
)

// SaveModuleSettings upserts the per-module (or site default, when cmId is
// omitted) plagiarism settings.
func SaveModuleSettings(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false AND role IN ?", userId, []string{"ADMIN", "INSTRUCTOR"}).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied! Instructor or admin role required.", nil)
	}

	reqData, ok := c.Locals("validatedModuleSettings").(*struct {
		CmID     *uint
		Settings map[string]string
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	for name, value := range reqData.Settings {
		if err := models.UpsertModuleSetting(db, reqData.CmID, name, value); err != nil {
			log.Printf("Error saving module setting %s: %v", name, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save settings!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Settings saved successfully!", fiber.Map{
		"saved": len(reqData.Settings),
	})
}

// SaveSiteSettings stores the remote service credentials, logs in with them and
// persists the fresh token plus the enabled flag.
func SaveSiteSettings(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false AND role = ?", userId, "ADMIN").First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied! Admin role required.", nil)
	}

	reqData, ok := c.Locals("validatedSiteSettings").(*struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		ApiKey   string `json:"apiKey"`
		FolderID string `json:"folderId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	pairs := map[string]string{
		models.SiteKeyEmail:    reqData.Email,
		models.SiteKeyPassword: reqData.Password,
		models.SiteKeyApiKey:   reqData.ApiKey,
		models.SiteKeyFolderID: reqData.FolderID,
	}
	for name, value := range pairs {
		if err := models.SetSiteConfig(db, name, value); err != nil {
			log.Printf("Error saving site setting %s: %v", name, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save settings!", nil)
		}
	}

	client := utils.NewDrillbitClient(config.AppConfig.DrillbitApiUrl)
	token, err := client.GetLoginToken(reqData.Email, reqData.Password, reqData.FolderID, reqData.ApiKey)
	if err != nil || token == "" {
		models.SetSiteConfig(db, models.SiteKeyEnabled, "0")
		log.Printf("Connection test failed while saving site settings: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Settings saved but authentication against the checking service failed.", nil)
	}

	if err := models.SetSiteConfig(db, models.SiteKeyJwt, token); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to persist access token!", nil)
	}
	if err := models.SetSiteConfig(db, models.SiteKeyEnabled, "1"); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save settings!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Site settings saved and connection verified!", nil)
}

// TestConnection performs a login with the supplied credentials without
// persisting anything.
func TestConnection(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false AND role = ?", userId, "ADMIN").First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied! Admin role required.", nil)
	}

	reqData, ok := c.Locals("validatedSiteSettings").(*struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		ApiKey   string `json:"apiKey"`
		FolderID string `json:"folderId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	client := utils.NewDrillbitClient(config.AppConfig.DrillbitApiUrl)
	token, err := client.GetLoginToken(reqData.Email, reqData.Password, reqData.FolderID, reqData.ApiKey)
	if err != nil || token == "" {
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Connection test failed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Connection test successful!", fiber.Map{
		"hasToken": true,
	})
}
