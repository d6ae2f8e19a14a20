package plagiarismController

import (
	"drillbit/config"
	"drillbit/database"
	"drillbit/middleware"
	"drillbit/models"
	"drillbit/utils"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DownloadReport proxies the binary similarity report from the remote service,
// after the access gate allows the viewer.
func DownloadReport(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	paperID := c.Params("paperId")

	if paperID == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "paperId is required!", nil)
	}

	db := database.Database.Db

	var record models.PlagiarismFile
	if err := db.Where("submission_id = ?", paperID).Order("last_modified DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Unable to view report for this document.", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submission record!", nil)
	}

	canView, err := utils.CanViewReport(db, record.CmID, record.UserID, userId)
	if err != nil {
		if errors.Is(err, utils.ErrMissingCourseModule) {
			// Distinct hard stop: the module behind this record is gone.
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "The course module for this report no longer exists.", nil)
		}
		log.Printf("Error checking report access: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check report access!", nil)
	}
	if !canView {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, utils.ErrAccessDenied.Error(), nil)
	}

	if record.DownloadURL == "" {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No report is available for this document yet.", nil)
	}

	client := utils.NewDrillbitClient(config.AppConfig.DrillbitApiUrl)
	tokenManager := utils.NewTokenManager(db, client)
	token, err := tokenManager.EnsureValidToken()
	if err != nil {
		log.Printf("Error refreshing drillbit token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Unable to view report for this document.", nil)
	}

	report, err := client.DownloadReport(token, record.DownloadURL)
	if err != nil {
		log.Printf("Error downloading report %s: %v", paperID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Unable to view report for this document.", nil)
	}

	fileName := fmt.Sprintf("%s_%d.pdf", paperID, time.Now().Unix())
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", "inline; filename="+fileName)
	return c.Send(report)
}
