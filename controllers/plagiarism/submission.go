package plagiarismController

import (
	"drillbit/config"
	"drillbit/database"
	"drillbit/middleware"
	"drillbit/models"
	"drillbit/utils"
	"errors"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// EnqueueSubmission receives a host activity event (file upload or text post)
// and hands it to the lifecycle manager.
func EnqueueSubmission(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	reqData, ok := c.Locals("validatedEnqueue").(*struct {
		CmID           uint
		UserID         uint
		ItemID         uint
		SubmissionType string
		TextContent    string
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Submissions default to the authenticated submitter; tutors may submit on
	// behalf of another user.
	ownerID := reqData.UserID
	if ownerID == 0 {
		ownerID = userId
	}

	content := models.SubmissionContent{
		CmID:           reqData.CmID,
		UserID:         ownerID,
		ItemID:         reqData.ItemID,
		SubmissionType: reqData.SubmissionType,
	}

	if reqData.SubmissionType == models.SubmissionTypeFile {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "File is required for file submissions!", nil)
		}

		filePath, err := utils.SaveUploadedFile(fileHeader, config.AppConfig.UploadDir)
		if err != nil {
			log.Printf("Error saving uploaded file: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store submission file!", nil)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			log.Printf("Error reading stored file: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store submission file!", nil)
		}

		content.FileName = fileHeader.Filename
		content.MimeType = fileHeader.Header.Get("Content-Type")
		content.FilePath = filePath
		content.FileSize = fileHeader.Size
		content.Identifier = utils.ComputeIdentifier(data)
	} else {
		content.TextContent = reqData.TextContent
		content.MimeType = "text/plain"
		content.Identifier = utils.ComputeIdentifier([]byte(reqData.TextContent))
	}

	if err := db.Create(&content).Error; err != nil {
		log.Printf("Error storing submission content: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store submission content!", nil)
	}

	recordID, err := utils.QueueSubmission(db, utils.QueueRequest{
		CmID:           reqData.CmID,
		UserID:         ownerID,
		SubmitterID:    userId,
		ItemID:         reqData.ItemID,
		Identifier:     content.Identifier,
		SubmissionType: reqData.SubmissionType,
		FileName:       content.FileName,
		FileSize:       content.FileSize,
	})
	if err != nil {
		log.Printf("Error queuing submission: %v", err)
		discardContent(db, &content)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to queue submission!", nil)
	}

	if recordID == 0 {
		// No record means nothing will ever read this content back.
		discardContent(db, &content)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Plagiarism checking is disabled for this module.", fiber.Map{
			"queued": false,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission queued for checking!", fiber.Map{
		"queued":     true,
		"recordId":   recordID,
		"identifier": content.Identifier,
	})
}

// discardContent removes stored content that never produced a tracked record.
func discardContent(db *gorm.DB, content *models.SubmissionContent) {
	if content.FilePath != "" {
		os.Remove(content.FilePath)
	}
	db.Unscoped().Delete(content)
}

// GetSubmissionStatus returns the checking state for one submission, including
// the report link data when the viewer is allowed to see it.
func GetSubmissionStatus(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	cmID := uint(c.QueryInt("cmId"))
	ownerID := uint(c.QueryInt("userId"))
	if ownerID == 0 {
		ownerID = userId
	}
	identifier := c.Query("identifier")

	if cmID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "cmId is required!", nil)
	}

	db := database.Database.Db

	query := db.Where("cm_id = ? AND user_id = ? AND superseded = false", cmID, ownerID)
	if identifier != "" {
		query = query.Where("identifier = ?", identifier)
	}

	var record models.PlagiarismFile
	if err := query.Order("last_modified DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No submission record found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submission record!", nil)
	}

	response := fiber.Map{
		"recordId":   record.ID,
		"statusCode": record.StatusCode,
		"attempt":    record.Attempt,
	}

	if record.StatusCode == models.StatusError {
		response["errorCode"] = record.ErrorCode
		response["errorMessage"] = models.ErrorCodeDescription(record.ErrorCode)
	}

	if record.StatusCode == models.StatusCompleted {
		response["similarityScore"] = record.SimilarityScore

		canView, err := utils.CanViewReport(db, record.CmID, record.UserID, userId)
		if err != nil && !errors.Is(err, utils.ErrMissingCourseModule) {
			log.Printf("Error checking report access: %v", err)
		}
		response["canViewReport"] = canView
		if canView {
			response["reportUrl"] = "/plagiarism/reports/" + record.SubmissionID
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission status fetched!", response)
}

// GetSubmissionStats returns today's pipeline counts for the admin dashboard.
func GetSubmissionStats(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false AND role IN ?", userId, []string{"ADMIN", "INSTRUCTOR"}).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	dayStart := now.BeginningOfDay()

	stats := fiber.Map{}
	for _, status := range []string{models.StatusQueued, models.StatusPending, models.StatusSubmitted, models.StatusCompleted, models.StatusError} {
		var count int64
		if err := db.Model(&models.PlagiarismFile{}).
			Where("status_code = ? AND last_modified >= ?", status, dayStart).
			Count(&count).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch stats!", nil)
		}
		stats[status] = count
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission stats fetched!", stats)
}
