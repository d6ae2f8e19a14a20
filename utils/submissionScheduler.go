package utils

import (
	"drillbit/config"
	"drillbit/database"
	"drillbit/models"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(job, message string) {
	log.Printf("[%s %s] %s", job, time.Now().Format(time.RFC3339), message)
}

// SendQueuedSubmissions is the periodic send job: it drains queued and pending
// records, uploads each to the checking service and reconciles the responses.
// A failed token refresh aborts the whole run; a failed record never does.
func SendQueuedSubmissions() {
	db := database.Database.Db
	client := NewDrillbitClient(config.AppConfig.DrillbitApiUrl)
	extractor := &StoredContentExtractor{Db: db}
	SendQueuedSubmissionsWith(db, client, extractor)
}

// SendQueuedSubmissionsWith runs the send phase against explicit collaborators.
func SendQueuedSubmissionsWith(db *gorm.DB, client *DrillbitClient, extractor ContentExtractor) {
	tokenManager := NewTokenManager(db, client)
	token, err := tokenManager.EnsureValidToken()
	if err != nil {
		logScheduler("SEND-SCHEDULER", "Unable to authenticate against Drillbit API, aborting run: "+err.Error())
		return
	}

	var queued []models.PlagiarismFile
	if err := db.Where("status_code IN ? AND superseded = false", []string{models.StatusQueued, models.StatusPending}).
		Order("last_modified ASC").
		Limit(config.AppConfig.SubmissionBatchLimit).
		Find(&queued).Error; err != nil {
		logScheduler("SEND-SCHEDULER", "Error fetching queued submissions: "+err.Error())
		return
	}

	logScheduler("SEND-SCHEDULER", fmt.Sprintf("Processing %d queued submissions", len(queued)))

	folderID, _ := models.GetSiteConfig(db, models.SiteKeyFolderID)
	siteDefaults, _ := models.GetModuleSettings(db, nil)

	for i := range queued {
		sendQueuedItem(db, client, extractor, token, folderID, siteDefaults, &queued[i])
	}
}

// sendQueuedItem processes a single record. Any failure, panic included, is
// converted into that record's error state so the rest of the batch proceeds.
func sendQueuedItem(db *gorm.DB, client *DrillbitClient, extractor ContentExtractor, token, folderID string, siteDefaults map[string]string, item *models.PlagiarismFile) {
	defer func() {
		if r := recover(); r != nil {
			logScheduler("SEND-SCHEDULER", fmt.Sprintf("Panic processing record %d: %v", item.ID, r))
			item.MarkError(models.ErrorCodeSubmitFailed, fmt.Sprintf("internal failure: %v", r))
			db.Save(item)
		}
	}()

	var cm models.CourseModule
	if err := db.Where("id = ? AND is_deleted = false", item.CmID).First(&cm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logScheduler("SEND-SCHEDULER", fmt.Sprintf("Course module %d missing for record %d", item.CmID, item.ID))
			item.MarkError(models.ErrorCodeModuleMissing, models.ErrorCodeDescription(models.ErrorCodeModuleMissing))
		} else {
			item.MarkError(models.ErrorCodeSubmitFailed, err.Error())
		}
		db.Save(item)
		return
	}

	content, err := extractor.Extract(item)
	if err != nil {
		logScheduler("SEND-SCHEDULER", fmt.Sprintf("Content not found for record %d: %v", item.ID, err))
		item.MarkError(models.ErrorCodeContentNotFound, models.ErrorCodeDescription(models.ErrorCodeContentNotFound))
		db.Save(item)
		return
	}

	item.IncrementAttempt()
	if err := db.Save(item).Error; err != nil {
		logScheduler("SEND-SCHEDULER", fmt.Sprintf("Error saving record %d: %v", item.ID, err))
		return
	}

	tempPath, err := WriteTempFile(content.FileName, content.Data)
	if err != nil {
		item.MarkError(models.ErrorCodeSubmitFailed, "temp file could not be created: "+err.Error())
		db.Save(item)
		return
	}
	defer os.Remove(tempPath)

	moduleSettings, _ := models.GetModuleSettings(db, &item.CmID)

	var author models.User
	authorName := ""
	if err := db.Select("name").First(&author, item.UserID).Error; err == nil {
		authorName = author.Name
	}

	fields := map[string]string{
		"name":          content.FileName,
		"title":         cm.Name,
		"assignment_id": folderID,
		"doc_type":      "thesis",
		"authorName":    authorName,
		"ex_ref":        flagValue(moduleSettings, siteDefaults, models.SettingExcludeReferences),
		"ex_qts":        flagValue(moduleSettings, siteDefaults, models.SettingExcludeQuotes),
		"ex_ss":         flagValue(moduleSettings, siteDefaults, models.SettingExcludeSmallSources),
	}

	raw, err := client.SubmitFile(token, tempPath, content.FileName, fields)
	if err != nil {
		logScheduler("SEND-SCHEDULER", fmt.Sprintf("Upload failed for record %d: %v", item.ID, err))
		item.MarkError(models.ErrorCodeSubmitFailed, err.Error())
		db.Save(item)
		return
	}

	if err := UpdateSubmissionResponse(db, raw, item.ID); err != nil {
		logScheduler("SEND-SCHEDULER", fmt.Sprintf("Error reconciling response for record %d: %v", item.ID, err))
	}
}

func flagValue(moduleSettings, siteDefaults map[string]string, name string) string {
	if models.SettingEnabled(models.ResolveSetting(moduleSettings, siteDefaults, name)) {
		return "yes"
	}
	return "no"
}

// UpdateReports is the periodic poll job: it walks submitted records, re-queries
// the remote service and promotes scored submissions to completed.
func UpdateReports() {
	db := database.Database.Db
	client := NewDrillbitClient(config.AppConfig.DrillbitApiUrl)
	UpdateReportsWith(db, client)
}

// UpdateReportsWith runs the poll phase against explicit collaborators.
func UpdateReportsWith(db *gorm.DB, client *DrillbitClient) {
	tokenManager := NewTokenManager(db, client)
	token, err := tokenManager.EnsureValidToken()
	if err != nil {
		logScheduler("POLL-SCHEDULER", "Unable to authenticate against Drillbit API, aborting run: "+err.Error())
		return
	}

	var submitted []models.PlagiarismFile
	if err := db.Where("status_code = ? AND superseded = false", models.StatusSubmitted).
		Order("last_modified ASC").
		Limit(config.AppConfig.SubmissionBatchLimit).
		Find(&submitted).Error; err != nil {
		logScheduler("POLL-SCHEDULER", "Error fetching submitted records: "+err.Error())
		return
	}

	logScheduler("POLL-SCHEDULER", fmt.Sprintf("Polling %d submitted records", len(submitted)))

	for i := range submitted {
		pollSubmittedItem(db, client, token, &submitted[i])
	}
}

func pollSubmittedItem(db *gorm.DB, client *DrillbitClient, token string, item *models.PlagiarismFile) {
	defer func() {
		if r := recover(); r != nil {
			logScheduler("POLL-SCHEDULER", fmt.Sprintf("Panic polling record %d: %v", item.ID, r))
		}
	}()

	callback := item.CallbackURL
	if callback == "" {
		// Records created before callback URLs were stored.
		callback = client.SubmissionPollURL(item.SubmissionID)
	}

	raw, err := client.PollSubmission(token, callback)
	if err != nil {
		logScheduler("POLL-SCHEDULER", fmt.Sprintf("Poll failed for record %d: %v", item.ID, err))
		item.MarkError(models.ErrorCodeSubmitFailed, err.Error())
		db.Save(item)
		return
	}

	if err := UpdateSubmissionResponse(db, raw, item.ID); err != nil {
		logScheduler("POLL-SCHEDULER", fmt.Sprintf("Error reconciling response for record %d: %v", item.ID, err))
		return
	}

	// Notify the submitting user once their report is ready.
	var refreshed models.PlagiarismFile
	if err := db.First(&refreshed, item.ID).Error; err == nil &&
		refreshed.StatusCode == models.StatusCompleted && item.StatusCode != models.StatusCompleted {
		notifyReportReady(db, &refreshed)
	}
}

func notifyReportReady(db *gorm.DB, record *models.PlagiarismFile) {
	var user models.User
	if err := db.First(&user, record.UserID).Error; err != nil || user.Email == "" {
		return
	}
	var cm models.CourseModule
	moduleName := ""
	if err := db.First(&cm, record.CmID).Error; err == nil {
		moduleName = cm.Name
	}
	score := 0.0
	if record.SimilarityScore != nil {
		score = *record.SimilarityScore
	}
	go SendReportReadyEmail(user.Email, user.Name, moduleName, score)
}

// InitializeSubmissionSchedulers registers the send and poll jobs.
func InitializeSubmissionSchedulers() *cron.Cron {
	logScheduler("SCHEDULER", "Initializing submission schedulers...")

	c := cron.New()

	if _, err := c.AddFunc(config.AppConfig.SendCronSpec, SendQueuedSubmissions); err != nil {
		log.Fatalf("Invalid SEND_CRON_SPEC: %v", err)
	}
	if _, err := c.AddFunc(config.AppConfig.PollCronSpec, UpdateReports); err != nil {
		log.Fatalf("Invalid POLL_CRON_SPEC: %v", err)
	}

	c.Start()

	logScheduler("SCHEDULER", "Submission schedulers started")
	return c
}
