package utils

import (
	"drillbit/models"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UpdateSubmissionResponse reconciles one raw remote payload into the record's
// persisted state. Both the send phase and the poll phase feed it; a single
// round trip can both accept and score a submission.
func UpdateSubmissionResponse(db *gorm.DB, response []byte, fileID uint) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(response, &payload); err != nil {
		return fmt.Errorf("unreadable drillbit response for record %d: %w", fileID, err)
	}

	// Newer protocol revisions nest the result under a "submissions" wrapper.
	if inner, ok := payload["submissions"].(map[string]interface{}); ok {
		payload = inner
	}

	paperID := stringField(payload, "paper_id")
	if paperID == "" {
		// Business-level error from the remote service: log it, leave the
		// record in its prior state for the next cycle.
		if status := stringField(payload, "status"); status != "" {
			log.Printf("Received Status: %s Error: %s (record %d)", status, stringField(payload, "message"), fileID)
		}
		return nil
	}

	var record models.PlagiarismFile
	if err := db.First(&record, fileID).Error; err != nil {
		return err
	}

	log.Printf("Updating submission response. Received paper id: %s (record %d)", paperID, fileID)

	callbackURL, downloadURL := extractLinks(payload)
	record.SubmissionID = paperID
	record.DKey = stringField(payload, "d_key")
	record.CallbackURL = callbackURL
	record.DownloadURL = downloadURL
	record.LastResponse = datatypes.JSON(response)

	if err := record.TransitionTo(models.StatusSubmitted); err != nil {
		return err
	}

	// "--" is the remote placeholder for a score that is not ready yet.
	if percent := stringField(payload, "percent"); percent != "" && percent != "--" {
		score, err := strconv.ParseFloat(percent, 64)
		if err == nil {
			if err := record.TransitionTo(models.StatusCompleted); err != nil {
				return err
			}
			record.SimilarityScore = &score
		} else {
			log.Printf("Unparseable percent value %q for record %d", percent, fileID)
		}
	}

	return db.Save(&record).Error
}

// extractLinks pulls the self and download hrefs out of the payload's links
// array, matching by rel.
func extractLinks(payload map[string]interface{}) (callbackURL, downloadURL string) {
	links, ok := payload["links"].([]interface{})
	if !ok {
		return "", ""
	}
	for _, raw := range links {
		link, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		rel := stringField(link, "rel")
		href := stringField(link, "href")
		switch rel {
		case "self":
			callbackURL = href
		case "download-link":
			downloadURL = href
		}
	}
	return callbackURL, downloadURL
}

// stringField reads a payload field that may arrive as a string or a number.
func stringField(payload map[string]interface{}, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
