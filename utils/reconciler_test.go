package utils

import (
	"drillbit/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acceptedPayload = `{
	"paper_id": "P123",
	"d_key": "DK9",
	"percent": "--",
	"links": [
		{"rel": "self", "href": "https://remote.example/submission/P123"},
		{"rel": "download-link", "href": "https://remote.example/download/P123"}
	]
}`

func TestUpdateSubmissionResponseAccepted(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusQueued)

	require.NoError(t, UpdateSubmissionResponse(db, []byte(acceptedPayload), record.ID))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusSubmitted, got.StatusCode)
	assert.Equal(t, "P123", got.SubmissionID)
	assert.Equal(t, "DK9", got.DKey)
	assert.Equal(t, "https://remote.example/submission/P123", got.CallbackURL)
	assert.Equal(t, "https://remote.example/download/P123", got.DownloadURL)
	assert.Nil(t, got.SimilarityScore)
	assert.NotEmpty(t, got.LastResponse)
}

func TestUpdateSubmissionResponseScored(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusSubmitted)

	payload := `{"paper_id": "P123", "percent": "55.5"}`
	require.NoError(t, UpdateSubmissionResponse(db, []byte(payload), record.ID))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusCompleted, got.StatusCode)
	require.NotNil(t, got.SimilarityScore)
	assert.Equal(t, 55.5, *got.SimilarityScore)
}

func TestUpdateSubmissionResponseUnwrapsSubmissionsKey(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusQueued)

	payload := `{"submissions": {"paper_id": "P77", "percent": "12"}}`
	require.NoError(t, UpdateSubmissionResponse(db, []byte(payload), record.ID))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, "P77", got.SubmissionID)
	assert.Equal(t, models.StatusCompleted, got.StatusCode)
	require.NotNil(t, got.SimilarityScore)
	assert.Equal(t, 12.0, *got.SimilarityScore)
}

func TestUpdateSubmissionResponseNumericPaperId(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusQueued)

	payload := `{"paper_id": 4711, "percent": "--"}`
	require.NoError(t, UpdateSubmissionResponse(db, []byte(payload), record.ID))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, "4711", got.SubmissionID)
	assert.Equal(t, models.StatusSubmitted, got.StatusCode)
}

func TestUpdateSubmissionResponseBusinessErrorLeavesRecordAlone(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusQueued)

	payload := `{"status": "FAILED", "message": "folder quota exceeded"}`
	require.NoError(t, UpdateSubmissionResponse(db, []byte(payload), record.ID))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusQueued, got.StatusCode)
	assert.Empty(t, got.SubmissionID)
	assert.Empty(t, got.LastResponse)
}

func TestUpdateSubmissionResponseUnparseableScoreStaysSubmitted(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusQueued)

	payload := `{"paper_id": "P123", "percent": "pending"}`
	require.NoError(t, UpdateSubmissionResponse(db, []byte(payload), record.ID))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusSubmitted, got.StatusCode)
	assert.Nil(t, got.SimilarityScore)
}

func TestUpdateSubmissionResponseRejectsGarbage(t *testing.T) {
	db := setupTestDb(t)
	record := createTrackedFile(t, db, 1, 10, "aaa", models.SubmissionTypeFile, models.StatusQueued)

	err := UpdateSubmissionResponse(db, []byte("<html>502 Bad Gateway</html>"), record.ID)
	assert.Error(t, err)
}
