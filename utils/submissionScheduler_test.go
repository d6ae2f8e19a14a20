package utils

import (
	"drillbit/models"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newDrillbitServer fakes the submission endpoints. Each accepted upload gets a
// sequential paper id; polls answer with the configured percent value.
func newDrillbitServer(t *testing.T, pollPercent string) (*httptest.Server, *int64) {
	t.Helper()
	var uploads int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/submission":
			require.NoError(t, r.ParseMultipartForm(32<<20))
			assert.NotEmpty(t, r.MultipartForm.File["file"])
			assert.Equal(t, "thesis", r.FormValue("doc_type"))

			n := atomic.AddInt64(&uploads, 1)
			self := fmt.Sprintf("http://%s/submission/P%d", r.Host, n)
			fmt.Fprintf(w, `{"paper_id": "P%d", "percent": "--", "links": [
				{"rel": "self", "href": %q},
				{"rel": "download-link", "href": %q}
			]}`, n, self, self+"/download")
		case r.Method == http.MethodGet:
			fmt.Fprintf(w, `{"paper_id": "%s", "percent": %q}`, r.URL.Path[len("/submission/"):], pollPercent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &uploads
}

func seedValidToken(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, models.SetSiteConfig(db, models.SiteKeyJwt, mintRemoteToken(t, time.Now().Add(time.Hour))))
}

func seedTextContent(t *testing.T, db *gorm.DB, record *models.PlagiarismFile, text string) {
	t.Helper()
	require.NoError(t, db.Create(&models.SubmissionContent{
		CmID:           record.CmID,
		UserID:         record.UserID,
		ItemID:         record.ItemID,
		SubmissionType: record.SubmissionType,
		Identifier:     record.Identifier,
		TextContent:    text,
	}).Error)
}

func TestSendQueuedSubmissionsIsolatesFailures(t *testing.T) {
	db := setupTestDb(t)
	seedValidToken(t, db)
	remote, uploads := newDrillbitServer(t, "--")

	cm := &models.CourseModule{CourseID: 1, Name: "Essay Assignment", ModName: "assign"}
	require.NoError(t, db.Create(cm).Error)

	first := createTrackedFile(t, db, cm.ID, 10, "id-1", models.SubmissionTypeText, models.StatusQueued)
	broken := createTrackedFile(t, db, cm.ID, 11, "id-2", models.SubmissionTypeText, models.StatusQueued)
	third := createTrackedFile(t, db, cm.ID, 12, "id-3", models.SubmissionTypeText, models.StatusQueued)

	// Content exists for the first and third records only.
	seedTextContent(t, db, first, "first essay")
	seedTextContent(t, db, third, "third essay")

	client := NewDrillbitClient(remote.URL)
	SendQueuedSubmissionsWith(db, client, &StoredContentExtractor{Db: db})

	assert.Equal(t, int64(2), atomic.LoadInt64(uploads))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, first.ID).Error)
	assert.Equal(t, models.StatusSubmitted, got.StatusCode)
	assert.NotEmpty(t, got.SubmissionID)
	assert.NotEmpty(t, got.CallbackURL)
	assert.Equal(t, 1, got.Attempt)

	got = models.PlagiarismFile{}
	require.NoError(t, db.First(&got, broken.ID).Error)
	assert.Equal(t, models.StatusError, got.StatusCode)
	assert.Equal(t, models.ErrorCodeContentNotFound, got.ErrorCode)
	assert.Equal(t, 0, got.Attempt)

	got = models.PlagiarismFile{}
	require.NoError(t, db.First(&got, third.ID).Error)
	assert.Equal(t, models.StatusSubmitted, got.StatusCode)
}

func TestSendQueuedSubmissionsMissingModuleFailsRecord(t *testing.T) {
	db := setupTestDb(t)
	seedValidToken(t, db)
	remote, uploads := newDrillbitServer(t, "--")

	record := createTrackedFile(t, db, 999, 10, "id-1", models.SubmissionTypeText, models.StatusQueued)
	seedTextContent(t, db, record, "orphaned essay")

	SendQueuedSubmissionsWith(db, NewDrillbitClient(remote.URL), &StoredContentExtractor{Db: db})

	assert.Equal(t, int64(0), atomic.LoadInt64(uploads))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusError, got.StatusCode)
	assert.Equal(t, models.ErrorCodeModuleMissing, got.ErrorCode)
}

func TestSendQueuedSubmissionsAbortsWithoutAuth(t *testing.T) {
	db := setupTestDb(t)
	// No token, no credentials: the whole run must stop before touching records.
	remote, uploads := newDrillbitServer(t, "--")

	cm := &models.CourseModule{CourseID: 1, Name: "Essay Assignment", ModName: "assign"}
	require.NoError(t, db.Create(cm).Error)
	record := createTrackedFile(t, db, cm.ID, 10, "id-1", models.SubmissionTypeText, models.StatusQueued)
	seedTextContent(t, db, record, "essay")

	SendQueuedSubmissionsWith(db, NewDrillbitClient(remote.URL), &StoredContentExtractor{Db: db})

	assert.Equal(t, int64(0), atomic.LoadInt64(uploads))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusQueued, got.StatusCode)
	assert.Equal(t, 0, got.Attempt)
}

func TestUpdateReportsPromotesScoredSubmissions(t *testing.T) {
	db := setupTestDb(t)
	seedValidToken(t, db)
	remote, _ := newDrillbitServer(t, "42")

	cm := &models.CourseModule{CourseID: 1, Name: "Essay Assignment", ModName: "assign"}
	require.NoError(t, db.Create(cm).Error)
	require.NoError(t, db.Create(&models.User{Name: "Student", Email: "", Role: "STUDENT"}).Error)

	record := createTrackedFile(t, db, cm.ID, 1, "id-1", models.SubmissionTypeFile, models.StatusSubmitted)
	record.SubmissionID = "P1"
	record.CallbackURL = remote.URL + "/submission/P1"
	require.NoError(t, db.Save(record).Error)

	UpdateReportsWith(db, NewDrillbitClient(remote.URL))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusCompleted, got.StatusCode)
	require.NotNil(t, got.SimilarityScore)
	assert.Equal(t, 42.0, *got.SimilarityScore)
}

func TestUpdateReportsSynthesizesPollURL(t *testing.T) {
	db := setupTestDb(t)
	seedValidToken(t, db)
	remote, _ := newDrillbitServer(t, "17")

	cm := &models.CourseModule{CourseID: 1, Name: "Essay Assignment", ModName: "assign"}
	require.NoError(t, db.Create(cm).Error)

	// Record with a remote paper id but no stored callback URL.
	record := createTrackedFile(t, db, cm.ID, 1, "id-1", models.SubmissionTypeFile, models.StatusSubmitted)
	record.SubmissionID = "P9"
	require.NoError(t, db.Save(record).Error)

	UpdateReportsWith(db, NewDrillbitClient(remote.URL))

	var got models.PlagiarismFile
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, models.StatusCompleted, got.StatusCode)
	require.NotNil(t, got.SimilarityScore)
	assert.Equal(t, 17.0, *got.SimilarityScore)
}
