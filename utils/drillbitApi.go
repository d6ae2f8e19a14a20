package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Every remote call gets a hard timeout: the client runs inside cron jobs with
// a fixed time budget and must never hang on the remote service.
const drillbitTimeout = 60 * time.Second

// DrillbitClient is the thin authenticated transport to the plagiarism-check
// service. It returns raw bodies; the remote service reports business errors
// inside 200-OK payloads as often as through HTTP status, so interpreting the
// JSON is the caller's job.
type DrillbitClient struct {
	BaseURL string
	http    *resty.Client
}

// NewDrillbitClient builds a client for the given API base URL.
func NewDrillbitClient(baseURL string) *DrillbitClient {
	return &DrillbitClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    resty.New().SetTimeout(drillbitTimeout),
	}
}

// CallExternalAPI performs a generic request. GET encodes the body as query
// parameters, POST sends it as-is. The raw response body is returned even on
// non-2xx statuses; only transport-level failures surface as errors.
func (dc *DrillbitClient) CallExternalAPI(method, url string, body interface{}, headers map[string]string) ([]byte, error) {
	req := dc.http.R().SetHeaders(headers)

	var resp *resty.Response
	var err error

	switch method {
	case "POST":
		if body != nil {
			req.SetBody(body)
		}
		resp, err = req.Post(url)
	default:
		if params, ok := body.(map[string]string); ok {
			req.SetQueryParams(params)
		}
		resp, err = req.Get(url)
	}

	if err != nil {
		return nil, fmt.Errorf("drillbit api request failed: %w", err)
	}
	return resp.Body(), nil
}

// GetLoginToken authenticates with the site credentials and returns the jwt
// issued by the remote service, or empty when the response carries no token.
func (dc *DrillbitClient) GetLoginToken(email, password, folderID, apiKey string) (string, error) {
	loginParams := map[string]string{
		"username":        email,
		"password":        password,
		"api_key":         apiKey,
		"submissions_key": folderID,
	}

	raw, err := dc.CallExternalAPI("POST", dc.BaseURL+"/authenticate/moodle", loginParams, map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return "", err
	}

	var response struct {
		Jwt string `json:"jwt"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", fmt.Errorf("failed to parse authenticate response: %w", err)
	}
	return response.Jwt, nil
}

// SubmitFile uploads one document as multipart form data with bearer auth.
func (dc *DrillbitClient) SubmitFile(token, tempPath, fileName string, fields map[string]string) ([]byte, error) {
	resp, err := dc.http.R().
		SetHeader("Authorization", "Bearer "+token).
		SetFile("file", tempPath).
		SetFormData(fields).
		Post(dc.BaseURL + "/submission")
	if err != nil {
		return nil, fmt.Errorf("drillbit upload failed for %s: %w", fileName, err)
	}
	return resp.Body(), nil
}

// PollSubmission re-queries a submission's status via its callback URL.
func (dc *DrillbitClient) PollSubmission(token, callbackURL string) ([]byte, error) {
	return dc.CallExternalAPI("GET", callbackURL, nil, map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json",
	})
}

// DownloadReport fetches the binary similarity report.
func (dc *DrillbitClient) DownloadReport(token, downloadURL string) ([]byte, error) {
	return dc.CallExternalAPI("GET", downloadURL, nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// SubmissionPollURL synthesizes a poll URL for records created before callback
// URLs were persisted.
func (dc *DrillbitClient) SubmissionPollURL(paperID string) string {
	return dc.BaseURL + "/submission/" + paperID
}
