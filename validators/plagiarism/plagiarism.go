package plagiarismValidator

import (
	"drillbit/middleware"
	"drillbit/models"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// EnqueueSubmission validates the activity event form fields. The file itself
// is read by the controller; text submissions carry their content inline.
func EnqueueSubmission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CmID           uint
			UserID         uint
			ItemID         uint
			SubmissionType string
			TextContent    string
		})

		errors := make(map[string]string)

		cmID, err := strconv.ParseUint(c.FormValue("cmId"), 10, 32)
		if err != nil || cmID == 0 {
			errors["cmId"] = "A valid cmId is required!"
		}
		reqData.CmID = uint(cmID)

		if userID, err := strconv.ParseUint(c.FormValue("userId", "0"), 10, 32); err == nil {
			reqData.UserID = uint(userID)
		}

		if itemID, err := strconv.ParseUint(c.FormValue("itemId", "0"), 10, 32); err == nil {
			reqData.ItemID = uint(itemID)
		}

		reqData.SubmissionType = c.FormValue("submissionType")
		if !models.IsValidSubmissionType(reqData.SubmissionType) {
			errors["submissionType"] = "submissionType must be one of file, text_content, forum_post, quiz_answer!"
		}

		reqData.TextContent = c.FormValue("textContent")
		if reqData.SubmissionType != models.SubmissionTypeFile && strings.TrimSpace(reqData.TextContent) == "" {
			errors["textContent"] = "textContent is required for text submissions!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedEnqueue", reqData)
		return c.Next()
	}
}

// ModuleSettings validates a settings upsert payload against the known
// setting names.
func ModuleSettings() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := new(struct {
			CmID     *uint             `json:"cmId"`
			Settings map[string]string `json:"settings"`
		})
		if err := c.BodyParser(body); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(body.Settings) == 0 {
			errors["settings"] = "At least one setting is required!"
		}

		known := make(map[string]bool, len(models.KnownModuleSettings))
		for _, name := range models.KnownModuleSettings {
			known[name] = true
		}
		for name := range body.Settings {
			if !known[name] {
				errors[name] = "Unknown setting name!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		reqData := &struct {
			CmID     *uint
			Settings map[string]string
		}{CmID: body.CmID, Settings: body.Settings}

		c.Locals("validatedModuleSettings", reqData)
		return c.Next()
	}
}

// SiteSettings validates the remote service credential payload. Shared by the
// save and connection-test endpoints.
func SiteSettings() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			ApiKey   string `json:"apiKey"`
			FolderID string `json:"folderId"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Email == "" {
			errors["email"] = "Email is required!"
		}
		if reqData.Password == "" {
			errors["password"] = "Password is required!"
		}
		if reqData.ApiKey == "" {
			errors["apiKey"] = "API key is required!"
		}
		if reqData.FolderID == "" {
			errors["folderId"] = "Folder id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSiteSettings", reqData)
		return c.Next()
	}
}
