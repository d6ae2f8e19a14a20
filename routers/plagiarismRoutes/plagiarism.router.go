package plagiarismRoutes

import (
	plagiarismControllers "drillbit/controllers/plagiarism"
	"drillbit/middleware"
	plagiarismValidators "drillbit/validators/plagiarism"

	"github.com/gofiber/fiber/v2"
)

func SetupPlagiarismRoutes(app *fiber.App) {
	plagiarismGroup := app.Group("/plagiarism")

	plagiarismGroup.Post("/submissions", middleware.JWTMiddleware, plagiarismValidators.EnqueueSubmission(), plagiarismControllers.EnqueueSubmission)
	plagiarismGroup.Get("/submissions/status", middleware.JWTMiddleware, plagiarismControllers.GetSubmissionStatus)
	plagiarismGroup.Get("/stats", middleware.JWTMiddleware, plagiarismControllers.GetSubmissionStats)
	plagiarismGroup.Get("/reports/:paperId", middleware.JWTMiddleware, plagiarismControllers.DownloadReport)

	plagiarismGroup.Post("/settings/module", middleware.JWTMiddleware, plagiarismValidators.ModuleSettings(), plagiarismControllers.SaveModuleSettings)
	plagiarismGroup.Post("/settings/site", middleware.JWTMiddleware, plagiarismValidators.SiteSettings(), plagiarismControllers.SaveSiteSettings)
	plagiarismGroup.Post("/settings/test", middleware.JWTMiddleware, plagiarismValidators.SiteSettings(), plagiarismControllers.TestConnection)
}
