package main

import (
	"drillbit/config"
	"drillbit/database"
	authRoutes "drillbit/routers/authRoutes"
	plagiarismRoutes "drillbit/routers/plagiarismRoutes"
	"drillbit/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	// Periodic send and poll jobs against the checking service
	utils.InitializeSubmissionSchedulers()

	app := fiber.New(fiber.Config{
		BodyLimit: config.AppConfig.BodyLimit(),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	plagiarismRoutes.SetupPlagiarismRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
