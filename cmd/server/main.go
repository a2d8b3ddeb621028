package main

import (
	"fmt"
	"log"
	"net/http"

	"greatgames/backend/internal/auth"
	"greatgames/backend/internal/config"
	"greatgames/backend/internal/database"
	"greatgames/backend/internal/handler"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           GreatGames API
// @version         1.0
// @description     This is the API for the GreatGames social game catalog.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded profile pictures
	router.Static("/uploads", config.AppConfig.UploadDir)

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Public routes
		apiV1.GET("/landing", handler.Landing)
		apiV1.GET("/about", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"name":        "GreatGames",
				"description": "A social catalog for video games: track what you play, review it, and follow other players.",
			})
		})
		apiV1.GET("/tags", handler.GetTags)

		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.Register)
			authRoutes.POST("/login", handler.Login)
			authRoutes.POST("/logout", handler.Logout)
		}

		// Catalog routes (public browse, identity-aware detail)
		gameRoutes := apiV1.Group("/games")
		{
			gameRoutes.GET("", handler.BrowseGames)
			gameRoutes.GET("/:id", auth.OptionalAuthMiddleware(), handler.GetGameByID)
			gameRoutes.POST("/:id/list", auth.AuthMiddleware(), handler.AddToList)
			gameRoutes.POST("/:id/review", auth.AuthMiddleware(), handler.SubmitReview)
		}

		// Home feed (protected)
		apiV1.GET("/home", auth.AuthMiddleware(), handler.Home)

		// User routes
		userRoutes := apiV1.Group("/users")
		{
			userRoutes.GET("/me", auth.AuthMiddleware(), handler.GetMe)
			userRoutes.PUT("/me", auth.AuthMiddleware(), handler.UpdateProfile)
			userRoutes.GET("/:username", auth.OptionalAuthMiddleware(), handler.GetProfile)
			userRoutes.POST("/:username/follow", auth.AuthMiddleware(), handler.ToggleFollow)
		}

		// Social routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.GET("", handler.Friends)
			friendRoutes.GET("/discover", handler.DiscoverFriends)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			adminRoutes.GET("", handler.AdminDashboard)

			// Games CRUD
			adminGameRoutes := adminRoutes.Group("/games")
			{
				adminGameRoutes.GET("", handler.AdminListGames)
				adminGameRoutes.POST("", handler.CreateGame)
				adminGameRoutes.PUT("/:id", handler.UpdateGame)
				adminGameRoutes.DELETE("/:id", handler.DeleteGame)
			}

			// Tags CRUD
			tags := adminRoutes.Group("/tags")
			{
				tags.POST("", handler.CreateTag)
				tags.PUT("/:id", handler.UpdateTag)
				tags.DELETE("/:id", handler.DeleteTag)
			}

			// User moderation
			adminUserRoutes := adminRoutes.Group("/users")
			{
				adminUserRoutes.GET("", handler.AdminListUsers)
				adminUserRoutes.POST("/:id/toggle-admin", handler.ToggleAdmin)
				adminUserRoutes.DELETE("/:id", handler.DeleteUser)
			}
		}
	}

	fmt.Println("Server is running on :8080")
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(":8080"))
}
