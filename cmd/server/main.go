package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warcat/warcat-backend/internal/config"
	"github.com/warcat/warcat-backend/internal/constants"
	"github.com/warcat/warcat-backend/internal/database"
	"github.com/warcat/warcat-backend/internal/handlers"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/reminder"
	"github.com/warcat/warcat-backend/internal/repository"
	"github.com/warcat/warcat-backend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)

	// Outbound mail: synchronous SMTP sender behind an async queue for
	// request-path notifications.
	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		SMTPHost:  cfg.SMTPHost,
		SMTPPort:  cfg.SMTPPort,
		FromName:  cfg.ProjectName,
		FromEmail: cfg.NotificationEmail,
		Username:  cfg.NotificationEmail,
		Password:  cfg.NotificationEmailPassword,
	})
	mailQueue := mailer.NewQueue(smtpMailer, 256)
	defer mailQueue.Close()

	// Services
	authService := services.NewAuthService(userRepo, mailQueue, cfg.JWTSecret)
	registrationService := services.NewRegistrationService(userRepo, deptRepo, mailQueue)
	taskService := services.NewTaskService(taskRepo, userRepo, mailQueue)
	meetingService := services.NewMeetingService(meetingRepo, deptRepo, userRepo, mailQueue)
	dashboardService := services.NewDashboardService(deptRepo, taskRepo, meetingRepo, userRepo)

	// Reminder dispatcher: minutely scan, one hour ahead, windowed so a
	// delayed tick still picks up what it missed.
	dispatcher := reminder.NewDispatcher(
		meetingRepo, taskRepo, userRepo,
		smtpMailer,
		reminder.Window(constants.ReminderTick),
		time.Local,
	)
	if err := dispatcher.Start(); err != nil {
		log.Fatalf("Failed to start reminder dispatcher: %v", err)
	}
	defer dispatcher.Stop()

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	departmentHandler := handlers.NewDepartmentHandler(registrationService)
	taskHandler := handlers.NewTaskHandler(taskService)
	meetingHandler := handlers.NewMeetingHandler(meetingService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": cfg.ProjectName + " API is running",
		})
	})

	// Public routes
	r.POST("/register-user-with-department", departmentHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/request-reset-password", authHandler.RequestPasswordReset)
	r.POST("/reset-password", authHandler.ResetPassword)

	// Protected routes
	auth := r.Group("/")
	auth.Use(middleware.RequireAuth(cfg.JWTSecret))
	{
		auth.GET("/profile", authHandler.GetProfile)

		auth.PUT("/edit-register-user-with-department", departmentHandler.Edit)
		auth.GET("/departments", departmentHandler.List)
		auth.DELETE("/deleteDepartment/:departmentId", departmentHandler.Delete)

		auth.POST("/add-meeting", meetingHandler.Add)
		auth.PUT("/edit-meeting", meetingHandler.Edit)
		auth.GET("/meetings", meetingHandler.List)

		auth.POST("/add-task", taskHandler.Add)
		auth.GET("/tasks", taskHandler.List)
		auth.POST("/edit-task", taskHandler.Edit)
		auth.POST("/add-sub-task", taskHandler.AddSubTask)
		auth.POST("/edit-sub-task", taskHandler.EditSubTask)
		auth.POST("/tasks/:taskId/add-note", taskHandler.AddNote)
		auth.POST("/tasks/:taskId/upload-completion-details", taskHandler.UploadCompletion)
		auth.GET("/task-status-percentages", taskHandler.StatusPercentages)
		auth.PUT("/admin_verified", taskHandler.SetAdminVerified)

		auth.GET("/statistics", dashboardHandler.Statistics)
	}

	// Start server
	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
