package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/genovesjohn191/dealfi/internal/authz"
	"github.com/genovesjohn191/dealfi/internal/handlers"
	"github.com/genovesjohn191/dealfi/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	leadHandler *handlers.LeadHandler,
	referralHandler *handlers.ReferralHandler,
	folderHandler *handlers.FolderHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/register", userHandler.Register)
	r.POST("/password-reset/request", authHandler.RequestPasswordReset)
	r.POST("/password-reset/confirm", authHandler.ResetPassword)

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	r.POST("/logout", authHandler.Logout)

	// USERS
	users := r.Group("/users")
	{
		users.GET("/me", userHandler.Me)
		users.PUT("/me", userHandler.UpdateProfile)
		users.POST("/me/onboarding", userHandler.CompleteOnboarding)
		users.POST("/me/telegram", userHandler.LinkTelegram)
		users.GET("/", middleware.RequireRoles(authz.RoleAdmin), userHandler.List)
		users.GET("/:id", userHandler.GetByID)
		users.DELETE("/:id", middleware.RequireRoles(authz.RoleAdmin), userHandler.Delete)
	}

	// LEADS
	leads := r.Group("/leads")
	{
		leads.POST("/", leadHandler.Create)
		leads.GET("/", leadHandler.List)
		leads.GET("/queue", leadHandler.Queue)
		leads.GET("/:id", leadHandler.GetByID)
		leads.GET("/:id/progress", leadHandler.Progress)
		leads.PATCH("/:id/stages/:stageID/toggle", leadHandler.ToggleStage)
		leads.POST("/:id/stages/:stageID/report", leadHandler.SubmitReport)
		leads.POST("/:id/accept", leadHandler.Accept)
		leads.POST("/:id/request-service", leadHandler.RequestService)
		leads.PUT("/:id/folder", leadHandler.AssignFolder)
		leads.POST("/:id/stake/settle", middleware.RequireRoles(authz.RoleAdmin), leadHandler.SettleStake)
	}

	// REFERRALS
	referrals := r.Group("/referrals")
	{
		referrals.POST("/", referralHandler.Invite)
		referrals.GET("/", referralHandler.List)
		referrals.POST("/:id/remind", referralHandler.Remind)
		referrals.DELETE("/:id", referralHandler.Cancel)
	}

	// FOLDERS (birddogs organize their own submissions)
	folders := r.Group("/folders", middleware.RequireRoles(authz.RoleBirddog, authz.RoleAdmin))
	{
		folders.POST("/", folderHandler.Create)
		folders.GET("/", folderHandler.List)
		folders.PUT("/:id", folderHandler.Update)
		folders.DELETE("/:id", folderHandler.Delete)
	}

	// REPORTS
	reports := r.Group("/reports")
	{
		reports.GET("/summary", middleware.RequireRoles(authz.RoleAdmin, authz.RoleInvestor), reportHandler.Summary)
		reports.GET("/summary/pdf", middleware.RequireRoles(authz.RoleAdmin, authz.RoleInvestor), reportHandler.SummaryPDF)
		reports.GET("/leads/:id/pdf", reportHandler.LeadReportPDF)
	}

	return r
}
