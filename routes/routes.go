package routes

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"squadbase/handlers"
	"squadbase/middleware"
)

// SetupRouter wires the HTTP surface: public reads, authenticated user
// operations, and the admin-key-gated operator routes.
func SetupRouter(api *handlers.API) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	origins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes
	router.POST("/api/auth/wallet-login", middleware.RateLimitMiddleware(20, time.Minute), api.WalletLogin)
	router.GET("/api/vapid-public-key", api.GetVapidPublicKey)
	router.GET("/api/squads/leaderboard", api.SquadLeaderboard)
	router.GET("/api/users/leaderboard", api.UserLeaderboard)

	// Authenticated routes
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())

	// Points and actions
	protected.GET("/users/my-points", api.MyPoints)
	protected.POST("/actions/log", api.LogAction)
	protected.POST("/referrals/register", api.RegisterReferral)

	// Squads
	protected.POST("/squads", api.CreateSquad)
	protected.GET("/squads/my-squad", api.MySquad)
	protected.GET("/squads/:squadId", api.SquadDetails)
	protected.POST("/squads/leave", api.LeaveSquad)
	protected.POST("/squads/:squadId/kick", api.KickMember)
	protected.POST("/squads/:squadId/transfer-leader", api.TransferLeadership)
	protected.POST("/squads/fix-membership", api.FixMembership)

	// Invitations
	protected.POST("/squads/:squadId/invitations", api.SendInvite)
	protected.POST("/invitations/:invitationId/accept", api.AcceptInvite)
	protected.POST("/invitations/:invitationId/decline", api.DeclineInvite)
	protected.POST("/invitations/:invitationId/revoke", api.RevokeInvite)
	protected.GET("/invitations/my-pending", api.MyPendingInvites)

	// Join requests
	protected.POST("/squads/:squadId/join-requests", api.RequestJoin)
	protected.GET("/squads/:squadId/join-requests", api.SquadJoinRequests)
	protected.POST("/join-requests/:requestId/approve", api.ApproveJoin)
	protected.POST("/join-requests/:requestId/reject", api.RejectJoin)
	protected.POST("/join-requests/:requestId/cancel", api.CancelJoin)
	protected.GET("/join-requests/my-pending", api.MyPendingJoinRequests)

	// Notifications
	protected.GET("/notifications", api.MyNotifications)
	protected.GET("/notifications/unread-count", api.UnreadCount)
	protected.POST("/notifications/:notificationId/read", api.MarkNotificationRead)
	protected.POST("/notifications/mark-all-read", api.MarkAllNotificationsRead)
	protected.POST("/subscribe", api.SubscribePush)

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminKeyMiddleware())
	admin.POST("/points/award", api.AdminAwardPoints)
	admin.POST("/reconcile", api.AdminReconcile)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
		}
	})

	return router
}
