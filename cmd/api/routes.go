package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"convohub-platform/internal/auth"
	"convohub-platform/internal/httpapi"
	"convohub-platform/internal/rbac"
	"convohub-platform/internal/telephony"
	"convohub-platform/pkg/utils"
)

type routeDeps struct {
	Auth     *auth.Manager
	Handlers httpapi.Handlers
	Webhooks telephony.WebhookHandler
	DB       *sql.DB
	Redis    *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if deps.DB != nil {
			if err := utils.HealthCheck(c.Request.Context(), deps.DB, 2*time.Second); err != nil {
				c.JSON(503, gin.H{"status": "degraded", "postgres": err.Error()})
				return
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(503, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	r.POST("/webhooks/twilio/sms", deps.Webhooks.HandleInboundSMS)
	r.POST("/webhooks/twilio/voice", deps.Webhooks.HandleVoiceStatus)

	// protected API group
	v1 := r.Group("/v1")

	// AUTH routes (token issuance) sit outside the access-token gate.
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	v1.POST("/auth/login", deps.Handlers.Login)

	v1.Use(auth.RequireAccessToken(deps.Auth))
	v1.Use(rbac.RequireMerchant())
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			mid, _ := auth.MerchantID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "merchant_id": mid, "role": role})
		})

		// CONVERSATION routes
		conversations := v1.Group("/conversations")
		conversations.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			conversations.GET("", deps.Handlers.ListConversations)
			conversations.GET("/:contact_point", deps.Handlers.GetConversation)
		}

		// ANALYSIS routes
		analysisGroup := v1.Group("")
		analysisGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSuperAdmin))
		{
			analysisGroup.POST("/calls/:id/analyze", deps.Handlers.AnalyzeCall)
			analysisGroup.POST("/analysis", deps.Handlers.AnalyzeTranscript)
		}

		// REPORT routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			reports.GET("/calls", deps.Handlers.CallsReport)
			reports.GET("/engagement", deps.Handlers.EngagementReport)
			reports.GET("/pipeline", deps.Handlers.PipelineReport)
		}
	}
}
