package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cir-dashboard/backend/config"
	"cir-dashboard/backend/internal/api/handler"
	"cir-dashboard/backend/internal/api/middleware"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/pkg/jwt"
	"cir-dashboard/backend/pkg/redis"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// 写接口限流
	limit := middleware.RateLimit(rdb, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		v1.GET("/health", h.Health.Health)

		// 职责模块
		responsibilities := v1.Group("/responsibilities")
		{
			responsibilities.POST("", limit, h.Responsibility.CreateResponsibility)
			responsibilities.GET("", h.Responsibility.ListResponsibilities)
			responsibilities.GET("/active", h.Responsibility.ListActive)
			responsibilities.GET("/:id", h.Responsibility.GetResponsibility)
			responsibilities.GET("/:id/visibility", h.Responsibility.CheckVisibility)
			responsibilities.GET("/:id/assignments", h.Responsibility.ListAssignments)
		}

		// 工作提交模块
		submissions := v1.Group("/work-submissions")
		{
			submissions.POST("", limit, h.WorkSubmission.CreateSubmission)
			submissions.GET("", h.WorkSubmission.ListSubmissions)
			submissions.GET("/today", h.WorkSubmission.ListToday)
			submissions.GET("/daily/:date", h.WorkSubmission.ListDaily)
			submissions.GET("/daily-hours/:staff_id/:date", h.WorkSubmission.DailyHours)
			submissions.GET("/calendar/:staff_id", h.WorkSubmission.Calendar)
			submissions.GET("/:id", h.WorkSubmission.GetSubmission)
			submissions.PATCH("/:id", limit, h.WorkSubmission.UpdateSubmission)
			submissions.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), limit, h.WorkSubmission.DeleteSubmission)
			submissions.POST("/:id/resubmit", middleware.RoleAuth(model.RoleStaff, model.RoleAdmin), limit, h.WorkSubmission.ResubmitSubmission)
			submissions.POST("/:id/verify", middleware.RoleAuth(model.RoleAdmin, model.RoleManager), limit, h.WorkSubmission.VerifySubmission)
		}

		// 职责分组模块（员工无权访问，Service 层鉴权）
		groups := v1.Group("/responsibility-groups")
		{
			groups.POST("", limit, h.Group.CreateGroup)
			groups.GET("", h.Group.ListGroups)
			groups.GET("/:id", h.Group.GetGroup)
			groups.PUT("/:id", limit, h.Group.UpdateGroup)
			groups.DELETE("/:id", limit, h.Group.DeleteGroup)
			groups.POST("/:id/responsibilities", limit, h.Group.AddResponsibilities)
			groups.DELETE("/:id/responsibilities/:responsibility_id", limit, h.Group.RemoveResponsibility)
			groups.POST("/:id/assign", limit, h.Group.AssignToStaff)
			groups.GET("/:id/staff", h.Group.ListStaff)
			groups.DELETE("/:id/staff/:staff_id", limit, h.Group.UnassignStaff)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/calendar/:staff_id", h.Export.ExportCalendar)
			export.GET("/assignments/:staff_id", h.Export.ExportAssignments)
		}
	}

	return r, nil
}
