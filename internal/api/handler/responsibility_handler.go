package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/service"
	"cir-dashboard/backend/pkg/response"
)

// ResponsibilityHandler 职责模块 HTTP 处理器
type ResponsibilityHandler struct {
	respSvc service.ResponsibilityService
	logger  *zap.Logger
}

// NewResponsibilityHandler 创建 ResponsibilityHandler
func NewResponsibilityHandler(respSvc service.ResponsibilityService, logger *zap.Logger) *ResponsibilityHandler {
	return &ResponsibilityHandler{respSvc: respSvc, logger: logger}
}

// CreateResponsibility 创建职责
// POST /api/v1/responsibilities
func (h *ResponsibilityHandler) CreateResponsibility(c *gin.Context) {
	var req dto.CreateResponsibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.respSvc.Create(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, h.logger, responsibilityCodes, err)
		return
	}

	response.Created(c, result)
}

// ListResponsibilities 可见范围内的职责列表
// GET /api/v1/responsibilities
func (h *ResponsibilityHandler) ListResponsibilities(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.respSvc.List(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, responsibilityCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListActive 指定日期有效的职责
// GET /api/v1/responsibilities/active?date=
func (h *ResponsibilityHandler) ListActive(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.respSvc.ListActiveForDate(c.Request.Context(), id, optionalString(q.Date))
	if err != nil {
		handleError(c, h.logger, responsibilityCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetResponsibility 职责详情
// GET /api/v1/responsibilities/:id
func (h *ResponsibilityHandler) GetResponsibility(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.respSvc.GetByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		handleError(c, h.logger, responsibilityCodes, err)
		return
	}

	response.OK(c, result)
}

// CheckVisibility 职责在某日对当前用户是否可见
// GET /api/v1/responsibilities/:id/visibility?date=
func (h *ResponsibilityHandler) CheckVisibility(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.respSvc.IsVisibleToUser(c.Request.Context(), id, c.Param("id"), optionalString(q.Date))
	if err != nil {
		handleError(c, h.logger, responsibilityCodes, err)
		return
	}

	response.OK(c, result)
}

// ListAssignments 职责的分配列表
// GET /api/v1/responsibilities/:id/assignments
func (h *ResponsibilityHandler) ListAssignments(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.respSvc.ListAssignees(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		handleError(c, h.logger, responsibilityCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// optionalString 空串视为未传
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
