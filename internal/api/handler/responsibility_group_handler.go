package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/service"
	"cir-dashboard/backend/pkg/response"
)

// ResponsibilityGroupHandler 职责分组模块 HTTP 处理器
type ResponsibilityGroupHandler struct {
	groupSvc service.ResponsibilityGroupService
	logger   *zap.Logger
}

// NewResponsibilityGroupHandler 创建 ResponsibilityGroupHandler
func NewResponsibilityGroupHandler(groupSvc service.ResponsibilityGroupService, logger *zap.Logger) *ResponsibilityGroupHandler {
	return &ResponsibilityGroupHandler{groupSvc: groupSvc, logger: logger}
}

// CreateGroup 创建分组
// POST /api/v1/responsibility-groups
func (h *ResponsibilityGroupHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.Create(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.Created(c, result)
}

// ListGroups 分组列表
// GET /api/v1/responsibility-groups
func (h *ResponsibilityGroupHandler) ListGroups(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.groupSvc.List(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetGroup 分组详情
// GET /api/v1/responsibility-groups/:id
func (h *ResponsibilityGroupHandler) GetGroup(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.GetByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, result)
}

// UpdateGroup 更新分组元数据
// PUT /api/v1/responsibility-groups/:id
func (h *ResponsibilityGroupHandler) UpdateGroup(c *gin.Context) {
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.Update(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, result)
}

// DeleteGroup 删除分组
// DELETE /api/v1/responsibility-groups/:id
func (h *ResponsibilityGroupHandler) DeleteGroup(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.groupSvc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, nil)
}

// AddResponsibilities 向分组追加职责
// POST /api/v1/responsibility-groups/:id/responsibilities
func (h *ResponsibilityGroupHandler) AddResponsibilities(c *gin.Context) {
	var req dto.AddResponsibilitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.AddResponsibilities(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, result)
}

// RemoveResponsibility 从分组移除职责
// DELETE /api/v1/responsibility-groups/:id/responsibilities/:responsibility_id
func (h *ResponsibilityGroupHandler) RemoveResponsibility(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	err := h.groupSvc.RemoveResponsibility(c.Request.Context(), id, c.Param("id"), c.Param("responsibility_id"))
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, nil)
}

// AssignToStaff 将分组批量分配给员工
// POST /api/v1/responsibility-groups/:id/assign
func (h *ResponsibilityGroupHandler) AssignToStaff(c *gin.Context) {
	var req dto.AssignGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.groupSvc.AssignToStaff(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, result)
}

// ListStaff 已分配该分组的员工
// GET /api/v1/responsibility-groups/:id/staff
func (h *ResponsibilityGroupHandler) ListStaff(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.groupSvc.ListAssignedStaff(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UnassignStaff 撤销分组分配记录
// DELETE /api/v1/responsibility-groups/:id/staff/:staff_id
func (h *ResponsibilityGroupHandler) UnassignStaff(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.groupSvc.UnassignFromStaff(c.Request.Context(), id, c.Param("id"), c.Param("staff_id")); err != nil {
		handleError(c, h.logger, groupCodes, err)
		return
	}

	response.OK(c, nil)
}
