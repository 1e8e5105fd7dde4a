package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/service"
	"cir-dashboard/backend/pkg/response"
)

// WorkSubmissionHandler 工作提交模块 HTTP 处理器
type WorkSubmissionHandler struct {
	submissionSvc service.WorkSubmissionService
	logger        *zap.Logger
}

// NewWorkSubmissionHandler 创建 WorkSubmissionHandler
func NewWorkSubmissionHandler(submissionSvc service.WorkSubmissionService, logger *zap.Logger) *WorkSubmissionHandler {
	return &WorkSubmissionHandler{submissionSvc: submissionSvc, logger: logger}
}

// CreateSubmission 提交当天工作
// POST /api/v1/work-submissions
func (h *WorkSubmissionHandler) CreateSubmission(c *gin.Context) {
	var req dto.CreateWorkSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.Create(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.Created(c, result)
}

// ListSubmissions 可见范围内的提交列表
// GET /api/v1/work-submissions
func (h *WorkSubmissionHandler) ListSubmissions(c *gin.Context) {
	var req dto.WorkSubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.submissionSvc.List(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListToday 今天的提交
// GET /api/v1/work-submissions/today
func (h *WorkSubmissionHandler) ListToday(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.submissionSvc.ListToday(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListDaily 指定日期的提交
// GET /api/v1/work-submissions/daily/:date
func (h *WorkSubmissionHandler) ListDaily(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.submissionSvc.ListDaily(c.Request.Context(), id, c.Param("date"))
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DailyHours 员工某日累计工时
// GET /api/v1/work-submissions/daily-hours/:staff_id/:date
func (h *WorkSubmissionHandler) DailyHours(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.DailyTotalHours(c.Request.Context(), id, c.Param("staff_id"), c.Param("date"))
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, result)
}

// Calendar 员工日历视图
// GET /api/v1/work-submissions/calendar/:staff_id?start_date=&end_date=
func (h *WorkSubmissionHandler) Calendar(c *gin.Context) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.CalendarView(c.Request.Context(), id, c.Param("staff_id"), &q)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, result)
}

// GetSubmission 提交详情
// GET /api/v1/work-submissions/:id
func (h *WorkSubmissionHandler) GetSubmission(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.GetByID(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, result)
}

// UpdateSubmission 修改待审核的提交
// PATCH /api/v1/work-submissions/:id
func (h *WorkSubmissionHandler) UpdateSubmission(c *gin.Context) {
	var req dto.UpdateWorkSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.Update(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, result)
}

// DeleteSubmission 删除提交（管理员）
// DELETE /api/v1/work-submissions/:id
func (h *WorkSubmissionHandler) DeleteSubmission(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.submissionSvc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, nil)
}

// VerifySubmission 审核提交
// POST /api/v1/work-submissions/:id/verify
func (h *WorkSubmissionHandler) VerifySubmission(c *gin.Context) {
	var req dto.VerifyWorkSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.Verify(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, result)
}

// ResubmitSubmission 重新提交被驳回的工作
// POST /api/v1/work-submissions/:id/resubmit
func (h *WorkSubmissionHandler) ResubmitSubmission(c *gin.Context) {
	// 请求体可省略：沿用原内容直接重新提交
	var req dto.ResubmitWorkSubmissionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.submissionSvc.Resubmit(c.Request.Context(), id, c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, submissionCodes, err)
		return
	}

	response.OK(c, result)
}
