package handler

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	logger    *zap.Logger
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, logger: logger}
}

// ExportCalendar 导出员工日历区间内的工作提交
// GET /api/v1/export/calendar/:staff_id?start_date=&end_date=
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), id, c.Param("staff_id"), &q)
	if err != nil {
		handleError(c, h.logger, exportCodes, err)
		return
	}

	writeAttachment(c, filename, contentTypeXLSX, buf)
}

// ExportAssignments 导出员工职责分配为 iCalendar
// GET /api/v1/export/assignments/:staff_id
func (h *ExportHandler) ExportAssignments(c *gin.Context) {
	id, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAssignmentsICS(c.Request.Context(), id, c.Param("staff_id"))
	if err != nil {
		handleError(c, h.logger, exportCodes, err)
		return
	}

	writeAttachment(c, filename, contentTypeICS, buf)
}

// writeAttachment 设置下载响应头
func writeAttachment(c *gin.Context, filename, contentType string, buf *bytes.Buffer) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
