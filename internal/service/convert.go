package service

import (
	"time"

	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/pkg/clock"
	apperr "cir-dashboard/backend/pkg/errors"
)

// ── 公共错误 ──

var (
	ErrNoSubDepartment = apperr.BadRequest("当前用户未归属任何子部门")
	ErrInvalidDate     = apperr.BadRequest("日期格式错误，应为 YYYY-MM-DD")
	ErrInvalidRange    = apperr.BadRequest("结束日期不能早于开始日期")
)

// ── 日期辅助 ──

// parseOptionalDate 解析可选日期；nil 或空串返回 nil
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := clock.ParseDate(*s)
	if err != nil {
		return nil, apperr.Wrapf(ErrInvalidDate, "%s", *s)
	}
	return &d, nil
}

// dateOrToday 解析日期参数，缺省为当天
func dateOrToday(c clock.Clock, s *string) (time.Time, error) {
	d, err := parseOptionalDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return clock.Today(c), nil
	}
	return *d, nil
}

// checkRange 校验 [start, end]；任一侧缺省时不校验
func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidRange
	}
	return nil
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := clock.FormatDate(*t)
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ── 模型 → 响应 ──

func toResponsibilityResponse(r *model.Responsibility) dto.ResponsibilityResponse {
	return dto.ResponsibilityResponse{
		ID:              r.ResponsibilityID,
		Title:           r.Title,
		Description:     r.Description,
		Cycle:           r.Cycle,
		SubDepartmentID: r.SubDepartmentID,
		CreatedByID:     r.CreatedByID,
		StartDate:       formatDatePtr(r.StartDate),
		EndDate:         formatDatePtr(r.EndDate),
		IsActive:        r.IsActive,
		IsStaffCreated:  r.IsStaffCreated,
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

func toResponsibilityBrief(r *model.Responsibility) *dto.ResponsibilityBrief {
	if r == nil {
		return nil
	}
	return &dto.ResponsibilityBrief{ID: r.ResponsibilityID, Title: r.Title, Cycle: r.Cycle}
}

func toEmployeeBrief(e *model.Employee) *dto.EmployeeBrief {
	if e == nil {
		return nil
	}
	return &dto.EmployeeBrief{ID: e.EmployeeID, Name: e.Name}
}

func toAssignmentResponse(a *model.ResponsibilityAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:               a.AssignmentID,
		ResponsibilityID: a.ResponsibilityID,
		StaffID:          a.StaffID,
		Staff:            toEmployeeBrief(a.Staff),
		Status:           string(a.Status),
		DueDate:          formatDatePtr(a.DueDate),
		CreatedAt:        formatTime(a.CreatedAt),
	}
}

func toSubmissionResponse(s *model.WorkSubmission) dto.WorkSubmissionResponse {
	resp := dto.WorkSubmissionResponse{
		ID:              s.SubmissionID,
		AssignmentID:    s.AssignmentID,
		StaffID:         s.StaffID,
		Staff:           toEmployeeBrief(s.Staff),
		WorkDate:        clock.FormatDate(s.WorkDate),
		HoursWorked:     s.HoursWorked,
		Status:          string(s.Status),
		StaffComment:    s.StaffComment,
		ManagerComment:  s.ManagerComment,
		RejectionReason: s.RejectionReason,
		VerifiedAt:      formatTimePtr(s.VerifiedAt),
		VerifiedByID:    s.VerifiedByID,
		WorkProofType:   string(s.WorkProofType),
		WorkProofURL:    s.WorkProofURL,
		WorkProofText:   s.WorkProofText,
		Version:         s.Version,
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
	if s.Assignment != nil {
		resp.Responsibility = toResponsibilityBrief(s.Assignment.Responsibility)
	}
	return resp
}

func toGroupItemResponse(item *model.ResponsibilityGroupItem) dto.GroupItemResponse {
	return dto.GroupItemResponse{
		ID:               item.ItemID,
		ResponsibilityID: item.ResponsibilityID,
		Responsibility:   toResponsibilityBrief(item.Responsibility),
		DisplayOrder:     item.DisplayOrder,
	}
}

func toGroupResponse(g *model.ResponsibilityGroup) dto.GroupResponse {
	resp := dto.GroupResponse{
		ID:              g.GroupID,
		Name:            g.Name,
		Description:     g.Description,
		Cycle:           g.Cycle,
		SubDepartmentID: g.SubDepartmentID,
		CreatedByID:     g.CreatedByID,
		IsActive:        g.IsActive,
		Items:           make([]dto.GroupItemResponse, 0, len(g.Items)),
		CreatedAt:       formatTime(g.CreatedAt),
		UpdatedAt:       formatTime(g.UpdatedAt),
	}
	for i := range g.Items {
		resp.Items = append(resp.Items, toGroupItemResponse(&g.Items[i]))
	}
	for i := range g.Assignments {
		if b := toEmployeeBrief(g.Assignments[i].Staff); b != nil {
			resp.AssignedStaff = append(resp.AssignedStaff, *b)
		}
	}
	return resp
}
