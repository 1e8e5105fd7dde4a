package dto

import "github.com/shopspring/decimal"

// ── 工作提交模块 DTO ──

// CreateWorkSubmissionRequest 创建工作提交请求
// StaffID 缺省为当前用户；WorkDate 若提供必须等于当天
type CreateWorkSubmissionRequest struct {
	AssignmentID  string          `json:"assignment_id"   binding:"required,uuid"`
	StaffID       *string         `json:"staff_id"        binding:"omitempty,uuid"`
	WorkDate      *string         `json:"work_date"       binding:"omitempty,date"`
	HoursWorked   decimal.Decimal `json:"hours_worked"`
	StaffComment  string          `json:"staff_comment"   binding:"omitempty,max=2000"`
	WorkProofType string          `json:"work_proof_type" binding:"required,oneof=PDF IMAGE TEXT"`
	WorkProofURL  string          `json:"work_proof_url"  binding:"omitempty,url,max=1000"`
	WorkProofText string          `json:"work_proof_text" binding:"omitempty,max=5000"`
}

// UpdateWorkSubmissionRequest 通用更新请求
// 审核字段出现即拒绝，审核只能走 verify 接口
type UpdateWorkSubmissionRequest struct {
	HoursWorked   *decimal.Decimal `json:"hours_worked"`
	StaffComment  *string          `json:"staff_comment"   binding:"omitempty,max=2000"`
	WorkProofType *string          `json:"work_proof_type" binding:"omitempty,oneof=PDF IMAGE TEXT"`
	WorkProofURL  *string          `json:"work_proof_url"  binding:"omitempty,max=1000"`
	WorkProofText *string          `json:"work_proof_text" binding:"omitempty,max=5000"`

	Status          *string `json:"status"`
	VerifiedAt      *string `json:"verified_at"`
	VerifiedByID    *string `json:"verified_by_id"`
	ManagerComment  *string `json:"manager_comment"`
	RejectionReason *string `json:"rejection_reason"`
}

// TouchesVerification 是否试图直接写入审核字段
func (r *UpdateWorkSubmissionRequest) TouchesVerification() bool {
	return r.Status != nil || r.VerifiedAt != nil || r.VerifiedByID != nil ||
		r.ManagerComment != nil || r.RejectionReason != nil
}

// VerifyWorkSubmissionRequest 审核请求
type VerifyWorkSubmissionRequest struct {
	Approved       *bool  `json:"approved"        binding:"required"`
	ManagerComment string `json:"manager_comment" binding:"omitempty,max=2000"`
}

// ResubmitWorkSubmissionRequest 驳回后重新提交；未提供的字段保持原值
type ResubmitWorkSubmissionRequest struct {
	HoursWorked   *decimal.Decimal `json:"hours_worked"`
	StaffComment  *string          `json:"staff_comment"   binding:"omitempty,max=2000"`
	WorkProofType *string          `json:"work_proof_type" binding:"omitempty,oneof=PDF IMAGE TEXT"`
	WorkProofURL  *string          `json:"work_proof_url"  binding:"omitempty,max=1000"`
	WorkProofText *string          `json:"work_proof_text" binding:"omitempty,max=5000"`
}

// WorkSubmissionListRequest 列表查询参数；只会在可见范围内继续收窄
type WorkSubmissionListRequest struct {
	StaffID      *string `form:"staff_id"       binding:"omitempty,uuid"`
	VerifiedByID *string `form:"verified_by_id" binding:"omitempty,uuid"`
	AssignmentID *string `form:"assignment_id"  binding:"omitempty,uuid"`
	Date         *string `form:"date"           binding:"omitempty,date"`
}

// DateRangeQuery 日期区间查询参数（含首尾）
type DateRangeQuery struct {
	StartDate string `form:"start_date" binding:"required,date"`
	EndDate   string `form:"end_date"   binding:"required,date"`
}

// WorkSubmissionResponse 工作提交响应
type WorkSubmissionResponse struct {
	ID              string               `json:"id"`
	AssignmentID    string               `json:"assignment_id"`
	Responsibility  *ResponsibilityBrief `json:"responsibility,omitempty"`
	StaffID         string               `json:"staff_id"`
	Staff           *EmployeeBrief       `json:"staff,omitempty"`
	WorkDate        string               `json:"work_date"`
	HoursWorked     decimal.Decimal      `json:"hours_worked"`
	Status          string               `json:"status"`
	StaffComment    string               `json:"staff_comment,omitempty"`
	ManagerComment  string               `json:"manager_comment,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	VerifiedAt      *string              `json:"verified_at,omitempty"`
	VerifiedByID    *string              `json:"verified_by_id,omitempty"`
	WorkProofType   string               `json:"work_proof_type"`
	WorkProofURL    string               `json:"work_proof_url,omitempty"`
	WorkProofText   string               `json:"work_proof_text,omitempty"`
	Version         int                  `json:"version"`
	CreatedAt       string               `json:"created_at"`
	UpdatedAt       string               `json:"updated_at"`
}

// DailyHoursResponse 员工某日工时汇总
// TotalHours = VerifiedHours + PendingHours；被驳回的工时不计入
type DailyHoursResponse struct {
	StaffID       string          `json:"staff_id"`
	Date          string          `json:"date"`
	VerifiedHours decimal.Decimal `json:"verified_hours"`
	PendingHours  decimal.Decimal `json:"pending_hours"`
	TotalHours    decimal.Decimal `json:"total_hours"`
}

// CalendarDay 日历中的一天（仅列出有提交的日期）
type CalendarDay struct {
	Date          string                   `json:"date"`
	TotalHours    decimal.Decimal          `json:"total_hours"`
	VerifiedHours decimal.Decimal          `json:"verified_hours"`
	IsLocked      bool                     `json:"is_locked"`
	Submissions   []WorkSubmissionResponse `json:"submissions"`
}

// CalendarResponse 员工日历视图
type CalendarResponse struct {
	StaffID   string        `json:"staff_id"`
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Days      []CalendarDay `json:"days"`
}
