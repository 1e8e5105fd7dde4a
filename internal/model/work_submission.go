package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmissionStatus 工作提交状态
// SUBMITTED → VERIFIED | REJECTED；REJECTED → SUBMITTED（仅重新提交）；VERIFIED 为终态
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionVerified  SubmissionStatus = "VERIFIED"
	SubmissionRejected  SubmissionStatus = "REJECTED"
)

// ProofType 工作证明类型
type ProofType string

const (
	ProofPDF   ProofType = "PDF"
	ProofImage ProofType = "IMAGE"
	ProofText  ProofType = "TEXT"
)

// WorkSubmission 工作提交表 对应 work_submissions
// (assignment_id, work_date) 唯一：同一分配每天至多一条
type WorkSubmission struct {
	SubmissionID    string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"              json:"submission_id"`
	AssignmentID    string           `gorm:"type:uuid;not null;uniqueIndex:uq_submission_assignment_day" json:"assignment_id"`
	StaffID         string           `gorm:"type:uuid;not null;index"                                   json:"staff_id"`
	WorkDate        time.Time        `gorm:"type:date;not null;uniqueIndex:uq_submission_assignment_day" json:"work_date"`
	HoursWorked     decimal.Decimal  `gorm:"type:numeric(5,2);not null"                                 json:"hours_worked"`
	Status          SubmissionStatus `gorm:"type:varchar(20);not null;default:'SUBMITTED'"              json:"status"`
	StaffComment    string           `gorm:"type:text"                                                  json:"staff_comment,omitempty"`
	ManagerComment  string           `gorm:"type:text"                                                  json:"manager_comment,omitempty"`
	RejectionReason *string          `gorm:"type:text"                                                  json:"rejection_reason,omitempty"`
	VerifiedAt      *time.Time       `json:"verified_at,omitempty"`
	VerifiedByID    *string          `gorm:"type:uuid"                                                  json:"verified_by_id,omitempty"`
	WorkProofType   ProofType        `gorm:"type:varchar(10);not null"                                  json:"work_proof_type"`
	WorkProofURL    string           `gorm:"type:varchar(1000)"                                         json:"work_proof_url,omitempty"`
	WorkProofText   string           `gorm:"type:text"                                                  json:"work_proof_text,omitempty"`
	VersionedModel

	// 关联
	Assignment *ResponsibilityAssignment `gorm:"foreignKey:AssignmentID;references:AssignmentID" json:"assignment,omitempty"`
	Staff      *Employee                 `gorm:"foreignKey:StaffID;references:EmployeeID"        json:"staff,omitempty"`
	VerifiedBy *Employee                 `gorm:"foreignKey:VerifiedByID;references:EmployeeID"   json:"verified_by,omitempty"`
}

// TableName 指定表名
func (WorkSubmission) TableName() string { return "work_submissions" }

// SubDepartmentID 提交所属职责的子部门；关联未加载时返回 nil
func (w *WorkSubmission) SubDepartmentID() *string {
	if w.Assignment == nil || w.Assignment.Responsibility == nil {
		return nil
	}
	id := w.Assignment.Responsibility.SubDepartmentID
	if id == "" {
		return nil
	}
	return &id
}
