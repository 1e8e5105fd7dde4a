package model

import "time"

// Responsibility 职责表 对应 responsibilities
// 员工自建职责的起止日期固定为创建当天；StartDate/EndDate 为空表示该侧不设限
type Responsibility struct {
	ResponsibilityID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"responsibility_id"`
	Title            string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Description      string     `gorm:"type:text"                                      json:"description,omitempty"`
	Cycle            string     `gorm:"type:varchar(7);not null"                       json:"cycle"` // YYYY-MM
	SubDepartmentID  string     `gorm:"type:uuid;not null;index"                       json:"sub_department_id"`
	CreatedByID      string     `gorm:"type:uuid;not null"                             json:"created_by_id"`
	StartDate        *time.Time `gorm:"type:date"                                      json:"start_date,omitempty"`
	EndDate          *time.Time `gorm:"type:date"                                      json:"end_date,omitempty"`
	IsActive         bool       `gorm:"not null;default:true"                          json:"is_active"`
	IsStaffCreated   bool       `gorm:"not null;default:false"                         json:"is_staff_created"`
	BaseModel

	// 关联
	SubDepartment *SubDepartment `gorm:"foreignKey:SubDepartmentID;references:SubDepartmentID" json:"sub_department,omitempty"`
}

// TableName 指定表名
func (Responsibility) TableName() string { return "responsibilities" }

// HasWindow 是否设置了任一侧日期
func (r *Responsibility) HasWindow() bool {
	return r.StartDate != nil || r.EndDate != nil
}

// NotStartedOn day 早于开始日期
func (r *Responsibility) NotStartedOn(day time.Time) bool {
	return r.StartDate != nil && day.Before(*r.StartDate)
}

// ExpiredOn day 晚于结束日期
func (r *Responsibility) ExpiredOn(day time.Time) bool {
	return r.EndDate != nil && day.After(*r.EndDate)
}

// WithinWindow day 落在 [StartDate, EndDate] 内；缺失的一侧视为无界
// day 须已截断为 UTC 零点
func (r *Responsibility) WithinWindow(day time.Time) bool {
	return !r.NotStartedOn(day) && !r.ExpiredOn(day)
}

// AssignmentStatus 分配记录状态（与每日提交状态相互独立）
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "PENDING"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
)

// ResponsibilityAssignment 职责分配表 对应 responsibility_assignments
// (responsibility_id, staff_id) 唯一
type ResponsibilityAssignment struct {
	AssignmentID     string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                json:"assignment_id"`
	ResponsibilityID string           `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_responsibility_staff" json:"responsibility_id"`
	StaffID          string           `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_responsibility_staff" json:"staff_id"`
	Status           AssignmentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"                  json:"status"`
	DueDate          *time.Time       `gorm:"type:date"                                                    json:"due_date,omitempty"`
	BaseModel

	// 关联
	Responsibility *Responsibility `gorm:"foreignKey:ResponsibilityID;references:ResponsibilityID" json:"responsibility,omitempty"`
	Staff          *Employee       `gorm:"foreignKey:StaffID;references:EmployeeID"                json:"staff,omitempty"`
}

// TableName 指定表名
func (ResponsibilityAssignment) TableName() string { return "responsibility_assignments" }
