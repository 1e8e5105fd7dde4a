package scope

import (
	"time"

	"cir-dashboard/backend/internal/model"
)

// ── 查询规格 ──
//
// 每类实体一个显式的查询规格值，仓储层据此拼装 SQL。
// Empty=true 表示“必为空集”，仓储层直接返回空结果而不访问数据库。

// SubmissionFilter 工作提交查询规格
type SubmissionFilter struct {
	Empty bool

	StaffID         *string
	SubDepartmentID *string // assignment → responsibility → sub_department_id
	VerifiedByID    *string
	AssignmentID    *string
	WorkDate        *time.Time
	From            *time.Time // 含
	To              *time.Time // 含
}

// ResponsibilityFilter 职责查询规格
type ResponsibilityFilter struct {
	Empty bool

	AssignedStaffID *string // 仅返回该员工持有分配的职责
	SubDepartmentID *string
	ActiveOn        *time.Time // is_active 且 ActiveOn 落在有效期内（缺失日期视为无界）
}

// GroupFilter 职责分组查询规格
type GroupFilter struct {
	Empty bool

	SubDepartmentID *string
}

// Submissions 计算身份可见的工作提交范围
func Submissions(id Identity) (SubmissionFilter, error) {
	switch id.Role {
	case model.RoleStaff:
		staffID := id.UserID
		return SubmissionFilter{StaffID: &staffID}, nil
	case model.RoleManager:
		if !id.HasSubDepartment() {
			return SubmissionFilter{Empty: true}, nil
		}
		sub := *id.SubDepartmentID
		return SubmissionFilter{SubDepartmentID: &sub}, nil
	case model.RoleAdmin:
		return SubmissionFilter{}, nil
	default:
		return SubmissionFilter{}, ErrUnknownRole
	}
}

// Responsibilities 计算身份可见的职责范围
func Responsibilities(id Identity) (ResponsibilityFilter, error) {
	switch id.Role {
	case model.RoleStaff:
		staffID := id.UserID
		return ResponsibilityFilter{AssignedStaffID: &staffID}, nil
	case model.RoleManager:
		if !id.HasSubDepartment() {
			return ResponsibilityFilter{Empty: true}, nil
		}
		sub := *id.SubDepartmentID
		return ResponsibilityFilter{SubDepartmentID: &sub}, nil
	case model.RoleAdmin:
		return ResponsibilityFilter{}, nil
	default:
		return ResponsibilityFilter{}, ErrUnknownRole
	}
}

// Groups 计算身份可见的分组范围；员工不能查看分组
func Groups(id Identity) (GroupFilter, error) {
	switch id.Role {
	case model.RoleStaff:
		return GroupFilter{}, ErrStaffGroupAccess
	case model.RoleManager:
		if !id.HasSubDepartment() {
			return GroupFilter{Empty: true}, nil
		}
		sub := *id.SubDepartmentID
		return GroupFilter{SubDepartmentID: &sub}, nil
	case model.RoleAdmin:
		return GroupFilter{}, nil
	default:
		return GroupFilter{}, ErrUnknownRole
	}
}

// Narrow 在已按身份限定的范围上叠加调用方的可选条件
// 可选条件只会缩小结果集：若与身份范围冲突，则结果为空
func (f SubmissionFilter) Narrow(staffID, verifiedByID, assignmentID *string) SubmissionFilter {
	if staffID != nil {
		if f.StaffID != nil && *f.StaffID != *staffID {
			f.Empty = true
		}
		f.StaffID = staffID
	}
	if verifiedByID != nil {
		f.VerifiedByID = verifiedByID
	}
	if assignmentID != nil {
		f.AssignmentID = assignmentID
	}
	return f
}
