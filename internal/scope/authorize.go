package scope

import (
	"cir-dashboard/backend/internal/model"
	apperr "cir-dashboard/backend/pkg/errors"
)

// Resource 受控资源类型
type Resource int

const (
	ResourceSubmission Resource = iota + 1
	ResourceResponsibility
	ResourceGroup
	ResourceStaffRecord // 某员工的工时汇总 / 日历 / 导出
)

// Action 操作
type Action int

const (
	ActionView Action = iota + 1
	ActionCreate
	ActionUpdate
	ActionDelete
	ActionVerify
	ActionResubmit
	ActionManage
)

// Target 被操作对象的归属信息
type Target struct {
	OwnerID         string  // 提交人 / 员工本人
	SubDepartmentID *string // 资源所属子部门
	Assigned        bool    // 员工是否持有该职责的分配
}

// ── 授权错误 ──

var (
	ErrUnknownRole              = apperr.Forbidden("未知角色")
	ErrStaffGroupAccess         = apperr.Forbidden("员工不能查看或管理职责分组")
	ErrStaffVerify              = apperr.Forbidden("员工不能审核工作提交")
	ErrStaffSubmitForOthers     = apperr.Forbidden("员工只能提交自己的工作")
	ErrManagerSubmit            = apperr.Forbidden("经理不能提交工作，只能审核")
	ErrManagerScopeUnknown      = apperr.Forbidden("无法确定审核所属子部门")
	ErrManagerCrossVerify       = apperr.Forbidden("经理只能审核本子部门的工作提交")
	ErrCrossSubDepartment       = apperr.Forbidden("不能访问其他子部门的数据")
	ErrNotOwner                 = apperr.Forbidden("只能操作自己的记录")
	ErrOnlyAdminDelete          = apperr.Forbidden("只有管理员可以删除工作提交")
	ErrResponsibilityNotVisible = apperr.Forbidden("该职责未分配给当前员工")
)

// Authorize 授权判定（纯函数）
// 角色是唯一判别条件，按 STAFF / MANAGER / ADMIN 三分支穷举
func Authorize(id Identity, res Resource, act Action, t Target) error {
	switch id.Role {
	case model.RoleStaff:
		return authorizeStaff(id, res, act, t)
	case model.RoleManager:
		return authorizeManager(id, res, act, t)
	case model.RoleAdmin:
		return authorizeAdmin(id, res, act, t)
	default:
		return ErrUnknownRole
	}
}

// authorizeAdmin 管理员不受范围限制；重新提交仍只允许原提交人
func authorizeAdmin(id Identity, res Resource, act Action, t Target) error {
	if res == ResourceSubmission && act == ActionResubmit && t.OwnerID != id.UserID {
		return ErrNotOwner
	}
	return nil
}

func authorizeStaff(id Identity, res Resource, act Action, t Target) error {
	switch res {
	case ResourceGroup:
		return ErrStaffGroupAccess
	case ResourceSubmission:
		switch act {
		case ActionVerify:
			return ErrStaffVerify
		case ActionDelete:
			return ErrOnlyAdminDelete
		case ActionCreate:
			if t.OwnerID != id.UserID {
				return ErrStaffSubmitForOthers
			}
			return nil
		default:
			if t.OwnerID != id.UserID {
				return ErrNotOwner
			}
			return nil
		}
	case ResourceResponsibility:
		if act == ActionCreate {
			return nil
		}
		if act != ActionView {
			return ErrNotOwner
		}
		if !t.Assigned {
			return ErrResponsibilityNotVisible
		}
		return nil
	case ResourceStaffRecord:
		if t.OwnerID != id.UserID {
			return ErrNotOwner
		}
		return nil
	}
	return ErrUnknownRole
}

func authorizeManager(id Identity, res Resource, act Action, t Target) error {
	switch res {
	case ResourceSubmission:
		switch act {
		case ActionCreate:
			return ErrManagerSubmit
		case ActionDelete:
			return ErrOnlyAdminDelete
		case ActionResubmit:
			return ErrNotOwner
		case ActionVerify:
			if !id.HasSubDepartment() || t.SubDepartmentID == nil || *t.SubDepartmentID == "" {
				return ErrManagerScopeUnknown
			}
			if !id.InSubDepartment(t.SubDepartmentID) {
				return ErrManagerCrossVerify
			}
			return nil
		}
	case ResourceResponsibility:
		if act == ActionCreate {
			return nil
		}
	}
	// 其余场景：经理仅能访问本子部门
	if !id.InSubDepartment(t.SubDepartmentID) {
		return ErrCrossSubDepartment
	}
	return nil
}
