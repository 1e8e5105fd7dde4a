package scope

import "cir-dashboard/backend/internal/model"

// Identity 请求身份（由认证中间件注入，已完成认证）
type Identity struct {
	UserID          string
	Role            model.Role
	SubDepartmentID *string
}

// HasSubDepartment 是否归属某个子部门
func (id Identity) HasSubDepartment() bool {
	return id.SubDepartmentID != nil && *id.SubDepartmentID != ""
}

// InSubDepartment 判断身份所在子部门是否与 target 相同；任一侧为空都返回 false
func (id Identity) InSubDepartment(target *string) bool {
	if !id.HasSubDepartment() || target == nil || *target == "" {
		return false
	}
	return *id.SubDepartmentID == *target
}
