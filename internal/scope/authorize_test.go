package scope

import (
	"errors"
	"testing"

	"cir-dashboard/backend/internal/model"
)

func strPtr(s string) *string { return &s }

var (
	staffA   = Identity{UserID: "staff-a", Role: model.RoleStaff, SubDepartmentID: strPtr("sd-3")}
	manager3 = Identity{UserID: "mgr-3", Role: model.RoleManager, SubDepartmentID: strPtr("sd-3")}
	orphan   = Identity{UserID: "mgr-x", Role: model.RoleManager}
	admin    = Identity{UserID: "admin", Role: model.RoleAdmin}
)

func TestAuthorize(t *testing.T) {
	own := Target{OwnerID: "staff-a", SubDepartmentID: strPtr("sd-3")}
	other := Target{OwnerID: "staff-b", SubDepartmentID: strPtr("sd-3")}
	foreign := Target{OwnerID: "staff-c", SubDepartmentID: strPtr("sd-5")}

	cases := []struct {
		name string
		id   Identity
		res  Resource
		act  Action
		t    Target
		want error
	}{
		// 员工
		{"员工查看自己的提交", staffA, ResourceSubmission, ActionView, own, nil},
		{"员工查看他人的提交", staffA, ResourceSubmission, ActionView, other, ErrNotOwner},
		{"员工替他人提交", staffA, ResourceSubmission, ActionCreate, other, ErrStaffSubmitForOthers},
		{"员工审核", staffA, ResourceSubmission, ActionVerify, own, ErrStaffVerify},
		{"员工删除", staffA, ResourceSubmission, ActionDelete, own, ErrOnlyAdminDelete},
		{"员工重新提交自己的", staffA, ResourceSubmission, ActionResubmit, own, nil},
		{"员工访问分组", staffA, ResourceGroup, ActionView, own, ErrStaffGroupAccess},
		{"员工查看已分配职责", staffA, ResourceResponsibility, ActionView, Target{Assigned: true}, nil},
		{"员工查看未分配职责", staffA, ResourceResponsibility, ActionView, Target{}, ErrResponsibilityNotVisible},
		{"员工创建职责", staffA, ResourceResponsibility, ActionCreate, Target{}, nil},
		{"员工查看他人工时", staffA, ResourceStaffRecord, ActionView, other, ErrNotOwner},

		// 经理
		{"经理审核本子部门", manager3, ResourceSubmission, ActionVerify, other, nil},
		{"经理跨子部门审核", manager3, ResourceSubmission, ActionVerify, foreign, ErrManagerCrossVerify},
		{"经理审核缺子部门的提交", manager3, ResourceSubmission, ActionVerify, Target{OwnerID: "x"}, ErrManagerScopeUnknown},
		{"无子部门经理审核", orphan, ResourceSubmission, ActionVerify, other, ErrManagerScopeUnknown},
		{"经理提交", manager3, ResourceSubmission, ActionCreate, other, ErrManagerSubmit},
		{"经理重新提交", manager3, ResourceSubmission, ActionResubmit, other, ErrNotOwner},
		{"经理删除", manager3, ResourceSubmission, ActionDelete, other, ErrOnlyAdminDelete},
		{"经理更新跨子部门提交", manager3, ResourceSubmission, ActionUpdate, foreign, ErrCrossSubDepartment},
		{"经理管理本子部门分组", manager3, ResourceGroup, ActionManage, other, nil},
		{"经理管理其他分组", manager3, ResourceGroup, ActionManage, foreign, ErrCrossSubDepartment},
		{"无子部门经理查看", orphan, ResourceStaffRecord, ActionView, other, ErrCrossSubDepartment},

		// 管理员
		{"管理员删除", admin, ResourceSubmission, ActionDelete, foreign, nil},
		{"管理员审核任意提交", admin, ResourceSubmission, ActionVerify, foreign, nil},
		{"管理员重新提交他人的", admin, ResourceSubmission, ActionResubmit, foreign, ErrNotOwner},
		{"管理员重新提交自己的", admin, ResourceSubmission, ActionResubmit, Target{OwnerID: "admin"}, nil},

		{"未知角色", Identity{UserID: "x", Role: "GUEST"}, ResourceSubmission, ActionView, own, ErrUnknownRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.id, tc.res, tc.act, tc.t)
			if tc.want == nil {
				if err != nil {
					t.Errorf("期望允许，实际: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际: %v", tc.want, err)
			}
		})
	}
}

func TestIdentity_InSubDepartment(t *testing.T) {
	if manager3.InSubDepartment(nil) {
		t.Error("目标为空时应返回 false")
	}
	if orphan.InSubDepartment(strPtr("sd-3")) {
		t.Error("身份无子部门时应返回 false")
	}
	if (Identity{SubDepartmentID: strPtr("")}).HasSubDepartment() {
		t.Error("空字符串不算归属子部门")
	}
	if !manager3.InSubDepartment(strPtr("sd-3")) {
		t.Error("同一子部门应返回 true")
	}
}
