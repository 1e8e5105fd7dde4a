package service

import (
	"time"

	"github.com/shopspring/decimal"

	"cir-dashboard/backend/config"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
	"cir-dashboard/backend/pkg/clock"
)

// ── 测试辅助 ──

// testToday 固定的“今天”；时钟停在当天 10:00 UTC
var testToday = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func testClock() clock.Clock {
	return clock.Fixed(testToday.Add(10 * time.Hour))
}

func testConfig() *config.Config {
	return &config.Config{
		Tx: config.TxConfig{
			DefaultTimeout:    10 * time.Second,
			GroupTimeout:      30 * time.Second,
			BulkAssignTimeout: 60 * time.Second,
		},
		Calendar: config.CalendarConfig{MaxRangeDays: 92},
	}
}

// fixture 两个子部门（3、5），每个子部门一名经理；子部门 3 有两名员工，子部门 5 有一名
type fixture struct {
	repo  *repository.Repository
	store *mockStore
	tx    *mockTx

	sub3, sub5 string

	admin       *model.Employee
	manager3    *model.Employee
	manager5    *model.Employee
	managerNone *model.Employee
	staff1      *model.Employee
	staff2      *model.Employee
	staff5      *model.Employee
}

func newFixture() *fixture {
	repo, store, tx := newMockRepository()
	f := &fixture{repo: repo, store: store, tx: tx, sub3: "subdept-3", sub5: "subdept-5"}
	store.subDepartments[f.sub3] = model.SubDepartment{SubDepartmentID: f.sub3, DepartmentID: "dept-1", Name: "运维组"}
	store.subDepartments[f.sub5] = model.SubDepartment{SubDepartmentID: f.sub5, DepartmentID: "dept-1", Name: "客服组"}

	f.admin = store.addEmployee("管理员", model.RoleAdmin, nil)
	f.manager3 = store.addEmployee("经理三", model.RoleManager, strPtr(f.sub3))
	f.manager5 = store.addEmployee("经理五", model.RoleManager, strPtr(f.sub5))
	f.managerNone = store.addEmployee("无部门经理", model.RoleManager, nil)
	f.staff1 = store.addEmployee("张三", model.RoleStaff, strPtr(f.sub3))
	f.staff2 = store.addEmployee("李四", model.RoleStaff, strPtr(f.sub3))
	f.staff5 = store.addEmployee("王五", model.RoleStaff, strPtr(f.sub5))
	return f
}

func identityOf(e *model.Employee) scope.Identity {
	return scope.Identity{UserID: e.EmployeeID, Role: e.Role, SubDepartmentID: e.SubDepartmentID}
}

// addSubmission 直接写入一条提交，用于构造历史数据
func (f *fixture) addSubmission(a *model.ResponsibilityAssignment, day time.Time, hours int64, status model.SubmissionStatus) *model.WorkSubmission {
	id, ts := f.store.nextID("sub")
	sub := model.WorkSubmission{
		SubmissionID:  id,
		AssignmentID:  a.AssignmentID,
		StaffID:       a.StaffID,
		WorkDate:      day,
		HoursWorked:   decimal.NewFromInt(hours),
		Status:        status,
		WorkProofType: model.ProofText,
		WorkProofText: "完成巡检",
	}
	sub.Version = 1
	sub.CreatedAt, sub.UpdatedAt = ts, ts
	f.store.submissions[id] = sub
	return &sub
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func datePtr(t time.Time) *time.Time { return &t }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
