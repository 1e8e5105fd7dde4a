//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
	"cir-dashboard/backend/pkg/database"
	pkgerrors "cir-dashboard/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=cir_dashboard_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移建表，唯一约束与线上一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// seed 一个子部门 + 经理 + 员工 + 一条职责与分配
type seed struct {
	sub        *model.SubDepartment
	manager    *model.Employee
	staff      *model.Employee
	resp       *model.Responsibility
	assignment *model.ResponsibilityAssignment
}

func setupSeed(t *testing.T) *seed {
	t.Helper()
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	dept := &model.Department{Name: "信息中心-" + tag, IsActive: true}
	require.NoError(t, testDB.WithContext(ctx).Create(dept).Error)

	sub := &model.SubDepartment{DepartmentID: dept.DepartmentID, Name: "运维组-" + tag}
	require.NoError(t, testDB.WithContext(ctx).Create(sub).Error)

	manager := &model.Employee{Name: "经理", Email: "mgr-" + tag + "@example.com", Role: model.RoleManager, SubDepartmentID: &sub.SubDepartmentID, IsActive: true}
	staff := &model.Employee{Name: "张三", Email: "staff-" + tag + "@example.com", Role: model.RoleStaff, SubDepartmentID: &sub.SubDepartmentID, IsActive: true}
	require.NoError(t, testDB.WithContext(ctx).Create(manager).Error)
	require.NoError(t, testDB.WithContext(ctx).Create(staff).Error)

	repo := repository.NewRepository(testDB)
	resp := &model.Responsibility{
		Title:           "机房巡检",
		Cycle:           "2024-05",
		SubDepartmentID: sub.SubDepartmentID,
		CreatedByID:     manager.EmployeeID,
		IsActive:        true,
	}
	require.NoError(t, repo.Responsibility.Create(ctx, resp))

	a := &model.ResponsibilityAssignment{ResponsibilityID: resp.ResponsibilityID, StaffID: staff.EmployeeID, Status: model.AssignmentPending}
	require.NoError(t, repo.Assignment.Create(ctx, a))

	t.Cleanup(func() {
		testDB.Exec("DELETE FROM work_submissions WHERE staff_id = ?", staff.EmployeeID)
		testDB.Exec("DELETE FROM responsibility_groups WHERE sub_department_id = ?", sub.SubDepartmentID)
		testDB.Exec("DELETE FROM responsibilities WHERE sub_department_id = ?", sub.SubDepartmentID)
		testDB.Exec("DELETE FROM employees WHERE sub_department_id = ?", sub.SubDepartmentID)
		testDB.Exec("DELETE FROM sub_departments WHERE sub_department_id = ?", sub.SubDepartmentID)
		testDB.Exec("DELETE FROM departments WHERE department_id = ?", dept.DepartmentID)
	})

	return &seed{sub: sub, manager: manager, staff: staff, resp: resp, assignment: a}
}

func newSubmission(s *seed, day time.Time) *model.WorkSubmission {
	return &model.WorkSubmission{
		AssignmentID:  s.assignment.AssignmentID,
		StaffID:       s.staff.EmployeeID,
		WorkDate:      day,
		HoursWorked:   decimal.RequireFromString("6.5"),
		Status:        model.SubmissionSubmitted,
		WorkProofType: model.ProofText,
		WorkProofText: "完成巡检",
	}
}

var testDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

// ═══════════════════════════════════════════════════════════
// Test: Transaction boundary
// ═══════════════════════════════════════════════════════════

func TestInTx_RollbackDiscardsAllWrites(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var createdID string
	errAbort := errors.New("abort")
	err := repo.Tx.InTx(ctx, 5*time.Second, func(ctx context.Context, tx *repository.Repository) error {
		r := &model.Responsibility{
			Title:           "临时职责",
			Cycle:           "2024-05",
			SubDepartmentID: s.sub.SubDepartmentID,
			CreatedByID:     s.staff.EmployeeID,
			IsActive:        true,
			IsStaffCreated:  true,
		}
		if err := tx.Responsibility.Create(ctx, r); err != nil {
			return err
		}
		createdID = r.ResponsibilityID
		if err := tx.Assignment.Create(ctx, &model.ResponsibilityAssignment{
			ResponsibilityID: r.ResponsibilityID,
			StaffID:          s.staff.EmployeeID,
			Status:           model.AssignmentPending,
		}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = repo.Responsibility.GetByID(ctx, createdID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "回滚后职责不应存在")
}

func TestInTx_Timeout(t *testing.T) {
	setupSeed(t)
	repo := repository.NewRepository(testDB)

	err := repo.Tx.InTx(context.Background(), 50*time.Millisecond, func(ctx context.Context, tx *repository.Repository) error {
		return testDB.WithContext(ctx).Exec("SELECT pg_sleep(1)").Error
	})
	assert.ErrorIs(t, err, pkgerrors.ErrTxTimeout)
}

// ═══════════════════════════════════════════════════════════
// Test: Unique constraints
// ═══════════════════════════════════════════════════════════

func TestSubmission_UniquePerAssignmentDay(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Submission.Create(ctx, newSubmission(s, testDay)))

	exists, err := repo.Submission.ExistsForDay(ctx, s.assignment.AssignmentID, testDay)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Submission.Create(ctx, newSubmission(s, testDay))
	assert.True(t, pkgerrors.IsUniqueViolation(err), "同一分配同一天的第二次提交应触发唯一约束，实际 %v", err)

	// 次日不冲突
	assert.NoError(t, repo.Submission.Create(ctx, newSubmission(s, testDay.AddDate(0, 0, 1))))
}

func TestAssignment_UniquePerResponsibilityStaff(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)

	err := repo.Assignment.Create(context.Background(), &model.ResponsibilityAssignment{
		ResponsibilityID: s.resp.ResponsibilityID,
		StaffID:          s.staff.EmployeeID,
		Status:           model.AssignmentPending,
	})
	assert.True(t, pkgerrors.IsUniqueViolation(err))
}

func TestGroupItem_UniqueAndOrder(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	g := &model.ResponsibilityGroup{Name: "月度运维", SubDepartmentID: s.sub.SubDepartmentID, CreatedByID: s.manager.EmployeeID, IsActive: true}
	require.NoError(t, repo.Group.Create(ctx, g))

	_, ok, err := repo.GroupItem.MaxDisplayOrder(ctx, g.GroupID)
	require.NoError(t, err)
	assert.False(t, ok, "空分组没有最大序号")

	require.NoError(t, repo.GroupItem.CreateBatch(ctx, []model.ResponsibilityGroupItem{
		{GroupID: g.GroupID, ResponsibilityID: s.resp.ResponsibilityID, DisplayOrder: 4},
	}))

	maxOrder, ok, err := repo.GroupItem.MaxDisplayOrder(ctx, g.GroupID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, maxOrder)

	err = repo.GroupItem.CreateBatch(ctx, []model.ResponsibilityGroupItem{
		{GroupID: g.GroupID, ResponsibilityID: s.resp.ResponsibilityID, DisplayOrder: 5},
	})
	assert.True(t, pkgerrors.IsUniqueViolation(err))
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic lock
// ═══════════════════════════════════════════════════════════

func TestSubmissionUpdate_StaleCopyLoses(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	sub := newSubmission(s, testDay)
	require.NoError(t, repo.Submission.Create(ctx, sub))

	copy1, err := repo.Submission.GetByID(ctx, sub.SubmissionID)
	require.NoError(t, err)
	copy2, err := repo.Submission.GetByID(ctx, sub.SubmissionID)
	require.NoError(t, err)

	copy1.Status = model.SubmissionVerified
	require.NoError(t, repo.Submission.Update(ctx, copy1))
	assert.Equal(t, 2, copy1.Version)

	copy2.Status = model.SubmissionRejected
	assert.ErrorIs(t, repo.Submission.Update(ctx, copy2), pkgerrors.ErrOptimisticLock)

	final, err := repo.Submission.GetByID(ctx, sub.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionVerified, final.Status)
}

// ═══════════════════════════════════════════════════════════
// Test: Scoped queries
// ═══════════════════════════════════════════════════════════

func TestResponsibilityList_Scoped(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	staffFilter, err := scope.Responsibilities(scope.Identity{UserID: s.staff.EmployeeID, Role: model.RoleStaff, SubDepartmentID: &s.sub.SubDepartmentID})
	require.NoError(t, err)
	list, err := repo.Responsibility.List(ctx, staffFilter)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.resp.ResponsibilityID, list[0].ResponsibilityID)

	other := uuid.NewString()
	otherFilter, err := scope.Responsibilities(scope.Identity{UserID: s.manager.EmployeeID, Role: model.RoleManager, SubDepartmentID: &other})
	require.NoError(t, err)
	list, err = repo.Responsibility.List(ctx, otherFilter)
	require.NoError(t, err)
	assert.Empty(t, list, "其他子部门的经理不应看到该职责")
}

func TestSubmissionList_ManagerScope(t *testing.T) {
	s := setupSeed(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Submission.Create(ctx, newSubmission(s, testDay)))

	filter, err := scope.Submissions(scope.Identity{UserID: s.manager.EmployeeID, Role: model.RoleManager, SubDepartmentID: &s.sub.SubDepartmentID})
	require.NoError(t, err)
	subs, err := repo.Submission.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, s.staff.EmployeeID, subs[0].StaffID)
}
