package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/scope"
	pkgerrors "cir-dashboard/backend/pkg/errors"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewRepository(db), mock
}

// ────────────────────── Transactor ──────────────────────

func TestInTx_Commit(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "responsibility_group_items"`)).
		WithArgs("g-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.Tx.InTx(context.Background(), time.Second, func(ctx context.Context, tx *Repository) error {
		return tx.GroupItem.DeleteByGroup(ctx, "g-1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollbackOnDomainError(t *testing.T) {
	repo, mock := newMockRepository(t)
	errAbort := pkgerrors.Forbidden("中止")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "responsibility_group_items"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.Tx.InTx(context.Background(), time.Second, func(ctx context.Context, tx *Repository) error {
		if err := tx.GroupItem.DeleteByGroup(ctx, "g-1"); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_TimeoutIsRetryable(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.Tx.InTx(context.Background(), 20*time.Millisecond, func(ctx context.Context, tx *Repository) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, pkgerrors.ErrTxTimeout)
}

// ────────────────────── Submission ──────────────────────

func TestSubmissionUpdate_VersionMismatch(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "work_submissions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	sub := &model.WorkSubmission{
		SubmissionID: "s-1",
		HoursWorked:  decimal.NewFromInt(4),
		Status:       model.SubmissionVerified,
	}
	sub.Version = 3

	err := repo.Submission.Update(context.Background(), sub)
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
	assert.Equal(t, 3, sub.Version, "冲突时不应自增本地版本")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionUpdate_BumpsVersion(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "work_submissions" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sub := &model.WorkSubmission{SubmissionID: "s-1", HoursWorked: decimal.NewFromInt(4)}
	sub.Version = 1

	require.NoError(t, repo.Submission.Update(context.Background(), sub))
	assert.Equal(t, 2, sub.Version)
}

func TestSubmissionExistsForDay(t *testing.T) {
	repo, mock := newMockRepository(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "work_submissions"`)).
		WithArgs("a-7", day).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.Submission.ExistsForDay(context.Background(), "a-7", day)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSubmissionList_EmptyFilterSkipsQuery(t *testing.T) {
	repo, mock := newMockRepository(t)

	subs, err := repo.Submission.List(context.Background(), scope.SubmissionFilter{Empty: true})
	require.NoError(t, err)
	assert.Empty(t, subs)
	// 未登记任何期望：若发出查询 sqlmock 会报错
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ────────────────────── Group ──────────────────────

func TestGroupItemDelete_MissingLink(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "responsibility_group_items"`)).
		WithArgs("g-1", "r-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.GroupItem.Delete(context.Background(), "g-1", "r-9")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGroupItemMaxDisplayOrder(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(display_order)`)).
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(display_order)`)).
		WithArgs("g-2").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))

	_, ok, err := repo.GroupItem.MaxDisplayOrder(context.Background(), "g-1")
	require.NoError(t, err)
	assert.False(t, ok, "空分组不应有最大排序值")

	maxOrder, ok, err := repo.GroupItem.MaxDisplayOrder(context.Background(), "g-2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, maxOrder)
}

func TestEmployeeListActiveStaff_NoIDs(t *testing.T) {
	repo, mock := newMockRepository(t)

	emps, err := repo.Employee.ListActiveStaff(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, emps)
	assert.NoError(t, mock.ExpectationsWereMet())
}
