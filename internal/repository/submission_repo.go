package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/scope"
	pkgerrors "cir-dashboard/backend/pkg/errors"
)

// SubmissionRepository 工作提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.WorkSubmission) error
	// GetByID 附带加载 Assignment.Responsibility / Staff / VerifiedBy
	GetByID(ctx context.Context, id string) (*model.WorkSubmission, error)
	List(ctx context.Context, filter scope.SubmissionFilter) ([]model.WorkSubmission, error)
	ExistsForDay(ctx context.Context, assignmentID string, day time.Time) (bool, error)
	// Update 乐观锁更新：version 不匹配返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, sub *model.WorkSubmission) error
	Delete(ctx context.Context, id string) error
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.WorkSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.WorkSubmission, error) {
	var sub model.WorkSubmission
	err := r.db.WithContext(ctx).
		Preload("Assignment.Responsibility").
		Preload("Staff").
		Preload("VerifiedBy").
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) List(ctx context.Context, filter scope.SubmissionFilter) ([]model.WorkSubmission, error) {
	var subs []model.WorkSubmission
	if filter.Empty {
		return subs, nil
	}

	db := r.db.WithContext(ctx).Model(&model.WorkSubmission{})
	if filter.StaffID != nil {
		db = db.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.SubDepartmentID != nil {
		db = db.Where("assignment_id IN (?)",
			r.db.Table("responsibility_assignments AS ra").
				Select("ra.assignment_id").
				Joins("JOIN responsibilities AS r ON r.responsibility_id = ra.responsibility_id").
				Where("r.sub_department_id = ?", *filter.SubDepartmentID))
	}
	if filter.VerifiedByID != nil {
		db = db.Where("verified_by_id = ?", *filter.VerifiedByID)
	}
	if filter.AssignmentID != nil {
		db = db.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.WorkDate != nil {
		db = db.Where("work_date = ?", *filter.WorkDate)
	}
	if filter.From != nil {
		db = db.Where("work_date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("work_date <= ?", *filter.To)
	}

	err := db.
		Preload("Assignment.Responsibility").
		Preload("Staff").
		Order("work_date DESC, created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *submissionRepo) ExistsForDay(ctx context.Context, assignmentID string, day time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WorkSubmission{}).
		Where("assignment_id = ? AND work_date = ?", assignmentID, day).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepo) Update(ctx context.Context, sub *model.WorkSubmission) error {
	oldVersion := sub.Version
	result := r.db.WithContext(ctx).
		Model(&model.WorkSubmission{}).
		Where("submission_id = ? AND version = ?", sub.SubmissionID, oldVersion).
		Updates(map[string]interface{}{
			"hours_worked":     sub.HoursWorked,
			"status":           sub.Status,
			"staff_comment":    sub.StaffComment,
			"manager_comment":  sub.ManagerComment,
			"rejection_reason": sub.RejectionReason,
			"verified_at":      sub.VerifiedAt,
			"verified_by_id":   sub.VerifiedByID,
			"work_proof_type":  sub.WorkProofType,
			"work_proof_url":   sub.WorkProofURL,
			"work_proof_text":  sub.WorkProofText,
			"version":          oldVersion + 1,
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	sub.Version = oldVersion + 1
	return nil
}

func (r *submissionRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		Delete(&model.WorkSubmission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
