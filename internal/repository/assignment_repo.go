package repository

import (
	"context"

	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
)

// AssignmentRepository 职责分配数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.ResponsibilityAssignment) error
	// GetByID 附带加载 Responsibility
	GetByID(ctx context.Context, id string) (*model.ResponsibilityAssignment, error)
	GetByResponsibilityAndStaff(ctx context.Context, responsibilityID, staffID string) (*model.ResponsibilityAssignment, error)
	// ListByStaffAndResponsibilities 查询员工在给定职责集合上已有的分配
	ListByStaffAndResponsibilities(ctx context.Context, staffID string, responsibilityIDs []string) ([]model.ResponsibilityAssignment, error)
	ListByResponsibility(ctx context.Context, responsibilityID string) ([]model.ResponsibilityAssignment, error)
	ListByStaff(ctx context.Context, staffID string) ([]model.ResponsibilityAssignment, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.ResponsibilityAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.ResponsibilityAssignment, error) {
	var a model.ResponsibilityAssignment
	err := r.db.WithContext(ctx).
		Preload("Responsibility").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) GetByResponsibilityAndStaff(ctx context.Context, responsibilityID, staffID string) (*model.ResponsibilityAssignment, error) {
	var a model.ResponsibilityAssignment
	err := r.db.WithContext(ctx).
		Where("responsibility_id = ? AND staff_id = ?", responsibilityID, staffID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByStaffAndResponsibilities(ctx context.Context, staffID string, responsibilityIDs []string) ([]model.ResponsibilityAssignment, error) {
	var list []model.ResponsibilityAssignment
	if len(responsibilityIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND responsibility_id IN ?", staffID, responsibilityIDs).
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByResponsibility(ctx context.Context, responsibilityID string) ([]model.ResponsibilityAssignment, error) {
	var list []model.ResponsibilityAssignment
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("responsibility_id = ?", responsibilityID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByStaff(ctx context.Context, staffID string) ([]model.ResponsibilityAssignment, error) {
	var list []model.ResponsibilityAssignment
	err := r.db.WithContext(ctx).
		Preload("Responsibility").
		Where("staff_id = ?", staffID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
