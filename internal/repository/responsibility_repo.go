package repository

import (
	"context"

	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/scope"
)

// ResponsibilityRepository 职责数据访问接口
type ResponsibilityRepository interface {
	Create(ctx context.Context, resp *model.Responsibility) error
	GetByID(ctx context.Context, id string) (*model.Responsibility, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Responsibility, error)
	List(ctx context.Context, filter scope.ResponsibilityFilter) ([]model.Responsibility, error)
}

// responsibilityRepo ResponsibilityRepository 的 GORM 实现
type responsibilityRepo struct {
	db *gorm.DB
}

// NewResponsibilityRepo 创建 ResponsibilityRepository 实例
func NewResponsibilityRepo(db *gorm.DB) ResponsibilityRepository {
	return &responsibilityRepo{db: db}
}

func (r *responsibilityRepo) Create(ctx context.Context, resp *model.Responsibility) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *responsibilityRepo) GetByID(ctx context.Context, id string) (*model.Responsibility, error) {
	var resp model.Responsibility
	err := r.db.WithContext(ctx).
		Where("responsibility_id = ?", id).
		First(&resp).Error
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responsibilityRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Responsibility, error) {
	var resps []model.Responsibility
	if len(ids) == 0 {
		return resps, nil
	}
	err := r.db.WithContext(ctx).
		Where("responsibility_id IN ?", ids).
		Find(&resps).Error
	return resps, err
}

func (r *responsibilityRepo) List(ctx context.Context, filter scope.ResponsibilityFilter) ([]model.Responsibility, error) {
	var resps []model.Responsibility
	if filter.Empty {
		return resps, nil
	}

	db := r.db.WithContext(ctx).Model(&model.Responsibility{})
	if filter.AssignedStaffID != nil {
		db = db.Where("responsibility_id IN (?)",
			r.db.Model(&model.ResponsibilityAssignment{}).
				Select("responsibility_id").
				Where("staff_id = ?", *filter.AssignedStaffID))
	}
	if filter.SubDepartmentID != nil {
		db = db.Where("sub_department_id = ?", *filter.SubDepartmentID)
	}
	if filter.ActiveOn != nil {
		// 缺失的一侧日期视为无界：未设置日期的职责总是有效
		db = db.Where("is_active = ?", true).
			Where("(start_date IS NULL OR start_date <= ?) AND (end_date IS NULL OR end_date >= ?)",
				*filter.ActiveOn, *filter.ActiveOn)
	}

	err := db.Order("created_at DESC").Find(&resps).Error
	return resps, err
}
