package repository

import (
	"context"

	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
)

// EmployeeRepository 员工只读访问接口
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	// ListActiveStaff 按 ID 批量查询在职的 STAFF 角色员工；不满足条件的 ID 不出现在结果中
	ListActiveStaff(ctx context.Context, ids []string) ([]model.Employee, error)
}

// employeeRepo EmployeeRepository 的 GORM 实现
type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) ListActiveStaff(ctx context.Context, ids []string) ([]model.Employee, error) {
	var emps []model.Employee
	if len(ids) == 0 {
		return emps, nil
	}
	err := r.db.WithContext(ctx).
		Where("employee_id IN ? AND role = ? AND is_active = ?", ids, model.RoleStaff, true).
		Order("name ASC").
		Find(&emps).Error
	return emps, err
}
