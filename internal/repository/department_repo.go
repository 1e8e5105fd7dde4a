package repository

import (
	"context"

	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
)

// DepartmentRepository 子部门只读访问接口
// 部门的增删改由外部管理后台负责
type DepartmentRepository interface {
	// GetSubDepartment 附带加载所属部门
	GetSubDepartment(ctx context.Context, id string) (*model.SubDepartment, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) GetSubDepartment(ctx context.Context, id string) (*model.SubDepartment, error) {
	var sub model.SubDepartment
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("sub_department_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
