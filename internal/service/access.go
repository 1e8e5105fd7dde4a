package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
)

// authorizeStaffRecord 校验能否查看某员工的工时 / 日历 / 导出
// 员工只能看自己，此时不查库，避免暴露其他员工是否存在
func authorizeStaffRecord(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id scope.Identity, staffID string) (*model.Employee, error) {
	if id.Role == model.RoleStaff {
		if err := scope.Authorize(id, scope.ResourceStaffRecord, scope.ActionView, scope.Target{OwnerID: staffID}); err != nil {
			return nil, err
		}
	}

	staff, err := repo.Employee.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		logger.Error("查询员工失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}

	target := scope.Target{OwnerID: staff.EmployeeID, SubDepartmentID: staff.SubDepartmentID}
	if err := scope.Authorize(id, scope.ResourceStaffRecord, scope.ActionView, target); err != nil {
		return nil, err
	}
	return staff, nil
}
