package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cir-dashboard/backend/config"
	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
	"cir-dashboard/backend/pkg/clock"
	apperr "cir-dashboard/backend/pkg/errors"
)

// ── 职责分组模块业务错误 ──

var (
	ErrGroupNotFound               = apperr.NotFound("职责分组不存在")
	ErrGroupResponsibilityNotFound = apperr.NotFound("部分职责不存在")
	ErrGroupCrossSubDepartment     = apperr.Forbidden("职责属于其他子部门")
	ErrGroupItemNotFound           = apperr.NotFound("该职责不在分组中")
	ErrGroupItemExists             = apperr.BadRequest("该职责已在分组中")
	ErrGroupEmpty                  = apperr.BadRequest("不能分配空分组")
	ErrDuplicateIDs                = apperr.BadRequest("ID 列表中存在重复项")
	ErrStaffInvalid                = apperr.BadRequest("部分员工不存在、已停用或不是 STAFF 角色")
	ErrStaffOutsideSubDepartment   = apperr.Forbidden("员工不属于当前经理的子部门")
	ErrGroupAssignmentNotFound     = apperr.NotFound("该分组未分配给此员工")
)

// ResponsibilityGroupService 职责分组业务接口
// 所有改动分组的操作都先按调用者身份重新解析分组，复用同一套访问校验
type ResponsibilityGroupService interface {
	Create(ctx context.Context, id scope.Identity, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	List(ctx context.Context, id scope.Identity) ([]dto.GroupResponse, error)
	GetByID(ctx context.Context, id scope.Identity, groupID string) (*dto.GroupResponse, error)
	Update(ctx context.Context, id scope.Identity, groupID string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error)
	// Delete 删除分组及其条目、分配审计；职责本身与已展开的分配保留
	Delete(ctx context.Context, id scope.Identity, groupID string) error
	AddResponsibilities(ctx context.Context, id scope.Identity, groupID string, req *dto.AddResponsibilitiesRequest) (*dto.AddResponsibilitiesResponse, error)
	// RemoveResponsibility 仅移除关联，不删除职责与分配
	RemoveResponsibility(ctx context.Context, id scope.Identity, groupID, responsibilityID string) error
	AssignToStaff(ctx context.Context, id scope.Identity, groupID string, req *dto.AssignGroupRequest) (*dto.AssignGroupResponse, error)
	ListAssignedStaff(ctx context.Context, id scope.Identity, groupID string) ([]dto.GroupStaffResponse, error)
	// UnassignFromStaff 仅删除审计行，不删除已展开的分配
	UnassignFromStaff(ctx context.Context, id scope.Identity, groupID, staffID string) error
}

type responsibilityGroupService struct {
	cfg    *config.Config
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewResponsibilityGroupService 创建 ResponsibilityGroupService 实例
func NewResponsibilityGroupService(cfg *config.Config, repo *repository.Repository, c clock.Clock, logger *zap.Logger) ResponsibilityGroupService {
	return &responsibilityGroupService{cfg: cfg, repo: repo, clock: c, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *responsibilityGroupService) Create(ctx context.Context, id scope.Identity, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	if !id.HasSubDepartment() {
		return nil, ErrNoSubDepartment
	}
	if id.Role == model.RoleStaff {
		return nil, scope.ErrStaffGroupAccess
	}
	if err := scope.Authorize(id, scope.ResourceGroup, scope.ActionCreate, scope.Target{SubDepartmentID: id.SubDepartmentID}); err != nil {
		return nil, err
	}
	if hasDuplicates(req.ResponsibilityIDs) {
		return nil, ErrDuplicateIDs
	}
	subDeptID := *id.SubDepartmentID
	inline, err := s.buildInline(req.NewResponsibilities, subDeptID, id.UserID)
	if err != nil {
		return nil, err
	}

	group := &model.ResponsibilityGroup{
		Name:            req.Name,
		Description:     req.Description,
		Cycle:           req.Cycle,
		SubDepartmentID: subDeptID,
		CreatedByID:     id.UserID,
		IsActive:        true,
	}

	var created *model.ResponsibilityGroup
	err = s.repo.Tx.InTx(ctx, s.cfg.Tx.GroupTimeout, func(ctx context.Context, tx *repository.Repository) error {
		// 先做全部只读校验，再开始写入
		if err := checkResponsibilitiesOwned(ctx, tx, req.ResponsibilityIDs, subDeptID); err != nil {
			return err
		}
		if err := tx.Group.Create(ctx, group); err != nil {
			return err
		}

		items := make([]model.ResponsibilityGroupItem, 0, len(req.ResponsibilityIDs))
		for i, respID := range req.ResponsibilityIDs {
			items = append(items, model.ResponsibilityGroupItem{
				GroupID:          group.GroupID,
				ResponsibilityID: respID,
				DisplayOrder:     i,
			})
		}
		if err := tx.GroupItem.CreateBatch(ctx, items); err != nil {
			return err
		}

		// 内联职责的排序紧接在已有职责之后
		if _, err := attachInline(ctx, tx, group.GroupID, inline, len(req.ResponsibilityIDs)); err != nil {
			return err
		}

		var err error
		created, err = tx.Group.GetByID(ctx, group.GroupID)
		return err
	})
	if err != nil {
		return nil, s.txError(err, "创建职责分组失败", group.GroupID)
	}

	s.logger.Info("职责分组已创建",
		zap.String("group_id", created.GroupID),
		zap.Int("items", len(created.Items)),
	)
	resp := toGroupResponse(created)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *responsibilityGroupService) List(ctx context.Context, id scope.Identity) ([]dto.GroupResponse, error) {
	filter, err := scope.Groups(id)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.Group.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询职责分组失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		result = append(result, toGroupResponse(&groups[i]))
	}
	return result, nil
}

func (s *responsibilityGroupService) GetByID(ctx context.Context, id scope.Identity, groupID string) (*dto.GroupResponse, error) {
	group, err := s.findOne(ctx, id, groupID)
	if err != nil {
		return nil, err
	}
	resp := toGroupResponse(group)
	return &resp, nil
}

func (s *responsibilityGroupService) ListAssignedStaff(ctx context.Context, id scope.Identity, groupID string) ([]dto.GroupStaffResponse, error) {
	if _, err := s.findOne(ctx, id, groupID); err != nil {
		return nil, err
	}
	list, err := s.repo.GroupAssignment.ListByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("查询分组分配失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.GroupStaffResponse, 0, len(list))
	for _, ga := range list {
		item := dto.GroupStaffResponse{
			StaffID:      ga.StaffID,
			AssignedByID: ga.AssignedByID,
			AssignedAt:   formatTime(ga.CreatedAt),
		}
		if ga.Staff != nil {
			item.StaffName = ga.Staff.Name
		}
		result = append(result, item)
	}
	return result, nil
}

// ────────────────────── Update / Delete ──────────────────────

func (s *responsibilityGroupService) Update(ctx context.Context, id scope.Identity, groupID string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	group, err := s.findOne(ctx, id, groupID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Cycle != nil {
		group.Cycle = req.Cycle
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}

	if err := s.repo.Group.Update(ctx, group); err != nil {
		s.logger.Error("更新职责分组失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, apperr.FromDB(err, ErrGroupNotFound, nil)
	}
	resp := toGroupResponse(group)
	return &resp, nil
}

func (s *responsibilityGroupService) Delete(ctx context.Context, id scope.Identity, groupID string) error {
	if _, err := s.findOne(ctx, id, groupID); err != nil {
		return err
	}
	err := s.repo.Tx.InTx(ctx, s.cfg.Tx.GroupTimeout, func(ctx context.Context, tx *repository.Repository) error {
		if err := tx.GroupItem.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		if err := tx.GroupAssignment.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		return tx.Group.Delete(ctx, groupID)
	})
	if err != nil {
		return s.txError(err, "删除职责分组失败", groupID)
	}
	s.logger.Info("职责分组已删除", zap.String("group_id", groupID), zap.String("operator_id", id.UserID))
	return nil
}

// ────────────────────── AddResponsibilities ──────────────────────

func (s *responsibilityGroupService) AddResponsibilities(ctx context.Context, id scope.Identity, groupID string, req *dto.AddResponsibilitiesRequest) (*dto.AddResponsibilitiesResponse, error) {
	group, err := s.findOne(ctx, id, groupID)
	if err != nil {
		return nil, err
	}
	if hasDuplicates(req.ResponsibilityIDs) {
		return nil, ErrDuplicateIDs
	}
	inline, err := s.buildInline(req.NewResponsibilities, group.SubDepartmentID, id.UserID)
	if err != nil {
		return nil, err
	}

	result := &dto.AddResponsibilitiesResponse{GroupID: groupID, AddedItems: []dto.GroupItemResponse{}}
	err = s.repo.Tx.InTx(ctx, s.cfg.Tx.GroupTimeout, func(ctx context.Context, tx *repository.Repository) error {
		order := 0
		if req.DisplayOrderStart != nil {
			order = *req.DisplayOrderStart
		} else if maxOrder, ok, err := tx.GroupItem.MaxDisplayOrder(ctx, groupID); err != nil {
			return err
		} else if ok {
			order = maxOrder + 1
		}

		if err := checkResponsibilitiesOwned(ctx, tx, req.ResponsibilityIDs, group.SubDepartmentID); err != nil {
			return err
		}

		// 已在分组中的职责静默跳过
		existing, err := tx.GroupItem.ListByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		present := make(map[string]bool, len(existing))
		for _, item := range existing {
			present[item.ResponsibilityID] = true
		}

		var items []model.ResponsibilityGroupItem
		for _, respID := range req.ResponsibilityIDs {
			if present[respID] {
				result.Skipped = append(result.Skipped, respID)
				continue
			}
			items = append(items, model.ResponsibilityGroupItem{
				GroupID:          groupID,
				ResponsibilityID: respID,
				DisplayOrder:     order,
			})
			order++
		}
		if err := tx.GroupItem.CreateBatch(ctx, items); err != nil {
			return err
		}

		attached, err := attachInline(ctx, tx, groupID, inline, order)
		if err != nil {
			return err
		}
		items = append(items, attached...)

		for i := range items {
			result.AddedItems = append(result.AddedItems, toGroupItemResponse(&items[i]))
		}
		return nil
	})
	if err != nil {
		return nil, s.txError(err, "追加分组职责失败", groupID)
	}
	result.TotalAdded = len(result.AddedItems)
	return result, nil
}

func (s *responsibilityGroupService) RemoveResponsibility(ctx context.Context, id scope.Identity, groupID, responsibilityID string) error {
	if _, err := s.findOne(ctx, id, groupID); err != nil {
		return err
	}
	if err := s.repo.GroupItem.Delete(ctx, groupID, responsibilityID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("移除分组职责失败", zap.String("group_id", groupID), zap.Error(err))
		}
		return apperr.FromDB(err, ErrGroupItemNotFound, nil)
	}
	return nil
}

// ────────────────────── AssignToStaff ──────────────────────

// AssignToStaff 员工 × 条目逐一展开为职责分配；已存在的 (职责, 员工) 跳过并计数
// 每名员工至多一条分组分配审计行，且不影响分配的创建
func (s *responsibilityGroupService) AssignToStaff(ctx context.Context, id scope.Identity, groupID string, req *dto.AssignGroupRequest) (*dto.AssignGroupResponse, error) {
	group, err := s.findOne(ctx, id, groupID)
	if err != nil {
		return nil, err
	}
	if len(group.Items) == 0 {
		return nil, ErrGroupEmpty
	}
	if len(req.StaffIDs) == 0 || hasDuplicates(req.StaffIDs) {
		return nil, ErrDuplicateIDs
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	// 写入前完成全部员工校验
	staffMembers, err := s.repo.Employee.ListActiveStaff(ctx, req.StaffIDs)
	if err != nil {
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	if len(staffMembers) != len(req.StaffIDs) {
		return nil, ErrStaffInvalid
	}
	if id.Role == model.RoleManager {
		for _, staff := range staffMembers {
			if !id.InSubDepartment(staff.SubDepartmentID) {
				return nil, apperr.Wrapf(ErrStaffOutsideSubDepartment, "员工 %s", staff.EmployeeID)
			}
		}
	}

	respIDs := make([]string, 0, len(group.Items))
	for _, item := range group.Items {
		respIDs = append(respIDs, item.ResponsibilityID)
	}

	var result *dto.AssignGroupResponse
	err = s.repo.Tx.InTx(ctx, s.cfg.Tx.BulkAssignTimeout, func(ctx context.Context, tx *repository.Repository) error {
		res := &dto.AssignGroupResponse{GroupID: groupID, AssignedTo: make([]dto.StaffAssignmentResult, 0, len(staffMembers))}
		for _, staff := range staffMembers {
			staffResult, err := assignItemsToStaff(ctx, tx, respIDs, staff, dueDate)
			if err != nil {
				return err
			}

			if _, err := tx.GroupAssignment.Get(ctx, groupID, staff.EmployeeID); errors.Is(err, gorm.ErrRecordNotFound) {
				ga := &model.ResponsibilityGroupAssignment{
					GroupID:      groupID,
					StaffID:      staff.EmployeeID,
					AssignedByID: id.UserID,
				}
				if err := tx.GroupAssignment.Create(ctx, ga); err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			res.TotalAssignmentsCreated += len(staffResult.AssignmentsCreated)
			res.SkippedDuplicates += len(staffResult.Skipped)
			res.AssignedTo = append(res.AssignedTo, staffResult)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, s.txError(err, "分组批量分配失败", groupID)
	}

	s.logger.Info("分组已分配给员工",
		zap.String("group_id", groupID),
		zap.Int("staff", len(staffMembers)),
		zap.Int("created", result.TotalAssignmentsCreated),
		zap.Int("skipped", result.SkippedDuplicates),
	)
	return result, nil
}

func (s *responsibilityGroupService) UnassignFromStaff(ctx context.Context, id scope.Identity, groupID, staffID string) error {
	if _, err := s.findOne(ctx, id, groupID); err != nil {
		return err
	}
	if err := s.repo.GroupAssignment.Delete(ctx, groupID, staffID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("取消分组分配失败", zap.String("group_id", groupID), zap.Error(err))
		}
		return apperr.FromDB(err, ErrGroupAssignmentNotFound, nil)
	}
	return nil
}

// ── 内部辅助 ──

// findOne 分组存在性优先于角色校验；员工一律拒绝，经理限本子部门
func (s *responsibilityGroupService) findOne(ctx context.Context, id scope.Identity, groupID string) (*model.ResponsibilityGroup, error) {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询职责分组失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	target := scope.Target{SubDepartmentID: &group.SubDepartmentID}
	if err := scope.Authorize(id, scope.ResourceGroup, scope.ActionManage, target); err != nil {
		return nil, err
	}
	return group, nil
}

// buildInline 在事务外完成内联职责的日期校验
func (s *responsibilityGroupService) buildInline(reqs []dto.InlineResponsibilityRequest, subDeptID, creatorID string) ([]*model.Responsibility, error) {
	out := make([]*model.Responsibility, 0, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		start, err := parseOptionalDate(r.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseOptionalDate(r.EndDate)
		if err != nil {
			return nil, err
		}
		if err := checkRange(start, end); err != nil {
			return nil, apperr.Wrapf(ErrInvalidRange, "%s", r.Title)
		}
		out = append(out, &model.Responsibility{
			Title:           r.Title,
			Description:     r.Description,
			Cycle:           r.Cycle,
			SubDepartmentID: subDeptID,
			CreatedByID:     creatorID,
			StartDate:       start,
			EndDate:         end,
			IsActive:        true,
			IsStaffCreated:  false,
		})
	}
	return out, nil
}

// checkResponsibilitiesOwned 所有职责必须存在且属于 subDeptID
func checkResponsibilitiesOwned(ctx context.Context, tx *repository.Repository, ids []string, subDeptID string) error {
	if len(ids) == 0 {
		return nil
	}
	resps, err := tx.Responsibility.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(resps) != len(ids) {
		return ErrGroupResponsibilityNotFound
	}
	for _, r := range resps {
		if r.SubDepartmentID != subDeptID {
			return apperr.Wrapf(ErrGroupCrossSubDepartment, "职责 %s", r.ResponsibilityID)
		}
	}
	return nil
}

// attachInline 逐个创建内联职责并以 startOrder 起的连续排序挂入分组
func attachInline(ctx context.Context, tx *repository.Repository, groupID string, inline []*model.Responsibility, startOrder int) ([]model.ResponsibilityGroupItem, error) {
	items := make([]model.ResponsibilityGroupItem, 0, len(inline))
	for i, resp := range inline {
		if err := tx.Responsibility.Create(ctx, resp); err != nil {
			return nil, err
		}
		item := model.ResponsibilityGroupItem{
			GroupID:          groupID,
			ResponsibilityID: resp.ResponsibilityID,
			DisplayOrder:     startOrder + i,
			Responsibility:   resp,
		}
		if err := tx.GroupItem.CreateBatch(ctx, []model.ResponsibilityGroupItem{item}); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// assignItemsToStaff 为单个员工展开分组条目
func assignItemsToStaff(ctx context.Context, tx *repository.Repository, respIDs []string, staff model.Employee, dueDate *time.Time) (dto.StaffAssignmentResult, error) {
	result := dto.StaffAssignmentResult{
		StaffID:            staff.EmployeeID,
		StaffName:          staff.Name,
		AssignmentsCreated: []string{},
		Skipped:            []string{},
	}

	existing, err := tx.Assignment.ListByStaffAndResponsibilities(ctx, staff.EmployeeID, respIDs)
	if err != nil {
		return result, err
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a.ResponsibilityID] = true
	}

	for _, respID := range respIDs {
		if has[respID] {
			result.Skipped = append(result.Skipped, respID)
			continue
		}
		a := &model.ResponsibilityAssignment{
			ResponsibilityID: respID,
			StaffID:          staff.EmployeeID,
			Status:           model.AssignmentPending,
			DueDate:          dueDate,
		}
		if err := tx.Assignment.Create(ctx, a); err != nil {
			return result, err
		}
		result.AssignmentsCreated = append(result.AssignmentsCreated, a.AssignmentID)
	}
	return result, nil
}

// txError 记录非业务错误并翻译持久层错误
func (s *responsibilityGroupService) txError(err error, msg, groupID string) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.logger.Error(msg, zap.String("group_id", groupID), zap.Error(err))
	}
	return apperr.FromDB(err, ErrGroupNotFound, ErrGroupItemExists)
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}
