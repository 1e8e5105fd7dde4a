package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
	"cir-dashboard/backend/pkg/clock"
	apperr "cir-dashboard/backend/pkg/errors"
)

// ── 职责模块业务错误 ──

var (
	ErrResponsibilityNotFound = apperr.NotFound("职责不存在")
	ErrStaffDateNotToday      = apperr.BadRequest("员工自建职责的起止日期只能是当天")
	ErrAssignmentExists       = apperr.BadRequest("该员工已分配此职责")
	ErrEmployeeNotFound       = apperr.NotFound("员工不存在")
)

// ResponsibilityService 职责业务接口
type ResponsibilityService interface {
	// Create 员工自建：日期固定为当天，并在同一事务内为自己生成分配
	// 经理 / 管理员：可设置任意有效期，不自动分配
	Create(ctx context.Context, id scope.Identity, req *dto.CreateResponsibilityRequest) (*dto.CreateResponsibilityResponse, error)
	GetByID(ctx context.Context, id scope.Identity, responsibilityID string) (*dto.ResponsibilityResponse, error)
	List(ctx context.Context, id scope.Identity) ([]dto.ResponsibilityResponse, error)
	// ListActiveForDate 可见范围内、在 date 当天有效的职责；date 缺省为当天
	ListActiveForDate(ctx context.Context, id scope.Identity, date *string) ([]dto.ResponsibilityResponse, error)
	IsVisibleToUser(ctx context.Context, id scope.Identity, responsibilityID string, date *string) (*dto.VisibilityResponse, error)
	ListAssignees(ctx context.Context, id scope.Identity, responsibilityID string) ([]dto.AssignmentResponse, error)
}

type responsibilityService struct {
	repo      *repository.Repository
	clock     clock.Clock
	txTimeout time.Duration
	logger    *zap.Logger
}

// NewResponsibilityService 创建 ResponsibilityService 实例
func NewResponsibilityService(repo *repository.Repository, c clock.Clock, txTimeout time.Duration, logger *zap.Logger) ResponsibilityService {
	return &responsibilityService{repo: repo, clock: c, txTimeout: txTimeout, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *responsibilityService) Create(ctx context.Context, id scope.Identity, req *dto.CreateResponsibilityRequest) (*dto.CreateResponsibilityResponse, error) {
	if !id.HasSubDepartment() {
		return nil, ErrNoSubDepartment
	}
	if err := scope.Authorize(id, scope.ResourceResponsibility, scope.ActionCreate, scope.Target{}); err != nil {
		return nil, err
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	resp := &model.Responsibility{
		Title:           req.Title,
		Description:     req.Description,
		Cycle:           req.Cycle,
		SubDepartmentID: *id.SubDepartmentID,
		CreatedByID:     id.UserID,
		IsActive:        true,
	}
	if resp.Cycle == "" {
		resp.Cycle = clock.Today(s.clock).Format(clock.CycleLayout)
	}

	switch id.Role {
	case model.RoleStaff:
		return s.createForStaff(ctx, id, resp, start, end)
	case model.RoleManager, model.RoleAdmin:
		return s.createWithRange(ctx, resp, start, end)
	default:
		return nil, scope.ErrUnknownRole
	}
}

// createForStaff 员工自建：职责与自身分配同事务写入
func (s *responsibilityService) createForStaff(ctx context.Context, id scope.Identity, resp *model.Responsibility, start, end *time.Time) (*dto.CreateResponsibilityResponse, error) {
	today := clock.Today(s.clock)
	for _, d := range []*time.Time{start, end} {
		if d != nil && !clock.SameDay(*d, today) {
			return nil, apperr.Wrapf(ErrStaffDateNotToday, "今天是 %s", clock.FormatDate(today))
		}
	}

	resp.StartDate = &today
	resp.EndDate = &today
	resp.IsStaffCreated = true

	assignment := &model.ResponsibilityAssignment{
		StaffID: id.UserID,
		Status:  model.AssignmentPending,
		DueDate: &today,
	}

	err := s.repo.Tx.InTx(ctx, s.txTimeout, func(ctx context.Context, tx *repository.Repository) error {
		if err := tx.Responsibility.Create(ctx, resp); err != nil {
			return err
		}
		assignment.ResponsibilityID = resp.ResponsibilityID
		return tx.Assignment.Create(ctx, assignment)
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal && !errors.Is(err, apperr.ErrTxTimeout) {
			s.logger.Error("员工自建职责失败", zap.String("staff_id", id.UserID), zap.Error(err))
		}
		return nil, apperr.FromDB(err, nil, ErrAssignmentExists)
	}

	s.logger.Info("员工自建职责",
		zap.String("responsibility_id", resp.ResponsibilityID),
		zap.String("staff_id", id.UserID),
	)

	ar := toAssignmentResponse(assignment)
	return &dto.CreateResponsibilityResponse{
		Responsibility: toResponsibilityResponse(resp),
		Assignment:     &ar,
	}, nil
}

func (s *responsibilityService) createWithRange(ctx context.Context, resp *model.Responsibility, start, end *time.Time) (*dto.CreateResponsibilityResponse, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	resp.StartDate = start
	resp.EndDate = end

	if err := s.repo.Responsibility.Create(ctx, resp); err != nil {
		s.logger.Error("创建职责失败", zap.Error(err))
		return nil, apperr.FromDB(err, nil, nil)
	}
	return &dto.CreateResponsibilityResponse{Responsibility: toResponsibilityResponse(resp)}, nil
}

// ────────────────────── Query ──────────────────────

func (s *responsibilityService) GetByID(ctx context.Context, id scope.Identity, responsibilityID string) (*dto.ResponsibilityResponse, error) {
	resp, err := s.authorizedGet(ctx, id, responsibilityID)
	if err != nil {
		return nil, err
	}
	r := toResponsibilityResponse(resp)
	return &r, nil
}

func (s *responsibilityService) List(ctx context.Context, id scope.Identity) ([]dto.ResponsibilityResponse, error) {
	filter, err := scope.Responsibilities(id)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

func (s *responsibilityService) ListActiveForDate(ctx context.Context, id scope.Identity, date *string) ([]dto.ResponsibilityResponse, error) {
	day, err := dateOrToday(s.clock, date)
	if err != nil {
		return nil, err
	}
	filter, err := scope.Responsibilities(id)
	if err != nil {
		return nil, err
	}
	filter.ActiveOn = &day
	return s.list(ctx, filter)
}

func (s *responsibilityService) list(ctx context.Context, filter scope.ResponsibilityFilter) ([]dto.ResponsibilityResponse, error) {
	resps, err := s.repo.Responsibility.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询职责列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ResponsibilityResponse, 0, len(resps))
	for i := range resps {
		result = append(result, toResponsibilityResponse(&resps[i]))
	}
	return result, nil
}

// IsVisibleToUser 员工：启用、持有分配且日期落在有效期内
// 经理 / 管理员不做日期检查，只看访问范围
func (s *responsibilityService) IsVisibleToUser(ctx context.Context, id scope.Identity, responsibilityID string, date *string) (*dto.VisibilityResponse, error) {
	day, err := dateOrToday(s.clock, date)
	if err != nil {
		return nil, err
	}
	resp, err := s.repo.Responsibility.GetByID(ctx, responsibilityID)
	if err != nil {
		return nil, s.translate(err, "查询职责失败", responsibilityID)
	}

	result := &dto.VisibilityResponse{ResponsibilityID: responsibilityID, Date: clock.FormatDate(day)}
	switch id.Role {
	case model.RoleStaff:
		if !resp.IsActive || !resp.WithinWindow(day) {
			return result, nil
		}
		assigned, err := s.isAssigned(ctx, responsibilityID, id.UserID)
		if err != nil {
			return nil, err
		}
		result.Visible = assigned
	case model.RoleManager, model.RoleAdmin:
		target := scope.Target{SubDepartmentID: &resp.SubDepartmentID}
		result.Visible = scope.Authorize(id, scope.ResourceResponsibility, scope.ActionView, target) == nil
	default:
		return nil, scope.ErrUnknownRole
	}
	return result, nil
}

func (s *responsibilityService) ListAssignees(ctx context.Context, id scope.Identity, responsibilityID string) ([]dto.AssignmentResponse, error) {
	if id.Role == model.RoleStaff {
		return nil, scope.ErrNotOwner
	}
	if _, err := s.authorizedGet(ctx, id, responsibilityID); err != nil {
		return nil, err
	}
	list, err := s.repo.Assignment.ListByResponsibility(ctx, responsibilityID)
	if err != nil {
		s.logger.Error("查询职责分配失败", zap.String("id", responsibilityID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, toAssignmentResponse(&list[i]))
	}
	return result, nil
}

// ── 内部辅助 ──

// authorizedGet 查询职责并按身份校验访问权限
func (s *responsibilityService) authorizedGet(ctx context.Context, id scope.Identity, responsibilityID string) (*model.Responsibility, error) {
	resp, err := s.repo.Responsibility.GetByID(ctx, responsibilityID)
	if err != nil {
		return nil, s.translate(err, "查询职责失败", responsibilityID)
	}

	target := scope.Target{SubDepartmentID: &resp.SubDepartmentID}
	if id.Role == model.RoleStaff {
		if target.Assigned, err = s.isAssigned(ctx, responsibilityID, id.UserID); err != nil {
			return nil, err
		}
	}
	if err := scope.Authorize(id, scope.ResourceResponsibility, scope.ActionView, target); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *responsibilityService) isAssigned(ctx context.Context, responsibilityID, staffID string) (bool, error) {
	_, err := s.repo.Assignment.GetByResponsibilityAndStaff(ctx, responsibilityID, staffID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	s.logger.Error("查询职责分配失败", zap.String("responsibility_id", responsibilityID), zap.Error(err))
	return false, err
}

func (s *responsibilityService) translate(err error, msg, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResponsibilityNotFound
	}
	s.logger.Error(msg, zap.String("id", id), zap.Error(err))
	return err
}
