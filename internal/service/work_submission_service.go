package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
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

// ── 工作提交模块业务错误 ──

var (
	ErrSubmissionNotFound       = apperr.NotFound("工作提交不存在")
	ErrAssignmentNotFound       = apperr.NotFound("职责分配不存在")
	ErrStaffIDRequired          = apperr.BadRequest("缺少员工 ID")
	ErrAssignmentIDRequired     = apperr.BadRequest("缺少职责分配 ID")
	ErrAssignmentNotOwned       = apperr.Forbidden("该职责分配不属于此员工")
	ErrWorkDateNotToday         = apperr.BadRequest("只能提交当天的工作，不能补交或预交")
	ErrResponsibilityNotStarted = apperr.BadRequest("职责尚未开始")
	ErrResponsibilityExpired    = apperr.BadRequest("职责已过期")
	ErrDuplicateSubmission      = apperr.BadRequest("今天已提交过该职责的工作，请使用更新接口")
	ErrInvalidHours             = apperr.BadRequest("工时必须大于 0 且不超过 24")
	ErrInvalidProofType         = apperr.BadRequest("工作证明类型只能是 PDF / IMAGE / TEXT")
	ErrProofTextRequired        = apperr.BadRequest("TEXT 类型的工作证明需要填写文本")
	ErrProofURLRequired         = apperr.BadRequest("PDF / IMAGE 类型的工作证明需要提供链接")
	ErrStaffEditVerification    = apperr.Forbidden("员工不能修改审核字段")
	ErrUseVerifyEndpoint        = apperr.BadRequest("审核字段不能直接修改，请使用 POST /work-submissions/:id/verify")
	ErrSubmissionNotEditable    = apperr.BadRequest("只能修改待审核的提交，被驳回的提交请走重新提交")
	ErrCannotVerify             = apperr.BadRequest("只能审核待审核状态的提交")
	ErrCannotResubmit           = apperr.BadRequest("只能重新提交被驳回的提交")
	ErrCalendarRangeTooLong     = apperr.BadRequest("日历查询区间过长")
)

var maxHoursPerDay = decimal.NewFromInt(24)

// WorkSubmissionService 工作提交业务接口
type WorkSubmissionService interface {
	Create(ctx context.Context, id scope.Identity, req *dto.CreateWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error)
	List(ctx context.Context, id scope.Identity, req *dto.WorkSubmissionListRequest) ([]dto.WorkSubmissionResponse, error)
	GetByID(ctx context.Context, id scope.Identity, submissionID string) (*dto.WorkSubmissionResponse, error)
	Update(ctx context.Context, id scope.Identity, submissionID string, req *dto.UpdateWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error)
	Delete(ctx context.Context, id scope.Identity, submissionID string) error
	Verify(ctx context.Context, id scope.Identity, submissionID string, req *dto.VerifyWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error)
	Resubmit(ctx context.Context, id scope.Identity, submissionID string, req *dto.ResubmitWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error)

	ListDaily(ctx context.Context, id scope.Identity, date string) ([]dto.WorkSubmissionResponse, error)
	ListToday(ctx context.Context, id scope.Identity) ([]dto.WorkSubmissionResponse, error)
	DailyTotalHours(ctx context.Context, id scope.Identity, staffID, date string) (*dto.DailyHoursResponse, error)
	CalendarView(ctx context.Context, id scope.Identity, staffID string, q *dto.DateRangeQuery) (*dto.CalendarResponse, error)
}

type workSubmissionService struct {
	cfg    *config.Config
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewWorkSubmissionService 创建 WorkSubmissionService 实例
func NewWorkSubmissionService(cfg *config.Config, repo *repository.Repository, c clock.Clock, logger *zap.Logger) WorkSubmissionService {
	return &workSubmissionService{cfg: cfg, repo: repo, clock: c, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *workSubmissionService) Create(ctx context.Context, id scope.Identity, req *dto.CreateWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error) {
	// 1. 确定提交人：员工缺省为自己
	var staffID string
	switch {
	case req.StaffID != nil && *req.StaffID != "":
		staffID = *req.StaffID
	case id.Role == model.RoleStaff:
		staffID = id.UserID
	default:
		return nil, ErrStaffIDRequired
	}

	// 2. 角色与归属：经理不能提交，员工只能替自己提交
	if err := scope.Authorize(id, scope.ResourceSubmission, scope.ActionCreate, scope.Target{OwnerID: staffID}); err != nil {
		return nil, err
	}
	if req.AssignmentID == "" {
		return nil, ErrAssignmentIDRequired
	}
	if err := validateProof(req.HoursWorked, model.ProofType(req.WorkProofType), req.WorkProofURL, req.WorkProofText); err != nil {
		return nil, err
	}

	// 3. 分配存在且属于该员工
	assignment, err := s.repo.Assignment.GetByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询职责分配失败", zap.String("assignment_id", req.AssignmentID), zap.Error(err))
		return nil, err
	}
	if assignment.StaffID != staffID {
		return nil, ErrAssignmentNotOwned
	}

	// 4. 工作日期固定为服务端当天
	today := clock.Today(s.clock)
	if req.WorkDate != nil && *req.WorkDate != "" {
		requested, err := clock.ParseDate(*req.WorkDate)
		if err != nil {
			return nil, apperr.Wrapf(ErrInvalidDate, "%s", *req.WorkDate)
		}
		if !clock.SameDay(requested, today) {
			return nil, apperr.Wrapf(ErrWorkDateNotToday, "今天是 %s", clock.FormatDate(today))
		}
	}

	// 5. 职责有效期复核
	if resp := assignment.Responsibility; resp != nil {
		if resp.NotStartedOn(today) {
			return nil, apperr.Wrapf(ErrResponsibilityNotStarted, "开始日期 %s", clock.FormatDate(*resp.StartDate))
		}
		if resp.ExpiredOn(today) {
			return nil, apperr.Wrapf(ErrResponsibilityExpired, "结束日期 %s", clock.FormatDate(*resp.EndDate))
		}
	}

	// 6. 同一分配每天至多一条；并发重复由唯一约束兜底
	exists, err := s.repo.Submission.ExistsForDay(ctx, assignment.AssignmentID, today)
	if err != nil {
		s.logger.Error("查询当日提交失败", zap.String("assignment_id", assignment.AssignmentID), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSubmission
	}

	sub := &model.WorkSubmission{
		AssignmentID:  assignment.AssignmentID,
		StaffID:       staffID,
		WorkDate:      today,
		HoursWorked:   req.HoursWorked,
		Status:        model.SubmissionSubmitted,
		StaffComment:  req.StaffComment,
		WorkProofType: model.ProofType(req.WorkProofType),
		WorkProofURL:  req.WorkProofURL,
		WorkProofText: req.WorkProofText,
	}
	if err := s.repo.Submission.Create(ctx, sub); err != nil {
		if !apperr.IsUniqueViolation(err) {
			s.logger.Error("创建工作提交失败", zap.String("assignment_id", assignment.AssignmentID), zap.Error(err))
		}
		return nil, apperr.FromDB(err, ErrAssignmentNotFound, ErrDuplicateSubmission)
	}
	sub.Assignment = assignment

	s.logger.Info("工作已提交",
		zap.String("submission_id", sub.SubmissionID),
		zap.String("staff_id", staffID),
		zap.String("work_date", clock.FormatDate(today)),
	)

	resp := toSubmissionResponse(sub)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *workSubmissionService) List(ctx context.Context, id scope.Identity, req *dto.WorkSubmissionListRequest) ([]dto.WorkSubmissionResponse, error) {
	filter, err := scope.Submissions(id)
	if err != nil {
		return nil, err
	}
	if req != nil {
		filter = filter.Narrow(req.StaffID, req.VerifiedByID, req.AssignmentID)
		day, err := parseOptionalDate(req.Date)
		if err != nil {
			return nil, err
		}
		filter.WorkDate = day
	}
	return s.list(ctx, filter)
}

func (s *workSubmissionService) GetByID(ctx context.Context, id scope.Identity, submissionID string) (*dto.WorkSubmissionResponse, error) {
	sub, err := s.authorizedGet(ctx, id, submissionID, scope.ActionView)
	if err != nil {
		return nil, err
	}
	resp := toSubmissionResponse(sub)
	return &resp, nil
}

func (s *workSubmissionService) ListDaily(ctx context.Context, id scope.Identity, date string) ([]dto.WorkSubmissionResponse, error) {
	day, err := clock.ParseDate(date)
	if err != nil {
		return nil, apperr.Wrapf(ErrInvalidDate, "%s", date)
	}
	return s.listOn(ctx, id, day)
}

func (s *workSubmissionService) ListToday(ctx context.Context, id scope.Identity) ([]dto.WorkSubmissionResponse, error) {
	return s.listOn(ctx, id, clock.Today(s.clock))
}

func (s *workSubmissionService) listOn(ctx context.Context, id scope.Identity, day time.Time) ([]dto.WorkSubmissionResponse, error) {
	filter, err := scope.Submissions(id)
	if err != nil {
		return nil, err
	}
	filter.WorkDate = &day
	return s.list(ctx, filter)
}

func (s *workSubmissionService) list(ctx context.Context, filter scope.SubmissionFilter) ([]dto.WorkSubmissionResponse, error) {
	subs, err := s.repo.Submission.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询工作提交失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.WorkSubmissionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, toSubmissionResponse(&subs[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *workSubmissionService) Update(ctx context.Context, id scope.Identity, submissionID string, req *dto.UpdateWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error) {
	if req.TouchesVerification() {
		if id.Role == model.RoleStaff {
			return nil, ErrStaffEditVerification
		}
		return nil, ErrUseVerifyEndpoint
	}

	sub, err := s.authorizedGet(ctx, id, submissionID, scope.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if id.Role == model.RoleStaff && !validTransition("edit", sub.Status) {
		return nil, apperr.Wrapf(ErrSubmissionNotEditable, "当前状态: %s", sub.Status)
	}

	applyContent(sub, req.HoursWorked, req.StaffComment, req.WorkProofType, req.WorkProofURL, req.WorkProofText)
	if err := validateProof(sub.HoursWorked, sub.WorkProofType, sub.WorkProofURL, sub.WorkProofText); err != nil {
		return nil, err
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	resp := toSubmissionResponse(sub)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *workSubmissionService) Delete(ctx context.Context, id scope.Identity, submissionID string) error {
	if err := scope.Authorize(id, scope.ResourceSubmission, scope.ActionDelete, scope.Target{}); err != nil {
		return err
	}
	if err := s.repo.Submission.Delete(ctx, submissionID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("删除工作提交失败", zap.String("id", submissionID), zap.Error(err))
		}
		return apperr.FromDB(err, ErrSubmissionNotFound, nil)
	}
	s.logger.Info("工作提交已删除", zap.String("id", submissionID), zap.String("admin_id", id.UserID))
	return nil
}

// ────────────────────── Verify ──────────────────────

// Verify 审核只改提交本身，不触碰所属分配的状态
func (s *workSubmissionService) Verify(ctx context.Context, id scope.Identity, submissionID string, req *dto.VerifyWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error) {
	if id.Role == model.RoleStaff {
		return nil, scope.ErrStaffVerify
	}
	sub, err := s.authorizedGet(ctx, id, submissionID, scope.ActionVerify)
	if err != nil {
		return nil, err
	}
	if !validTransition("verify", sub.Status) {
		return nil, apperr.Wrapf(ErrCannotVerify, "当前状态: %s", sub.Status)
	}

	approved := req.Approved != nil && *req.Approved
	now := s.clock.Now().UTC()
	verifier := id.UserID

	sub.VerifiedAt = &now
	sub.VerifiedByID = &verifier
	sub.ManagerComment = req.ManagerComment
	sub.RejectionReason = nil
	if approved {
		sub.Status = model.SubmissionVerified
	} else {
		sub.Status = model.SubmissionRejected
		if req.ManagerComment != "" {
			reason := req.ManagerComment
			sub.RejectionReason = &reason
		}
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("工作提交已审核",
		zap.String("submission_id", sub.SubmissionID),
		zap.String("verifier_id", verifier),
		zap.String("status", string(sub.Status)),
	)

	resp := toSubmissionResponse(sub)
	return &resp, nil
}

// ────────────────────── Resubmit ──────────────────────

// Resubmit 被驳回的提交重新进入待审核；manager_comment 保留以便追溯
func (s *workSubmissionService) Resubmit(ctx context.Context, id scope.Identity, submissionID string, req *dto.ResubmitWorkSubmissionRequest) (*dto.WorkSubmissionResponse, error) {
	sub, err := s.authorizedGet(ctx, id, submissionID, scope.ActionResubmit)
	if err != nil {
		return nil, err
	}
	if !validTransition("resubmit", sub.Status) {
		return nil, apperr.Wrapf(ErrCannotResubmit, "当前状态: %s", sub.Status)
	}

	applyContent(sub, req.HoursWorked, req.StaffComment, req.WorkProofType, req.WorkProofURL, req.WorkProofText)
	if err := validateProof(sub.HoursWorked, sub.WorkProofType, sub.WorkProofURL, sub.WorkProofText); err != nil {
		return nil, err
	}
	sub.Status = model.SubmissionSubmitted
	sub.VerifiedAt = nil
	sub.VerifiedByID = nil

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	resp := toSubmissionResponse(sub)
	return &resp, nil
}

// ────────────────────── Aggregation ──────────────────────

// DailyTotalHours 已审核计入 verified，待审核计入 pending，被驳回的不计入
func (s *workSubmissionService) DailyTotalHours(ctx context.Context, id scope.Identity, staffID, date string) (*dto.DailyHoursResponse, error) {
	day, err := clock.ParseDate(date)
	if err != nil {
		return nil, apperr.Wrapf(ErrInvalidDate, "%s", date)
	}
	if _, err := authorizeStaffRecord(ctx, s.repo, s.logger, id, staffID); err != nil {
		return nil, err
	}

	subs, err := s.repo.Submission.List(ctx, scope.SubmissionFilter{StaffID: &staffID, WorkDate: &day})
	if err != nil {
		s.logger.Error("查询当日提交失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}

	verified, pending := decimal.Zero, decimal.Zero
	for i := range subs {
		switch subs[i].Status {
		case model.SubmissionVerified:
			verified = verified.Add(subs[i].HoursWorked)
		case model.SubmissionSubmitted:
			pending = pending.Add(subs[i].HoursWorked)
		}
	}

	return &dto.DailyHoursResponse{
		StaffID:       staffID,
		Date:          clock.FormatDate(day),
		VerifiedHours: verified,
		PendingHours:  pending,
		TotalHours:    verified.Add(pending),
	}, nil
}

// CalendarView 按日分组（含首尾），只列出有提交的日期；早于今天的日期视为锁定
func (s *workSubmissionService) CalendarView(ctx context.Context, id scope.Identity, staffID string, q *dto.DateRangeQuery) (*dto.CalendarResponse, error) {
	start, end, err := parseCalendarRange(q, s.cfg.Calendar.MaxRangeDays)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeStaffRecord(ctx, s.repo, s.logger, id, staffID); err != nil {
		return nil, err
	}

	subs, err := s.repo.Submission.List(ctx, scope.SubmissionFilter{StaffID: &staffID, From: &start, To: &end})
	if err != nil {
		s.logger.Error("查询日历提交失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, err
	}

	return &dto.CalendarResponse{
		StaffID:   staffID,
		StartDate: clock.FormatDate(start),
		EndDate:   clock.FormatDate(end),
		Days:      buildCalendarDays(subs, clock.Today(s.clock)),
	}, nil
}

// parseCalendarRange 解析并校验日历区间，首尾均计入天数
func parseCalendarRange(q *dto.DateRangeQuery, maxDays int) (time.Time, time.Time, error) {
	start, err := clock.ParseDate(q.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Wrapf(ErrInvalidDate, "%s", q.StartDate)
	}
	end, err := clock.ParseDate(q.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Wrapf(ErrInvalidDate, "%s", q.EndDate)
	}
	if err := checkRange(&start, &end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxDays {
		return time.Time{}, time.Time{}, apperr.Wrapf(ErrCalendarRangeTooLong, "最多 %d 天", maxDays)
	}
	return start, end, nil
}

// buildCalendarDays total 统计当天全部提交，verified 只统计已审核
func buildCalendarDays(subs []model.WorkSubmission, today time.Time) []dto.CalendarDay {
	byDay := make(map[string]*dto.CalendarDay)
	for i := range subs {
		sub := &subs[i]
		key := clock.FormatDate(sub.WorkDate)
		day, ok := byDay[key]
		if !ok {
			day = &dto.CalendarDay{
				Date:          key,
				TotalHours:    decimal.Zero,
				VerifiedHours: decimal.Zero,
				IsLocked:      clock.DateOnly(sub.WorkDate).Before(today),
			}
			byDay[key] = day
		}
		day.TotalHours = day.TotalHours.Add(sub.HoursWorked)
		if sub.Status == model.SubmissionVerified {
			day.VerifiedHours = day.VerifiedHours.Add(sub.HoursWorked)
		}
		day.Submissions = append(day.Submissions, toSubmissionResponse(sub))
	}

	days := make([]dto.CalendarDay, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// ── 内部辅助 ──

// authorizedGet 查询提交并按身份校验动作权限
func (s *workSubmissionService) authorizedGet(ctx context.Context, id scope.Identity, submissionID string, act scope.Action) (*model.WorkSubmission, error) {
	sub, err := s.repo.Submission.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询工作提交失败", zap.String("id", submissionID), zap.Error(err))
		return nil, err
	}
	target := scope.Target{OwnerID: sub.StaffID, SubDepartmentID: sub.SubDepartmentID()}
	if err := scope.Authorize(id, scope.ResourceSubmission, act, target); err != nil {
		return nil, err
	}
	return sub, nil
}

// save 乐观锁写回；版本冲突返回 ErrOptimisticLock
func (s *workSubmissionService) save(ctx context.Context, sub *model.WorkSubmission) error {
	if err := s.repo.Submission.Update(ctx, sub); err != nil {
		if !errors.Is(err, apperr.ErrOptimisticLock) {
			s.logger.Error("更新工作提交失败", zap.String("id", sub.SubmissionID), zap.Error(err))
		}
		return apperr.FromDB(err, ErrSubmissionNotFound, nil)
	}
	return nil
}

// applyContent 合并可编辑字段；nil 表示保持原值
func applyContent(sub *model.WorkSubmission, hours *decimal.Decimal, comment, proofType, proofURL, proofText *string) {
	if hours != nil {
		sub.HoursWorked = *hours
	}
	if comment != nil {
		sub.StaffComment = *comment
	}
	if proofType != nil {
		sub.WorkProofType = model.ProofType(*proofType)
	}
	if proofURL != nil {
		sub.WorkProofURL = *proofURL
	}
	if proofText != nil {
		sub.WorkProofText = *proofText
	}
}

// validateProof 0 < hours <= 24；TEXT 需文本，PDF / IMAGE 需链接
func validateProof(hours decimal.Decimal, proofType model.ProofType, url, text string) error {
	if !hours.IsPositive() || hours.GreaterThan(maxHoursPerDay) {
		return ErrInvalidHours
	}
	switch proofType {
	case model.ProofText:
		if text == "" {
			return ErrProofTextRequired
		}
	case model.ProofPDF, model.ProofImage:
		if url == "" {
			return ErrProofURLRequired
		}
	default:
		return ErrInvalidProofType
	}
	return nil
}
