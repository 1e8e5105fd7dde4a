package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"cir-dashboard/backend/config"
	"cir-dashboard/backend/internal/dto"
	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
	"cir-dashboard/backend/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const icsProductID = "-//CIR Dashboard//Responsibility Feed//ZH"

// ExportService 导出业务接口
//
// 设计说明：
//   - 授权与日历视图一致：员工只能导出自己，经理限本子部门，管理员不限
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportCalendar 导出日历区间内的提交为 Excel：明细 Sheet + 每日汇总 Sheet
	ExportCalendar(ctx context.Context, id scope.Identity, staffID string, q *dto.DateRangeQuery) (*bytes.Buffer, string, error)
	// ExportAssignmentsICS 导出员工的职责分配为 iCalendar，每条分配一个全天事件
	ExportAssignmentsICS(ctx context.Context, id scope.Identity, staffID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	clock  clock.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, c clock.Clock, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, clock: c, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 导出工作日历为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "提交明细"：每条提交一行，按日期升序
//   - Sheet "每日汇总"：日期 / 总工时 / 已审核工时 / 是否锁定
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportCalendar(ctx context.Context, id scope.Identity, staffID string, q *dto.DateRangeQuery) (*bytes.Buffer, string, error) {
	start, end, err := parseCalendarRange(q, s.cfg.Calendar.MaxRangeDays)
	if err != nil {
		return nil, "", err
	}
	staff, err := authorizeStaffRecord(ctx, s.repo, s.logger, id, staffID)
	if err != nil {
		return nil, "", err
	}

	subs, err := s.repo.Submission.List(ctx, scope.SubmissionFilter{StaffID: &staffID, From: &start, To: &end})
	if err != nil {
		s.logger.Error("查询导出提交失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, "", err
	}
	days := buildCalendarDays(subs, clock.Today(s.clock))

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 明细
	detail := "提交明细"
	idx, _ := f.NewSheet(detail)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	title := fmt.Sprintf("%s — %s 至 %s", s.staffLabel(ctx, staff), clock.FormatDate(start), clock.FormatDate(end))
	detailHeaders := []string{"日期", "职责", "工时", "状态", "证明类型", "员工备注", "经理备注", "驳回原因"}
	writeTitle(f, detail, title, len(detailHeaders), headerStyle)
	writeHeader(f, detail, 2, detailHeaders, headerStyle)
	f.SetColWidth(detail, "A", "A", 12)
	f.SetColWidth(detail, "B", "B", 28)
	f.SetColWidth(detail, "F", "H", 30)

	row := 3
	for _, day := range days {
		for _, sub := range day.Submissions {
			respTitle := ""
			if sub.Responsibility != nil {
				respTitle = sub.Responsibility.Title
			}
			reason := ""
			if sub.RejectionReason != nil {
				reason = *sub.RejectionReason
			}
			hours, _ := sub.HoursWorked.Float64()
			values := []interface{}{day.Date, respTitle, hours, sub.Status, sub.WorkProofType, sub.StaffComment, sub.ManagerComment, reason}
			for i, v := range values {
				f.SetCellValue(detail, cell(colName(i), row), v)
			}
			row++
		}
	}

	// 汇总
	summary := "每日汇总"
	f.NewSheet(summary)
	writeHeader(f, summary, 1, []string{"日期", "总工时", "已审核工时", "已锁定"}, headerStyle)
	f.SetColWidth(summary, "A", "D", 14)
	for i, day := range days {
		r := i + 2
		total, _ := day.TotalHours.Float64()
		verified, _ := day.VerifiedHours.Float64()
		locked := "否"
		if day.IsLocked {
			locked = "是"
		}
		f.SetCellValue(summary, cell("A", r), day.Date)
		f.SetCellValue(summary, cell("B", r), total)
		f.SetCellValue(summary, cell("C", r), verified)
		f.SetCellValue(summary, cell("D", r), locked)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("工作日历_%s_%s_%s.xlsx", staff.Name, clock.FormatDate(start), clock.FormatDate(end))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportAssignmentsICS 导出职责分配为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 事件日期：有截止日期时取截止日当天，否则取职责的有效期；
// 两者都没有的分配不生成事件

func (s *exportService) ExportAssignmentsICS(ctx context.Context, id scope.Identity, staffID string) (*bytes.Buffer, string, error) {
	staff, err := authorizeStaffRecord(ctx, s.repo, s.logger, id, staffID)
	if err != nil {
		return nil, "", err
	}

	assignments, err := s.repo.Assignment.ListByStaff(ctx, staffID)
	if err != nil {
		s.logger.Error("查询职责分配失败", zap.String("staff_id", staffID), zap.Error(err))
		return nil, "", err
	}

	now := s.clock.Now().UTC()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	written := 0
	for i := range assignments {
		a := &assignments[i]
		start, end, ok := eventWindow(a)
		if !ok {
			continue
		}
		event := cal.AddEvent(a.AssignmentID + "@cir-dashboard")
		event.SetDtStampTime(now)
		event.SetCreatedTime(a.CreatedAt)
		event.SetAllDayStartAt(start)
		// DTEND 为开区间
		event.SetAllDayEndAt(end.AddDate(0, 0, 1))
		if a.Responsibility != nil {
			event.SetSummary(a.Responsibility.Title)
			if a.Responsibility.Description != "" {
				event.SetDescription(a.Responsibility.Description)
			}
		}
		written++
	}

	buf := bytes.NewBufferString(cal.Serialize())
	s.logger.Info("导出职责日历",
		zap.String("staff_id", staffID),
		zap.Int("assignments", len(assignments)),
		zap.Int("events", written),
	)
	return buf, fmt.Sprintf("职责分配_%s.ics", staff.Name), nil
}

// eventWindow 截止日期优先；否则使用职责有效期，缺失的一侧取另一侧
func eventWindow(a *model.ResponsibilityAssignment) (time.Time, time.Time, bool) {
	if a.DueDate != nil {
		d := clock.DateOnly(*a.DueDate)
		return d, d, true
	}
	r := a.Responsibility
	if r == nil || !r.HasWindow() {
		return time.Time{}, time.Time{}, false
	}
	start, end := r.StartDate, r.EndDate
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	return clock.DateOnly(*start), clock.DateOnly(*end), true
}

// staffLabel 员工姓名 (部门 / 子部门)；查不到子部门时只返回姓名
func (s *exportService) staffLabel(ctx context.Context, staff *model.Employee) string {
	if staff.SubDepartmentID == nil {
		return staff.Name
	}
	sd, err := s.repo.Department.GetSubDepartment(ctx, *staff.SubDepartmentID)
	if err != nil {
		s.logger.Warn("查询子部门失败", zap.String("sub_department_id", *staff.SubDepartmentID), zap.Error(err))
		return staff.Name
	}
	if sd.Department != nil {
		return fmt.Sprintf("%s (%s / %s)", staff.Name, sd.Department.Name, sd.Name)
	}
	return fmt.Sprintf("%s (%s)", staff.Name, sd.Name)
}

// ── 辅助函数 ──

func writeTitle(f *excelize.File, sheet, title string, width, style int) {
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", cell(colName(width-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", style)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(headers)-1), row), style)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
