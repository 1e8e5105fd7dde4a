package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"cir-dashboard/backend/internal/model"
	"cir-dashboard/backend/internal/repository"
	"cir-dashboard/backend/internal/scope"
	apperr "cir-dashboard/backend/pkg/errors"
)

// ── 内存存储 ──
//
// 所有 mock 仓储共享同一个 mockStore，以便 mockTx 在工作单元失败时整体回滚。
// 唯一约束与 Postgres 一致：冲突时返回 23505，缺失时返回 gorm.ErrRecordNotFound。

var mockEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type mockStore struct {
	seq int

	employees        map[string]model.Employee
	subDepartments   map[string]model.SubDepartment
	responsibilities map[string]model.Responsibility
	assignments      map[string]model.ResponsibilityAssignment
	submissions      map[string]model.WorkSubmission
	groups           map[string]model.ResponsibilityGroup
	groupItems       map[string]model.ResponsibilityGroupItem
	groupAssignments map[string]model.ResponsibilityGroupAssignment

	// failures 按操作名注入错误；值为剩余成功次数，降到 0 后返回 errInjected
	failures map[string]int
}

var errInjected = errors.New("injected failure")

func newMockStore() *mockStore {
	return &mockStore{
		employees:        make(map[string]model.Employee),
		subDepartments:   make(map[string]model.SubDepartment),
		responsibilities: make(map[string]model.Responsibility),
		assignments:      make(map[string]model.ResponsibilityAssignment),
		submissions:      make(map[string]model.WorkSubmission),
		groups:           make(map[string]model.ResponsibilityGroup),
		groupItems:       make(map[string]model.ResponsibilityGroupItem),
		groupAssignments: make(map[string]model.ResponsibilityGroupAssignment),
		failures:         make(map[string]int),
	}
}

// failAfter 让 op 在成功 n 次后开始失败
func (s *mockStore) failAfter(op string, n int) {
	s.failures[op] = n
}

func (s *mockStore) check(op string) error {
	n, ok := s.failures[op]
	if !ok {
		return nil
	}
	if n == 0 {
		return errInjected
	}
	s.failures[op] = n - 1
	return nil
}

// nextID 生成 ID 并推进时间戳，保证 created_at 单调递增
func (s *mockStore) nextID(prefix string) (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq), mockEpoch.Add(time.Duration(s.seq) * time.Second)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *mockStore) snapshot() *mockStore {
	return &mockStore{
		seq:              s.seq,
		employees:        cloneMap(s.employees),
		subDepartments:   cloneMap(s.subDepartments),
		responsibilities: cloneMap(s.responsibilities),
		assignments:      cloneMap(s.assignments),
		submissions:      cloneMap(s.submissions),
		groups:           cloneMap(s.groups),
		groupItems:       cloneMap(s.groupItems),
		groupAssignments: cloneMap(s.groupAssignments),
		failures:         s.failures,
	}
}

func (s *mockStore) restore(snap *mockStore) {
	s.employees = snap.employees
	s.subDepartments = snap.subDepartments
	s.responsibilities = snap.responsibilities
	s.assignments = snap.assignments
	s.submissions = snap.submissions
	s.groups = snap.groups
	s.groupItems = snap.groupItems
	s.groupAssignments = snap.groupAssignments
}

// ── 预加载 ──

func (s *mockStore) loadEmployee(id string) *model.Employee {
	e, ok := s.employees[id]
	if !ok {
		return nil
	}
	return &e
}

func (s *mockStore) loadResponsibility(id string) *model.Responsibility {
	r, ok := s.responsibilities[id]
	if !ok {
		return nil
	}
	return &r
}

func (s *mockStore) loadSubmission(sub model.WorkSubmission) model.WorkSubmission {
	if a, ok := s.assignments[sub.AssignmentID]; ok {
		a.Responsibility = s.loadResponsibility(a.ResponsibilityID)
		sub.Assignment = &a
	}
	sub.Staff = s.loadEmployee(sub.StaffID)
	if sub.VerifiedByID != nil {
		sub.VerifiedBy = s.loadEmployee(*sub.VerifiedByID)
	}
	return sub
}

// ── 测试数据 ──

func (s *mockStore) addEmployee(name string, role model.Role, subDeptID *string) *model.Employee {
	id, ts := s.nextID("emp")
	e := model.Employee{EmployeeID: id, Name: name, Email: id + "@example.com", Role: role, SubDepartmentID: subDeptID, IsActive: true}
	e.CreatedAt, e.UpdatedAt = ts, ts
	s.employees[id] = e
	return &e
}

func (s *mockStore) addResponsibility(title, subDeptID string, start, end *time.Time) *model.Responsibility {
	id, ts := s.nextID("resp")
	r := model.Responsibility{
		ResponsibilityID: id, Title: title, Cycle: "2025-03", SubDepartmentID: subDeptID,
		CreatedByID: "emp-admin", StartDate: start, EndDate: end, IsActive: true,
	}
	r.CreatedAt, r.UpdatedAt = ts, ts
	s.responsibilities[id] = r
	return &r
}

func (s *mockStore) addAssignment(respID, staffID string) *model.ResponsibilityAssignment {
	id, ts := s.nextID("asg")
	a := model.ResponsibilityAssignment{AssignmentID: id, ResponsibilityID: respID, StaffID: staffID, Status: model.AssignmentPending}
	a.CreatedAt, a.UpdatedAt = ts, ts
	s.assignments[id] = a
	return &a
}

func (s *mockStore) countAssignments() int { return len(s.assignments) }

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ s *mockStore }

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e := m.s.loadEmployee(id); e != nil {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListActiveStaff(_ context.Context, ids []string) ([]model.Employee, error) {
	var result []model.Employee
	for _, id := range ids {
		if e, ok := m.s.employees[id]; ok && e.IsActive && e.Role == model.RoleStaff {
			result = append(result, e)
		}
	}
	return result, nil
}

// ── Mock DepartmentRepository ──

type mockDepartmentRepo struct{ s *mockStore }

func (m *mockDepartmentRepo) GetSubDepartment(_ context.Context, id string) (*model.SubDepartment, error) {
	if sd, ok := m.s.subDepartments[id]; ok {
		sd.Department = &model.Department{DepartmentID: sd.DepartmentID, Name: "信息中心"}
		return &sd, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ResponsibilityRepository ──

type mockResponsibilityRepo struct{ s *mockStore }

func (m *mockResponsibilityRepo) Create(_ context.Context, resp *model.Responsibility) error {
	if err := m.s.check("responsibility.create"); err != nil {
		return err
	}
	id, ts := m.s.nextID("resp")
	resp.ResponsibilityID = id
	resp.CreatedAt, resp.UpdatedAt = ts, ts
	stored := *resp
	stored.SubDepartment = nil
	m.s.responsibilities[id] = stored
	return nil
}

func (m *mockResponsibilityRepo) GetByID(_ context.Context, id string) (*model.Responsibility, error) {
	if r := m.s.loadResponsibility(id); r != nil {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResponsibilityRepo) ListByIDs(_ context.Context, ids []string) ([]model.Responsibility, error) {
	var result []model.Responsibility
	for _, id := range ids {
		if r, ok := m.s.responsibilities[id]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockResponsibilityRepo) List(_ context.Context, f scope.ResponsibilityFilter) ([]model.Responsibility, error) {
	var result []model.Responsibility
	if f.Empty {
		return result, nil
	}
	for _, r := range m.s.responsibilities {
		if f.AssignedStaffID != nil && !m.assigned(r.ResponsibilityID, *f.AssignedStaffID) {
			continue
		}
		if f.SubDepartmentID != nil && r.SubDepartmentID != *f.SubDepartmentID {
			continue
		}
		if f.ActiveOn != nil && (!r.IsActive || !r.WithinWindow(*f.ActiveOn)) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockResponsibilityRepo) assigned(respID, staffID string) bool {
	for _, a := range m.s.assignments {
		if a.ResponsibilityID == respID && a.StaffID == staffID {
			return true
		}
	}
	return false
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct{ s *mockStore }

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.ResponsibilityAssignment) error {
	if err := m.s.check("assignment.create"); err != nil {
		return err
	}
	for _, existing := range m.s.assignments {
		if existing.ResponsibilityID == a.ResponsibilityID && existing.StaffID == a.StaffID {
			return uniqueViolation("uq_assignment_responsibility_staff")
		}
	}
	id, ts := m.s.nextID("asg")
	a.AssignmentID = id
	a.CreatedAt, a.UpdatedAt = ts, ts
	stored := *a
	stored.Responsibility, stored.Staff = nil, nil
	m.s.assignments[id] = stored
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.ResponsibilityAssignment, error) {
	a, ok := m.s.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	a.Responsibility = m.s.loadResponsibility(a.ResponsibilityID)
	return &a, nil
}

func (m *mockAssignmentRepo) GetByResponsibilityAndStaff(_ context.Context, responsibilityID, staffID string) (*model.ResponsibilityAssignment, error) {
	for _, a := range m.s.assignments {
		if a.ResponsibilityID == responsibilityID && a.StaffID == staffID {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListByStaffAndResponsibilities(_ context.Context, staffID string, responsibilityIDs []string) ([]model.ResponsibilityAssignment, error) {
	want := make(map[string]bool, len(responsibilityIDs))
	for _, id := range responsibilityIDs {
		want[id] = true
	}
	var result []model.ResponsibilityAssignment
	for _, a := range m.s.assignments {
		if a.StaffID == staffID && want[a.ResponsibilityID] {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListByResponsibility(_ context.Context, responsibilityID string) ([]model.ResponsibilityAssignment, error) {
	var result []model.ResponsibilityAssignment
	for _, a := range m.s.assignments {
		if a.ResponsibilityID == responsibilityID {
			a.Staff = m.s.loadEmployee(a.StaffID)
			result = append(result, a)
		}
	}
	sortAssignments(result)
	return result, nil
}

func (m *mockAssignmentRepo) ListByStaff(_ context.Context, staffID string) ([]model.ResponsibilityAssignment, error) {
	var result []model.ResponsibilityAssignment
	for _, a := range m.s.assignments {
		if a.StaffID == staffID {
			a.Responsibility = m.s.loadResponsibility(a.ResponsibilityID)
			result = append(result, a)
		}
	}
	sortAssignments(result)
	return result, nil
}

func sortAssignments(list []model.ResponsibilityAssignment) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct{ s *mockStore }

func (m *mockSubmissionRepo) Create(_ context.Context, sub *model.WorkSubmission) error {
	if err := m.s.check("submission.create"); err != nil {
		return err
	}
	if _, ok := m.s.assignments[sub.AssignmentID]; !ok {
		return &pgconn.PgError{Code: "23503"}
	}
	for _, existing := range m.s.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.WorkDate.Equal(sub.WorkDate) {
			return uniqueViolation("uq_submission_assignment_day")
		}
	}
	id, ts := m.s.nextID("sub")
	sub.SubmissionID = id
	sub.CreatedAt, sub.UpdatedAt = ts, ts
	sub.Version = 1
	stored := *sub
	stored.Assignment, stored.Staff, stored.VerifiedBy = nil, nil, nil
	m.s.submissions[id] = stored
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.WorkSubmission, error) {
	sub, ok := m.s.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	sub = m.s.loadSubmission(sub)
	return &sub, nil
}

func (m *mockSubmissionRepo) List(_ context.Context, f scope.SubmissionFilter) ([]model.WorkSubmission, error) {
	var result []model.WorkSubmission
	if f.Empty {
		return result, nil
	}
	for _, sub := range m.s.submissions {
		sub = m.s.loadSubmission(sub)
		if f.StaffID != nil && sub.StaffID != *f.StaffID {
			continue
		}
		if f.SubDepartmentID != nil {
			sd := sub.SubDepartmentID()
			if sd == nil || *sd != *f.SubDepartmentID {
				continue
			}
		}
		if f.VerifiedByID != nil && (sub.VerifiedByID == nil || *sub.VerifiedByID != *f.VerifiedByID) {
			continue
		}
		if f.AssignmentID != nil && sub.AssignmentID != *f.AssignmentID {
			continue
		}
		if f.WorkDate != nil && !sub.WorkDate.Equal(*f.WorkDate) {
			continue
		}
		if f.From != nil && sub.WorkDate.Before(*f.From) {
			continue
		}
		if f.To != nil && sub.WorkDate.After(*f.To) {
			continue
		}
		result = append(result, sub)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].WorkDate.Equal(result[j].WorkDate) {
			return result[i].WorkDate.After(result[j].WorkDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockSubmissionRepo) ExistsForDay(_ context.Context, assignmentID string, day time.Time) (bool, error) {
	for _, sub := range m.s.submissions {
		if sub.AssignmentID == assignmentID && sub.WorkDate.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) Update(_ context.Context, sub *model.WorkSubmission) error {
	stored, ok := m.s.submissions[sub.SubmissionID]
	if !ok || stored.Version != sub.Version {
		return apperr.ErrOptimisticLock
	}
	sub.Version++
	next := *sub
	next.Assignment, next.Staff, next.VerifiedBy = nil, nil, nil
	m.s.submissions[sub.SubmissionID] = next
	return nil
}

func (m *mockSubmissionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.s.submissions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.submissions, id)
	return nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct{ s *mockStore }

func (m *mockGroupRepo) Create(_ context.Context, group *model.ResponsibilityGroup) error {
	if err := m.s.check("group.create"); err != nil {
		return err
	}
	id, ts := m.s.nextID("grp")
	group.GroupID = id
	group.CreatedAt, group.UpdatedAt = ts, ts
	stored := *group
	stored.Items, stored.Assignments = nil, nil
	m.s.groups[id] = stored
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.ResponsibilityGroup, error) {
	g, ok := m.s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, item := range m.s.groupItems {
		if item.GroupID == id {
			item.Responsibility = m.s.loadResponsibility(item.ResponsibilityID)
			g.Items = append(g.Items, item)
		}
	}
	sort.Slice(g.Items, func(i, j int) bool { return g.Items[i].DisplayOrder < g.Items[j].DisplayOrder })
	for _, ga := range m.s.groupAssignments {
		if ga.GroupID == id {
			ga.Staff = m.s.loadEmployee(ga.StaffID)
			g.Assignments = append(g.Assignments, ga)
		}
	}
	return &g, nil
}

func (m *mockGroupRepo) List(_ context.Context, f scope.GroupFilter) ([]model.ResponsibilityGroup, error) {
	var result []model.ResponsibilityGroup
	if f.Empty {
		return result, nil
	}
	for _, g := range m.s.groups {
		if f.SubDepartmentID != nil && g.SubDepartmentID != *f.SubDepartmentID {
			continue
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockGroupRepo) Update(_ context.Context, group *model.ResponsibilityGroup) error {
	stored, ok := m.s.groups[group.GroupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name, stored.Description, stored.Cycle, stored.IsActive = group.Name, group.Description, group.Cycle, group.IsActive
	m.s.groups[group.GroupID] = stored
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id string) error {
	if err := m.s.check("group.delete"); err != nil {
		return err
	}
	if _, ok := m.s.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.groups, id)
	return nil
}

// ── Mock GroupItemRepository ──

type mockGroupItemRepo struct{ s *mockStore }

func (m *mockGroupItemRepo) CreateBatch(_ context.Context, items []model.ResponsibilityGroupItem) error {
	for i := range items {
		if err := m.s.check("groupItem.create"); err != nil {
			return err
		}
		for _, existing := range m.s.groupItems {
			if existing.GroupID == items[i].GroupID && existing.ResponsibilityID == items[i].ResponsibilityID {
				return uniqueViolation("uq_group_item_responsibility")
			}
		}
		id, ts := m.s.nextID("item")
		items[i].ItemID = id
		items[i].CreatedAt, items[i].UpdatedAt = ts, ts
		stored := items[i]
		stored.Responsibility = nil
		m.s.groupItems[id] = stored
	}
	return nil
}

func (m *mockGroupItemRepo) ListByGroup(_ context.Context, groupID string) ([]model.ResponsibilityGroupItem, error) {
	var result []model.ResponsibilityGroupItem
	for _, item := range m.s.groupItems {
		if item.GroupID == groupID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DisplayOrder < result[j].DisplayOrder })
	return result, nil
}

func (m *mockGroupItemRepo) MaxDisplayOrder(_ context.Context, groupID string) (int, bool, error) {
	maxOrder, ok := 0, false
	for _, item := range m.s.groupItems {
		if item.GroupID == groupID && (!ok || item.DisplayOrder > maxOrder) {
			maxOrder, ok = item.DisplayOrder, true
		}
	}
	return maxOrder, ok, nil
}

func (m *mockGroupItemRepo) Delete(_ context.Context, groupID, responsibilityID string) error {
	for id, item := range m.s.groupItems {
		if item.GroupID == groupID && item.ResponsibilityID == responsibilityID {
			delete(m.s.groupItems, id)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockGroupItemRepo) DeleteByGroup(_ context.Context, groupID string) error {
	for id, item := range m.s.groupItems {
		if item.GroupID == groupID {
			delete(m.s.groupItems, id)
		}
	}
	return nil
}

// ── Mock GroupAssignmentRepository ──

type mockGroupAssignmentRepo struct{ s *mockStore }

func (m *mockGroupAssignmentRepo) Create(_ context.Context, ga *model.ResponsibilityGroupAssignment) error {
	for _, existing := range m.s.groupAssignments {
		if existing.GroupID == ga.GroupID && existing.StaffID == ga.StaffID {
			return uniqueViolation("uq_group_assignment_staff")
		}
	}
	id, ts := m.s.nextID("ga")
	ga.GroupAssignmentID = id
	ga.CreatedAt, ga.UpdatedAt = ts, ts
	stored := *ga
	stored.Staff = nil
	m.s.groupAssignments[id] = stored
	return nil
}

func (m *mockGroupAssignmentRepo) Get(_ context.Context, groupID, staffID string) (*model.ResponsibilityGroupAssignment, error) {
	for _, ga := range m.s.groupAssignments {
		if ga.GroupID == groupID && ga.StaffID == staffID {
			return &ga, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupAssignmentRepo) ListByGroup(_ context.Context, groupID string) ([]model.ResponsibilityGroupAssignment, error) {
	var result []model.ResponsibilityGroupAssignment
	for _, ga := range m.s.groupAssignments {
		if ga.GroupID == groupID {
			ga.Staff = m.s.loadEmployee(ga.StaffID)
			result = append(result, ga)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockGroupAssignmentRepo) Delete(_ context.Context, groupID, staffID string) error {
	for id, ga := range m.s.groupAssignments {
		if ga.GroupID == groupID && ga.StaffID == staffID {
			delete(m.s.groupAssignments, id)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockGroupAssignmentRepo) DeleteByGroup(_ context.Context, groupID string) error {
	for id, ga := range m.s.groupAssignments {
		if ga.GroupID == groupID {
			delete(m.s.groupAssignments, id)
		}
	}
	return nil
}

// ── Mock Transactor ──

// mockTx 在同一个 mock 聚合上执行工作单元；失败时恢复快照
type mockTx struct {
	store *mockStore
	repo  *repository.Repository

	lastTimeout time.Duration
	calls       int
}

func (m *mockTx) InTx(ctx context.Context, timeout time.Duration, fn repository.UnitOfWork) error {
	m.calls++
	m.lastTimeout = timeout
	snap := m.store.snapshot()
	if err := fn(ctx, m.repo); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// newMockRepository 组装共享同一 mockStore 的 Repository 聚合
func newMockRepository() (*repository.Repository, *mockStore, *mockTx) {
	store := newMockStore()
	repo := &repository.Repository{
		Employee:        &mockEmployeeRepo{s: store},
		Department:      &mockDepartmentRepo{s: store},
		Responsibility:  &mockResponsibilityRepo{s: store},
		Assignment:      &mockAssignmentRepo{s: store},
		Submission:      &mockSubmissionRepo{s: store},
		Group:           &mockGroupRepo{s: store},
		GroupItem:       &mockGroupItemRepo{s: store},
		GroupAssignment: &mockGroupAssignmentRepo{s: store},
	}
	tx := &mockTx{store: store, repo: repo}
	repo.Tx = tx
	return repo, store, tx
}
