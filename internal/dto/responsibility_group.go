package dto

// ── 职责分组模块 DTO ──

// InlineResponsibilityRequest 分组内联新建的职责
type InlineResponsibilityRequest struct {
	Title       string  `json:"title"       binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Cycle       string  `json:"cycle"       binding:"required,cycle"`
	StartDate   *string `json:"start_date"  binding:"omitempty,date"`
	EndDate     *string `json:"end_date"    binding:"omitempty,date"`
}

// CreateGroupRequest 创建分组请求
type CreateGroupRequest struct {
	Name                string                        `json:"name"                 binding:"required,min=1,max=200"`
	Description         string                        `json:"description"          binding:"omitempty,max=2000"`
	Cycle               *string                       `json:"cycle"                binding:"omitempty,cycle"`
	ResponsibilityIDs   []string                      `json:"responsibility_ids"   binding:"omitempty,dive,uuid"`
	NewResponsibilities []InlineResponsibilityRequest `json:"new_responsibilities" binding:"omitempty,dive"`
}

// UpdateGroupRequest 更新分组请求
type UpdateGroupRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Cycle       *string `json:"cycle"       binding:"omitempty,cycle"`
	IsActive    *bool   `json:"is_active"`
}

// AddResponsibilitiesRequest 向分组追加职责
// DisplayOrderStart 缺省为当前最大排序值 + 1（空分组为 0）
type AddResponsibilitiesRequest struct {
	ResponsibilityIDs   []string                      `json:"responsibility_ids"   binding:"omitempty,dive,uuid"`
	NewResponsibilities []InlineResponsibilityRequest `json:"new_responsibilities" binding:"omitempty,dive"`
	DisplayOrderStart   *int                          `json:"display_order_start"  binding:"omitempty,min=0"`
}

// AssignGroupRequest 将分组批量分配给员工
type AssignGroupRequest struct {
	StaffIDs []string `json:"staff_ids" binding:"required,min=1,dive,uuid"`
	DueDate  *string  `json:"due_date"  binding:"omitempty,date"`
}

// GroupItemResponse 分组条目
type GroupItemResponse struct {
	ID               string               `json:"id"`
	ResponsibilityID string               `json:"responsibility_id"`
	Responsibility   *ResponsibilityBrief `json:"responsibility,omitempty"`
	DisplayOrder     int                  `json:"display_order"`
}

// GroupResponse 分组响应
type GroupResponse struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Cycle           *string             `json:"cycle,omitempty"`
	SubDepartmentID string              `json:"sub_department_id"`
	CreatedByID     string              `json:"created_by_id"`
	IsActive        bool                `json:"is_active"`
	Items           []GroupItemResponse `json:"items"`
	AssignedStaff   []EmployeeBrief     `json:"assigned_staff,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// AddResponsibilitiesResponse 追加职责结果
type AddResponsibilitiesResponse struct {
	GroupID    string              `json:"group_id"`
	AddedItems []GroupItemResponse `json:"added_items"`
	TotalAdded int                 `json:"total_added"`
	Skipped    []string            `json:"skipped,omitempty"` // 已在分组中的职责 ID
}

// StaffAssignmentResult 单个员工的分配明细
type StaffAssignmentResult struct {
	StaffID            string   `json:"staff_id"`
	StaffName          string   `json:"staff_name"`
	AssignmentsCreated []string `json:"assignments_created"`
	Skipped            []string `json:"skipped"` // 已存在分配的职责 ID
}

// AssignGroupResponse 分组批量分配结果
type AssignGroupResponse struct {
	GroupID                 string                  `json:"group_id"`
	AssignedTo              []StaffAssignmentResult `json:"assigned_to"`
	TotalAssignmentsCreated int                     `json:"total_assignments_created"`
	SkippedDuplicates       int                     `json:"skipped_duplicates"`
}

// GroupStaffResponse 分组已分配员工
type GroupStaffResponse struct {
	StaffID      string `json:"staff_id"`
	StaffName    string `json:"staff_name"`
	AssignedByID string `json:"assigned_by_id"`
	AssignedAt   string `json:"assigned_at"`
}
