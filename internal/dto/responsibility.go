package dto

// ── 职责模块 DTO ──

// CreateResponsibilityRequest 创建职责请求
// 员工自建时日期可省略（固定为当天）；经理 / 管理员可设置任意有效期
type CreateResponsibilityRequest struct {
	Title       string  `json:"title"       binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Cycle       string  `json:"cycle"       binding:"omitempty,cycle"`
	StartDate   *string `json:"start_date"  binding:"omitempty,date"`
	EndDate     *string `json:"end_date"    binding:"omitempty,date"`
}

// DateQuery 按日期查询参数（缺省为当天）
type DateQuery struct {
	Date string `form:"date" binding:"omitempty,date"`
}

// ResponsibilityResponse 职责响应
type ResponsibilityResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Cycle           string  `json:"cycle"`
	SubDepartmentID string  `json:"sub_department_id"`
	CreatedByID     string  `json:"created_by_id"`
	StartDate       *string `json:"start_date,omitempty"`
	EndDate         *string `json:"end_date,omitempty"`
	IsActive        bool    `json:"is_active"`
	IsStaffCreated  bool    `json:"is_staff_created"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// CreateResponsibilityResponse 创建职责响应；员工自建时附带自动生成的分配
type CreateResponsibilityResponse struct {
	Responsibility ResponsibilityResponse `json:"responsibility"`
	Assignment     *AssignmentResponse    `json:"assignment,omitempty"`
}

// AssignmentResponse 职责分配响应
type AssignmentResponse struct {
	ID               string         `json:"id"`
	ResponsibilityID string         `json:"responsibility_id"`
	StaffID          string         `json:"staff_id"`
	Staff            *EmployeeBrief `json:"staff,omitempty"`
	Status           string         `json:"status"`
	DueDate          *string        `json:"due_date,omitempty"`
	CreatedAt        string         `json:"created_at"`
}

// VisibilityResponse 职责在某日对当前用户是否可见
type VisibilityResponse struct {
	ResponsibilityID string `json:"responsibility_id"`
	Date             string `json:"date"`
	Visible          bool   `json:"visible"`
}
