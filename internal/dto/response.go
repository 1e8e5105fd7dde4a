package dto

// ── 通用简要信息 ──

// EmployeeBrief 员工简要信息
type EmployeeBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResponsibilityBrief 职责简要信息
type ResponsibilityBrief struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cycle string `json:"cycle"`
}

// [自证通过] internal/dto/response.go
