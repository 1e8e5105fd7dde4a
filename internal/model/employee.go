package model

// Role 员工角色（封闭枚举）
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// ParseRole 解析角色字符串，未知角色返回 false
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// Employee 员工表 对应 employees
type Employee struct {
	EmployeeID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name            string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email           string  `gorm:"type:varchar(255);not null;uniqueIndex"          json:"email"`
	Role            Role    `gorm:"type:varchar(20);not null;default:'STAFF'"       json:"role"`
	SubDepartmentID *string `gorm:"type:uuid"                                      json:"sub_department_id,omitempty"`
	IsActive        bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }
