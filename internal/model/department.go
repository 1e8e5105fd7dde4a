package model

// Department 部门表 对应 departments
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// SubDepartment 子部门表 对应 sub_departments；经理的管辖单元
type SubDepartment struct {
	SubDepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"sub_department_id"`
	DepartmentID    string `gorm:"type:uuid;not null"                             json:"department_id"`
	Name            string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (SubDepartment) TableName() string { return "sub_departments" }
