package model

// ResponsibilityGroup 职责分组表 对应 responsibility_groups
type ResponsibilityGroup struct {
	GroupID         string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	Name            string  `gorm:"type:varchar(200);not null"                     json:"name"`
	Description     string  `gorm:"type:text"                                      json:"description,omitempty"`
	Cycle           *string `gorm:"type:varchar(7)"                                json:"cycle,omitempty"`
	SubDepartmentID string  `gorm:"type:uuid;not null;index"                       json:"sub_department_id"`
	CreatedByID     string  `gorm:"type:uuid;not null"                             json:"created_by_id"`
	IsActive        bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Items       []ResponsibilityGroupItem       `gorm:"foreignKey:GroupID;references:GroupID" json:"items,omitempty"`
	Assignments []ResponsibilityGroupAssignment `gorm:"foreignKey:GroupID;references:GroupID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (ResponsibilityGroup) TableName() string { return "responsibility_groups" }

// ResponsibilityGroupItem 分组条目表，(group_id, responsibility_id) 唯一
type ResponsibilityGroupItem struct {
	ItemID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"               json:"item_id"`
	GroupID          string `gorm:"type:uuid;not null;uniqueIndex:uq_group_item_responsibility" json:"group_id"`
	ResponsibilityID string `gorm:"type:uuid;not null;uniqueIndex:uq_group_item_responsibility" json:"responsibility_id"`
	DisplayOrder     int    `gorm:"not null;default:0"                                          json:"display_order"`
	BaseModel

	// 关联
	Responsibility *Responsibility `gorm:"foreignKey:ResponsibilityID;references:ResponsibilityID" json:"responsibility,omitempty"`
}

// TableName 指定表名
func (ResponsibilityGroupItem) TableName() string { return "responsibility_group_items" }

// ResponsibilityGroupAssignment 分组分配审计表，(group_id, staff_id) 唯一
// 仅记录“该分组曾分配给该员工”，与其展开出的 ResponsibilityAssignment 相互独立
type ResponsibilityGroupAssignment struct {
	GroupAssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"         json:"group_assignment_id"`
	GroupID           string `gorm:"type:uuid;not null;uniqueIndex:uq_group_assignment_staff" json:"group_id"`
	StaffID           string `gorm:"type:uuid;not null;uniqueIndex:uq_group_assignment_staff" json:"staff_id"`
	AssignedByID      string `gorm:"type:uuid;not null"                                     json:"assigned_by_id"`
	BaseModel

	// 关联
	Staff *Employee `gorm:"foreignKey:StaffID;references:EmployeeID" json:"staff,omitempty"`
}

// TableName 指定表名
func (ResponsibilityGroupAssignment) TableName() string { return "responsibility_group_assignments" }
