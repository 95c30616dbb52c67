package domain

import "gorm.io/gorm"

// UserRole 用户角色
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleAccountant UserRole = "ACCOUNTANT"
	RoleTrader     UserRole = "TRADER"
)

// User 用户引用
// 身份与权限由外部系统负责，这里只保留过账人与佣金对手方所需的最小信息。
type User struct {
	gorm.Model
	Username string   `gorm:"column:username;type:varchar(150);uniqueIndex;not null" json:"username"`
	Role     UserRole `gorm:"column:role;type:varchar(20);not null;default:TRADER" json:"role"`
}

func (User) TableName() string { return "users" }

// IsTrader 佣金接收方校验用。
func (u *User) IsTrader() bool { return u.Role == RoleTrader }
