package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Member struct {
	ID           string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	MemberNo     string `gorm:"column:member_no;uniqueIndex;size:20;not null" json:"memberNo"` // 对外读者证号 MEMxxxxxxxx
	FirstName    string `gorm:"size:50;not null" json:"firstName"`
	LastName     string `gorm:"size:50;not null" json:"lastName"`
	Email        string `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Address      string `gorm:"size:255" json:"address"`
	IsActive     bool   `gorm:"not null;default:true" json:"isActive"`
	IsAdmin      bool   `gorm:"not null;default:false" json:"isAdmin"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"registrationDate"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Member) TableName() string { return "members" }

func (m *Member) FullName() string { return m.FirstName + " " + m.LastName }

func (m *Member) Role() string {
	if m.IsAdmin {
		return RoleAdmin
	}
	return RoleMember
}
