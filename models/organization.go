package models

import "time"

// Organization is the tenant that owns businesses and admin users
type Organization struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Users      []User     `gorm:"foreignKey:OrganizationID" json:"-"`
	Businesses []Business `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string { return "organizations" }

// UserRole enumerates membership roles within an organization
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

// User is an organization member; admins receive negative-feedback alerts
type User struct {
	ID             uint     `gorm:"primaryKey" json:"id"`
	OrganizationID uint     `gorm:"not null;index:idx_users_organization_id" json:"organization_id"`
	Email          string   `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	Name           *string  `gorm:"size:255" json:"name,omitempty"`
	Role           UserRole `gorm:"type:user_role;not null;default:'member';index:idx_users_role" json:"role"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserFilter provides filter fields for repository queries
type UserFilter struct {
	ID             *uint
	OrganizationID *uint
	Email          *string
	Role           *UserRole
}
