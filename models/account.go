package models

import "time"

// Platform roles. Authors never receive notifications from this subsystem
// but keep a role so the enum covers every account.
const (
	RoleAuthor  = "author"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Account is the stable identity a notification is addressed to. The
// recipient_id is the external identity; the connection registry key is
// ephemeral and never stored here.
type Account struct {
	AccountID   uint       `gorm:"primaryKey;column:account_id" json:"account_id"`
	RecipientID string     `gorm:"column:recipient_id;uniqueIndex" json:"recipient_id"`
	Role        string     `gorm:"column:role" json:"role"` // author|manager|admin
	Email       *string    `gorm:"column:email" json:"email,omitempty"`
	DisplayName *string    `gorm:"column:display_name" json:"display_name,omitempty"`
	CreateAt    time.Time  `gorm:"column:create_at" json:"create_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Account) TableName() string { return "accounts" }
