package models

// User 后台账号（含系统身份），FeatureConfig.UpdatedBy 外键指向这里
type User struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Passwd    string    `json:"-" gorm:"type:varchar(128)"`
	Role      string    `json:"role" gorm:"type:varchar(16);default:'admin'"` // admin, system
	CreatedAt LocalTime `json:"created_at"`
	UpdatedAt LocalTime `json:"updated_at"`
}

// Session 后台登录会话
type Session struct {
	Token     string    `json:"token" gorm:"type:varchar(64);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	ExpiresAt LocalTime `json:"expires_at"`
	CreatedAt LocalTime `json:"created_at"`
}
