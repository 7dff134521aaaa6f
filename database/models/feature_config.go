package models

import "time"

// FeatureConfig 每个受保护功能一条记录，控制其 Turnstile 验证开关
type FeatureConfig struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	FeatureID string    `json:"feature_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Enabled   bool      `json:"enabled" gorm:"default:false"`
	UpdatedBy string    `json:"updated_by" gorm:"type:varchar(36);not null"`
	Updater   *User     `json:"-" gorm:"foreignKey:UpdatedBy;references:ID"`
	CreatedAt LocalTime `json:"created_at"`
	UpdatedAt LocalTime `json:"updated_at"`
}

// AuditLog 安全相关审计事件（存储/网络故障、降级放行等）
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	EventType string    `json:"event_type" gorm:"type:varchar(48);index;not null"`
	FeatureID string    `json:"feature_id" gorm:"type:varchar(64);index"`
	Detail    string    `json:"detail" gorm:"type:text"`
	ClientIP  string    `json:"client_ip" gorm:"type:varchar(64)"`
	Country   string    `json:"country" gorm:"type:varchar(8)"`
	CreatedAt LocalTime `json:"created_at"`
}

// EventMessage 告警外发消息体
type EventMessage struct {
	Event   string    `json:"event"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Emoji   string    `json:"emoji"`
}
