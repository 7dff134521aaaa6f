package auditlog

import (
	"log/slog"
	"time"

	"github.com/cosphere-app/turnguard/database/dbcore"
	"github.com/cosphere-app/turnguard/database/models"
	"github.com/cosphere-app/turnguard/utils/geoip"
)

// Sink 审计事件落库实现。写失败只记日志，审计不能反过来拖垮验证链路。
type Sink struct{}

func NewSink() *Sink { return &Sink{} }

// RecordEvent 写入一条安全审计事件，可选按客户端 IP 附加国家码
func (s *Sink) RecordEvent(eventType, featureID, detail, clientIP string) {
	entry := models.AuditLog{
		EventType: eventType,
		FeatureID: featureID,
		Detail:    detail,
		ClientIP:  clientIP,
		Country:   geoip.CountryCode(clientIP),
		CreatedAt: models.FromTime(time.Now()),
	}
	db := dbcore.GetDBInstance()
	if err := db.Create(&entry).Error; err != nil {
		slog.Error("failed to write audit log",
			"event", eventType, "feature", featureID, "error", err)
	}
}

// Recent 按时间倒序返回最近的审计事件
func Recent(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := dbcore.GetDBInstance()
	var list []models.AuditLog
	if err := db.Order("id desc").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
