package log

import (
	"log/slog"
	"os"

	gormlogger "gorm.io/gorm/logger"

	"github.com/cosphere-app/turnguard/database/dbcore"
)

// SetupGlobalLogger 配置全局 slog 输出
func SetupGlobalLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SetGormLogLevel 调整 GORM 日志级别（需在数据库初始化前调用）
func SetGormLogLevel(level gormlogger.LogLevel) {
	dbcore.SetLogLevel(level)
}
