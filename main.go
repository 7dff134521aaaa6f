package main

import (
	"log/slog"
	"os"
	"strings"

	gormlogger "gorm.io/gorm/logger"

	"github.com/cosphere-app/turnguard/cmd"
	logutil "github.com/cosphere-app/turnguard/utils/log"
)

func main() {
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		logutil.SetupGlobalLogger(slog.LevelInfo)
		logutil.SetGormLogLevel(gormlogger.Silent)
	} else {
		logutil.SetupGlobalLogger(slog.LevelDebug)
		logutil.SetGormLogLevel(gormlogger.Warn)
	}

	cmd.Execute()
}
