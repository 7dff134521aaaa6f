package dbcore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cosphere-app/turnguard/database/models"
)

var (
	instance *gorm.DB
	once     sync.Once

	logLevelMu sync.Mutex
	logLevel   = gormlogger.Silent
)

// SetLogLevel 设置 GORM 日志级别，需在首次 GetDBInstance 前调用
func SetLogLevel(level gormlogger.LogLevel) {
	logLevelMu.Lock()
	defer logLevelMu.Unlock()
	logLevel = level
}

// GetDBInstance 返回全局数据库实例，首次调用时初始化并迁移表结构
func GetDBInstance() *gorm.DB {
	once.Do(func() {
		db, err := open()
		if err != nil {
			log.Fatalf("failed to initialize database: %v", err)
		}
		if err := Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		instance = db
	})
	return instance
}

func open() (*gorm.DB, error) {
	logLevelMu.Lock()
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)}
	logLevelMu.Unlock()

	dbType := strings.ToLower(strings.TrimSpace(os.Getenv("TURNGUARD_DB_TYPE")))
	switch dbType {
	case "mysql":
		dsn := os.Getenv("TURNGUARD_DB_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("TURNGUARD_DB_DSN is required when TURNGUARD_DB_TYPE=mysql")
		}
		return gorm.Open(mysql.Open(dsn), cfg)
	case "", "sqlite":
		file := os.Getenv("TURNGUARD_DB_FILE")
		if file == "" {
			file = "./data/turnguard.db"
		}
		if dir := filepath.Dir(file); dir != "." && !strings.HasPrefix(file, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(file), cfg)
	default:
		return nil, fmt.Errorf("unsupported TURNGUARD_DB_TYPE: %s", dbType)
	}
}

// Migrate 迁移全部表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.FeatureConfig{},
		&models.AuditLog{},
	)
}
