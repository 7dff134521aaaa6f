package accounts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cosphere-app/turnguard/database/dbcore"
	"github.com/cosphere-app/turnguard/database/models"
	"github.com/cosphere-app/turnguard/utils"
)

const (
	SystemUsername = "system"
	sessionTTL     = 24 * time.Hour
)

// CreateAccount 创建后台账号
func CreateAccount(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username/password required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := models.FromTime(time.Now())
	user := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Passwd:    string(hashed),
		Role:      "admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
	db := dbcore.GetDBInstance()
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CheckPassword 校验账号密码，成功返回用户
func CheckPassword(username, password string) (*models.User, error) {
	db := dbcore.GetDBInstance()
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	if user.Role == "system" {
		return nil, fmt.Errorf("system account cannot login")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Passwd), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &user, nil
}

// EnsureSystemUser 确保存在系统身份记录，返回其 ID。
// FeatureConfig.UpdatedBy 带外键约束，初始化与兜底归因都落到这个身份上。
func EnsureSystemUser() (string, error) {
	db := dbcore.GetDBInstance()
	var user models.User
	err := db.Where("username = ?", SystemUsername).First(&user).Error
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	now := models.FromTime(time.Now())
	user = models.User{
		ID:        uuid.NewString(),
		Username:  SystemUsername,
		Passwd:    "",
		Role:      "system",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&user).Error; err != nil {
		// 并发初始化时可能已被其他请求创建
		var existing models.User
		if e := db.Where("username = ?", SystemUsername).First(&existing).Error; e == nil {
			return existing.ID, nil
		}
		return "", err
	}
	return user.ID, nil
}

// ResolveAdminID 将传入的管理员 ID 解析为有效用户 ID，无法解析时回退系统身份
func ResolveAdminID(adminID string) (string, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID != "" {
		db := dbcore.GetDBInstance()
		var user models.User
		if err := db.Where("id = ?", adminID).First(&user).Error; err == nil {
			return user.ID, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}
	return EnsureSystemUser()
}

// DeleteAccountByUsername 删除账号（系统身份除外）
func DeleteAccountByUsername(username string) error {
	if username == SystemUsername {
		return fmt.Errorf("system account cannot be deleted")
	}
	db := dbcore.GetDBInstance()
	return db.Where("username = ?", username).Delete(&models.User{}).Error
}

// CreateSession 为用户创建会话 token
func CreateSession(userID string) (string, error) {
	token := utils.GenerateRandomString(48)
	now := time.Now()
	session := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: models.FromTime(now.Add(sessionTTL)),
		CreatedAt: models.FromTime(now),
	}
	db := dbcore.GetDBInstance()
	if err := db.Create(session).Error; err != nil {
		return "", err
	}
	return token, nil
}

// GetUserBySession 根据会话 token 取用户，过期会话视为无效并删除
func GetUserBySession(token string) (*models.User, error) {
	db := dbcore.GetDBInstance()
	var session models.Session
	if err := db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt.ToTime()) {
		_ = db.Delete(&session).Error
		return nil, fmt.Errorf("session expired")
	}
	var user models.User
	if err := db.Where("id = ?", session.UserID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteSession 删除单个会话
func DeleteSession(token string) error {
	db := dbcore.GetDBInstance()
	return db.Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteAllSessions 清空全部会话
func DeleteAllSessions() error {
	db := dbcore.GetDBInstance()
	return db.Where("1 = 1").Delete(&models.Session{}).Error
}
