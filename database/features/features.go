package features

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cosphere-app/turnguard/database/accounts"
	"github.com/cosphere-app/turnguard/database/dbcore"
	"github.com/cosphere-app/turnguard/database/models"
	"github.com/cosphere-app/turnguard/turnstile"
)

// ErrUnknownFeature 功能 ID 不在注册表内
var ErrUnknownFeature = errors.New("unknown feature id")

// InitializeFeatureConfigs 为每个已知功能幂等创建默认关闭的记录。
// 已存在的记录保持原状，不会被重置。
func InitializeFeatureConfigs() error {
	systemID, err := accounts.EnsureSystemUser()
	if err != nil {
		return fmt.Errorf("resolve system identity: %w", err)
	}
	db := dbcore.GetDBInstance()
	now := models.FromTime(time.Now())
	for _, featureID := range turnstile.KnownFeatureIDs() {
		record := models.FeatureConfig{
			FeatureID: featureID,
			Enabled:   false,
			UpdatedBy: systemID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "feature_id"}},
			DoNothing: true,
		}).Create(&record).Error
		if err != nil {
			return fmt.Errorf("initialize feature %s: %w", featureID, err)
		}
	}
	return nil
}

// GetFeatureConfig 读取单个功能开关，记录不存在返回 (nil, nil)
func GetFeatureConfig(featureID string) (*models.FeatureConfig, error) {
	if !turnstile.IsKnownFeature(featureID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, featureID)
	}
	db := dbcore.GetDBInstance()
	var cfg models.FeatureConfig
	if err := db.Where("feature_id = ?", featureID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// UpdateFeatureConfig 更新（或创建）功能开关，归因到可解析的管理员身份
func UpdateFeatureConfig(featureID string, enabled bool, adminID string) error {
	if !turnstile.IsKnownFeature(featureID) {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, featureID)
	}
	resolvedID, err := accounts.ResolveAdminID(adminID)
	if err != nil {
		return fmt.Errorf("resolve admin identity: %w", err)
	}
	db := dbcore.GetDBInstance()
	now := models.FromTime(time.Now())
	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.FeatureConfig
		err := tx.Where("feature_id = ?", featureID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.FeatureConfig{
				FeatureID: featureID,
				Enabled:   enabled,
				UpdatedBy: resolvedID,
				CreatedAt: now,
				UpdatedAt: now,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&models.FeatureConfig{}).
			Where("feature_id = ?", featureID).
			Updates(map[string]interface{}{
				"enabled":    enabled,
				"updated_by": resolvedID,
				"updated_at": now,
			}).Error
	})
}

// GetAllFeatureConfigs 返回全部已知功能的开关映射，缺失记录按关闭处理
func GetAllFeatureConfigs() (map[string]bool, error) {
	db := dbcore.GetDBInstance()
	var records []models.FeatureConfig
	if err := db.Find(&records).Error; err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(turnstile.KnownFeatureIDs()))
	for _, featureID := range turnstile.KnownFeatureIDs() {
		result[featureID] = false
	}
	for _, record := range records {
		if _, ok := result[record.FeatureID]; ok {
			result[record.FeatureID] = record.Enabled
		}
	}
	return result, nil
}

// ListFeatureConfigs 返回全部已知功能的完整记录（管理端展示用）
func ListFeatureConfigs() ([]models.FeatureConfig, error) {
	db := dbcore.GetDBInstance()
	var records []models.FeatureConfig
	if err := db.Find(&records).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.FeatureConfig, len(records))
	for _, r := range records {
		byID[r.FeatureID] = r
	}
	result := make([]models.FeatureConfig, 0, len(turnstile.KnownFeatureIDs()))
	for _, featureID := range turnstile.KnownFeatureIDs() {
		if r, ok := byID[featureID]; ok {
			result = append(result, r)
			continue
		}
		result = append(result, models.FeatureConfig{FeatureID: featureID, Enabled: false})
	}
	return result, nil
}

// BatchUpdateFeatures 批量更新开关，返回成功更新的条数。
// 不做跨功能事务，部分成功由调用方（批量操作）核对。
func BatchUpdateFeatures(featureIDs []string, enabled bool, adminID string) (int, error) {
	resolvedID, err := accounts.ResolveAdminID(adminID)
	if err != nil {
		return 0, fmt.Errorf("resolve admin identity: %w", err)
	}
	db := dbcore.GetDBInstance()
	now := models.FromTime(time.Now())
	updated := 0
	var firstErr error
	for _, featureID := range featureIDs {
		if !turnstile.IsKnownFeature(featureID) {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s", ErrUnknownFeature, featureID)
			}
			continue
		}
		res := db.Model(&models.FeatureConfig{}).
			Where("feature_id = ?", featureID).
			Updates(map[string]interface{}{
				"enabled":    enabled,
				"updated_by": resolvedID,
				"updated_at": now,
			})
		if res.Error != nil {
			if firstErr == nil {
				firstErr = res.Error
			}
			continue
		}
		if res.RowsAffected == 0 {
			err := db.Create(&models.FeatureConfig{
				FeatureID: featureID,
				Enabled:   enabled,
				UpdatedBy: resolvedID,
				CreatedAt: now,
				UpdatedAt: now,
			}).Error
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		updated++
	}
	return updated, firstErr
}
