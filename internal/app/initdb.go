package app

import (
	"errors"
	"strings"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "babyshop"

	hashedPassword := common.Sha256HashWithSalt(defaultPassword, common.GetSecretSalt())

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)

	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = hashedPassword
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

type settingDef struct {
	Key         string
	Default     string
	Description string
}

var defaultSettings = []settingDef{
	{"shop.StoreName", "BabyShop", "Store display name"},
	{"shop.StorePhone", "", "Store contact phone"},
	{"shop.LowStockThreshold", "5", "Stock level that flags a product in the admin dashboard"},
	{"shop.CartStaleDays", "30", "Days before abandoned cart rows are purged"},
	{"system.OprLogRetentionDays", "365", "Days before operator action logs are purged"},
}

func (a *Application) checkSettings() {
	for sortid, def := range defaultSettings {
		parts := strings.SplitN(def.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", def.Key))
			continue
		}

		category := parts[0]
		name := parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     0,
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  def.Default,
				Remark: def.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", def.Key),
				zap.String("default", def.Default))
		}
	}
}

// checkCatalog seeds a demo catalog on a fresh database so the storefront
// is browsable out of the box.
func (a *Application) checkCatalog() {
	defaultProducts := []domain.Product{
		{Name: "Soft Cotton Diaper Pack", Description: "Breathable cotton diapers, pack of 30",
			Category: "diapers", Price: 399, Size: "NB", Count: "30", Stock: 100},
		{Name: "Baby Wipes Jumbo", Description: "Fragrance-free wipes, 80 sheets",
			Category: "care", Price: 149, Count: "80", Stock: 200},
		{Name: "Feeding Bottle 250ml", Description: "Anti-colic feeding bottle",
			Category: "feeding", Price: 299, Count: "1", Stock: 50},
		{Name: "Overnight Diaper Pants L", Description: "12-hour absorption, large size",
			Category: "diapers", Price: 549, Size: "L", Count: "40", Stock: 80, OnOffer: true},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("name = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.UUIDint64()
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default product", zap.String("name", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default product", zap.String("name", p.Name))
			}
		}
	}
}
