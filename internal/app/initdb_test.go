package app

import (
	"fmt"
	"testing"

	"github.com/desoftlabs/babyshop/config"
	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	a := NewApplication(config.DefaultAppConfig)
	a.OverrideDB(db)
	a.settings = NewSettingsManager(a)
	return a
}

func TestCheckSuperSeedsAdmin(t *testing.T) {
	a := newTestApp(t)

	a.checkSuper()

	var opr domain.SysOpr
	require.NoError(t, a.DB().Where("username = ?", "admin").First(&opr).Error)
	assert.Equal(t, "super", opr.Level)
	assert.Equal(t, common.Sha256HashWithSalt("babyshop", common.GetSecretSalt()), opr.Password)

	// Running again must not duplicate the account.
	a.checkSuper()
	var count int64
	require.NoError(t, a.DB().Model(&domain.SysOpr{}).Where("username = ?", "admin").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCheckSuperRepairsAccount(t *testing.T) {
	a := newTestApp(t)
	a.checkSuper()

	require.NoError(t, a.DB().Model(&domain.SysOpr{}).
		Where("username = ?", "admin").
		Updates(map[string]interface{}{"level": "opr", "status": common.DISABLED}).Error)

	a.checkSuper()

	var opr domain.SysOpr
	require.NoError(t, a.DB().Where("username = ?", "admin").First(&opr).Error)
	assert.Equal(t, "super", opr.Level)
	assert.Equal(t, common.ENABLED, opr.Status)
}

func TestCheckSettingsIdempotent(t *testing.T) {
	a := newTestApp(t)

	a.checkSettings()
	a.checkSettings()

	var count int64
	require.NoError(t, a.DB().Model(&domain.SysConfig{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaultSettings)), count)

	assert.Equal(t, "BabyShop", a.GetSettingsStringValue("shop", "StoreName"))
	assert.Equal(t, int64(5), a.GetSettingsInt64Value("shop", "LowStockThreshold"))
}

func TestSettingsSaveAndDecode(t *testing.T) {
	a := newTestApp(t)
	a.checkSettings()

	require.NoError(t, a.SaveSettings(map[string]interface{}{
		"shop.StoreName":         "Little Sprouts",
		"shop.LowStockThreshold": 12,
	}))

	assert.Equal(t, "Little Sprouts", a.GetSettingsStringValue("shop", "StoreName"))

	shop := a.settings.Shop()
	assert.Equal(t, "Little Sprouts", shop.StoreName)
	assert.Equal(t, int64(12), shop.LowStockThreshold)

	err := a.SaveSettings(map[string]interface{}{"malformed": 1})
	assert.Error(t, err)
}

func TestCheckCatalogSeedsOnce(t *testing.T) {
	a := newTestApp(t)

	a.checkCatalog()
	a.checkCatalog()

	var count int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}
