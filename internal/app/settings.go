package app

import (
	"strings"
	"sync"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const settingsCacheTTL = 30 * time.Second

// ShopSettings is the typed view of the "shop" settings category.
type ShopSettings struct {
	StoreName         string `mapstructure:"StoreName"`
	StorePhone        string `mapstructure:"StorePhone"`
	LowStockThreshold int64  `mapstructure:"LowStockThreshold"`
	CartStaleDays     int64  `mapstructure:"CartStaleDays"`
}

// SettingsManager serves sys_config values with a short read cache so hot
// paths avoid hitting the database per request.
type SettingsManager struct {
	app *Application

	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

func NewSettingsManager(app *Application) *SettingsManager {
	return &SettingsManager{app: app, cache: make(map[string]string)}
}

func (m *SettingsManager) load() map[string]string {
	m.mu.RLock()
	if time.Since(m.loadedAt) < settingsCacheTTL {
		defer m.mu.RUnlock()
		return m.cache
	}
	m.mu.RUnlock()

	var configs []domain.SysConfig
	if err := m.app.gormDB.Find(&configs).Error; err != nil {
		zap.L().Error("settings: load failed", zap.Error(err))
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.cache
	}

	fresh := make(map[string]string, len(configs))
	for _, c := range configs {
		fresh[c.Type+"."+c.Name] = c.Value
	}

	m.mu.Lock()
	m.cache = fresh
	m.loadedAt = time.Now()
	m.mu.Unlock()
	return fresh
}

func (m *SettingsManager) GetString(category, key string) string {
	return m.load()[category+"."+key]
}

func (m *SettingsManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(m.GetString(category, key))
}

func (m *SettingsManager) GetBool(category, key string) bool {
	return cast.ToBool(m.GetString(category, key))
}

// Shop decodes the shop category into its typed form.
func (m *SettingsManager) Shop() ShopSettings {
	values := make(map[string]interface{})
	for full, v := range m.load() {
		if strings.HasPrefix(full, "shop.") {
			values[strings.TrimPrefix(full, "shop.")] = v
		}
	}
	var out ShopSettings
	if err := mapstructure.WeakDecode(values, &out); err != nil {
		zap.L().Warn("settings: shop decode failed", zap.Error(err))
	}
	return out
}

// Save persists a map of "category.name" keys and refreshes the cache.
func (m *SettingsManager) Save(settings map[string]interface{}) error {
	for full, value := range settings {
		parts := strings.SplitN(full, ".", 2)
		if len(parts) != 2 {
			return errors.Errorf("invalid settings key %q", full)
		}
		err := m.app.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", parts[0], parts[1]).
			Update("value", cast.ToString(value)).Error
		if err != nil {
			return errors.Wrapf(err, "save setting %s", full)
		}
	}
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
	return nil
}
