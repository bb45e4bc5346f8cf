package app

import (
	"os"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/pkg/metrics"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 10m", func() {
		go a.SchedShopMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedClearExpireData()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	// Collect CPU usage
	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge("system_cpuuse", int64(_cpuuse[0]*100)) // Store as percentage * 100
	}

	// Collect memory usage
	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge("system_memuse", int64(_meminfo.Used/1024/1024))
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	// Collect process CPU usage
	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge("babyshop_cpuuse", int64(cpuuse*100)) // Store as percentage * 100
	}

	// Collect process memory usage
	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge("babyshop_memuse", int64(meminfo.RSS/1024/1024))
	}
}

// SchedShopMonitorTask samples shop-level gauges for the admin dashboard.
func (a *Application) SchedShopMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	var pending int64
	a.gormDB.Model(&domain.Order{}).Where("status = ?", domain.OrderStatusPending).Count(&pending)
	metrics.SetGauge("orders_pending", pending)

	threshold := a.GetSettingsInt64Value("shop", "LowStockThreshold")
	if threshold <= 0 {
		threshold = 5
	}
	var lowStock int64
	a.gormDB.Model(&domain.Product{}).Where("stock <= ?", threshold).Count(&lowStock)
	metrics.SetGauge("products_low_stock", lowStock)

	var cartRows int64
	a.gormDB.Model(&domain.CartItem{}).Count(&cartRows)
	metrics.SetGauge("cart_rows", cartRows)
}

// SchedClearExpireData purges stale cart rows and expired operator logs.
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	staleDays := a.GetSettingsInt64Value("shop", "CartStaleDays")
	if staleDays <= 0 {
		staleDays = 30
	}
	a.gormDB.
		Where("updated_at < ?", time.Now().
			Add(-time.Hour*24*time.Duration(staleDays))).Delete(&domain.CartItem{})

	retention := a.GetSettingsInt64Value("system", "OprLogRetentionDays")
	if retention <= 0 {
		retention = 365
	}
	a.gormDB.
		Where("opt_time < ? ", time.Now().
			Add(-time.Hour*24*time.Duration(retention))).Delete(domain.SysOprLog{})
}
