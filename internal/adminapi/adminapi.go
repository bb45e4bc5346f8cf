// Package adminapi implements the /api/admin surface: operator auth,
// catalog management with image uploads, order administration and data
// exports.
package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desoftlabs/babyshop/internal/app"
	"github.com/desoftlabs/babyshop/internal/cache"
	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/order"
	"github.com/desoftlabs/babyshop/internal/storage"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	appCtx       app.AppContext
	imageStore   storage.ObjectStore
	orderService *order.Service
	catalogCache cache.Cache
)

// InitRouter wires the package dependencies and registers all admin
// routes. catalogCache may be nil when caching is disabled.
func InitRouter(ctx app.AppContext, store storage.ObjectStore, svc *order.Service, cc cache.Cache) {
	appCtx = ctx
	imageStore = store
	orderService = svc
	catalogCache = cc

	registerAuthRoutes()
	registerProductRoutes()
	registerOfferRoutes()
	registerOrderRoutes()
}

func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	body := map[string]interface{}{"error": message, "code": code}
	if details != nil {
		body["details"] = details
	}
	return c.JSON(status, body)
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":     rows,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// invalidateCatalogCache drops cached storefront reads after an admin
// write so shoppers see fresh data.
func invalidateCatalogCache(c echo.Context) {
	if catalogCache == nil {
		return
	}
	if err := catalogCache.Invalidate(c.Request().Context(), "*"); err != nil {
		zap.L().Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

// logAction records an operator action in the audit log.
func logAction(c echo.Context, action, remark string) {
	username := operatorName(c)
	GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   username,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   remark,
		OptTime:   time.Now(),
	})
}
