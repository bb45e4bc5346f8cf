// Package shopapi implements the public storefront surface under
// /api/user: catalog reads, per-user carts, checkout and the websocket
// notification endpoint.
package shopapi

import (
	"net/http"

	"github.com/desoftlabs/babyshop/internal/app"
	"github.com/desoftlabs/babyshop/internal/cache"
	"github.com/desoftlabs/babyshop/internal/notify"
	"github.com/desoftlabs/babyshop/internal/order"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	appCtx       app.AppContext
	orderService *order.Service
	catalogCache cache.Cache
	hub          *notify.Hub
)

// InitRouter wires the package dependencies and registers the storefront
// routes. catalogCache and h may be nil when those features are disabled.
func InitRouter(ctx app.AppContext, svc *order.Service, cc cache.Cache, h *notify.Hub) {
	appCtx = ctx
	orderService = svc
	catalogCache = cc
	hub = h

	registerProductRoutes()
	registerOfferRoutes()
	registerCartRoutes()
	registerOrderRoutes()
	registerWsRoutes()
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

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{"error": message})
}

// failOrderError maps order service errors onto HTTP statuses.
func failOrderError(c echo.Context, err error) error {
	switch e := err.(type) {
	case *order.ValidationError:
		return fail(c, http.StatusBadRequest, e.Error())
	case *order.NotFoundError:
		return fail(c, http.StatusNotFound, e.Error())
	case *order.InsufficientStockError:
		return fail(c, http.StatusBadRequest, e.Error())
	default:
		zap.L().Error("order operation failed",
			zap.String("uri", c.Request().RequestURI), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}
}
