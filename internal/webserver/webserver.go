// Package webserver owns the HTTP surface: the echo instance, its
// middleware chain and the route registration helpers the API packages
// use. Admin routes sit under /api/admin behind JWT; storefront routes
// sit under /api/user keyed by an anonymous user id.
package webserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/desoftlabs/babyshop/internal/app"
	"github.com/gorilla/sessions"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var server *WebServer

type WebServer struct {
	appCtx app.AppContext
	root   *echo.Echo
	admin  *echo.Group
	user   *echo.Group
}

// jsoniterSerializer swaps echo's encoding/json for json-iterator.
type jsoniterSerializer struct{}

func (jsoniterSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsoniterSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

// Init builds the global webserver instance. API packages register their
// routes afterwards through the helper functions below.
func Init(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.System.Debug
	e.JSONSerializer = jsoniterSerializer{}
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(cfg.Web.CorsOrigin, ","),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Web.Secret))))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:        true,
		LogStatus:     true,
		LogMethod:     true,
		LogLatency:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Debug("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	// Make the database handle available to every handler.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("app_db", appCtx.DB())
			return next(c)
		}
	})

	admin := e.Group("/api/admin")
	admin.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.Web.Secret),
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/api/admin/login"
		},
	}))

	user := e.Group("/api/user")

	server = &WebServer{
		appCtx: appCtx,
		root:   e,
		admin:  admin,
		user:   user,
	}
	return server
}

// Instance returns the global webserver.
func Instance() *WebServer {
	return server
}

// Listen starts the HTTP listener and blocks.
func Listen() error {
	cfg := server.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("webserver listening", zap.String("addr", addr))
	return server.root.Start(addr)
}

// Shutdown stops the listener gracefully.
func Shutdown() error {
	return server.root.Close()
}

// Echo exposes the underlying echo instance for websocket and static
// registrations that do not fit the group helpers.
func Echo() *echo.Echo {
	return server.root
}

// ServeStatic mounts a local directory on a URL prefix (disk image store).
func ServeStatic(prefix, dir string) {
	server.root.Static(prefix, dir)
}

// GetDB returns the request-scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get("app_db").(*gorm.DB)
}

// Admin API route helpers

func ApiGET(path string, h echo.HandlerFunc) {
	server.admin.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.admin.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.admin.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.admin.DELETE(path, h)
}

// Storefront route helpers

func UserGET(path string, h echo.HandlerFunc) {
	server.user.GET(path, h)
}

func UserPOST(path string, h echo.HandlerFunc) {
	server.user.POST(path, h)
}

func UserPUT(path string, h echo.HandlerFunc) {
	server.user.PUT(path, h)
}

func UserDELETE(path string, h echo.HandlerFunc) {
	server.user.DELETE(path, h)
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		zap.L().Error("unhandled http error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		he = echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	msg, ok := he.Message.(string)
	if !ok {
		msg = http.StatusText(he.Code)
	}
	_ = c.JSON(he.Code, map[string]interface{}{"error": msg})
}
