package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

type loginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/login", login)
	webserver.ApiGET("/current", currentOperator)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login request", err.Error())
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var opr domain.SysOpr
	if err := GetDB(c).Where("username = ?", payload.Username).First(&opr).Error; err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}
	if !strings.EqualFold(opr.Status, common.ENABLED) {
		return fail(c, http.StatusForbidden, "OPERATOR_DISABLED", "Operator account is disabled", nil)
	}
	if opr.Password != common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt()) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}

	claims := jwt.MapClaims{
		"sub":   opr.Username,
		"level": opr.Level,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(appCtx.Config().Web.Secret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", nil)
	}

	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())
	zap.L().Info("operator login", zap.String("username", opr.Username), zap.String("ip", c.RealIP()))

	return ok(c, map[string]interface{}{
		"token":    signed,
		"username": opr.Username,
		"level":    opr.Level,
	})
}

func currentOperator(c echo.Context) error {
	username := operatorName(c)
	if username == "" {
		return fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).Where("username = ?", username).First(&opr).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Operator not found", nil)
	}
	return ok(c, opr)
}

// operatorName recovers the operator username from the bearer token. The
// route group middleware has already verified the signature.
func operatorName(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
