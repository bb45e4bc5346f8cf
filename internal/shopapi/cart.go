package shopapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func registerCartRoutes() {
	webserver.UserGET("/cart/:userId", getCart)
	webserver.UserPOST("/cart/:userId", addToCart)
	webserver.UserPUT("/cart/:userId/:productId", updateCartItem)
	webserver.UserDELETE("/cart/:userId/:productId", removeCartItem)
}

// cartLine is one cart row joined with its current product detail.
type cartLine struct {
	ID        int64           `json:"id,string"`
	ProductId int64           `json:"product_id,string"`
	Quantity  int             `json:"quantity"`
	Product   *domain.Product `json:"product"`
}

func userIDParam(c echo.Context) (string, error) {
	userId := strings.TrimSpace(c.Param("userId"))
	if userId == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "User id is required")
	}
	return userId, nil
}

func getCart(c echo.Context) error {
	userId, err := userIDParam(c)
	if err != nil {
		return err
	}

	var rows []domain.CartItem
	if err := GetDB(c).Where("user_id = ?", userId).Order("created_at ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch cart")
	}

	// Join product detail; rows whose product vanished are dropped.
	lines := make([]cartLine, 0, len(rows))
	for _, row := range rows {
		var p domain.Product
		if err := GetDB(c).Where("id = ?", row.ProductId).First(&p).Error; err != nil {
			continue
		}
		lines = append(lines, cartLine{
			ID:        row.ID,
			ProductId: row.ProductId,
			Quantity:  row.Quantity,
			Product:   &p,
		})
	}
	return ok(c, lines)
}

type cartPayload struct {
	ProductId int64 `json:"productId,string" form:"productId"`
	Quantity  int   `json:"quantity" form:"quantity"`
}

func addToCart(c echo.Context) error {
	userId, err := userIDParam(c)
	if err != nil {
		return err
	}
	var payload cartPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse cart item")
	}
	if payload.Quantity < 1 {
		payload.Quantity = 1
	}

	var product domain.Product
	if err := GetDB(c).Where("id = ?", payload.ProductId).First(&product).Error; err != nil {
		return fail(c, http.StatusNotFound, "Product not found")
	}

	db := GetDB(c)
	var row domain.CartItem
	err = db.Where("user_id = ? and product_id = ?", userId, payload.ProductId).First(&row).Error
	switch {
	case err == nil:
		row.Quantity += payload.Quantity
		row.UpdatedAt = time.Now()
		if err := db.Save(&row).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "Failed to update cart")
		}
	case err == gorm.ErrRecordNotFound:
		row = domain.CartItem{
			ID:        common.UUIDint64(),
			UserId:    userId,
			ProductId: payload.ProductId,
			Quantity:  payload.Quantity,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.Create(&row).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "Failed to add to cart")
		}
	default:
		return fail(c, http.StatusInternalServerError, "Failed to add to cart")
	}

	return created(c, row)
}

func updateCartItem(c echo.Context) error {
	userId, err := userIDParam(c)
	if err != nil {
		return err
	}
	var payload cartPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse cart item")
	}
	if payload.Quantity < 1 {
		return fail(c, http.StatusBadRequest, "Valid quantity is required")
	}

	productId, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}

	db := GetDB(c)
	var row domain.CartItem
	if err := db.Where("user_id = ? and product_id = ?", userId, productId).First(&row).Error; err != nil {
		return fail(c, http.StatusNotFound, "Cart item not found")
	}

	row.Quantity = payload.Quantity
	row.UpdatedAt = time.Now()
	if err := db.Save(&row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to update cart")
	}
	return ok(c, row)
}

func removeCartItem(c echo.Context) error {
	userId, err := userIDParam(c)
	if err != nil {
		return err
	}
	productId, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}
	result := GetDB(c).Where("user_id = ? and product_id = ?", userId, productId).
		Delete(&domain.CartItem{})
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, "Failed to remove cart item")
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "Cart item not found")
	}
	return ok(c, map[string]interface{}{"message": "Item removed from cart"})
}
