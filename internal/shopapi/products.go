package shopapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/webserver"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const catalogCacheTTL = 60 * time.Second

func registerProductRoutes() {
	webserver.UserGET("/products", listProducts)
	webserver.UserGET("/products/offers", listProductsOnOffer)
	webserver.UserGET("/products/category/:category", listProductsByCategory)
	webserver.UserGET("/products/:productId", getProduct)
}

// cachedJSON serves the cached payload for key, or runs fetch, caches the
// result and serves it. Cache failures degrade to a plain DB read.
func cachedJSON(c echo.Context, operation, key string, fetch func() (interface{}, error)) error {
	ctx := c.Request().Context()
	if catalogCache != nil {
		ck := catalogCache.GenerateKey(operation, key)
		if raw, err := catalogCache.Get(ctx, ck); err == nil && raw != "" {
			return c.JSONBlob(http.StatusOK, []byte(raw))
		}
	}

	data, err := fetch()
	if err != nil {
		return err
	}

	if catalogCache != nil {
		if raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(data); err == nil {
			ck := catalogCache.GenerateKey(operation, key)
			if err := catalogCache.Set(ctx, ck, raw, catalogCacheTTL); err != nil {
				zap.L().Debug("catalog cache write failed", zap.Error(err))
			}
		}
	}
	return ok(c, data)
}

func listProducts(c echo.Context) error {
	return cachedJSON(c, "products", "all", func() (interface{}, error) {
		var rows []domain.Product
		if err := GetDB(c).Order("created_at DESC").Find(&rows).Error; err != nil {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch products")
		}
		return rows, nil
	})
}

func getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid product id")
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "Product not found")
	}
	return ok(c, p)
}

func listProductsByCategory(c echo.Context) error {
	category := c.Param("category")
	var rows []domain.Product
	if err := GetDB(c).Where("category = ?", category).Order("created_at DESC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch products")
	}
	if len(rows) == 0 {
		return fail(c, http.StatusNotFound, "No products found in this category")
	}
	return ok(c, rows)
}

func listProductsOnOffer(c echo.Context) error {
	var rows []domain.Product
	if err := GetDB(c).Where("on_offer = ?", true).Order("created_at DESC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to fetch products")
	}
	if len(rows) == 0 {
		return fail(c, http.StatusNotFound, "No products on offer")
	}
	return ok(c, rows)
}
