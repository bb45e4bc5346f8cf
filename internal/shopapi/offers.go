package shopapi

import (
	"net/http"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/labstack/echo/v4"
)

func registerOfferRoutes() {
	webserver.UserGET("/offers", listActiveOffers)
}

func listActiveOffers(c echo.Context) error {
	return cachedJSON(c, "offers", "active", func() (interface{}, error) {
		var rows []domain.Offer
		if err := GetDB(c).Where("is_active = ?", true).Order("created_at DESC").Find(&rows).Error; err != nil {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch offers")
		}
		return rows, nil
	})
}
