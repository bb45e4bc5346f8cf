package shopapi

import (
	"net/http"

	"github.com/desoftlabs/babyshop/internal/order"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/labstack/echo/v4"
)

func registerOrderRoutes() {
	webserver.UserPOST("/order/:userId", placeOrder)
	webserver.UserGET("/orders/:userId", listUserOrders)
}

func placeOrder(c echo.Context) error {
	userId, err := userIDParam(c)
	if err != nil {
		return err
	}

	var req order.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Unable to parse order")
	}

	o, err := orderService.PlaceOrder(c.Request().Context(), userId, &req)
	if err != nil {
		return failOrderError(c, err)
	}
	return created(c, o)
}

func listUserOrders(c echo.Context) error {
	userId, err := userIDParam(c)
	if err != nil {
		return err
	}

	orders, err := orderService.UserOrders(c.Request().Context(), userId)
	if err != nil {
		return failOrderError(c, err)
	}
	return ok(c, orders)
}
