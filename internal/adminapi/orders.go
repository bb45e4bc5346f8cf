package adminapi

import (
	"fmt"
	"net/http"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/desoftlabs/babyshop/internal/order"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// registerOrderRoutes registers order administration endpoints
func registerOrderRoutes() {
	webserver.ApiGET("/orders", listAllOrders)
	webserver.ApiGET("/orders/stats", orderStats)
	webserver.ApiGET("/orders/export", exportOrders)
	webserver.ApiGET("/orders/number/:orderId", getOrderByNumber)
	webserver.ApiPUT("/orders/:id/status", updateOrderStatus)
}

// failOrderError maps order service errors onto HTTP statuses.
func failOrderError(c echo.Context, err error) error {
	switch e := err.(type) {
	case *order.ValidationError:
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", e.Error(), nil)
	case *order.NotFoundError:
		return fail(c, http.StatusNotFound, "NOT_FOUND", e.Error(), nil)
	case *order.InsufficientStockError:
		return fail(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", e.Error(), nil)
	default:
		zap.L().Error("order operation failed",
			zap.String("uri", c.Request().RequestURI), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err.Error())
	}
}

func listAllOrders(c echo.Context) error {
	orders, err := orderService.AllOrders(c.Request().Context())
	if err != nil {
		return failOrderError(c, err)
	}
	return ok(c, orders)
}

func orderStats(c echo.Context) error {
	stats, err := orderService.OrderStats(c.Request().Context())
	if err != nil {
		return failOrderError(c, err)
	}
	return ok(c, stats)
}

func getOrderByNumber(c echo.Context) error {
	o, err := orderService.GetByOrderNumber(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return failOrderError(c, err)
	}
	return ok(c, o)
}

type statusPayload struct {
	Status string `json:"status" form:"status"`
}

func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}

	o, err := orderService.UpdateStatus(c.Request().Context(), id, payload.Status)
	if err != nil {
		return failOrderError(c, err)
	}

	logAction(c, "order_status_update", fmt.Sprintf("%s -> %s", o.OrderId, o.Status))
	return ok(c, o)
}

func exportOrders(c echo.Context) error {
	orders, err := orderService.AllOrders(c.Request().Context())
	if err != nil {
		return failOrderError(c, err)
	}

	xlsx := excelize.NewFile()
	sheet := "Sheet1"
	headers := []string{"Order ID", "User", "Customer", "Phone", "Address",
		"Delivery Date", "Payment", "Items", "Total", "Status", "Created At"}
	for i, h := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		xlsx.SetCellValue(sheet, cell, h)
	}

	for row, o := range orders {
		r := row + 2
		itemCount := 0
		for _, item := range o.Items {
			itemCount += item.Quantity
		}
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", r), o.OrderId)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", r), o.UserId)
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", r), o.CustomerInfo.Name)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", r), o.CustomerInfo.Phone)
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", r), o.CustomerInfo.Address)
		xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", r), o.Delivery.Date)
		xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", r), o.PaymentMethod)
		xlsx.SetCellValue(sheet, fmt.Sprintf("H%d", r), itemCount)
		xlsx.SetCellValue(sheet, fmt.Sprintf("I%d", r), o.TotalAmount)
		xlsx.SetCellValue(sheet, fmt.Sprintf("J%d", r), o.Status)
		xlsx.SetCellValue(sheet, fmt.Sprintf("K%d", r), o.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	return xlsx.Write(c.Response())
}
