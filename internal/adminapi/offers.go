package adminapi

import (
	"net/http"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// registerOfferRoutes registers promotional banner CRUD endpoints
func registerOfferRoutes() {
	webserver.ApiGET("/offers", listOffers)
	webserver.ApiGET("/offers/:id", getOffer)
	webserver.ApiPOST("/offers", createOffer)
	webserver.ApiPUT("/offers/:id", updateOffer)
	webserver.ApiDELETE("/offers/:id", deleteOffer)
}

func listOffers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Offer{})
	if v := c.QueryParam("active"); v != "" {
		db = db.Where("is_active = ?", cast.ToBool(v))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query offers", err.Error())
	}

	var rows []domain.Offer
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query offers", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOffer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid offer ID", nil)
	}
	var o domain.Offer
	if err := GetDB(c).Where("id = ?", id).First(&o).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Offer not found", nil)
	}
	return ok(c, o)
}

func createOffer(c echo.Context) error {
	url, err := uploadImage(c, "offer")
	if err != nil {
		return failUpload(c, err)
	}
	// An offer is nothing but its banner.
	if url == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Image is required", nil)
	}

	isActive := true
	if v := c.FormValue("isActive"); v != "" {
		isActive = cast.ToBool(v)
	}

	now := time.Now()
	o := domain.Offer{
		ID:        common.UUIDint64(),
		Image:     url,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := GetDB(c).Create(&o).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create offer", err.Error())
	}

	invalidateCatalogCache(c)
	logAction(c, "offer_create", o.Image)
	return created(c, o)
}

func updateOffer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid offer ID", nil)
	}
	var o domain.Offer
	if err := GetDB(c).Where("id = ?", id).First(&o).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Offer not found", nil)
	}

	if v := c.FormValue("isActive"); v != "" {
		o.IsActive = cast.ToBool(v)
	}

	oldImage := o.Image
	url, err := uploadImage(c, "offer")
	if err != nil {
		return failUpload(c, err)
	}
	if url != "" {
		o.Image = url
	}

	o.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&o).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update offer", err.Error())
	}

	if url != "" && oldImage != "" && oldImage != url {
		deleteImage(c, oldImage)
	}

	invalidateCatalogCache(c)
	logAction(c, "offer_update", o.Image)
	return ok(c, o)
}

func deleteOffer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid offer ID", nil)
	}
	var o domain.Offer
	if err := GetDB(c).Where("id = ?", id).First(&o).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Offer not found", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Offer{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete offer", err.Error())
	}
	if o.Image != "" {
		deleteImage(c, o.Image)
	}

	invalidateCatalogCache(c)
	logAction(c, "offer_delete", o.Image)
	return ok(c, map[string]interface{}{"message": "Offer deleted successfully"})
}
