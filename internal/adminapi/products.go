package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/desoftlabs/babyshop/internal/storage"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/desoftlabs/babyshop/pkg/common"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const maxImageSize = 5 << 20

// badImageError marks an upload the client can fix.
type badImageError struct{ msg string }

func (e *badImageError) Error() string { return e.msg }

func failUpload(c echo.Context, err error) error {
	var bie *badImageError
	if errors.As(err, &bie) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", bie.Error(), nil)
	}
	return fail(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to upload image", err.Error())
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/export", exportProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))

	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"name":       "name",
		"price":      "price",
		"stock":      "stock",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, okcol := allowed[sortField]
	if !okcol || sortCol == "" {
		sortCol = "id"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q != "" {
		if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
			db = db.Where("name ILIKE ?", "%"+q+"%")
		} else {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

// bindProductForm reads the multipart product fields into p. It does not
// touch the image, which uploadImage handles separately.
func bindProductForm(c echo.Context, p *domain.Product) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return fmt.Errorf("Name is required")
	}
	price := cast.ToFloat64(c.FormValue("price"))
	if price <= 0 {
		return fmt.Errorf("Valid price is required")
	}

	p.Name = name
	p.Description = strings.TrimSpace(c.FormValue("description"))
	p.Category = strings.TrimSpace(c.FormValue("category"))
	p.Price = price
	p.Size = strings.TrimSpace(c.FormValue("size"))
	p.Count = strings.TrimSpace(c.FormValue("count"))
	p.Stock = cast.ToInt(c.FormValue("stock"))
	p.OnOffer = cast.ToBool(c.FormValue("onOffer"))
	p.OutOfStock = cast.ToBool(c.FormValue("outOfStock"))

	if v := strings.TrimSpace(c.FormValue("originalPrice")); v != "" {
		op := cast.ToFloat64(v)
		p.OriginalPrice = &op
	} else {
		p.OriginalPrice = nil
	}
	return nil
}

// uploadImage stores the request's image file (if any) under the given
// key prefix and returns its public URL. Returns "" when no file was sent.
func uploadImage(c echo.Context, prefix string) (string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}
	if fh.Size > maxImageSize {
		return "", &badImageError{"Image exceeds the 5MB limit"}
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", &badImageError{"Only image uploads are allowed"}
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := storage.ImageKey(prefix, fh.Filename)
	url, err := imageStore.Put(c.Request().Context(), key, contentType, src, fh.Size)
	if err != nil {
		return "", err
	}
	return url, nil
}

// deleteImage removes a previously uploaded image by its public URL.
func deleteImage(c echo.Context, imageURL string) {
	key := storage.KeyFromURL(imageURL)
	if key == "" {
		return
	}
	if err := imageStore.Delete(c.Request().Context(), key); err != nil {
		zap.L().Warn("failed to delete stored image", zap.String("key", key), zap.Error(err))
	}
}

func createProduct(c echo.Context) error {
	var p domain.Product
	if err := bindProductForm(c, &p); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	url, err := uploadImage(c, "product")
	if err != nil {
		return failUpload(c, err)
	}
	p.Image = url

	now := time.Now()
	p.ID = common.UUIDint64()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}

	invalidateCatalogCache(c)
	logAction(c, "product_create", p.Name)
	return created(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	if err := bindProductForm(c, &p); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}

	oldImage := p.Image
	url, err := uploadImage(c, "product")
	if err != nil {
		return failUpload(c, err)
	}
	if url != "" {
		p.Image = url
	}

	p.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}

	// Replaced images are orphaned otherwise.
	if url != "" && oldImage != "" && oldImage != url {
		deleteImage(c, oldImage)
	}

	invalidateCatalogCache(c)
	logAction(c, "product_update", p.Name)
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	if p.Image != "" {
		deleteImage(c, p.Image)
	}

	invalidateCatalogCache(c)
	logAction(c, "product_delete", p.Name)
	return ok(c, map[string]interface{}{"message": "Product deleted successfully"})
}

// productCSVRow flattens a product for the CSV export.
type productCSVRow struct {
	ID       int64   `csv:"id"`
	Name     string  `csv:"name"`
	Category string  `csv:"category"`
	Price    float64 `csv:"price"`
	Size     string  `csv:"size"`
	Count    string  `csv:"count"`
	Stock    int     `csv:"stock"`
	OnOffer  bool    `csv:"on_offer"`
}

func exportProducts(c echo.Context) error {
	var rows []domain.Product
	if err := GetDB(c).Order("id ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	out := make([]productCSVRow, 0, len(rows))
	for _, p := range rows {
		out = append(out, productCSVRow{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price,
			Size:     p.Size,
			Count:    p.Count,
			Stock:    p.Stock,
			OnOffer:  p.OnOffer,
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return gocsv.Marshal(&out, c.Response())
}
