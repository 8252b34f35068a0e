package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/DevanshBajpai09/product-management/internal/logging"
	"github.com/DevanshBajpai09/product-management/internal/service"
)

type ProductHandler struct {
	Svc *service.ProductService
}

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint(v), err
}

// CreateProduct reads a multipart form: name, description, category,
// price, rating and an optional "image" file.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "price is not a number", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "price is not a number")
	}

	rating := 0.0
	if raw := c.FormValue("rating"); raw != "" {
		rating, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			l.Warn("product_create_error", "status", 400, "reason", "rating is not a number", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "rating is not a number")
		}
	}

	in := service.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Price:       price,
		Rating:      rating,
	}

	var image *service.ImageUpload
	if fh, err := c.FormFile("image"); err == nil {
		src, err := fh.Open()
		if err != nil {
			l.Warn("product_create_error", "status", 400, "reason", "cannot open uploaded image", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded image")
		}
		defer src.Close()
		image = &service.ImageUpload{Filename: fh.Filename, Content: src}
	}

	prod, err := h.Svc.Create(ctx, in, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		case errors.Is(err, service.ErrValidation):
			l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUploadFailed):
			l.Error("product_create_error", "status", 500, "reason", "image upload failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "image upload failed")
		default:
			l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot add product to db")
		}
	}

	l.Info("create_product_success", "productID", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseUint(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	prod, err := h.Svc.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("get_product_failed", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		default:
			l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
		}
	}

	return c.JSON(http.StatusOK, prod)
}

// GetProducts returns every product of the current owner, newest first.
// Filtering happens client side.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	items, err := h.Svc.List(ctx)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		}
		l.Error("get_products_error", "status", 500, "reason", "cannot get products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get products")
	}

	l.Info("get_products_success", "count", len(items))
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

// UpdateProduct replaces every editable field, matching the edit form.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseUint(c.Param("id"))
	if err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Price       float64 `json:"price"`
		Rating      float64 `json:"rating"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.Update(ctx, id, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Rating:      req.Rating,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("product_update_error", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("product_update_error", "status", 500, "reason", "cannot update product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
		}
	}

	l.Info("update_product_success", "productID", prod.ID)
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseUint(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("product_delete_error", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		default:
			l.Error("product_delete_error", "status", 500, "reason", "cannot delete product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
		}
	}

	l.Info("delete_product_success", "productID", id)
	return c.NoContent(http.StatusNoContent)
}
