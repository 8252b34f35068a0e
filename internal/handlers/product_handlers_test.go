package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/DevanshBajpai09/product-management/internal/blob"
	"github.com/DevanshBajpai09/product-management/internal/identity"
	"github.com/DevanshBajpai09/product-management/internal/models"
	"github.com/DevanshBajpai09/product-management/internal/repo"
	"github.com/DevanshBajpai09/product-management/internal/service"
)

func newProductHandler(t *testing.T) (*ProductHandler, string) {
	t.Helper()

	db := InitTestDB(t)
	mediaDir := t.TempDir()
	blobs, err := blob.NewDiskStore(mediaDir, "http://localhost:8080")
	require.NoError(t, err)

	h := &ProductHandler{Svc: &service.ProductService{
		Repo:     &repo.GormRepo{DB: db},
		Blobs:    blobs,
		Identity: identity.ContextProvider{},
	}}
	return h, mediaDir
}

// asUser mimics the auth middleware by placing the user id into the
// request context.
func asUser(c echo.Context, userID uint) {
	req := c.Request().WithContext(identity.WithUser(c.Request().Context(), userID))
	c.SetRequest(req)
}

func multipartBody(t *testing.T, fields map[string]string, imageName, imageContent string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(imageContent))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateProductMultipart(t *testing.T) {
	h, mediaDir := newProductHandler(t)
	e := echo.New()

	body, contentType := multipartBody(t, map[string]string{
		"name":        "Poster",
		"description": "a nice poster",
		"category":    "art",
		"price":       "499.99",
		"rating":      "4.5",
	}, "poster.png", "png-bytes")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, 1)

	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Poster", resp.Name)
	require.Equal(t, 499.99, resp.Price)
	require.Equal(t, 4.5, resp.Rating)
	require.Equal(t, uint(1), resp.UserID)
	require.NotEmpty(t, resp.ImagePath)
	require.True(t, strings.HasPrefix(resp.ImageURL, "http://localhost:8080/media/products/1/"))

	_, err := os.Stat(filepath.Join(mediaDir, filepath.FromSlash(resp.ImagePath)))
	require.NoError(t, err)
}

func TestCreateProductWithoutImage(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	body, contentType := multipartBody(t, map[string]string{
		"name":   "Plain",
		"price":  "10",
		"rating": "3",
	}, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, 1)

	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.ImagePath)
	require.Empty(t, resp.ImageURL)
}

func TestCreateProductUnauthenticated(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	body, contentType := multipartBody(t, map[string]string{
		"name":  "Poster",
		"price": "10",
	}, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateProduct(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGetProduct(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	created, err := h.Svc.Create(identity.WithUser(context.Background(), 1),
		service.ProductInput{Name: "Lamp", Price: 20, Rating: 4}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	asUser(c, 1)

	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, created.ID, resp.ID)
	require.Equal(t, "Lamp", resp.Name)
}

func TestGetProductOtherOwnerIsNotFound(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	created, err := h.Svc.Create(identity.WithUser(context.Background(), 1),
		service.ProductInput{Name: "Lamp", Price: 20, Rating: 4}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	asUser(c, 2)

	err = h.GetProduct(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateProduct(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	created, err := h.Svc.Create(identity.WithUser(context.Background(), 1),
		service.ProductInput{Name: "Old", Category: "books", Price: 10, Rating: 3}, nil)
	require.NoError(t, err)

	payload := map[string]interface{}{
		"name":        "New",
		"description": "fresh",
		"category":    "home",
		"price":       25.5,
		"rating":      5,
	}
	bodyBytes, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/1", bytes.NewReader(bodyBytes))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	asUser(c, 1)

	require.NoError(t, h.UpdateProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "New", resp.Name)
	require.Equal(t, "home", resp.Category)
	require.Equal(t, 25.5, resp.Price)
}

func TestDeleteProduct(t *testing.T) {
	h, _ := newProductHandler(t)
	e := echo.New()

	created, err := h.Svc.Create(identity.WithUser(context.Background(), 1),
		service.ProductInput{Name: "Gone", Price: 10, Rating: 3}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	asUser(c, 1)

	require.NoError(t, h.DeleteProduct(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	reqMissing := httptest.NewRequest(http.MethodDelete, "/api/v1/products/1", nil)
	recMissing := httptest.NewRecorder()
	cMissing := e.NewContext(reqMissing, recMissing)
	cMissing.SetParamNames("id")
	cMissing.SetParamValues(fmt.Sprint(created.ID))
	asUser(cMissing, 1)

	err = h.DeleteProduct(cMissing)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}
