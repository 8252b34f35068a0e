package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DevanshBajpai09/product-management/internal/handlers"
	"github.com/DevanshBajpai09/product-management/internal/service/token"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
	MediaDir       string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// Public URLs for uploaded product images.
	e.Static("/media", d.MediaDir)

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products", d.TokenService.AutoRefreshMiddleware)

	products.POST("", d.ProductHandler.CreateProduct)
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.PUT("/:id", d.ProductHandler.UpdateProduct)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct)
}
