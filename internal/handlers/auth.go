package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/DevanshBajpai09/product-management/internal/hash"
	"github.com/DevanshBajpai09/product-management/internal/logging"
	"github.com/DevanshBajpai09/product-management/internal/models"
	"github.com/DevanshBajpai09/product-management/internal/mykafka"
	"github.com/DevanshBajpai09/product-management/internal/service/token"
)

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	var existing models.User
	result := h.DB.Where("email = ?", req.Email).First(&existing)
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "user already exists")
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	h.publish(c, map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("register_success", "userID", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	accessToken, err := token.SignAccessToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}

	refreshToken, err := token.SignRefreshToken(user.ID, user.Role, h.RefreshSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}

	if err := token.SaveRefreshToken(h.DB, refreshToken, user.ID); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot save refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save refresh token")
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	h.publish(c, map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	l.Info("login_success", "userID", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token missing")
	}

	if err := token.RevokeRefresh(h.DB, refreshCookie.Value); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka publish failed", "type", event["type"], "error", err)
	}
}
