package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/DevanshBajpai09/product-management/internal/identity"
)

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

func (t *TokenService) RotateToken(rawToken string) (string, string, error) {
	claims, err := ValidateRefresh(rawToken, t.RefreshSecret, t.DB)
	if err != nil {
		return "", "", err
	}

	userID := uint(claims["sub"].(float64))
	role, _ := claims["role"].(string)

	newAccess, err := SignAccessToken(userID, role, t.JWTSecret)
	if err != nil {
		return "", "", err
	}

	newRefresh, err := SignRefreshToken(userID, role, t.RefreshSecret)
	if err != nil {
		return "", "", err
	}

	if err := SaveRefreshToken(t.DB, newRefresh, userID); err != nil {
		return "", "", err
	}

	return newAccess, newRefresh, nil
}

// AutoRefreshMiddleware accepts a valid access cookie, transparently
// rotates an expired one off the refresh cookie, and rejects everything
// else. On success the user id lands in the request context.
func (t *TokenService) AutoRefreshMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		asCookie, err := c.Cookie("accessToken")
		if err == nil {
			token, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
				return t.JWTSecret, nil
			})
			if err == nil && token.Valid {
				setUserContext(c, token.Claims.(jwt.MapClaims))
				return next(c)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
		}

		rfCookie, err := c.Cookie("refreshToken")
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}
		newAccess, newRefresh, err := t.RotateToken(rfCookie.Value)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token: "+err.Error())
		}

		c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
		c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))

		token, err := jwt.Parse(newAccess, func(j *jwt.Token) (interface{}, error) { return t.JWTSecret, nil })
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		setUserContext(c, token.Claims.(jwt.MapClaims))
		return next(c)
	}
}

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	userID := uint(claims["sub"].(float64))
	c.Set("userID", userID)
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}

	req := c.Request().WithContext(identity.WithUser(c.Request().Context(), userID))
	c.SetRequest(req)
}

func CreateCookie(name, value, path string, expTime time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
