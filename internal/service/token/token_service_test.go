package token

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/framekart/storefront/internal/config"
	"github.com/framekart/storefront/internal/handlers"
	"github.com/framekart/storefront/internal/models"
)

func newService(t *testing.T) *TokenService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return &TokenService{
		DB:            db,
		RefreshSecret: []byte("test-refresh-secret"),
		JWTSecret:     []byte("test-jwt-secret"),
	}
}

func TestRoleFor(t *testing.T) {
	svc := newService(t)

	role, err := RoleFor(svc.DB, 1)
	require.NoError(t, err)
	require.Equal(t, "user", role)

	require.NoError(t, svc.DB.Create(&models.UserRole{UserID: 1, Role: "admin"}).Error)
	role, err = RoleFor(svc.DB, 1)
	require.NoError(t, err)
	require.Equal(t, "admin", role)
}

func TestValidateRefresh(t *testing.T) {
	svc := newService(t)

	raw, err := SignRefreshToken(1, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, raw, 1, "user"))

	claims, err := ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.NoError(t, err)
	require.EqualValues(t, 1, claims["sub"])
	require.Equal(t, "refresh", claims["typ"])
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	svc := newService(t)

	// access tokens lack the refresh marker
	raw, err := SignAccessToken(1, "user", svc.RefreshSecret)
	require.NoError(t, err)

	_, err = ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.Error(t, err)
}

func TestValidateRefreshRevoked(t *testing.T) {
	svc := newService(t)

	raw, err := SignRefreshToken(1, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, raw, 1, "user"))
	require.NoError(t, svc.DB.Model(&models.RefreshToken{}).
		Where("token = ?", raw).Update("revoked", true).Error)

	_, err = ValidateRefresh(raw, svc.RefreshSecret, svc.DB)
	require.ErrorContains(t, err, "revoked")
}

func TestRotateTokenPicksUpRoleChange(t *testing.T) {
	svc := newService(t)

	raw, err := SignRefreshToken(1, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, raw, 1, "user"))

	// promoted between refreshes
	require.NoError(t, svc.DB.Create(&models.UserRole{UserID: 1, Role: "admin"}).Error)

	_, newRefresh, err := svc.RotateToken(raw)
	require.NoError(t, err)

	var stored models.RefreshToken
	require.NoError(t, svc.DB.Where("token = ?", newRefresh).First(&stored).Error)
	require.Equal(t, "admin", stored.Role)
}

func TestAutoRefreshMiddlewareAdmin(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	// plain user is refused
	userAccess, err := SignAccessToken(1, "user", svc.JWTSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: userAccess})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = svc.AutoRefreshMiddlewareAdmin(next)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)

	// admin passes through
	adminAccess, err := SignAccessToken(2, "admin", svc.JWTSecret)
	require.NoError(t, err)

	reqAdmin := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	reqAdmin.AddCookie(&http.Cookie{Name: "accessToken", Value: adminAccess})
	recAdmin := httptest.NewRecorder()
	cAdmin := e.NewContext(reqAdmin, recAdmin)

	require.NoError(t, svc.AutoRefreshMiddlewareAdmin(next)(cAdmin))
	require.Equal(t, http.StatusOK, recAdmin.Code)
}

func TestRotateTokenTwiceWithinSameSecond(t *testing.T) {
	svc := newService(t)

	raw, err := SignRefreshToken(1, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, raw, 1, "user"))

	// two in-flight requests rotating the same token back to back: both mints
	// land within one second, so the tokens must differ by more than the clock
	_, first, err := svc.RotateToken(raw)
	require.NoError(t, err)
	_, second, err := svc.RotateToken(raw)
	require.NoError(t, err)

	require.NotEqual(t, raw, first)
	require.NotEqual(t, first, second)

	var stored int64
	require.NoError(t, svc.DB.Model(&models.RefreshToken{}).Where("user_id = ?", 1).Count(&stored).Error)
	require.EqualValues(t, 3, stored)
}

func TestAutoRefreshMiddlewareServesRefreshOnlyRequest(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	refresh, err := SignRefreshToken(7, "user", svc.RefreshSecret)
	require.NoError(t, err)
	require.NoError(t, SaveRefreshToken(svc.DB, refresh, 7, "user"))

	// the handler resolves the user the way every customer handler does
	next := func(c echo.Context) error {
		id, err := handlers.GetID(c, svc.JWTSecret)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"user_id": id})
	}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, svc.AutoRefreshMiddleware(next)(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":7`)

	// rotation handed back fresh cookies
	cookies := rec.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, ck := range cookies {
		names[ck.Name] = ck.Value != ""
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])
}

func TestAutoRefreshMiddlewareNoCookies(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := svc.AutoRefreshMiddleware(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
