package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freightdesk/internal/common"
	"freightdesk/internal/models"
	"freightdesk/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testJWTSecret = "jwt-middleware-test-secret"

func signedToken(t *testing.T, secret string, claims services.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	assert.NoError(t, err)
	return token
}

func validClaims(userID, tenantID uuid.UUID, role models.Role) services.TokenClaims {
	return services.TokenClaims{
		UserID:   userID.String(),
		TenantID: tenantID.String(),
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/loads", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	handler := JWTMiddleware(testJWTSecret)(func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, seen, err
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	token := signedToken(t, testJWTSecret, validClaims(userID, tenantID, models.RoleDispatcher))

	_, seen, err := runJWT(t, "Bearer "+token)
	assert.NoError(t, err)
	assert.NotNil(t, seen)

	gotUser, ok := common.GetUserIDFromContext(seen.Request().Context())
	assert.True(t, ok)
	assert.Equal(t, userID, gotUser)
	gotRole, ok := common.GetRoleFromContext(seen.Request().Context())
	assert.True(t, ok)
	assert.Equal(t, models.RoleDispatcher, gotRole)
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	_, _, err := runJWT(t, "")

	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	token := signedToken(t, "some-other-secret", validClaims(uuid.New(), uuid.New(), models.RoleAdmin))

	_, _, err := runJWT(t, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := validClaims(uuid.New(), uuid.New(), models.RoleDriver)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := signedToken(t, testJWTSecret, claims)

	_, _, err := runJWT(t, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJWTMiddleware_MalformedRoleLeavesIdentityUnset(t *testing.T) {
	claims := validClaims(uuid.New(), uuid.New(), models.RoleDriver)
	claims.Role = "superuser"
	token := signedToken(t, testJWTSecret, claims)

	_, seen, err := runJWT(t, "Bearer "+token)
	assert.NoError(t, err)

	_, ok := common.GetUserIDFromContext(seen.Request().Context())
	assert.False(t, ok)
}
