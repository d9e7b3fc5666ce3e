package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGenerateAndValidateToken(t *testing.T) {
	cacheSvc := new(MockCacheService)
	cacheSvc.On("SetString", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewAuthService(cacheSvc, "test-secret", 900, 3600)
	userID := uuid.New()
	tenantID := uuid.New()

	tokens, err := svc.GenerateTokens(context.Background(), userID, tenantID, models.RoleDispatcher)
	assert.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, 900, tokens.ExpiresIn)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, string(models.RoleDispatcher), claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	cacheSvc := new(MockCacheService)
	cacheSvc.On("SetString", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	issuer := NewAuthService(cacheSvc, "secret-a", 900, 3600)
	verifier := NewAuthService(cacheSvc, "secret-b", 900, 3600)

	tokens, err := issuer.GenerateTokens(context.Background(), uuid.New(), uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), tokens.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService(new(MockCacheService), "test-secret", 900, 3600)

	_, err := svc.ValidateToken(context.Background(), "not.a.jwt")
	assert.Error(t, err)
}

func TestRefreshToken_RotatesStoredToken(t *testing.T) {
	cacheSvc := new(MockCacheService)
	userID := uuid.New()
	tenantID := uuid.New()
	stored := fmt.Sprintf("%s:%s:driver:%d", userID, tenantID, time.Now().Add(time.Hour).Unix())

	cacheSvc.On("GetString", mock.Anything, mock.Anything).Return(stored, nil)
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)
	cacheSvc.On("SetString", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewAuthService(cacheSvc, "test-secret", 900, 3600)
	tokens, err := svc.RefreshToken(context.Background(), "opaque-refresh-token")
	assert.NoError(t, err)
	assert.Equal(t, userID.String(), tokens.UserID)
	assert.Equal(t, models.RoleDriver, tokens.Role)

	// The presented token must be deleted before a new pair is issued.
	cacheSvc.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRefreshToken_Expired(t *testing.T) {
	cacheSvc := new(MockCacheService)
	stored := fmt.Sprintf("%s:%s:driver:%d", uuid.New(), uuid.New(), time.Now().Add(-time.Minute).Unix())

	cacheSvc.On("GetString", mock.Anything, mock.Anything).Return(stored, nil)
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)

	svc := NewAuthService(cacheSvc, "test-secret", 900, 3600)
	_, err := svc.RefreshToken(context.Background(), "opaque-refresh-token")
	assert.Error(t, err)
	cacheSvc.AssertNotCalled(t, "SetString", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshToken_Unknown(t *testing.T) {
	cacheSvc := new(MockCacheService)
	cacheSvc.On("GetString", mock.Anything, mock.Anything).Return("", fmt.Errorf("redis: nil"))

	svc := NewAuthService(cacheSvc, "test-secret", 900, 3600)
	_, err := svc.RefreshToken(context.Background(), "never-issued")
	assert.Error(t, err)
}
