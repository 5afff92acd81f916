package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/infrastructure/auth"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtRouter(svc *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddleware(svc))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/finance/payments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant":     GetJWTTenantID(c),
			"user":       GetJWTUserID(c),
			"ctx_school": logger.GetSchoolID(c.Request.Context()),
			"ctx_user":   logger.GetUserID(c.Request.Context()),
		})
	})
	return r
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newJWTService()
	token, tenantID, userID := issueToken(t, svc, auth.RoleAccountant)

	w := doRequest(jwtRouter(svc), http.MethodGet, "/api/v1/finance/payments",
		map[string]string{AuthHeaderKey: BearerPrefix + token})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenant":"`+tenantID.String()+`","user":"`+userID.String()+
		`","ctx_school":"`+tenantID.String()+`","ctx_user":"`+userID.String()+`"}`, w.Body.String())
}

func TestJWTAuth_SkipsProbes(t *testing.T) {
	w := doRequest(jwtRouter(newJWTService()), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newJWTService()
	expiredSvc := auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "feeledger-test", AccessTokenExpiration: -time.Minute})
	expired, _, err := expiredSvc.IssueAccessToken(auth.TokenInput{TenantID: uuid.New(), UserID: uuid.New(), Role: auth.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", "INVALID_TOKEN"},
		{"basic auth", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"empty bearer", "Bearer ", "INVALID_TOKEN"},
		{"garbage", "Bearer abc.def.ghi", "INVALID_TOKEN"},
		{"expired", "Bearer " + expired, "TOKEN_EXPIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{RequestIDHeader: "req-42"}
			if tt.header != "" {
				headers[AuthHeaderKey] = tt.header
			}
			w := doRequest(jwtRouter(svc), http.MethodGet, "/api/v1/finance/payments", headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
		})
	}
}
