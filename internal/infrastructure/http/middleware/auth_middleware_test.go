package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-pipeline/pkg/jwt"
)

func serve(t *testing.T, manager *jwt.Manager, setup func(r *http.Request)) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/meetings", nil)
	setup(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	h := EchoAuth(manager)(func(c echo.Context) error {
		seen = c
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, h(c))
	return rec, seen
}

func TestEchoAuth_SetsIdentity(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute)
	userID, teamID := uuid.New(), uuid.New()
	token, err := manager.GenerateAccessToken(userID, teamID, "")
	require.NoError(t, err)

	rec, c := serve(t, manager, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, c)
	assert.Equal(t, userID, c.Get(UserIDKey))
	assert.Equal(t, teamID, c.Get(TeamIDKey))
}

func TestEchoAuth_CookieFallback(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute)
	token, err := manager.GenerateAccessToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	rec, _ := serve(t, manager, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEchoAuth_Rejects(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute)
	expired, err := jwt.NewManager("secret", -time.Minute).GenerateAccessToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantBody string
	}{
		{"missing", "", "Authentication required"},
		{"malformed", "Bearer nope", "Invalid authentication token"},
		{"wrong scheme", "Basic abc", "Authentication required"},
		{"expired", "Bearer " + expired, "Authentication token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, c := serve(t, manager, func(r *http.Request) {
				if tt.header != "" {
					r.Header.Set("Authorization", tt.header)
				}
			})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Nil(t, c)
		})
	}
}
