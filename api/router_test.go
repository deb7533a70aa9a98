package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chambridge/pure-monitor/internal/config"
	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopStore struct{}

func (nopStore) QueryCapacitySamples(ctx context.Context, q db.CapacityQuery) ([]db.CapacitySample, int, error) {
	return nil, 0, nil
}

func (nopStore) InsertCapacitySample(ctx context.Context, sample db.CapacitySample) error {
	return nil
}

func TestSetupRouter(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		ServerAddress: ":8080",
		OutputPath:    "pure_status.html",
	}

	// Act
	router := SetupRouter(nopStore{}, cfg, nil)

	// Assert
	require.NotNil(t, router, "Router should not be nil")
	routes := router.Routes()

	// Expected routes
	expectedRoutes := []struct {
		method string
		path   string
	}{
		{method: "POST", path: "/api/capacity/v1/upload"},
		{method: "GET", path: "/api/capacity/v1/samples"},
		{method: "GET", path: "/status"},
		{method: "GET", path: "/healthz"},
	}

	// Verify all expected routes exist
	for _, expected := range expectedRoutes {
		found := false
		for _, route := range routes {
			if route.Method == expected.method && route.Path == expected.path {
				found = true
				assert.NotNil(t, route.HandlerFunc, "Handler for %s %s should be set", expected.method, expected.path)
				break
			}
		}
		assert.True(t, found, "Route %s %s should be registered", expected.method, expected.path)
	}

	// Verify route count
	assert.Equal(t, len(expectedRoutes), len(routes), "Router should have exactly %d routes", len(expectedRoutes))
}

func TestSetupRouter_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(nopStore{}, &config.Config{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
