package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pageza/macrosync/backend/internal/cache"
	"github.com/pageza/macrosync/backend/internal/middleware"
	"github.com/pageza/macrosync/backend/internal/mocks"
	"github.com/pageza/macrosync/backend/internal/service"
)

// setupTestRouter wires the handlers to a real service over an in-memory
// cache and a mocked gateway
func setupTestRouter(t *testing.T) (*gin.Engine, *mocks.MockGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := new(mocks.MockGateway)
	svc := service.NewNutritionService(gw, cache.New(cache.NewMemoryStore()), service.DefaultFallbacks())

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery())
	NewHandler(svc, true).RegisterRoutes(router)

	t.Cleanup(func() { gw.AssertExpectations(t) })
	return router, gw
}

// PerformRequest sends a JSON request to the router
func PerformRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// PerformRawRequest sends body as-is with the given content type
func PerformRawRequest(router *gin.Engine, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
