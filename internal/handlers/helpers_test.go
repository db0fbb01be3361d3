package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"atlas/internal/auth"
	"atlas/internal/middleware"
	"atlas/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// newAPIRouter mounts the /api handlers the way the server does.
func newAPIRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.POST("/register", Register)
	api.POST("/login", Login)
	api.POST("/logout", Logout)

	p := api.Group("")
	p.Use(middleware.JWTAuthMiddleware())
	p.GET("/me", Me)
	p.GET("/tasks", GetTasks)
	p.POST("/tasks", CreateTask)
	p.GET("/tasks/:id", GetTaskByID)
	p.PUT("/tasks/:id", UpdateTask)
	p.DELETE("/tasks/:id", DeleteTask)
	p.POST("/tasks/:id/timer/start", StartTimer)
	p.POST("/tasks/:id/timer/stop", StopTimer)
	p.GET("/tasks/:id/timer", GetTimerStatus)
	p.GET("/timer/active", GetActiveTimer)
	p.GET("/groups", GetGroups)
	p.POST("/groups", CreateGroup)
	p.GET("/groups/:id", GetGroupByID)
	p.PUT("/groups/:id", UpdateGroup)
	p.DELETE("/groups/:id", DeleteGroup)
	p.GET("/stats", GetStats)
	return r
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(u.ID, u.Username)
	require.NoError(t, err)
	return token
}

// do sends a request with an optional JSON body and bearer token.
func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}
