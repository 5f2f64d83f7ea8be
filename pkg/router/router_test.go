package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"replypilot/backend/internal/api"
	"replypilot/backend/pkg/errors"
	"replypilot/backend/pkg/jwt"
	"replypilot/backend/pkg/logger"
	"replypilot/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobsEngine(t *testing.T, jwtService *jwt.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.DefaultConfig())

	noop := api.RunnableFunc(func(ctx context.Context) error { return nil })

	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(errors.ErrorHandler())
	jobs := r.Group("/jobs")
	jobs.Use(middleware.OperatorAuthMiddleware(jwtService, "", log))
	api.NewJobsController(noop, noop, noop, time.Minute, log).RegisterRoutes(jobs)
	return r
}

func TestOperatorRoutesRequireCredentials(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour)
	r := newJobsEngine(t, jwtService)

	req, _ := http.NewRequest(http.MethodPost, "/jobs/reviews/poll", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobTriggerPaths(t *testing.T) {
	jwtService := jwt.NewService("test-secret", time.Hour)
	r := newJobsEngine(t, jwtService)

	token, err := jwtService.GenerateToken("ops-oncall", "operator")
	require.NoError(t, err)

	for _, path := range []string{
		"/jobs/reviews/poll",
		"/jobs/responses/post",
		"/jobs/notifications/retry",
	} {
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusAccepted, w.Code, path)
	}
}
