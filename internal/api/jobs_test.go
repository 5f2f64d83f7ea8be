package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"replypilot/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTriggerAcknowledgesAndRuns(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ran := make(chan string, 3)
	job := func(name string) Runnable {
		return RunnableFunc(func(ctx context.Context) error {
			ran <- name
			return nil
		})
	}

	controller := NewJobsController(
		job("ingest"), job("post"), job("retry"),
		time.Minute, logger.New(logger.DefaultConfig()),
	)

	engine := gin.New()
	controller.RegisterRoutes(engine.Group("/jobs"))

	paths := map[string]string{
		"/jobs/reviews/poll":        "ingest",
		"/jobs/responses/post":      "post",
		"/jobs/notifications/retry": "retry",
	}
	for path, want := range paths {
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"accepted"`)

		select {
		case got := <-ran:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			require.FailNow(t, "job did not run", "path %s", path)
		}
	}
}
