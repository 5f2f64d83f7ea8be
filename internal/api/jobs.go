package api

import (
	"context"
	"net/http"
	"time"

	"replypilot/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Runnable is one sweep of a background job
type Runnable interface {
	RunCycle(ctx context.Context) error
}

// RunnableFunc adapts a function to Runnable
type RunnableFunc func(ctx context.Context) error

func (f RunnableFunc) RunCycle(ctx context.Context) error { return f(ctx) }

// JobsController exposes manual triggers for the background jobs. Each
// trigger acknowledges immediately and runs the job asynchronously.
type JobsController struct {
	ingest     Runnable
	poster     Runnable
	retry      Runnable
	jobTimeout time.Duration
	log        *logger.Logger
}

// NewJobsController creates a jobs controller
func NewJobsController(ingest, poster, retry Runnable, jobTimeout time.Duration, log *logger.Logger) *JobsController {
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &JobsController{
		ingest:     ingest,
		poster:     poster,
		retry:      retry,
		jobTimeout: jobTimeout,
		log:        log,
	}
}

// RegisterRoutes registers the job trigger routes on the given group
func (c *JobsController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/reviews/poll", c.trigger("review-poll", c.ingest))
	group.POST("/responses/post", c.trigger("response-post", c.poster))
	group.POST("/notifications/retry", c.trigger("notification-retry", c.retry))
}

func (c *JobsController) trigger(name string, job Runnable) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		go func() {
			runCtx, cancel := context.WithTimeout(context.Background(), c.jobTimeout)
			defer cancel()
			if err := job.RunCycle(runCtx); err != nil {
				c.log.LogError(err, "triggered job failed", "job", name)
			}
		}()

		ctx.JSON(http.StatusAccepted, gin.H{"status": "accepted", "job": name})
	}
}
