package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ipif/internal/queue"
	"ipif/pkg/logger"
)

type rebuildRequest struct {
	Reason string `json:"reason"`
}

// PostRebuildHandler enqueues a full index rebuild for the indexer and
// returns the job id.
func PostRebuildHandler(c echo.Context) error {
	var req rebuildRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"description": "invalid request body"})
	}

	jobID, err := queue.PublishRebuild(app(c).Queue, req.Reason)
	if err != nil {
		logger.Error("Failed to enqueue rebuild", "err", err)
		return c.String(http.StatusInternalServerError, err.Error())
	}

	logger.Info("Queued index rebuild", "job_id", jobID)
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
}
