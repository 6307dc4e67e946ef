package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/memo-comb/app/database"
	"github.com/lysyi3m/memo-comb/app/memo"
	"github.com/lysyi3m/memo-comb/app/tasks"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	feedItemLimit    = 100
)

func NewHandler(memoRepo database.MemoRepository, runRepo database.RunRepository,
	generator GeneratorInterface, metrics http.Handler, scheduler tasks.TaskSchedulerInterface,
	newScanTask, newRefilterTask func() tasks.TaskInterface) *Handler {
	return &Handler{
		memoRepo:        memoRepo,
		runRepo:         runRepo,
		generator:       generator,
		metrics:         metrics,
		scheduler:       scheduler,
		newScanTask:     newScanTask,
		newRefilterTask: newRefilterTask,
	}
}

func (h *Handler) ListMemos(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(n, maxListLimit)
	}

	event := memo.Category(strings.ToLower(strings.TrimSpace(c.Query("event"))))

	memos, err := h.memoRepo.GetVisibleMemos(limit, event)
	if err != nil {
		slog.Error("Database error", "operation", "get_visible_memos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]memoResponse, 0, len(memos))
	for _, m := range memos {
		response = append(response, newMemoResponse(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"memos": response,
		"total": len(response),
	})
}

func (h *Handler) GetMemo(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid memo number"})
		return
	}

	m, err := h.memoRepo.GetMemo(number)
	if err != nil {
		slog.Error("Database error", "operation", "get_memo", "number", number, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Memo not found"})
		return
	}

	c.JSON(http.StatusOK, newMemoResponse(*m))
}

func (h *Handler) GetFeed(c *gin.Context) {
	memos, err := h.memoRepo.GetVisibleMemos(feedItemLimit, memo.CategoryNone)
	if err != nil {
		slog.Error("Database error", "operation", "get_visible_memos", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	records := make([]memo.Record, len(memos))
	lastBuild := time.Time{}
	for i, m := range memos {
		records[i] = m.Record
		if m.UpdatedAt.After(lastBuild) {
			lastBuild = m.UpdatedAt
		}
	}
	if lastBuild.IsZero() {
		lastBuild = time.Now().UTC()
	}

	rss, err := h.generator.Run(records, lastBuild)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(records)))
	c.Header("X-Last-Updated", lastBuild.Format(time.RFC3339))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if total, visible, filtered, err := h.memoRepo.GetMemoStats(); err == nil {
		health["memos"] = map[string]interface{}{
			"total":    total,
			"visible":  visible,
			"filtered": filtered,
		}
	}

	if count, err := h.runRepo.GetRunCount(); err == nil {
		health["runs"] = count
	}

	if run, err := h.runRepo.GetLastRun(); err == nil && run != nil {
		health["last_run"] = map[string]interface{}{
			"id":          run.ID,
			"mode":        run.Mode,
			"status":      run.Status,
			"watermark":   run.WatermarkAfter,
			"reported":    run.Reported,
			"started_at":  run.StartedAt,
			"finished_at": run.FinishedAt,
			"error":       run.Error,
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) APIScan(c *gin.Context) {
	h.enqueue(c, h.newScanTask, "Scan enqueued successfully")
}

func (h *Handler) APIRefilter(c *gin.Context) {
	h.enqueue(c, h.newRefilterTask, "Refilter enqueued successfully")
}

func (h *Handler) enqueue(c *gin.Context, newTask func() tasks.TaskInterface, message string) {
	if h.scheduler == nil || newTask == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task scheduling is not available"})
		return
	}

	task := newTask()
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing task", "type", string(task.GetType()), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": message,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}
