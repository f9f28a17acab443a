package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrn/ptouch/internal/db"
)

// JobStore is the read side of the job journal.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*db.PrintJob, error)
	ListJobs(ctx context.Context, filter db.JobFilter) ([]*db.PrintJob, error)
	CountByState(ctx context.Context) (map[string]int, error)
}

type ListJobsQuery struct {
	Printer  string `form:"printer"`
	State    string `form:"state"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Limit    int    `form:"limit" binding:"omitempty,min=0,max=100"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

type JobListResponse struct {
	Jobs   []*db.PrintJob `json:"jobs"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type JobHandler struct {
	store JobStore
}

func NewJobHandler(store JobStore) *JobHandler {
	return &JobHandler{store: store}
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	var query ListJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	if query.Limit <= 0 {
		query.Limit = 50
	}

	filter := db.JobFilter{
		PrinterName: query.Printer,
		State:       query.State,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}

	if query.FromDate != "" {
		t, err := time.Parse(time.RFC3339, query.FromDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "from_date must be RFC 3339"})
			return
		}
		filter.FromDate = &t
	}
	if query.ToDate != "" {
		t, err := time.Parse(time.RFC3339, query.ToDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "to_date must be RFC 3339"})
			return
		}
		filter.ToDate = &t
	}

	jobs, err := h.store.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if jobs == nil {
		jobs = []*db.PrintJob{}
	}

	c.JSON(http.StatusOK, JobListResponse{
		Jobs:   jobs,
		Count:  len(jobs),
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) GetStats(c *gin.Context) {
	counts, err := h.store.CountByState(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"by_state": counts, "total": total})
}
