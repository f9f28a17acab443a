package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/ptouch/internal/archive"
)

type ArchiveHandler struct {
	archiver *archive.Archiver
}

func NewArchiveHandler(archiver *archive.Archiver) *ArchiveHandler {
	return &ArchiveHandler{archiver: archiver}
}

type ArchiveListResponse struct {
	Archives []*archive.ArchiveFile `json:"archives"`
	Count    int                    `json:"count"`
}

func (h *ArchiveHandler) ListArchives(c *gin.Context) {
	archives, err := h.archiver.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "archive_error", Message: "failed to list archives"})
		return
	}
	if archives == nil {
		archives = []*archive.ArchiveFile{}
	}

	c.JSON(http.StatusOK, ArchiveListResponse{
		Archives: archives,
		Count:    len(archives),
	})
}

// RunArchive archives finished jobs now instead of waiting for the
// daily run.
func (h *ArchiveHandler) RunArchive(c *gin.Context) {
	record, err := h.archiver.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "archive_error", Message: err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, gin.H{"message": "no jobs to archive", "job_count": 0})
		return
	}
	c.JSON(http.StatusCreated, record)
}
