package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/ptouch/internal/core"
	"github.com/orrn/ptouch/internal/service"
)

type PrinterResponse struct {
	Name           string `json:"name"`
	URI            string `json:"uri"`
	TapeWidth      int    `json:"tape_width,omitempty"`
	HighResolution bool   `json:"high_resolution"`
}

// PrintForm holds the label options accepted next to the uploaded image.
// Omitted fields keep the printer's configured defaults.
type PrintForm struct {
	TapeWidth      *int   `form:"tape_width"`
	Threshold      *int   `form:"threshold" binding:"omitempty,min=0,max=255"`
	HighResolution *bool  `form:"high_resolution"`
	AutoCut        *bool  `form:"auto_cut"`
	HalfCut        *bool  `form:"half_cut"`
	Rotate         *bool  `form:"rotate"`
	Fit            *bool  `form:"fit"`
	Printer        string `form:"printer"`
}

func (f *PrintForm) Options() []core.PrintOption {
	var opts []core.PrintOption
	if f.TapeWidth != nil {
		opts = append(opts, core.WithTapeWidth(*f.TapeWidth))
	}
	if f.Threshold != nil {
		opts = append(opts, core.WithThreshold(uint8(*f.Threshold)))
	}
	if f.HighResolution != nil {
		opts = append(opts, core.WithHighResolution(*f.HighResolution))
	}
	if f.AutoCut != nil {
		opts = append(opts, core.WithAutoCut(*f.AutoCut))
	}
	if f.HalfCut != nil {
		opts = append(opts, core.WithHalfCut(*f.HalfCut))
	}
	if f.Rotate != nil {
		opts = append(opts, core.WithRotate(*f.Rotate))
	}
	if f.Fit != nil {
		opts = append(opts, core.WithFit(*f.Fit))
	}
	return opts
}

type PrinterHandler struct {
	svc            *service.Service
	maxUploadBytes int64
}

func NewPrinterHandler(svc *service.Service, maxUploadMB int) *PrinterHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &PrinterHandler{svc: svc, maxUploadBytes: int64(maxUploadMB) << 20}
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers := h.svc.Printers()
	responses := make([]PrinterResponse, 0, len(printers))
	for _, p := range printers {
		responses = append(responses, PrinterResponse{
			Name:           p.Name,
			URI:            p.URI,
			TapeWidth:      p.TapeWidth,
			HighResolution: p.HighResolution,
		})
	}
	c.JSON(http.StatusOK, responses)
}

func (h *PrinterHandler) GetPrinterStatus(c *gin.Context) {
	status, err := h.svc.Status(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"can_print": status.CanPrint(),
	})
}

// Print runs a label job and answers once the printer reports the job
// finished or the poll budget runs out.
func (h *PrinterHandler) Print(c *gin.Context) {
	form, data, ok := h.bindUpload(c)
	if !ok {
		return
	}

	outcome, err := h.svc.Print(c.Request.Context(), service.PrintRequest{
		Printer: c.Param("name"),
		Image:   data,
		Options: form.Options(),
	})
	if err != nil {
		status, code := classify(err)
		body := gin.H{"error": code, "message": err.Error()}
		if outcome != nil {
			body["job"] = outcome
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Compile returns the raw command stream for an uploaded image.
func (h *PrinterHandler) Compile(c *gin.Context) {
	form, data, ok := h.bindUpload(c)
	if !ok {
		return
	}

	stream, err := h.svc.Compile(form.Printer, data, form.Options()...)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="label.bin"`)
	c.Header("X-Label-Rows", fmt.Sprint(stream.Rows()))
	c.Data(http.StatusOK, "application/octet-stream", stream)
}

func (h *PrinterHandler) bindUpload(c *gin.Context) (*PrintForm, []byte, bool) {
	var form PrintForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return nil, nil, false
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "image file is required"})
		return nil, nil, false
	}
	if fh.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "too_large",
			Message: fmt.Sprintf("image exceeds %d bytes", h.maxUploadBytes),
		})
		return nil, nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "upload_error", Message: err.Error()})
		return nil, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "upload_error", Message: err.Error()})
		return nil, nil, false
	}
	return &form, data, true
}
