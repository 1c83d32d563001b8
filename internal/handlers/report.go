package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/anchorhub/anchorhub-api/internal/middleware"
	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/anchorhub/anchorhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ReportHandler struct {
	reportService    ReportServiceInterface
	boardService     BoardServiceInterface
	workspaceService WorkspaceServiceInterface
}

func NewReportHandler(
	reportService ReportServiceInterface,
	boardService BoardServiceInterface,
	workspaceService WorkspaceServiceInterface,
) *ReportHandler {
	return &ReportHandler{
		reportService:    reportService,
		boardService:     boardService,
		workspaceService: workspaceService,
	}
}

// parseWindow turns optional calendar dates into a [start, end) window; the
// end date's own day is included.
func parseWindow(startDate, endDate *string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startDate != nil && *startDate != "" {
		d, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			return nil, nil, fmt.Errorf("start_date %q is not a calendar date: %w", *startDate, services.ErrInvariant)
		}
		start = &d
	}
	if endDate != nil && *endDate != "" {
		d, err := time.Parse("2006-01-02", *endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("end_date %q is not a calendar date: %w", *endDate, services.ErrInvariant)
		}
		e := d.Add(24 * time.Hour)
		end = &e
	}
	return start, end, nil
}

func (h *ReportHandler) Run(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.RunReportRequest
	if err := c.BindJSON(&req); err != nil {
		respondInvariant(c, "invalid request body")
		return
	}

	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()

	for _, boardID := range req.BoardIDs {
		board, err := h.boardService.GetByID(ctx, boardID)
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := h.workspaceService.MemberRole(ctx, board.WorkspaceID, userID); err != nil {
			respondError(c, err)
			return
		}
	}

	rows, err := h.reportService.Run(ctx, req.BoardIDs, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]any{"rows": rows})
}

// ExportCSV streams the billing rollup for one board as a CSV download.
func (h *ReportHandler) ExportCSV(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	boardID, err := uuid.Parse(c.Param("boardId"))
	if err != nil {
		respondInvariant(c, "invalid board id")
		return
	}

	ctx := c.Request.Context()

	board, err := h.boardService.GetByID(ctx, boardID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.workspaceService.MemberRole(ctx, board.WorkspaceID, userID); err != nil {
		respondError(c, err)
		return
	}

	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	start, end, err := parseWindow(&startDate, &endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.reportService.BillingRows(ctx, boardID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := services.BillingFileName(board.Name, time.Now().UTC())
	c.Response.Header().Set("Content-Type", "text/csv; charset=utf-8")
	c.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Response.WriteHeader(http.StatusOK)
	_ = services.WriteCSV(c.Response, rows)
}
