package dto

import "github.com/google/uuid"

// RunReportRequest selects boards and an optional date window. Dates are
// calendar dates ("2006-01-02"); the end date is exclusive.
type RunReportRequest struct {
	BoardIDs  []uuid.UUID `json:"board_ids"`
	StartDate *string     `json:"start_date,omitempty"`
	EndDate   *string     `json:"end_date,omitempty"`
}
