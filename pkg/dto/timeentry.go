package dto

// CreateTimeEntryRequest logs work minutes. Either the billable flag (all or
// nothing) or an explicit billable_minutes split may be given; the split wins
// when both are present.
type CreateTimeEntryRequest struct {
	Minutes         int     `json:"minutes"`
	Billable        bool    `json:"billable"`
	BillableMinutes *int    `json:"billable_minutes,omitempty"`
	WorkCategory    string  `json:"work_category,omitempty"`
	Description     *string `json:"description,omitempty"`
}
