// Package types contains the response shapes shared by the service and the
// HTTP API.
package types

import "time"

// SummaryRow is one counter of a region summary.
type SummaryRow struct {
	Rank             int       `json:"rank"`
	Category         string    `json:"category"`
	DisplayName      string    `json:"display_name"`
	EventDay         string    `json:"event_day"`
	Complete         int       `json:"complete"`
	Incomplete       int       `json:"incomplete"`
	Total            int       `json:"total"`
	Capacity         *int      `json:"capacity"`
	PercentageFilled *float64  `json:"percentage_filled"`
	RunID            string    `json:"run_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AgeGroup is one age bucket count.
type AgeGroup struct {
	Category string `json:"category"`
	EventDay string `json:"event_day"`
	Bucket   string `json:"bucket"`
	Count    int    `json:"count"`
}

// TicketRef names a ticket in run diagnostics.
type TicketRef struct {
	TicketID      string `json:"ticket_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	RawName       string `json:"raw_name,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// RunReport describes one run of a region.
type RunReport struct {
	Region       string         `json:"region"`
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Tickets      int            `json:"tickets"`
	Extras       int            `json:"extras"`
	Partitions   int            `json:"partitions"`
	Units        int            `json:"units"`
	Incomplete   int            `json:"incomplete"`
	Reasons      map[string]int `json:"reasons"`
	Rows         int            `json:"rows"`
	Zeroed       int            `json:"zeroed"`
	Duplicates   []string       `json:"duplicates"`
	Rejected     []TicketRef    `json:"rejected"`
	Unclassified []TicketRef    `json:"unclassified"`
}

// Clean reports whether the run dropped or failed to classify nothing.
func (r RunReport) Clean() bool {
	return len(r.Duplicates) == 0 && len(r.Rejected) == 0 && len(r.Unclassified) == 0
}
