package ticketgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/types"
)

// ErrMismatch reports a run whose counts disagree with the generated snapshot.
var ErrMismatch = errors.New("run report mismatch")

const defaultTimeout = 60 * time.Second

// Client triggers runs on a tally server.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{base: baseURL, http: &http.Client{Timeout: timeout}}
}

// Run triggers a synchronous run for region and returns its report.
func (c *Client) Run(ctx context.Context, region string) (types.RunReport, error) {
	var report types.RunReport
	u := c.base + "/runs?" + url.Values{"region": {region}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, http.NoBody)
	if err != nil {
		return report, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return report, fmt.Errorf("post run: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return report, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("post run: status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return report, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

// Verify checks report against the stats of the snapshot it ran on.
func Verify(report types.RunReport, stats Stats) error {
	var errs []error
	check := func(name string, got, want int) {
		if got != want {
			errs = append(errs, fmt.Errorf("%s: got %d want %d: %w", name, got, want, ErrMismatch))
		}
	}
	check("tickets", report.Tickets, stats.Tickets)
	check("duplicates", len(report.Duplicates), stats.Duplicates)
	check("extras", report.Extras, stats.Extras)
	check("partitions", report.Partitions, stats.Purchases-stats.ByFamily[model.FamilyExcluded])
	check("rejected", len(report.Rejected), 0)
	check("unclassified", len(report.Unclassified), 0)
	return errors.Join(errs...)
}
