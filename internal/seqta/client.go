// Package seqta fetches attendance exception windows from a SEQTA-style
// school-management endpoint.
package seqta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/clbanning/mxj/v2"
	"go.uber.org/zap"

	"attendance-monitoring/internal/attendance"
	"attendance-monitoring/internal/metrics"
)

// StatusError reports a non-success HTTP status from the attendance endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("attendance endpoint returned status %d", e.Code)
}

// Client calls the attendance endpoint with HTTP basic authentication.
type Client struct {
	BaseURL  string
	Username string
	Password string

	// DumpRaw writes the decoded payload to DumpPath as JSON for debugging.
	// The dump is best-effort and never affects the returned records.
	DumpRaw  bool
	DumpPath string

	HTTP *http.Client
	log  *zap.Logger
}

// New creates a client. The timeout is generous: a full window takes the
// endpoint tens of seconds to assemble.
func New(baseURL, username, password string, log *zap.Logger) *Client {
	return &Client{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		DumpPath: "attendance_data.json",
		HTTP:     &http.Client{Timeout: 120 * time.Second},
		log:      log,
	}
}

// Fetch retrieves and validates the attendance window starting at startDate.
// A single attempt is made; retries are the caller's concern. Validation
// failures from the envelope parser propagate unchanged.
func (c *Client) Fetch(ctx context.Context, startDate time.Time) ([]attendance.Record, error) {
	url := fmt.Sprintf("%s?date=%s", c.BaseURL, startDate.Format("2006-01-02"))
	c.log.Info("fetching attendance window", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.Username, c.Password)

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attendance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read attendance body: %w", err)
	}
	metrics.FetchDuration.Observe(time.Since(started).Seconds())

	doc, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("decode attendance body: %w", err)
	}

	if c.DumpRaw {
		c.dumpRaw(map[string]any(doc))
	}

	records, err := attendance.ParseEnvelope(map[string]any(doc))
	if err != nil {
		return nil, err
	}
	c.log.Info("attendance window fetched",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(started)))
	return records, nil
}

// dumpRaw persists the decoded mapping as JSON. Failures are logged and
// swallowed; this is a debug aid, not part of the pipeline.
func (c *Client) dumpRaw(doc map[string]any) {
	data, err := json.Marshal(doc)
	if err == nil {
		err = os.WriteFile(c.DumpPath, data, 0o644)
	}
	if err != nil {
		c.log.Warn("raw payload dump failed", zap.String("path", c.DumpPath), zap.Error(err))
		return
	}
	c.log.Info("raw payload dumped", zap.String("path", c.DumpPath))
}
