// Package report is the HTTP client shared by the platform cost importers.
package report

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/model"
	"AdAttribution/internal/utils/httpclient"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Report job states returned by async reporting endpoints.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

var errNotReady = errors.New("report not ready")

// Client talks to one platform's reporting API.
type Client struct {
	platform   model.PlatformType
	baseURL    string
	httpClient *http.Client
	retry      httpclient.Backoff
	poll       httpclient.Backoff
	logger     logrus.FieldLogger
}

// NewClient builds the reporting client for one platform from its config.
func NewClient(platform model.PlatformType, cfg *config.PlatformConfig, logger logrus.FieldLogger) *Client {
	pollAttempts := cfg.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 10
	}
	pollBase := cfg.PollInterval
	if pollBase <= 0 {
		pollBase = time.Second
	}
	return &Client{
		platform:   platform,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		retry:      httpclient.Backoff{Base: 200 * time.Millisecond, MaxRetries: cfg.RetryCount},
		poll:       httpclient.Backoff{Base: pollBase, MaxRetries: pollAttempts},
		logger:     logger,
	}
}

// GetJSON fetches path?query and decodes the body into dst. Transport errors,
// 429 and 5xx are retried; 401/403 fail as auth errors.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dst interface{}) error {
	return c.retry.Do(ctx, c.logger, func() error {
		return c.do(ctx, http.MethodGet, path, query, nil, dst)
	})
}

// PostJSON sends body as JSON and decodes the response into dst.
func (c *Client) PostJSON(ctx context.Context, path string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return c.importErr(apperr.ImportParse, fmt.Errorf("encode request: %w", err))
	}
	return c.retry.Do(ctx, c.logger, func() error {
		return c.do(ctx, http.MethodPost, path, nil, payload, dst)
	})
}

// RunReport submits an async report, polls it until done, then decodes its
// rows into dst. It returns only after the full result is available.
func (c *Client) RunReport(ctx context.Context, path string, request, dst interface{}) error {
	var job struct {
		ReportID string `json:"report_id"`
	}
	if err := c.PostJSON(ctx, path, request, &job); err != nil {
		return err
	}
	if job.ReportID == "" {
		return c.importErr(apperr.ImportParse, errors.New("report submission returned no report_id"))
	}
	jobPath := path + "/" + url.PathEscape(job.ReportID)
	log := c.logger.WithFields(logrus.Fields{"platform": c.platform, "report_id": job.ReportID})

	polls := 0
	err := c.poll.Do(ctx, log, func() error {
		polls++
		var status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := c.GetJSON(ctx, jobPath, nil, &status); err != nil {
			return backoff.Permanent(err)
		}
		switch status.Status {
		case StatusDone:
			return nil
		case StatusFailed:
			return backoff.Permanent(c.importErr(apperr.ImportNetwork, fmt.Errorf("report failed: %s", status.Error)))
		default:
			log.WithField("poll", polls).Debug("report not ready")
			return errNotReady
		}
	})
	if errors.Is(err, errNotReady) {
		return c.importErr(apperr.ImportNetwork, fmt.Errorf("report %s not ready after polling", job.ReportID))
	}
	if err != nil {
		return err
	}
	return c.GetJSON(ctx, jobPath+"/rows", nil, dst)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, dst interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return backoff.Permanent(c.importErr(apperr.ImportNetwork, err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{"platform": c.platform, "path": path}).Warn("report request failed")
		return c.importErr(apperr.ImportNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(c.importErr(apperr.ImportAuth, fmt.Errorf("%s %s: %s", method, path, resp.Status)))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return c.importErr(apperr.ImportNetwork, fmt.Errorf("%s %s: %s", method, path, resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return backoff.Permanent(c.importErr(apperr.ImportNetwork, fmt.Errorf("%s %s: %s body=%s", method, path, resp.Status, snippet)))
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return backoff.Permanent(c.importErr(apperr.ImportParse, fmt.Errorf("decode %s: %w", path, err)))
	}
	return nil
}

func (c *Client) importErr(kind apperr.ImportKind, err error) error {
	var ie *apperr.ImportError
	if errors.As(err, &ie) {
		return err
	}
	return &apperr.ImportError{Platform: string(c.platform), Kind: kind, Err: err}
}

// RowID derives a stable external row id so visit references survive re-import.
func RowID(platform model.PlatformType, parts ...string) string {
	sum := sha256.Sum256([]byte(string(platform) + "|" + strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:16])
}

// Payload serialises a platform row for storage; map keys come out sorted.
func Payload(fields map[string]interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
