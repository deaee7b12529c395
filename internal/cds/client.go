// Package cds is a minimal client for the Copernicus Climate Data Store
// retrieve API.
package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job states reported by the retrieve API.
const (
	StatusAccepted   = "accepted"
	StatusRunning    = "running"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusRejected   = "rejected"
	StatusDismissed  = "dismissed"
)

const defaultPollInterval = 2 * time.Second

// Options configures a Client. Zero values select defaults.
type Options struct {
	// URL and Key override the environment and the rc file.
	URL    string
	Key    string
	RCFile string

	PollInterval time.Duration
	// Timeout bounds each HTTP request, not the whole retrieval.
	Timeout  time.Duration
	MaxConns int
}

// Client submits retrieval jobs and downloads their results.
type Client struct {
	logger       *zap.SugaredLogger
	httpCli      *http.Client
	explicit     Credentials
	rcFile       string
	pollInterval time.Duration

	credsOnce sync.Once
	creds     Credentials
	credsErr  error
}

// NewClient creates a new CDS client. Credentials are resolved on first use.
func NewClient(logger *zap.SugaredLogger, opts Options) *Client {
	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 2
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		explicit:     Credentials{URL: opts.URL, Key: opts.Key},
		rcFile:       opts.RCFile,
		pollInterval: poll,
	}
}

func (c *Client) credentials() (Credentials, error) {
	c.credsOnce.Do(func() {
		c.creds, c.credsErr = resolveCredentials(c.explicit, c.rcFile)
		if c.credsErr == nil {
			c.logger.Debugw("CDS credentials loaded", "url", c.creds.URL)
		}
	})
	return c.creds, c.credsErr
}

type job struct {
	JobID  string `json:"jobID"`
	Status string `json:"status"`
}

type results struct {
	Asset struct {
		Value struct {
			Href string `json:"href"`
			Type string `json:"type"`
			Size int64  `json:"file:size"`
		} `json:"value"`
	} `json:"asset"`
}

// Retrieve submits request to dataset, waits for the job to finish and
// writes the result to target. It blocks until the file is written, the job
// fails or ctx is done.
func (c *Client) Retrieve(ctx context.Context, dataset string, request any, target string) error {
	creds, err := c.credentials()
	if err != nil {
		return err
	}
	base := strings.TrimRight(creds.URL, "/")

	j, err := c.submit(ctx, creds, base, dataset, request)
	if err != nil {
		return err
	}
	c.logger.Infow("CDS job submitted", "dataset", dataset, "job", j.JobID, "status", j.Status)

	if err := c.wait(ctx, creds, base, j); err != nil {
		return err
	}

	var res results
	if err := c.doJSON(ctx, creds, http.MethodGet, base+"/retrieve/v1/jobs/"+url.PathEscape(j.JobID)+"/results", nil, &res); err != nil {
		return err
	}
	href := res.Asset.Value.Href
	if href == "" {
		return &JobError{JobID: j.JobID, Status: StatusSuccessful, Message: "result has no asset"}
	}
	href, err = resolveRef(base, href)
	if err != nil {
		return err
	}
	n, err := c.download(ctx, creds, href, target)
	if err != nil {
		return err
	}
	c.logger.Infow("CDS result downloaded", "job", j.JobID, "file", target, "bytes", n)
	return nil
}

func (c *Client) submit(ctx context.Context, creds Credentials, base, dataset string, request any) (job, error) {
	body, err := json.Marshal(map[string]any{"inputs": request})
	if err != nil {
		return job{}, fmt.Errorf("cds: encode request: %w", err)
	}
	var j job
	endpoint := base + "/retrieve/v1/processes/" + url.PathEscape(dataset) + "/execution"
	if err := c.doJSON(ctx, creds, http.MethodPost, endpoint, body, &j); err != nil {
		return job{}, err
	}
	if j.JobID == "" {
		return job{}, fmt.Errorf("cds: submit returned no job id")
	}
	return j, nil
}

func (c *Client) wait(ctx context.Context, creds Credentials, base string, j job) error {
	endpoint := base + "/retrieve/v1/jobs/" + url.PathEscape(j.JobID)
	status := j.Status
	for {
		switch status {
		case StatusSuccessful:
			return nil
		case StatusFailed, StatusRejected, StatusDismissed:
			return c.jobError(ctx, creds, endpoint, j.JobID, status)
		case StatusAccepted, StatusRunning:
		default:
			return &JobError{JobID: j.JobID, Status: status, Message: "unrecognised job status"}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		var cur job
		if err := c.doJSON(ctx, creds, http.MethodGet, endpoint, nil, &cur); err != nil {
			return err
		}
		if cur.Status != status {
			c.logger.Debugw("CDS job status", "job", j.JobID, "status", cur.Status)
		}
		status = cur.Status
	}
}

// jobError asks the results endpoint for the failure reason.
func (c *Client) jobError(ctx context.Context, creds Credentials, endpoint, id, status string) error {
	jerr := &JobError{JobID: id, Status: status}
	err := c.doJSON(ctx, creds, http.MethodGet, endpoint+"/results", nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		jerr.Message = apiErr.Title
		if apiErr.Detail != "" {
			jerr.Message += ": " + apiErr.Detail
		}
	}
	return jerr
}

func (c *Client) newRequest(ctx context.Context, creds Credentials, method, endpoint string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, fmt.Errorf("cds: create request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", creds.Key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doJSON performs a request and decodes a JSON response into out, if not nil.
func (c *Client) doJSON(ctx context.Context, creds Credentials, method, endpoint string, body []byte, out any) error {
	req, err := c.newRequest(ctx, creds, method, endpoint, body)
	if err != nil {
		return err
	}
	res, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("cds: %s %s: %w", method, endpoint, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("cds: read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if jerr := json.Unmarshal(b, apiErr); jerr != nil {
			apiErr.Title = http.StatusText(res.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("cds: decode response: %w", err)
	}
	return nil
}

// download streams href into target through a temporary file in the same
// directory, so target only appears once complete.
func (c *Client) download(ctx context.Context, creds Credentials, href, target string) (int64, error) {
	req, err := c.newRequest(ctx, creds, http.MethodGet, href, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Del("Accept")
	res, err := c.httpCli.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cds: download: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		if _, err := io.Copy(io.Discard, res.Body); err != nil {
			c.logger.Warnw("Failed to drain response body", "err", err)
		}
		return 0, &APIError{StatusCode: res.StatusCode, Title: "download failed"}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("cds: %w", err)
	}
	n, err := io.Copy(tmp, res.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("cds: write %s: %w", target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("cds: %w", err)
	}
	return n, nil
}

func resolveRef(base, href string) (string, error) {
	b, err := url.Parse(base + "/")
	if err != nil {
		return "", fmt.Errorf("cds: base url: %w", err)
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("cds: asset href: %w", err)
	}
	return b.ResolveReference(h).String(), nil
}
