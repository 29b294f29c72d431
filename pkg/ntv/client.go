package ntv

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	actionMain    = "main"
	actionProgram = "program"
	actionVideo   = "video"
	actionArchive = "archive"
)

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	// PageSize is the number of issues requested per archive page.
	PageSize int
}

func NewClientOpts(baseURL string, timeout time.Duration, pageSize int) ClientOptions {
	return ClientOptions{
		BaseURL:  baseURL,
		Timeout:  timeout,
		PageSize: pageSize,
	}
}

var DefaultClientOpts = ClientOptions{
	BaseURL:  "http://www.ntv.ru/m/v10",
	Timeout:  10 * time.Second,
	PageSize: 100,
}

// Client talks to the NTV mobile API and normalizes its responses.
// It holds no mutable state across calls, only the fixed action and header
// tables built at construction.
type Client struct {
	actions    map[string]string
	headers    map[string]string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(opts ClientOptions, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultClientOpts.PageSize
	}
	return &Client{
		actions: map[string]string{
			actionMain:    baseURL + "/pr",
			actionProgram: baseURL + "/prog/#prog_id",
			actionVideo:   baseURL + "/v/#video_id",
			actionArchive: baseURL + "/prog/#prog_id/archive/#archive_id",
		},
		// The upstream only answers correctly when it's addressed like the
		// mobile client, so these are a fixed contract, not configuration.
		headers: map[string]string{
			"User-Agent":      "ru.ntv.client_4.5.1",
			"Accept-Encoding": "gzip",
			"Connection":      "keep-alive",
		},
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

// request issues a GET for the given action and returns the raw JSON body.
// pathParams replace "#name" placeholders in the action's URL template.
// A placeholder left unreplaced is a caller bug, not an upstream failure.
func (c *Client) request(ctx context.Context, action string, query url.Values, pathParams map[string]string) ([]byte, error) {
	reqURL, ok := c.actions[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	for key, val := range pathParams {
		reqURL = strings.Replace(reqURL, "#"+key, url.PathEscape(val), 1)
	}
	if strings.Contains(reqURL, "#") {
		return nil, fmt.Errorf("URL template for action %q has unreplaced placeholders: %v", action, reqURL)
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	c.logger.Debug("Requesting NTV API...", zap.String("action", action), zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("Couldn't create GET request: %v", err)
	}
	for headerKey, headerVal := range c.headers {
		req.Header.Set(headerKey, headerVal)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: "Connection error", Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{Message: "Bad GET response", Status: res.StatusCode}
	}
	// Setting Accept-Encoding by hand turns off net/http's transparent
	// decompression, so a gzip-encoded body must be decoded here.
	bodyReader := io.Reader(res.Body)
	if res.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, &APIError{Message: "Couldn't decode gzip response body", Err: err}
		}
		defer gzipReader.Close()
		bodyReader = gzipReader
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, &APIError{Message: "Connection error", Err: err}
	}
	if !gjson.ValidBytes(body) {
		return nil, &APIError{Message: "Invalid JSON in response body"}
	}
	return body, nil
}
