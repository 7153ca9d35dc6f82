package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inakam/k8s-restart-notify/internal/infra/metrics"
	"github.com/inakam/k8s-restart-notify/internal/logic/message"
	"github.com/inakam/k8s-restart-notify/internal/logic/notifier"
)

const (
	DefaultAPIURL = "https://slack.com/api"

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
	userAgent       = "k8s-restart-notify/v1"

	methodPostMessage    = "chat.postMessage"
	methodGetUploadURL   = "files.getUploadURLExternal"
	methodCompleteUpload = "files.completeUploadExternal"
	methodUploadContent  = "upload"

	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Config holds the Slack Web API settings.
type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

// Client delivers messages through the Slack Web API.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	token      string
}

var _ notifier.Deliverer = (*Client)(nil)

type postMessageRequest struct {
	Channel     string         `json:"channel"`
	Blocks      message.Blocks `json:"blocks"`
	UnfurlLinks bool           `json:"unfurl_links"`
	UnfurlMedia bool           `json:"unfurl_media"`
}

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type uploadURLResponse struct {
	response

	UploadURL string `json:"upload_url"`
	FileID    string `json:"file_id"`
}

type completeUploadFile struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

type completeUploadRequest struct {
	Files     []completeUploadFile `json:"files"`
	ChannelID string               `json:"channel_id,omitempty"`
}

type completeUploadResponse struct {
	response

	Files []struct {
		ID        string `json:"id"`
		Permalink string `json:"permalink"`
	} `json:"files"`
}

// New creates a Slack client. Returns an error if the token or API URL is invalid.
func New(logger *slog.Logger, cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidConfig)
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid API URL: %w", ErrInvalidConfig, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: API URL must use http or https scheme, got %q", ErrInvalidConfig, u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: API URL must include a host", ErrInvalidConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		logger: logger.With("component", "slack-client"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		apiURL: strings.TrimSuffix(apiURL, "/"),
		token:  cfg.Token,
	}, nil
}

// PostMessageCommand posts the blocks to the channel with link unfurling disabled.
func (c *Client) PostMessageCommand(
	ctx context.Context,
	channel string,
	blocks message.Blocks,
) error {
	body, err := json.Marshal(postMessageRequest{
		Channel: channel,
		Blocks:  blocks,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	var out response

	err = c.call(ctx, methodPostMessage, contentTypeJSON, body, &out)
	if err != nil {
		return err
	}

	c.logger.DebugContext(ctx, "message posted", "channel", channel)

	return nil
}

// UploadFileCommand uploads content as a file shared to the channel and
// returns its permalink. The channel must be a channel ID.
func (c *Client) UploadFileCommand(
	ctx context.Context,
	channel,
	filename,
	title string,
	content []byte,
) (string, error) {
	form := url.Values{}
	form.Set("filename", filename)
	form.Set("length", strconv.Itoa(len(content)))

	var upload uploadURLResponse

	err := c.call(ctx, methodGetUploadURL, contentTypeForm, []byte(form.Encode()), &upload)
	if err != nil {
		return "", err
	}

	err = c.uploadContent(ctx, upload.UploadURL, content)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(completeUploadRequest{
		Files:     []completeUploadFile{{ID: upload.FileID, Title: title}},
		ChannelID: channel,
	})
	if err != nil {
		return "", fmt.Errorf("marshal upload completion: %w", err)
	}

	var completed completeUploadResponse

	err = c.call(ctx, methodCompleteUpload, contentTypeJSON, body, &completed)
	if err != nil {
		return "", err
	}

	if len(completed.Files) == 0 || completed.Files[0].Permalink == "" {
		return "", &APIError{
			Method:     methodCompleteUpload,
			StatusCode: http.StatusOK,
			Message:    "no permalink in response",
		}
	}

	c.logger.DebugContext(ctx, "file uploaded", "channel", channel, "file", upload.FileID)

	return completed.Files[0].Permalink, nil
}

// call invokes a Web API method. Success requires HTTP 2xx and "ok": true.
func (c *Client) call(ctx context.Context, method, contentType string, body []byte, out any) error {
	start := time.Now()

	statusCode, raw, err := c.do(ctx, c.apiURL+"/"+method, contentType, body, true)
	if err != nil {
		metrics.ObserveDelivery(method, metrics.StatusFailed, time.Since(start))

		return fmt.Errorf("%s: %w", method, err)
	}

	err = parseResponse(method, statusCode, raw, out)
	if err != nil {
		metrics.ObserveDelivery(method, metrics.StatusFailed, time.Since(start))

		return err
	}

	metrics.ObserveDelivery(method, metrics.StatusSent, time.Since(start))

	return nil
}

func (c *Client) uploadContent(ctx context.Context, uploadURL string, content []byte) error {
	start := time.Now()

	statusCode, raw, err := c.do(ctx, uploadURL, "application/octet-stream", content, false)
	if err != nil {
		metrics.ObserveDelivery(methodUploadContent, metrics.StatusFailed, time.Since(start))

		return fmt.Errorf("upload file content: %w", err)
	}

	if statusCode < 200 || statusCode >= 300 {
		metrics.ObserveDelivery(methodUploadContent, metrics.StatusFailed, time.Since(start))

		return &APIError{Method: methodUploadContent, StatusCode: statusCode, Message: strings.TrimSpace(string(raw))}
	}

	metrics.ObserveDelivery(methodUploadContent, metrics.StatusSent, time.Since(start))

	return nil
}

func (c *Client) do(ctx context.Context, target, contentType string, body []byte, auth bool) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, raw, nil
}

// parseResponse decodes a Web API response into out. The error message is the
// "error" field when present, else the raw body.
func parseResponse(method string, statusCode int, raw []byte, out any) error {
	var status response

	decodeErr := json.Unmarshal(raw, &status)

	if statusCode >= 200 && statusCode < 300 && decodeErr == nil && status.OK {
		err := json.Unmarshal(raw, out)
		if err != nil {
			return fmt.Errorf("%s: decode response: %w", method, err)
		}

		return nil
	}

	msg := status.Error
	if decodeErr != nil || msg == "" {
		msg = strings.TrimSpace(string(raw))
	}

	return &APIError{
		Method:     method,
		StatusCode: statusCode,
		Message:    msg,
	}
}
