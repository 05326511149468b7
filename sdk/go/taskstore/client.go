package taskstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// DefaultBaseURL is where the task store listens during local development.
const DefaultBaseURL = "http://127.0.0.1:8000"

// RequestIDHeader carries a per-request identifier so that client and server
// logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// Client wraps the HTTP interactions with the task store REST API and its
// attachment upload endpoint.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Task is the wire representation served by the task store.
type Task struct {
	ID     int64   `json:"id"`
	Task   string  `json:"task"`
	IsDone bool    `json:"is_done"`
	Date   *string `json:"date"`
	Pic    *string `json:"pic"`
}

// TaskPayload is the body accepted by create and update calls.
type TaskPayload struct {
	Task   string  `json:"task"`
	IsDone bool    `json:"is_done"`
	Date   *string `json:"date"`
	Pic    *string `json:"pic"`
}

// UploadResult is returned by the upload endpoint.
type UploadResult struct {
	URL string `json:"url"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("taskstore api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("taskstore api error (%d): %s", e.StatusCode, e.Message)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

// NewClient instantiates a client for the task store API. When httpClient is
// nil, a default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) *Client {
	if rawURL == "" {
		rawURL = DefaultBaseURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		panic(fmt.Sprintf("invalid base url: %v", err))
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}
}

// ListTasks fetches the full task collection.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.send(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// CreateTask stores a new task and returns it with the server assigned id.
func (c *Client) CreateTask(ctx context.Context, payload TaskPayload) (Task, error) {
	var created Task
	if err := c.send(ctx, http.MethodPost, "/tasks", payload, &created); err != nil {
		return Task{}, err
	}
	return created, nil
}

// UpdateTask replaces the mutable fields of the task identified by id.
func (c *Client) UpdateTask(ctx context.Context, id int64, payload TaskPayload) (Task, error) {
	var updated Task
	if err := c.send(ctx, http.MethodPut, taskPath(id), payload, &updated); err != nil {
		return Task{}, err
	}
	return updated, nil
}

// DeleteTask removes the task identified by id. Any 2xx answer is success.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// Upload sends content as a multipart "file" field and returns the URL the
// media host assigned to it.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy upload content: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload response did not contain a url")
	}
	return result.URL, nil
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint)}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error response: %w", err)
	}
	if len(data) > 0 {
		var envelope struct {
			Error  *APIError       `json:"error"`
			Detail json.RawMessage `json:"detail"`
		}
		envelope.Error = &apiErr
		if err := json.Unmarshal(data, &envelope); err == nil {
			// FastAPI reports failures as {"detail": "..."}; validation
			// failures use a list which is kept verbatim.
			if apiErr.Message == "" && len(envelope.Detail) > 0 {
				var detail string
				if json.Unmarshal(envelope.Detail, &detail) == nil {
					apiErr.Message = detail
				} else {
					apiErr.Message = string(envelope.Detail)
				}
			}
		}
		if apiErr.Message == "" {
			_ = json.Unmarshal(data, &apiErr)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = string(bytes.TrimSpace(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return &apiErr
}
