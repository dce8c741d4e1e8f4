// Backend client for the IFC extraction server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
)

const (
	defaultBaseURL   = "http://127.0.0.1:5000"
	defaultFieldName = "ifc_file"
	defaultLoginPath = "/login"
	defaultCSVName   = "material_list.csv"

	UploadPath   = "/upload/ifc"
	ProcessPath  = "/choice/material"
	DownloadPath = "/download/csv"

	// maxErrorBody bounds how much of a plain-text error body is surfaced.
	maxErrorBody = 512
)

// UploadResponse is the JSON envelope returned by the upload endpoint.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ProcessResponse is the JSON envelope returned by the extraction endpoint.
type ProcessResponse struct {
	Success   bool                `json:"success"`
	Materials models.MaterialList `json:"materials"`
	Message   string              `json:"message,omitempty"`
}

// APIError describes a failed backend call.
//
// Err is one of the shared sentinels ([shared.ErrAPIRequest], [shared.ErrUnexpectedStatus],
// [shared.ErrInvalidResponse], [shared.ErrRejected], [shared.ErrNotAuthenticated]) so callers can classify it with errors.Is.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// ClientOpts contains configuration options for creating a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	FieldName  string
	LoginPath  string
	Logger     *log.Logger
}

// Client talks to the extraction backend.
//
// The backend keeps the uploaded file in the login session, so the client holds a cookie jar across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	fieldName  string
	loginPath  string
	logger     *log.Logger
}

// NewClient creates a new backend client. A nil HTTPClient gets a fresh client with a cookie jar.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.FieldName == "" {
		opts.FieldName = defaultFieldName
	}
	if opts.LoginPath == "" {
		opts.LoginPath = defaultLoginPath
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.HTTPClient == nil {
		jar, _ := cookiejar.New(nil)
		opts.HTTPClient = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		fieldName:  opts.FieldName,
		loginPath:  opts.LoginPath,
		logger:     opts.Logger,
	}
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SupportsProgress reports that uploads emit byte-level progress callbacks.
func (c *Client) SupportsProgress() bool { return true }

// UseCookies installs session cookies (for example captured from a browser cURL command) for the backend host.
func (c *Client) UseCookies(cookies []*http.Cookie) error {
	if c.httpClient.Jar == nil {
		return fmt.Errorf("%w: HTTP client has no cookie jar", shared.ErrInvalidConfig)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	c.httpClient.Jar.SetCookies(u, cookies)
	return nil
}

// Login authenticates with the backend's form login and keeps the session cookie.
//
// The backend re-renders the login page on bad credentials, so landing back on the login path is treated as failure.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingCredentials)
	}

	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: "login", Message: err.Error(), Err: shared.ErrAPIRequest}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: "login", StatusCode: resp.StatusCode, Err: shared.ErrAuthFailed}
	}
	if c.landedOnLogin(resp) {
		return &APIError{Op: "login", StatusCode: resp.StatusCode, Message: "invalid username or password", Err: shared.ErrAuthFailed}
	}

	c.logger.Debug("logged in", "user", username)
	return nil
}

// Upload sends file as a multipart body under the configured field name.
//
// onProgress, when non-nil, receives (bytesSent, totalBytes) as the transport reads the body.
func (c *Client) Upload(ctx context.Context, file *models.UploadFile, onProgress func(sent, total int64)) (*UploadResponse, error) {
	f, err := file.Open()
	if err != nil {
		return nil, &APIError{Op: "upload", Message: err.Error(), Err: shared.ErrAPIRequest}
	}
	defer f.Close()

	body, total, contentType, err := c.multipartBody(f, file)
	if err != nil {
		return nil, &APIError{Op: "upload", Message: err.Error(), Err: shared.ErrAPIRequest}
	}

	var reader io.Reader = body
	if onProgress != nil {
		reader = &ProgressReader{Reader: body, Total: total, OnUpdate: onProgress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UploadPath, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("uploading", "file", file.Name, "bytes", total)

	var out UploadResponse
	if err := c.doJSON(req, "upload", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Op: "upload", Message: out.Message, Err: shared.ErrRejected}
	}

	return &out, nil
}

// Process asks the backend to extract materials from the previously uploaded file.
func (c *Client) Process(ctx context.Context) (*ProcessResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ProcessPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	var out ProcessResponse
	if err := c.doJSON(req, "process", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Op: "process", Message: out.Message, Err: shared.ErrRejected}
	}

	c.logger.Debug("materials extracted", "count", len(out.Materials))
	return &out, nil
}

// Download retrieves the generated CSV as an in-memory [models.Artifact].
func (c *Client) Download(ctx context.Context) (*models.Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DownloadPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: "download", Message: err.Error(), Err: shared.ErrAPIRequest}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: "download", StatusCode: resp.StatusCode, Message: err.Error(), Err: shared.ErrAPIRequest}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: "download", StatusCode: resp.StatusCode, Message: errorText(data), Err: shared.ErrUnexpectedStatus}
	}
	if c.landedOnLogin(resp) {
		return nil, &APIError{Op: "download", StatusCode: resp.StatusCode, Err: shared.ErrNotAuthenticated}
	}

	return models.NewArtifact(attachmentName(resp.Header.Get("Content-Disposition")), resp.Header.Get("Content-Type"), data), nil
}

// doJSON executes req and decodes the JSON envelope into out.
func (c *Client) doJSON(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Message: err.Error(), Err: shared.ErrAPIRequest}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: err.Error(), Err: shared.ErrAPIRequest}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: serverMessage(body), Err: shared.ErrUnexpectedStatus}
	}
	if c.landedOnLogin(resp) {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: shared.ErrNotAuthenticated}
	}

	if err := json.Unmarshal(body, out); err != nil {
		var syntaxErr *json.SyntaxError
		msg := "response is not valid JSON"
		if !errors.As(err, &syntaxErr) {
			msg = err.Error()
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg, Err: shared.ErrInvalidResponse}
	}

	return nil
}

// multipartBody returns a reader over the complete multipart body and its exact length.
func (c *Client) multipartBody(r io.Reader, file *models.UploadFile) (io.Reader, int64, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if _, err := mw.CreateFormFile(c.fieldName, file.Name); err != nil {
		return nil, 0, "", fmt.Errorf("failed to build multipart header: %w", err)
	}
	head := append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, 0, "", fmt.Errorf("failed to build multipart trailer: %w", err)
	}
	tail := append([]byte(nil), buf.Bytes()...)

	total := int64(len(head)) + file.Size + int64(len(tail))
	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(r, file.Size), bytes.NewReader(tail))
	return body, total, mw.FormDataContentType(), nil
}

// landedOnLogin reports whether redirects ended on the login page (the session is missing or expired).
func (c *Client) landedOnLogin(resp *http.Response) bool {
	if resp.Request == nil || resp.Request.URL == nil {
		return false
	}
	return resp.Request.URL.Path == c.loginPath
}

// serverMessage extracts a "message" field from a JSON body, falling back to the trimmed text.
func serverMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return errorText(body)
}

func errorText(body []byte) string {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return defaultCSVName
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return defaultCSVName
	}
	return params["filename"]
}
