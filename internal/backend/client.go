package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/config"
)

const maxErrorBody = 64 << 10

// Client talks to the MCQ backend. Every call carries the caller's bearer ID
// token; X-User-ID is added too while legacyUserHeader is on.
type Client struct {
	baseURL          string
	http             *http.Client
	legacyUserHeader bool
}

func NewClient(baseURL string, timeout time.Duration, legacyUserHeader bool) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		http:             &http.Client{Timeout: timeout},
		legacyUserHeader: legacyUserHeader,
	}
}

func (c *Client) GenerateQuestions(ctx context.Context, id Identity, topic string, n int) (*GenerateResponse, error) {
	var out GenerateResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/mcqs/generate", id, GenerateRequest{TopicString: topic, NumQuestions: n}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateRetest(ctx context.Context, id Identity, n int) (*GenerateResponse, error) {
	var out GenerateResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/retest/generate", id, RetestRequest{NumQuestions: n}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, id Identity, req AnswerRequest) (*AnswerResponse, error) {
	var out AnswerResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/mcqs/answer", id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitSession(ctx context.Context, id Identity, req SessionSubmitRequest) (*SessionSubmitResponse, error) {
	var out SessionSubmitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/mcqs/session/submit", id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dashboard(ctx context.Context, id Identity) (*Dashboard, error) {
	var out Dashboard
	if err := c.doJSON(ctx, http.MethodGet, "/api/dashboard", id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetDashboard(ctx context.Context, id Identity) error {
	return c.doJSON(ctx, http.MethodPost, "/api/dashboard/reset", id, nil, nil)
}

func (c *Client) DeleteUserData(ctx context.Context, id Identity) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/users/me/data", id, nil, nil)
}

// UploadAvatar sends the image as the multipart "file" field.
func (c *Client) UploadAvatar(ctx context.Context, id Identity, filename, contentType string, data []byte) (*AvatarResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := c.Forward(ctx, http.MethodPut, "/api/users/me/avatar", id, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out AvatarResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forward issues a raw request with the caller's identity attached. The
// caller owns the response body. Transport failures are reported as
// ErrUnavailable; non-success statuses are returned as they are.
func (c *Client) Forward(ctx context.Context, method, path string, id Identity, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if id.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+id.BearerToken)
	}
	if c.legacyUserHeader && id.UserID != "" {
		req.Header.Set("X-User-ID", id.UserID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		config.WithContext(ctx).WithError(err).WithField("path", path).Warn("Backend request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, id Identity, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	resp, err := c.Forward(ctx, method, path, id, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if err := CheckResponse(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// CheckResponse turns a non-success response into an *APIError, reading the
// error body. Successful responses are left untouched.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{Status: resp.StatusCode, Detail: parseDetail(resp.StatusCode, raw)}
}
