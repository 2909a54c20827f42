// Package client is a typed HTTP client for the lostfound API. The
// terminal client and the sync engine talk to the daemon through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"lostfound/pkg/models"
)

// APIError is a non-2xx response from the daemon, carrying the status
// code and the server's message field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to one lostfound daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the given base URL ("http://host:port").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient lets callers supply the underlying http.Client,
// mainly for tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// LoginResult is the identity the daemon returns on login or register.
type LoginResult struct {
	UserID   int64  `json:"userID"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login authenticates and returns the user identity.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.postJSON(ctx, "/api/login",
		map[string]string{"username": username, "password": password}, &out)
	return out, err
}

// Register creates an account and returns the new identity.
func (c *Client) Register(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.postJSON(ctx, "/api/register",
		map[string]string{"username": username, "password": password}, &out)
	return out, err
}

// ItemQuery filters an item listing.
type ItemQuery struct {
	Type   string
	Status string
	Search string
}

// Items lists items matching the query.
func (c *Client) Items(ctx context.Context, q ItemQuery) ([]models.Item, error) {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	var out []models.Item
	err := c.getJSON(ctx, "/api/items", v, &out)
	return out, err
}

// UserItems lists the items posted by one user.
func (c *Client) UserItems(ctx context.Context, userID int64, itemType string) ([]models.Item, error) {
	v := url.Values{}
	if itemType != "" {
		v.Set("type", itemType)
	}
	var out []models.Item
	err := c.getJSON(ctx, fmt.Sprintf("/api/items/user/%d", userID), v, &out)
	return out, err
}

// CreateItem posts a new lost or found item report.
func (c *Client) CreateItem(ctx context.Context, it models.Item) (models.Item, error) {
	var out models.Item
	err := c.postJSON(ctx, "/api/items", it, &out)
	return out, err
}

// ClaimResult is the chat pair opened by a claim.
type ClaimResult struct {
	LostItemID  string `json:"lostItemID"`
	FoundItemID string `json:"foundItemID"`
	Message     string `json:"message"`
}

// InitiateClaim opens a claim on a found item. matchLostItemID may be
// empty; the daemon then creates a placeholder lost item for the claim.
func (c *Client) InitiateClaim(ctx context.Context, userID int64, foundItemID, matchLostItemID string) (ClaimResult, error) {
	var out ClaimResult
	err := c.postJSON(ctx, "/api/claim/initiate", map[string]interface{}{
		"userID": userID, "foundItemID": foundItemID, "matchLostItemID": matchLostItemID,
	}, &out)
	return out, err
}

// Messages fetches the full conversation for a lost/found pair, oldest
// first.
func (c *Client) Messages(ctx context.Context, lostItemID, foundItemID string) ([]models.Message, error) {
	var out []models.Message
	path := fmt.Sprintf("/api/messages/%s/%s", url.PathEscape(lostItemID), url.PathEscape(foundItemID))
	err := c.getJSON(ctx, path, nil, &out)
	return out, err
}

// SendMessageRequest is one outgoing message. Exactly one of Content or
// ImagePath should be set; when ImagePath is set the file is uploaded
// and the stored media reference becomes the content.
type SendMessageRequest struct {
	SenderID    int64
	LostItemID  string
	FoundItemID string
	Content     string
	ImagePath   string
	ImageReader io.Reader // overrides ImagePath opening when set, named by ImagePath
}

// SendMessageResponse carries the canonical content the daemon stored.
type SendMessageResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

// SendMessage posts a message as a multipart form.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("senderID", fmt.Sprintf("%d", req.SenderID))
	_ = mw.WriteField("lostItemID", req.LostItemID)
	_ = mw.WriteField("foundItemID", req.FoundItemID)
	if req.Content != "" {
		_ = mw.WriteField("content", req.Content)
	}
	if req.ImageReader != nil {
		part, err := mw.CreateFormFile("image", filepath.Base(req.ImagePath))
		if err != nil {
			return SendMessageResponse{}, err
		}
		if _, err := io.Copy(part, req.ImageReader); err != nil {
			return SendMessageResponse{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return SendMessageResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/messages", &body)
	if err != nil {
		return SendMessageResponse{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out SendMessageResponse
	if err := c.do(httpReq, &out); err != nil {
		return SendMessageResponse{}, err
	}
	return out, nil
}

// Chats lists the active conversations for a user.
func (c *Client) Chats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	v := url.Values{}
	v.Set("userID", fmt.Sprintf("%d", userID))
	var out []models.ChatSummary
	err := c.getJSON(ctx, "/api/chats", v, &out)
	return out, err
}

// ResolveChat confirms or rejects a match. Action is "confirm" or
// "reject". Returns the daemon's outcome message.
func (c *Client) ResolveChat(ctx context.Context, userID int64, lostItemID, foundItemID, action string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.postJSON(ctx, "/api/chat/resolve", map[string]interface{}{
		"userID": userID, "lostItemID": lostItemID, "foundItemID": foundItemID, "action": action,
	}, &out)
	return out.Message, err
}

// Notifications fetches a user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	var out []models.Notification
	err := c.getJSON(ctx, fmt.Sprintf("/api/notifications/%d", userID), nil, &out)
	return out, err
}

// MarkNotificationRead marks one notification read. Marking an
// already-read notification succeeds.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID, userID int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/notifications/mark-read/%d", notificationID),
		map[string]int64{"userID": userID}, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request and decodes the body. Non-2xx responses are
// returned as *APIError with the server's message when one is present.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			apiErr.Message = e.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response %s: %w", req.URL.Path, err)
	}
	return nil
}
