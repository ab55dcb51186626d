package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-200 response from the platform. Message carries the
// backend-provided error verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api responded with status %d", e.Status)
	}
	return fmt.Sprintf("api responded with status %d: %s", e.Status, e.Message)
}

// Client talks to the platform's data API: node metadata resolution and
// signed transfer URL issuance. Every request carries the auth header.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client against baseURL authenticating with token.
// If httpClient is nil, http.DefaultClient is used.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, httpClient: httpClient}
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var er errorResponse
		_ = json.Unmarshal(body, &er)
		return &APIError{Status: resp.StatusCode, Message: er.Error}
	}

	return json.Unmarshal(body, out)
}

// NodeData resolves metadata for one or more remote paths in a single round
// trip. The returned map is keyed by the input paths.
func (c *Client) NodeData(ctx context.Context, paths ...string) (map[string]Node, error) {
	var res nodeDataResponse
	if err := c.post(ctx, "/ldata/node-data", map[string]any{"paths": paths}, &res); err != nil {
		return nil, fmt.Errorf("failed to resolve node data: %w", err)
	}
	return res.Data, nil
}

// SignedURL issues a time-limited transfer URL for a single remote object.
func (c *Client) SignedURL(ctx context.Context, path string) (string, error) {
	var res signedURLResponse
	if err := c.post(ctx, "/ldata/signed-url", map[string]string{"path": path}, &res); err != nil {
		return "", fmt.Errorf("failed to fetch signed url for %s: %w", path, err)
	}
	return res.Data.URL, nil
}

// SignedUploadURL issues a time-limited URL granting write access to the
// remote path.
func (c *Client) SignedUploadURL(ctx context.Context, path string) (string, error) {
	var res signedURLResponse
	if err := c.post(ctx, "/ldata/signed-upload-url", map[string]string{"path": path}, &res); err != nil {
		return "", fmt.Errorf("failed to fetch signed upload url for %s: %w", path, err)
	}
	return res.Data.URL, nil
}

// SignedURLsRecursive issues signed URLs for every leaf object under a
// container node, keyed by path relative to it. One call per subtree, no
// matter how many descendants.
func (c *Client) SignedURLsRecursive(ctx context.Context, path string) (map[string]string, error) {
	var res signedURLsRecursiveResponse
	if err := c.post(ctx, "/ldata/signed-urls-recursive", map[string]string{"path": path}, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch signed urls for %s: %w", path, err)
	}
	return res.Data.URLs, nil
}
