// Package wechat is a thin client for the WeChat OAuth endpoints used by
// wechat.login: code-for-session exchange and profile retrieval. Both are
// single outbound HTTP calls with no retry.
package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.weixin.qq.com"

// APIError is a WeChat-reported failure. WeChat returns HTTP 200 with an
// errcode field instead of an HTTP error status; the original code and
// message are preserved for the caller to surface.
type APIError struct {
	Code    int64  `json:"errcode"`
	Message string `json:"errmsg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wechat error %d: %s", e.Code, e.Message)
}

// Session is the result of exchanging a login code.
type Session struct {
	OpenID      string `json:"openid"`
	UnionID     string `json:"unionid,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// Profile is the public profile of a WeChat user.
type Profile struct {
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"headimgurl,omitempty"`
}

// Client calls the WeChat OAuth API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	secret     string
}

// Config configures the WeChat client. BaseURL overrides the endpoint,
// used by tests.
type Config struct {
	AppID   string
	Secret  string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a WeChat OAuth client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		appID:      cfg.AppID,
		secret:     cfg.Secret,
	}
}

// ExchangeCode trades a login code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	query := url.Values{
		"appid":      {c.appID},
		"secret":     {c.secret},
		"code":       {code},
		"grant_type": {"authorization_code"},
	}

	var session Session
	if err := c.get(ctx, "/sns/oauth2/access_token", query, &session); err != nil {
		return nil, err
	}
	if session.OpenID == "" {
		return nil, fmt.Errorf("wechat exchange returned no openid")
	}
	return &session, nil
}

// FetchProfile retrieves the user's public profile.
func (c *Client) FetchProfile(ctx context.Context, accessToken, openID string) (*Profile, error) {
	query := url.Values{
		"access_token": {accessToken},
		"openid":       {openID},
	}

	var profile Profile
	if err := c.get(ctx, "/sns/userinfo", query, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create wechat request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wechat request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read wechat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wechat request failed with status %d", resp.StatusCode)
	}

	// Failures arrive as 200 bodies carrying errcode.
	var apiErr APIError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Code != 0 {
		return &apiErr
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode wechat response: %w", err)
	}
	return nil
}
