package classplus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid organisation code or credentials")
	ErrInvalidToken       = errors.New("invalid authorization token")
	ErrListMocks          = errors.New("failed to fetch mock tests")
	ErrMockDetail         = errors.New("invalid mock ID or failed to fetch mock details")
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	OrgCode  string `json:"org_code"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

type mockListResponse struct {
	Mocks []MockSummary `json:"mocks"`
}

// LoginWithOrgCode exchanges an organisation code and credentials for an auth token.
func (c *Client) LoginWithOrgCode(ctx context.Context, orgCode, username, password string) (string, error) {
	body, _ := json.Marshal(loginRequest{OrgCode: orgCode, Username: username, Password: password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login/orgcode", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req, ErrInvalidCredentials)
	if err != nil {
		return "", err
	}

	var result loginResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if result.AuthToken == "" {
		return "", ErrInvalidCredentials
	}
	return result.AuthToken, nil
}

// LoginWithToken checks a token the user already has. The same token is
// returned on success.
func (c *Client) LoginWithToken(ctx context.Context, token string) (string, error) {
	u := c.BaseURL + "/login/token?token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	if _, err := c.do(req, ErrInvalidToken); err != nil {
		return "", err
	}
	return token, nil
}

func (c *Client) ListMocks(ctx context.Context, authToken string) ([]MockSummary, error) {
	req, err := c.authorized(ctx, c.BaseURL+"/mocks", authToken)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(req, ErrListMocks)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []MockSummary{}, nil
	}

	var result mockListResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode mock list: %w", err)
	}
	if result.Mocks == nil {
		return []MockSummary{}, nil
	}
	return result.Mocks, nil
}

// MockDetail fetches questions, options, images and explanations of one mock.
func (c *Client) MockDetail(ctx context.Context, authToken, mockID string) (MockDetail, error) {
	req, err := c.authorized(ctx, c.BaseURL+"/mock/"+url.PathEscape(mockID), authToken)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(req, ErrMockDetail)
	if err != nil {
		return nil, err
	}
	return DecodeMockDetail(raw)
}

func (c *Client) authorized(ctx context.Context, u, authToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and returns the body. Any non-200 status maps to failure.
func (c *Client) do(req *http.Request, failure error) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		// url.Error repeats the full URL, and /login/token carries the token in it.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("classplus %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w (%s)", failure, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
