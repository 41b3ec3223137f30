// Package reviewboard implements domain.ReviewClient against the Review Board Web API.
package reviewboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 60 * time.Second

// pageSize is the max-results value used when listing repositories.
const pageSize = 200

// APIError is returned when the server answers with a non-success status.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("review board API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("review board API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to a Review Board server using an API token.
type Client struct {
	baseURL string
	token   string
	httpCli *http.Client
}

// NewClient creates a Client for serverURL authenticated with token.
// A zero timeout uses DefaultTimeout.
func NewClient(serverURL, token string, timeout time.Duration) (*Client, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("review board server URL is empty")
	}
	if token == "" {
		return nil, fmt.Errorf("review board API token is empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpCli := cleanhttp.DefaultPooledClient()
	httpCli.Timeout = timeout

	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		token:   token,
		httpCli: httpCli,
	}, nil
}

type link struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

type errorBody struct {
	Stat string `json:"stat"`
	Err  struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"err"`
}

// ListRepositories returns every repository known to the server, following pagination.
func (c *Client) ListRepositories(ctx context.Context) ([]domain.ServerRepository, error) {
	next := fmt.Sprintf("%s/api/repositories/?max-results=%d", c.baseURL, pageSize)

	var repos []domain.ServerRepository
	for next != "" {
		var page struct {
			Repositories []domain.ServerRepository `json:"repositories"`
			Links        struct {
				Next *link `json:"next"`
			} `json:"links"`
		}
		if err := c.do(ctx, http.MethodGet, next, "", nil, &page); err != nil {
			return nil, fmt.Errorf("listing repositories: %w", err)
		}
		repos = append(repos, page.Repositories...)

		next = ""
		if page.Links.Next != nil {
			next = page.Links.Next.Href
		}
	}
	return repos, nil
}

// CreateReviewRequest creates an empty review request against repositoryID.
func (c *Client) CreateReviewRequest(ctx context.Context, repositoryID int) (*domain.ReviewRequest, error) {
	form := url.Values{"repository": {strconv.Itoa(repositoryID)}}

	var resp struct {
		ReviewRequest domain.ReviewRequest `json:"review_request"`
	}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/review-requests/",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating review request: %w", err)
	}
	return &resp.ReviewRequest, nil
}

// UploadDiff attaches diff to the review request as a new diff revision.
func (c *Client) UploadDiff(ctx context.Context, requestID int, diff []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("path", "diff")
	if err != nil {
		return fmt.Errorf("building diff upload: %w", err)
	}
	if _, err := part.Write(diff); err != nil {
		return fmt.Errorf("building diff upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building diff upload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/review-requests/%d/diffs/", c.baseURL, requestID)
	if err := c.do(ctx, http.MethodPost, endpoint, mw.FormDataContentType(), &body, nil); err != nil {
		return fmt.Errorf("uploading diff to review request %d: %w", requestID, err)
	}
	return nil
}

// UpdateDraft sets the non-empty fields of draft on the review request's draft.
func (c *Client) UpdateDraft(ctx context.Context, requestID int, draft domain.Draft) error {
	form := url.Values{}
	set := func(key, value string) {
		if value != "" {
			form.Set(key, value)
		}
	}
	set("summary", draft.Summary)
	set("description", draft.Description)
	set("branch", draft.Branch)
	set("target_people", draft.TargetPeople)

	endpoint := fmt.Sprintf("%s/api/review-requests/%d/draft/", c.baseURL, requestID)
	err := c.do(ctx, http.MethodPut, endpoint,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), nil)
	if err != nil {
		return fmt.Errorf("updating draft of review request %d: %w", requestID, err)
	}
	return nil
}

// CurrentUser returns the username of the authenticated session.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var resp struct {
		Session struct {
			Authenticated bool `json:"authenticated"`
			Links         struct {
				User *link `json:"user"`
			} `json:"links"`
		} `json:"session"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/api/session/", "", nil, &resp); err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}
	if !resp.Session.Authenticated || resp.Session.Links.User == nil {
		return "", fmt.Errorf("session is not authenticated")
	}
	return resp.Session.Links.User.Title, nil
}

// do sends one request and decodes a JSON success body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Code = eb.Err.Code
			apiErr.Message = eb.Err.Msg
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
