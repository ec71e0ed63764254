// Package azuredevops implements the authenticated REST surface of the
// Azure DevOps host: project and repository enumeration, file access,
// work item tracking and pull request automation.
package azuredevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/upkeeper/upkeeper/domain"
)

const (
	providerName = "azuredevops"
	apiVersion   = "5.0"

	// approveVote is the host's "approved" reviewer vote sentinel.
	approveVote = 10

	jsonContentType      = "application/json"
	jsonPatchContentType = "application/json-patch+json"
)

// Semantic transport failures. These are the only two statuses callers
// inspect; everything else surfaces as a *StatusError.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// StatusError is an unexpected non-2xx response passed through to the caller.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Client is an Azure DevOps REST client scoped to one organization.
// Every request carries the organization's token as basic authentication.
type Client struct {
	baseURL      string
	organization string
	token        string
	httpClient   *http.Client

	// retryInterval seeds the exponential backoff used for idempotent
	// requests; tests shrink it.
	retryInterval time.Duration
	retryTimeout  time.Duration
}

// NewClient creates a client for one organization. The endpoint defaults to
// https://dev.azure.com when empty.
func NewClient(endpoint, organization, token string) *Client {
	if endpoint == "" {
		endpoint = "https://dev.azure.com"
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	return &Client{
		baseURL:      endpoint + "/" + organization,
		organization: organization,
		token:        token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryInterval: time.Second,
		retryTimeout:  30 * time.Second,
	}
}

func (c *Client) Name() string         { return providerName }
func (c *Client) Organization() string { return c.organization }

// Host returns the host name of the endpoint (e.g. "dev.azure.com").
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	return u.Host
}

type listResponse[T any] struct {
	Value []T `json:"value"`
	Count int `json:"count"`
}

type projectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type repositoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListProjects enumerates all projects in the organization, following
// continuation tokens.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	continuationToken := ""

	for {
		endpoint := "/_apis/projects?api-version=" + apiVersion
		if continuationToken != "" {
			endpoint += "&continuationToken=" + url.QueryEscape(continuationToken)
		}

		resp, headers, err := c.doRequestWithHeaders(ctx, http.MethodGet, endpoint, nil, jsonContentType)
		if err != nil {
			return nil, err
		}

		var result listResponse[projectResponse]
		if err := json.Unmarshal(resp, &result); err != nil {
			return nil, fmt.Errorf("failed to parse projects response: %w", err)
		}

		for _, p := range result.Value {
			projects = append(projects, domain.Project{ID: p.ID, Name: p.Name})
		}

		continuationToken = headers.Get("x-ms-continuationtoken")
		if continuationToken == "" {
			break
		}
	}

	return projects, nil
}

// ListRepositories enumerates all repositories in a project.
func (c *Client) ListRepositories(ctx context.Context, projectID string) ([]domain.Repository, error) {
	endpoint := fmt.Sprintf("/%s/_apis/git/repositories?api-version=%s", projectID, apiVersion)

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, jsonContentType)
	if err != nil {
		return nil, err
	}

	var result listResponse[repositoryResponse]
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse repositories response: %w", err)
	}

	repos := make([]domain.Repository, 0, len(result.Value))
	for _, r := range result.Value {
		repos = append(repos, domain.Repository{ID: r.ID, Name: r.Name})
	}

	return repos, nil
}

// GetFile reads a file from a repository's default branch. An absent path
// is an expected outcome, returned as found=false.
func (c *Client) GetFile(ctx context.Context, projectID, repoID, path string) (string, bool, error) {
	endpoint := fmt.Sprintf("/%s/_apis/git/repositories/%s/items?path=%s&api-version=%s",
		projectID, repoID, url.QueryEscape(path), apiVersion)

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, jsonContentType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	return string(resp), true, nil
}

// CountWorkItemsByTitle queries work items by exact title match.
func (c *Client) CountWorkItemsByTitle(ctx context.Context, projectID, title string) (int, error) {
	endpoint := fmt.Sprintf("/%s/_apis/wit/wiql?api-version=%s", projectID, apiVersion)

	query := fmt.Sprintf(
		"Select [System.Id] From WorkItems Where [System.Title] = '%s'",
		strings.ReplaceAll(title, "'", "''"),
	)
	body := map[string]string{"query": query}

	resp, err := c.doRequest(ctx, http.MethodPost, endpoint, body, jsonContentType)
	if err != nil {
		return 0, err
	}

	var result struct {
		WorkItems []struct {
			ID int `json:"id"`
		} `json:"workItems"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, fmt.Errorf("failed to parse work item query response: %w", err)
	}

	return len(result.WorkItems), nil
}

// patchOperation is one JSON-patch operation of a work item creation body.
type patchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// CreateWorkItem opens a new bug work item in a project.
func (c *Client) CreateWorkItem(ctx context.Context, projectID string, item domain.WorkItem) error {
	endpoint := fmt.Sprintf("/%s/_apis/wit/workitems/$Bug?api-version=%s", projectID, apiVersion)

	ops := []patchOperation{
		{Op: "add", Path: "/fields/System.Title", Value: item.Title},
		{Op: "add", Path: "/fields/System.Tags", Value: item.Tags},
		{Op: "add", Path: "/fields/Microsoft.VSTS.TCM.ReproSteps", Value: item.ReproSteps},
		{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Priority", Value: item.Priority},
		{Op: "add", Path: "/fields/Microsoft.VSTS.Common.Severity", Value: item.Severity},
	}

	if _, err := c.doRequest(ctx, http.MethodPost, endpoint, ops, jsonPatchContentType); err != nil {
		return fmt.Errorf("failed to create work item: %w", err)
	}

	return nil
}

// SetAutoComplete marks a change request to complete automatically once its
// policies pass, deleting the source branch, attributed to its creator.
func (c *Client) SetAutoComplete(ctx context.Context, projectID, repoID string, cr domain.ChangeRequest) error {
	endpoint := fmt.Sprintf("/%s/_apis/git/repositories/%s/pullrequests/%d?api-version=%s",
		projectID, repoID, cr.ID, apiVersion)

	body := map[string]interface{}{
		"autoCompleteSetBy": map[string]string{
			"id": cr.CreatedByID,
		},
		"completionOptions": map[string]interface{}{
			"deleteSourceBranch": true,
		},
	}

	if _, err := c.doRequest(ctx, http.MethodPatch, endpoint, body, jsonContentType); err != nil {
		return fmt.Errorf("failed to set auto-complete on change request %d: %w", cr.ID, err)
	}

	return nil
}

// ApproveChangeRequest casts an approving vote on a change request as its
// creator.
func (c *Client) ApproveChangeRequest(ctx context.Context, projectID, repoID string, cr domain.ChangeRequest) error {
	endpoint := fmt.Sprintf("/%s/_apis/git/repositories/%s/pullrequests/%d/reviewers/%s?api-version=%s",
		projectID, repoID, cr.ID, url.PathEscape(cr.CreatedByID), apiVersion)

	body := map[string]interface{}{
		"vote": approveVote,
	}

	if _, err := c.doRequest(ctx, http.MethodPut, endpoint, body, jsonContentType); err != nil {
		return fmt.Errorf("failed to approve change request %d: %w", cr.ID, err)
	}

	return nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, contentType string) ([]byte, error) {
	resp, _, err := c.doRequestWithHeaders(ctx, method, endpoint, body, contentType)
	return resp, err
}

// doRequestWithHeaders issues one request. Idempotent methods (GET, PUT)
// are retried with exponential backoff on transient transport failures;
// semantic failures are classified and never retried.
func (c *Client) doRequestWithHeaders(ctx context.Context, method, endpoint string, body interface{}, contentType string) ([]byte, http.Header, error) {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	if method != http.MethodGet && method != http.MethodPut {
		return c.attempt(ctx, method, endpoint, jsonBody, contentType)
	}

	var respBody []byte
	var respHeaders http.Header

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxElapsedTime = c.retryTimeout

	err := backoff.Retry(func() error {
		var attemptErr error
		respBody, respHeaders, attemptErr = c.attempt(ctx, method, endpoint, jsonBody, contentType)
		if attemptErr == nil {
			return nil
		}
		if isTransient(attemptErr) {
			return attemptErr
		}
		return backoff.Permanent(attemptErr)
	}, backoff.WithContext(bo, ctx))

	return respBody, respHeaders, err
}

func (c *Client) attempt(ctx context.Context, method, endpoint string, jsonBody []byte, contentType string) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if jsonBody != nil {
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(":" + c.token))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, nil, fmt.Errorf("%w: %s %s", ErrUnauthorized, method, endpoint)
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, resp.Header, nil
}

// isTransient reports whether a failed attempt is worth retrying: network
// errors and gateway-level 5xx responses.
func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		return false
	}
	return strings.Contains(err.Error(), "request failed")
}
