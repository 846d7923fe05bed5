package tracker

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/domain"
)

var (
	// ErrUnavailable covers transport failures, timeouts and unexpected responses.
	ErrUnavailable = errors.New("ticket store unavailable")
	// ErrNotFound is returned when the tracker explicitly reports no such ticket.
	ErrNotFound = errors.New("ticket not found")
)

var severityMap = map[domain.Severity]string{
	domain.SeverityLow:    "trivial",
	domain.SeverityMedium: "minor",
	domain.SeverityHigh:   "major",
}

// MapSeverity translates a triage severity into a Mantis severity; anything unmapped is "minor".
func MapSeverity(s domain.Severity) string {
	if mapped, ok := severityMap[s]; ok {
		return mapped
	}
	return "minor"
}

// MantisClient talks to the MantisBT REST API. It keeps no state between calls.
type MantisClient struct {
	baseURL    string
	token      string
	projectID  int
	category   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMantisClient creates a new Mantis client.
func NewMantisClient(cfg config.TicketStoreConfig, logger *zap.Logger) *MantisClient {
	timeout := cfg.Timeout()
	return &MantisClient{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		token:     cfg.APIToken,
		projectID: cfg.ProjectID,
		category:  cfg.Category,
		timeout:   timeout,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("tracker"),
	}
}

type named struct {
	Name string `json:"name"`
}

type projectRef struct {
	ID int `json:"id"`
}

type createIssueRequest struct {
	Summary               string     `json:"summary"`
	Description           string     `json:"description"`
	Category              named      `json:"category"`
	Project               projectRef `json:"project"`
	Priority              named      `json:"priority"`
	Severity              named      `json:"severity"`
	Reproducibility       named      `json:"reproducibility"`
	AdditionalInformation string     `json:"additional_information"`
}

type createIssueResponse struct {
	Issue struct {
		ID json.Number `json:"id"`
	} `json:"issue"`
}

type issueView struct {
	ID       json.Number `json:"id"`
	Summary  string      `json:"summary"`
	Status   named       `json:"status"`
	Priority named       `json:"priority"`
	Severity named       `json:"severity"`
}

type getIssueResponse struct {
	Issues []issueView `json:"issues"`
}

// CreateTicket files a new issue and returns the tracker-assigned id.
func (c *MantisClient) CreateTicket(ctx context.Context, draft domain.TicketDraft) (string, error) {
	category := c.category
	if category == "" {
		category = draft.Category.Title()
	}
	payload := createIssueRequest{
		Summary:         draft.Summary,
		Description:     draft.Description,
		Category:        named{Name: category},
		Project:         projectRef{ID: c.projectID},
		Priority:        named{Name: "normal"},
		Severity:        named{Name: MapSeverity(draft.Severity)},
		Reproducibility: named{Name: "always"},
	}
	if draft.RequesterID != "" {
		payload.AdditionalInformation = "Chat User ID: " + draft.RequesterID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/issues", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("create ticket rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(snippet))))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded createIssueResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("decode create response", zap.Error(err))
		return "", fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	id := decoded.Issue.ID.String()
	if id == "" {
		c.logger.Error("create response carried no issue id")
		return "", fmt.Errorf("%w: missing issue id", ErrUnavailable)
	}

	c.logger.Info("created ticket", zap.String("ticket_id", id))
	return id, nil
}

// GetTicketStatus fetches the tracker's current view of a ticket.
func (c *MantisClient) GetTicketStatus(ctx context.Context, ticketID string) (*domain.TicketSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/issues/"+url.PathEscape(ticketID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Error("fetch ticket failed", zap.String("ticket_id", ticketID), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded getIssueResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("decode ticket response", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(decoded.Issues) == 0 {
		return nil, ErrNotFound
	}

	issue := decoded.Issues[0]
	snapshot := &domain.TicketSnapshot{
		ID:       ticketID,
		Summary:  issue.Summary,
		Status:   issue.Status.Name,
		Priority: issue.Priority.Name,
		Severity: issue.Severity.Name,
	}
	if id := issue.ID.String(); id != "" {
		snapshot.ID = id
	}
	return snapshot, nil
}

func (c *MantisClient) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Error("ticket store timeout", zap.String("method", method), zap.Duration("timeout", c.timeout))
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		c.logger.Error("ticket store request failed", zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}
