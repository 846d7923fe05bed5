package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/domain"
)

func newTestClient(t *testing.T, category string, handler http.HandlerFunc) *MantisClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMantisClient(config.TicketStoreConfig{
		BaseURL:        srv.URL + "/api/rest/",
		APIToken:       "secret-token",
		ProjectID:      7,
		Category:       category,
		TimeoutSeconds: 5,
	}, zap.NewNop())
}

func TestMapSeverityIsTotal(t *testing.T) {
	assert.Equal(t, "trivial", MapSeverity(domain.SeverityLow))
	assert.Equal(t, "minor", MapSeverity(domain.SeverityMedium))
	assert.Equal(t, "major", MapSeverity(domain.SeverityHigh))
	for _, s := range []domain.Severity{"", "critical", "HIGH", "blocker"} {
		assert.Equal(t, "minor", MapSeverity(s), string(s))
	}
}

func TestCreateTicketSendsMappedPayload(t *testing.T) {
	var got map[string]any
	var auth, path string
	c := newTestClient(t, "Washing Machine Support", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"issue":{"id":42}}`))
	})

	id, err := c.CreateTicket(context.Background(), domain.TicketDraft{
		Summary:     "Mechanical issue",
		Description: "water leaking everywhere",
		Severity:    domain.SeverityHigh,
		Category:    domain.CategoryMechanical,
		RequesterID: "u-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "/api/rest/issues", path)
	assert.Equal(t, "Mechanical issue", got["summary"])
	assert.Equal(t, map[string]any{"name": "major"}, got["severity"])
	assert.Equal(t, map[string]any{"name": "normal"}, got["priority"])
	assert.Equal(t, map[string]any{"name": "always"}, got["reproducibility"])
	assert.Equal(t, map[string]any{"name": "Washing Machine Support"}, got["category"])
	assert.Equal(t, map[string]any{"id": float64(7)}, got["project"])
	assert.Equal(t, "Chat User ID: u-1", got["additional_information"])
}

func TestCreateTicketUsesClassificationCategoryWhenUnconfigured(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"issue":{"id":"T-42"}}`))
	})

	id, err := c.CreateTicket(context.Background(), domain.TicketDraft{Category: domain.CategoryDrainage})
	require.NoError(t, err)
	assert.Equal(t, "T-42", id)
	assert.Equal(t, map[string]any{"name": "Drainage"}, got["category"])
}

func TestCreateTicketFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"ok instead of created": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"issue":{"id":1}}`))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"missing id": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"issue":{}}`))
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, "x", handler)
			id, err := c.CreateTicket(context.Background(), domain.TicketDraft{Summary: "s"})
			assert.Empty(t, id)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestGetTicketStatus(t *testing.T) {
	var path string
	c := newTestClient(t, "x", func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"issues":[{"id":42,"summary":"Mechanical issue","status":{"name":"assigned"},"priority":{"name":"normal"},"severity":{"name":"major"}}]}`))
	})

	snap, err := c.GetTicketStatus(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "/api/rest/issues/42", path)
	assert.Equal(t, &domain.TicketSnapshot{
		ID:       "42",
		Summary:  "Mechanical issue",
		Status:   "assigned",
		Priority: "normal",
		Severity: "major",
	}, snap)
}

func TestGetTicketStatusDistinguishesNotFound(t *testing.T) {
	notFound := newTestClient(t, "x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := notFound.GetTicketStatus(context.Background(), "9")
	assert.ErrorIs(t, err, ErrNotFound)

	empty := newTestClient(t, "x", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"issues":[]}`))
	})
	_, err = empty.GetTicketStatus(context.Background(), "9")
	assert.ErrorIs(t, err, ErrNotFound)

	broken := newTestClient(t, "x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err = broken.GetTicketStatus(context.Background(), "9")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestUnreachableTrackerIsUnavailable(t *testing.T) {
	c := NewMantisClient(config.TicketStoreConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 2}, zap.NewNop())

	_, err := c.CreateTicket(context.Background(), domain.TicketDraft{})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = c.GetTicketStatus(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUnavailable)
}
