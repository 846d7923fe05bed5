package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-triage/internal/auth"
	"github.com/spec-kit/support-triage/internal/render"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := RootCmd("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// stubUpstreams points the classifier and tracker at local fakes.
func stubUpstreams(t *testing.T, classifierReply string) {
	t.Helper()
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":` + classifierReply + `}]}}]}`))
	}))
	t.Cleanup(gemini.Close)

	mantis := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/issues"):
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"issue":{"id":42}}`))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/issues/42"):
			_, _ = w.Write([]byte(`{"issues":[{"id":42,"summary":"Mechanical issue","status":{"name":"new"},"priority":{"name":"normal"},"severity":{"name":"major"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(mantis.Close)

	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GEMINI_BASE_URL", gemini.URL)
	t.Setenv("MANTIS_BASE_URL", mantis.URL)
	t.Setenv("MANTIS_API_TOKEN", "t")
	t.Setenv("INDEX_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "tickets.db"))
	t.Setenv("REGISTRY_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "fatal")
}

func TestPrintMessage(t *testing.T) {
	var out bytes.Buffer
	printMessage(&out, render.Message{
		Title:       "Title",
		Description: "Body",
		Fields:      []render.Field{{Name: "Severity", Value: "High"}},
		Footer:      "Footer",
		OfferID:     "offer-9",
	})

	assert.Equal(t, "Title\nBody\n\n  Severity: High\n\nEscalate with: triagectl escalate offer-9\nFooter\n", out.String())
}

func TestTriageGreetingPrintsHelpWithoutConfig(t *testing.T) {
	out, err := run(t, "triage", "--user", "u-1", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Washing Machine Support Bot")
}

func TestTriageCreatesTicketThenListsAndReportsStatus(t *testing.T) {
	stubUpstreams(t, `"{\"action\":\"escalate\",\"response\":\"A technician will help.\",\"severity\":\"high\",\"category\":\"mechanical\",\"urgency\":\"high\"}"`)

	out, err := run(t, "triage", "--user", "u-1", "--name", "alice", "drum", "is", "grinding")
	require.NoError(t, err)
	assert.Contains(t, out, "Support Ticket Created")
	assert.Contains(t, out, "`42`")

	out, err = run(t, "tickets", "--user", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 ticket(s)")
	assert.Contains(t, out, "drum is grinding")

	out, err = run(t, "tickets", "--user", "u-1", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "42  Open")
	assert.Contains(t, out, "1 ticket(s)")

	out, err = run(t, "status", "--user", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ticket Status: 42")
	assert.Contains(t, out, "Status: new")

	out, err = run(t, "status", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Couldn't find ticket `7`")
}

func TestTriageDeliversEventsToWebhook(t *testing.T) {
	stubUpstreams(t, `"{\"action\":\"resolve\",\"response\":\"Clean the filter.\",\"severity\":\"low\",\"category\":\"drainage\",\"urgency\":\"normal\"}"`)

	var mu sync.Mutex
	var received []map[string]any
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(hook.Close)
	t.Setenv("NOTIFY_WEBHOOK_URL", hook.URL)

	_, err := run(t, "triage", "--user", "u-1", "won't drain")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "escalation_offered", received[0]["type"])
	payload, ok := received[0]["payload"].(map[string]any)
	require.True(t, ok)
	assert.NotEqual(t, "0001-01-01T00:00:00Z", payload["expires_at"])
}

func TestTriageResolvePrintsGuidanceWithOffer(t *testing.T) {
	stubUpstreams(t, `"{\"action\":\"resolve\",\"response\":\"Clean the filter.\",\"severity\":\"low\",\"category\":\"drainage\",\"urgency\":\"normal\"}"`)

	out, err := run(t, "triage", "--user", "u-1", "won't drain")
	require.NoError(t, err)
	assert.Contains(t, out, "Clean the filter.")
	assert.Contains(t, out, "Escalate with: triagectl escalate ")
}

func TestEscalateUnknownOfferIsRejected(t *testing.T) {
	stubUpstreams(t, `"{}"`)

	out, err := run(t, "escalate", "missing-offer", "--user", "u-1")
	require.Error(t, err)
	assert.Contains(t, out, "❌")
}

func TestStatusWithoutLatestTicket(t *testing.T) {
	stubUpstreams(t, `"{}"`)

	out, err := run(t, "status", "--user", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "no recent tickets found")
}

func TestTokenMintsParseableJWT(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")

	out, err := run(t, "token", "--subject", "ops", "--kind", "operator")
	require.NoError(t, err)

	token := strings.SplitN(out, "\n", 2)[0]
	claims, err := auth.NewTokenManager("cli-secret", 60).ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, auth.KindOperator, claims.Kind)

	_, err = run(t, "token", "--subject", "ops", "--kind", "admin")
	assert.Error(t, err)
}

func TestHashKeyMatchesWithCompare(t *testing.T) {
	out, err := run(t, "hash-key", "--cost", "4", "bridge-key")
	require.NoError(t, err)

	hashed := strings.TrimSpace(out)
	assert.NoError(t, auth.CompareAPIKey(hashed, "bridge-key"))
	assert.Error(t, auth.CompareAPIKey(hashed, "other-key"))
}
