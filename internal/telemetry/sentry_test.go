package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/errors"
)

// mockTransport records events instead of sending them
type mockTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

//nolint:gocritic // hugeParam: interface requirement
func (t *mockTransport) Configure(sentry.ClientOptions) {}

func (t *mockTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *mockTransport) Flush(time.Duration) bool { return true }

func (t *mockTransport) FlushWithContext(context.Context) bool { return true }

func (t *mockTransport) Close() {}

func (t *mockTransport) snapshot() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

// Sentry and the error reporter are process globals; these tests do not run in parallel.

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(&conf.Settings{}, "test")
	require.NoError(t, err)
	shutdown()
}

func TestInfrastructureErrorsAreReported(t *testing.T) {
	transport := &mockTransport{}
	settings := &conf.Settings{}
	settings.Main.Name = "lab-1"
	settings.Sentry.Enabled = true
	settings.Sentry.DSN = "https://key@sentry.example/1"

	shutdown, err := Init(settings, "test", WithTransport(transport))
	require.NoError(t, err)
	defer shutdown()

	errors.Newf("dial tcp: connection refused").
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", "open").
		Build()
	errors.Newf("internal number is required").
		Component("inventory").
		Category(errors.CategoryValidation).
		Build()

	events := transport.snapshot()
	require.Len(t, events, 1, "validation errors are user mistakes and stay local")

	event := events[0]
	assert.Contains(t, event.Message, "connection refused")
	assert.Equal(t, "datastore", event.Tags["component"])
	assert.Equal(t, "database", event.Tags["category"])
	assert.Equal(t, "lab-1", event.Tags["instance"])
	assert.Empty(t, event.ServerName)
}

func TestApplyPrivacyFilters(t *testing.T) {
	event := sentry.NewEvent()
	event.User = sentry.User{ID: "alice", Email: "alice@lab.example"}
	event.ServerName = "lab-host"
	event.Contexts = map[string]sentry.Context{"os": {"name": "linux"}, "trace": {}}
	event.Tags = map[string]string{"hostname": "lab-host", "component": "api"}

	filtered := applyPrivacyFilters(event)

	assert.True(t, filtered.User.IsEmpty())
	assert.Empty(t, filtered.ServerName)
	assert.NotContains(t, filtered.Contexts, "os")
	assert.Contains(t, filtered.Contexts, "trace")
	assert.Equal(t, map[string]string{"component": "api"}, filtered.Tags)
}
