package notification

import (
	"context"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/observability/metrics"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type staticReporter struct {
	users []inventory.OverdueUser
	err   error
}

func (r staticReporter) Overdue(context.Context) ([]inventory.OverdueUser, error) {
	return r.users, r.err
}

func (r staticReporter) OverdueCutoff() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

func sampleReport() []inventory.OverdueUser {
	return []inventory.OverdueUser{
		{
			Username: "alice",
			Email:    "alice@lab.example",
			Reserved: []inventory.OverdueSample{{InternalNumber: "MG-001"}, {InternalNumber: "MG-002"}},
			InUse:    []inventory.OverdueSample{{InternalNumber: "MG-003", ActiveUse: true}},
		},
		{
			Username: "bob",
			Email:    "bob@lab.example",
			Reserved: []inventory.OverdueSample{{InternalNumber: "MG-004"}},
		},
		{
			Username: "carol",
			InUse:    []inventory.OverdueSample{{InternalNumber: "MG-005", ActiveUse: true}},
		},
	}
}

func newTestNotifier(t *testing.T, reporter Reporter, sender Sender, opts ...Option) *Notifier {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewDiscardLogger())}, opts...)
	return NewNotifier(reporter, sender, conf.NotificationSettings{
		Subject: conf.DefaultOverdueSubject,
		Link:    "https://pcr.lab.example/my-samples",
	}, 14, opts...)
}

func TestRender(t *testing.T) {
	t.Parallel()
	n := newTestNotifier(t, staticReporter{}, &mockSender{})
	report := sampleReport()

	msg, err := n.Render(&report[0])
	require.NoError(t, err)
	assert.Equal(t, "alice@lab.example", msg.To)
	assert.Equal(t, "PCR Database: Samples Reserved for Over 2 Weeks", msg.Subject)
	assert.Contains(t, msg.Body, "Hello alice,")
	assert.Contains(t, msg.Body, "more than 14 days")
	assert.Contains(t, msg.Body, `- 2 samples with status "Reserved"`)
	assert.Contains(t, msg.Body, `- 1 samples with status "In Use"`)
	assert.Contains(t, msg.Body, "https://pcr.lab.example/my-samples")
}

func TestRun_FailuresAreLoggedAndSkipped(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	m, err := metrics.NewNotificationMetrics(registry)
	require.NoError(t, err)

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg Message) bool { return msg.To == "alice@lab.example" })).
		Return(errors.NewStd("smtp: connection refused")).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg Message) bool { return msg.To == "bob@lab.example" })).
		Return(nil).Once()

	n := newTestNotifier(t, staticReporter{users: sampleReport()}, sender, WithMetrics(m))
	summary, err := n.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 3, Sent: 1, Failed: 1, Skipped: 1}, summary)
	sender.AssertExpectations(t)

	expected := `
# HELP pcrdb_overdue_users Users holding overdue samples at the last overdue check
# TYPE pcrdb_overdue_users gauge
pcrdb_overdue_users 3
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "pcrdb_overdue_users"))
	sent, err := testutil.GatherAndCount(registry, "pcrdb_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "one series per delivery status")
}

func TestRun_RenderFailureSkipsOnlyThatUser(t *testing.T) {
	t.Parallel()
	// Only alice holds a second reserved sample; bob's message fails to render.
	tmpl := template.Must(template.New("second").Parse("second: {{(index .Reserved 1).InternalNumber}}"))

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg Message) bool {
		return msg.To == "alice@lab.example" && msg.Body == "second: MG-002"
	})).Return(nil).Once()

	n := newTestNotifier(t, staticReporter{users: sampleReport()}, sender, WithTemplate(tmpl))
	summary, err := n.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 3, Sent: 1, Failed: 1, Skipped: 1}, summary)
	sender.AssertExpectations(t)
}

func TestRun_DryRunSendsNothing(t *testing.T) {
	t.Parallel()
	sender := &mockSender{}

	n := newTestNotifier(t, staticReporter{users: sampleReport()}, sender)
	summary, err := n.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Zero(t, summary.Sent)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRun_ReportFailureAborts(t *testing.T) {
	t.Parallel()
	n := newTestNotifier(t, staticReporter{err: errors.NewStd("database is locked")}, &mockSender{})

	_, err := n.Run(context.Background(), false)
	require.Error(t, err)
}

func TestNewShoutrrrSender_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewShoutrrrSender(nil, time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = NewShoutrrrSender([]string{"nosuchservice://token@host"}, time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
