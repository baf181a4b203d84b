// Package notification sends overdue-sample reminders through shoutrrr.
package notification

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/observability/metrics"
)

const component = "notification"

// Reporter produces the overdue report
type Reporter interface {
	Overdue(ctx context.Context) ([]inventory.OverdueUser, error)
	OverdueCutoff() time.Time
}

const bodyTemplate = `
Hello {{.Username}},

This is an automated notification from the PCR Database system.

You currently have samples that have been in your list for more than {{.Days}} days:
- {{len .Reserved}} samples with status "Reserved"
- {{len .InUse}} samples with status "In Use"

Please take action by either:
1. Marking samples as "Not Found" if you cannot locate them
2. Deducting used volume if you've used the samples
3. Making samples available if you're finished with them
{{if .Link}}
You can manage your samples here: {{.Link}}
{{end}}
Thank you,
PCR Database System
`

var body = template.Must(template.New("overdue").Parse(bodyTemplate))

type bodyData struct {
	inventory.OverdueUser
	Days int
	Link string
}

// Summary reports one notifier run
type Summary struct {
	Users   int `json:"users"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"` // users without an email address
}

// Notifier sends one reminder per user holding overdue samples.
type Notifier struct {
	reporter Reporter
	sender   Sender
	settings conf.NotificationSettings
	days     int
	body     *template.Template
	log      logger.Logger
	metrics  *metrics.NotificationMetrics
}

// Option customizes a Notifier
type Option func(*Notifier)

// WithLogger overrides the module logger
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) { n.log = l }
}

// WithTemplate replaces the message body template. It is executed with the
// user's overdue samples, Days and Link.
func WithTemplate(t *template.Template) Option {
	return func(n *Notifier) { n.body = t }
}

// WithMetrics records delivery outcomes
func WithMetrics(m *metrics.NotificationMetrics) Option {
	return func(n *Notifier) { n.metrics = m }
}

// NewNotifier creates a notifier. days is the holding period named in the message.
func NewNotifier(reporter Reporter, sender Sender, settings conf.NotificationSettings, days int, opts ...Option) *Notifier {
	n := &Notifier{
		reporter: reporter,
		sender:   sender,
		settings: settings,
		days:     days,
		body:     body,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.Global().Module(component)
	}
	if n.settings.Subject == "" {
		n.settings.Subject = conf.DefaultOverdueSubject
	}
	if n.days <= 0 {
		n.days = conf.DefaultOverdueDays
	}
	return n
}

// Render builds the reminder for one user
func (n *Notifier) Render(u *inventory.OverdueUser) (Message, error) {
	var buf bytes.Buffer
	if err := n.body.Execute(&buf, bodyData{OverdueUser: *u, Days: n.days, Link: n.settings.Link}); err != nil {
		return Message{}, errors.New(err).
			Component(component).
			Category(errors.CategoryNotification).
			Context("operation", "render").
			Build()
	}
	return Message{To: u.Email, Subject: n.settings.Subject, Body: buf.String()}, nil
}

// Run sends the reminders. Delivery failures are logged and counted, never
// returned; only a failing report aborts the run. With dryRun nothing is sent.
func (n *Notifier) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	report, err := n.reporter.Overdue(ctx)
	if err != nil {
		return nil, err
	}
	n.metrics.SetOverdueUsers(len(report))
	n.log.Info("overdue check",
		logger.Int("users", len(report)),
		logger.Time("cutoff", n.reporter.OverdueCutoff()),
		logger.Bool("dry_run", dryRun))

	summary := &Summary{Users: len(report)}
	for i := range report {
		u := &report[i]
		if u.Email == "" {
			summary.Skipped++
			n.log.Warn("user has no email address", logger.String("user", u.Username))
			continue
		}
		msg, err := n.Render(u)
		if err != nil {
			summary.Failed++
			n.metrics.RecordNotification(err)
			n.log.Error("failed to render overdue notification",
				logger.String("user", u.Username),
				logger.Error(err))
			continue
		}
		if dryRun {
			n.log.Info("would notify",
				logger.String("user", u.Username),
				logger.Int("samples", len(u.Samples())))
			continue
		}

		err = n.sender.Send(ctx, msg)
		n.metrics.RecordNotification(err)
		if err != nil {
			summary.Failed++
			n.log.Error("failed to send overdue notification",
				logger.String("user", u.Username),
				logger.Error(err))
			continue
		}
		summary.Sent++
		n.log.Info("sent overdue notification",
			logger.String("user", u.Username),
			logger.Int("samples", len(u.Samples())))
	}
	return summary, nil
}
