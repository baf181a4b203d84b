package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics tracks overdue reminder delivery
type NotificationMetrics struct {
	notificationsTotal *prometheus.CounterVec
	overdueUsers       prometheus.Gauge
	publishTotal       *prometheus.CounterVec
}

// NewNotificationMetrics creates and registers notification metrics
func NewNotificationMetrics(registry prometheus.Registerer) (*NotificationMetrics, error) {
	m := &NotificationMetrics{
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pcrdb_notifications_total",
				Help: "Overdue reminders by delivery status",
			},
			[]string{"status"},
		),
		overdueUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pcrdb_overdue_users",
			Help: "Users holding overdue samples at the last overdue check",
		}),
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pcrdb_events_published_total",
				Help: "Lifecycle events handed to publishers by status",
			},
			[]string{"publisher", "status"},
		),
	}

	for _, c := range []prometheus.Collector{m.notificationsTotal, m.overdueUsers, m.publishTotal} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordNotification counts one reminder delivery attempt
func (m *NotificationMetrics) RecordNotification(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.notificationsTotal.WithLabelValues(StatusError).Inc()
		return
	}
	m.notificationsTotal.WithLabelValues(StatusSuccess).Inc()
}

// SetOverdueUsers records the number of users found by the last overdue check
func (m *NotificationMetrics) SetOverdueUsers(n int) {
	if m == nil {
		return
	}
	m.overdueUsers.Set(float64(n))
}

// RecordPublish counts an event publish attempt
func (m *NotificationMetrics) RecordPublish(publisher string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.publishTotal.WithLabelValues(publisher, status).Inc()
}
