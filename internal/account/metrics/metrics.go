package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for account and login flows.
type Metrics struct {
	MembershipRequests prometheus.Counter
	AccountDecisions   *prometheus.CounterVec
	Activations        prometheus.Counter
	Logins             *prometheus.CounterVec
	PasswordChanges    *prometheus.CounterVec
	EmailFailures      prometheus.Counter
	LoginDuration      prometheus.Histogram
}

// New registers the account metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembershipRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_membership_requests_total",
			Help: "Total number of membership requests received",
		}),
		AccountDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_account_decisions_total",
			Help: "Librarian decisions on pending accounts",
		}, []string{"decision"}),
		Activations: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_account_activations_total",
			Help: "Accounts that became ACTIVE",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		PasswordChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_password_changes_total",
			Help: "Password change attempts by outcome",
		}, []string{"outcome"}),
		EmailFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_approval_email_failures_total",
			Help: "Approval emails the webhook did not accept",
		}),
		LoginDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "biblio_login_duration_seconds",
			Help:    "Duration of Login including password verification",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncrementMembershipRequests() { m.MembershipRequests.Inc() }
func (m *Metrics) IncrementActivations()        { m.Activations.Inc() }
func (m *Metrics) IncrementEmailFailures()      { m.EmailFailures.Inc() }

// IncrementDecision counts an approval or rejection. decision is "approved" or "rejected".
func (m *Metrics) IncrementDecision(decision string) {
	m.AccountDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPasswordChange(outcome string) {
	m.PasswordChanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
