package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the loan engine.
type Metrics struct {
	LoansCreated   *prometheus.CounterVec
	LoansApproved  prometheus.Counter
	LoansRejected  prometheus.Counter
	LoansReturned  *prometheus.CounterVec
	LoansRefused   *prometheus.CounterVec
	OverdueMarked  prometheus.Counter
	FinesAssessed  prometheus.Counter
	FinesPaid      prometheus.Counter
	ReturnDuration prometheus.Histogram
	SweepDuration  prometheus.Histogram
	PastDue        prometheus.Gauge
}

// New registers the loan metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoansCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_loans_created_total",
			Help: "Total number of loans created, by initial status",
		}, []string{"status"}),
		LoansApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_loans_approved_total",
			Help: "Total number of pending loans approved",
		}),
		LoansRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_loans_rejected_total",
			Help: "Total number of pending loans rejected",
		}),
		LoansReturned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_loans_returned_total",
			Help: "Total number of loans returned",
		}, []string{"damaged", "late"}),
		LoansRefused: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_loans_refused_total",
			Help: "Loan creations refused, by reason",
		}, []string{"reason"}),
		OverdueMarked: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_loans_overdue_marked_total",
			Help: "Total number of loans moved to OVERDUE by the sweep",
		}),
		FinesAssessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_fines_assessed_total",
			Help: "Sum of fines charged on return, in currency units",
		}),
		FinesPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_fines_paid_total",
			Help: "Sum of fine payments received, in currency units",
		}),
		ReturnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "biblio_loan_return_duration_seconds",
			Help:    "Duration of ReturnLoan including the fine and member update",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "biblio_overdue_sweep_duration_seconds",
			Help:    "Duration of one overdue sweep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		PastDue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "biblio_loans_past_due",
			Help: "ACTIVE loans found past due by the latest sweep",
		}),
	}
}

func (m *Metrics) IncrementLoansCreated(status string) { m.LoansCreated.WithLabelValues(status).Inc() }
func (m *Metrics) IncrementLoansApproved()             { m.LoansApproved.Inc() }
func (m *Metrics) IncrementLoansRejected()             { m.LoansRejected.Inc() }

// IncrementLoanRefused counts a CreateLoan rejected by a business rule.
// reason is "unavailable" or "ineligible_member".
func (m *Metrics) IncrementLoanRefused(reason string) {
	m.LoansRefused.WithLabelValues(reason).Inc()
}

// RecordReturn counts a return and adds its fine to the assessed total.
func (m *Metrics) RecordReturn(damaged, late bool, fine int64) {
	m.LoansReturned.WithLabelValues(boolLabel(damaged), boolLabel(late)).Inc()
	if fine > 0 {
		m.FinesAssessed.Add(float64(fine))
	}
}

func (m *Metrics) RecordPayment(amount int64) { m.FinesPaid.Add(float64(amount)) }

// RecordSweep records one sweep: loans found past due and how many this run marked.
func (m *Metrics) RecordSweep(start time.Time, candidates, marked int) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
	m.PastDue.Set(float64(candidates))
	m.OverdueMarked.Add(float64(marked))
}

// ObserveReturn records the duration of a ReturnLoan call.
func (m *Metrics) ObserveReturn(start time.Time) {
	m.ReturnDuration.Observe(time.Since(start).Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
