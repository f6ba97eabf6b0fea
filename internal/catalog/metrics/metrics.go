package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the catalog module.
type Metrics struct {
	BooksCreated    prometheus.Counter
	BooksDeleted    prometheus.Counter
	MembersCreated  prometheus.Counter
	MembersDeleted  prometheus.Counter
	DeleteRefused   *prometheus.CounterVec
	CreateMemberDur prometheus.Histogram
}

// New registers the catalog metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BooksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_books_created_total",
			Help: "Total number of books added to the catalog",
		}),
		BooksDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_books_deleted_total",
			Help: "Total number of books removed from the catalog",
		}),
		MembersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_members_created_total",
			Help: "Total number of members registered",
		}),
		MembersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "biblio_members_deleted_total",
			Help: "Total number of members removed",
		}),
		DeleteRefused: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "biblio_catalog_delete_refused_total",
			Help: "Deletes refused because loans are still outstanding",
		}, []string{"entity"}),
		CreateMemberDur: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "biblio_create_member_duration_seconds",
			Help:    "Duration of CreateMember including member number assignment",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementBooksCreated()   { m.BooksCreated.Inc() }
func (m *Metrics) IncrementBooksDeleted()   { m.BooksDeleted.Inc() }
func (m *Metrics) IncrementMembersCreated() { m.MembersCreated.Inc() }
func (m *Metrics) IncrementMembersDeleted() { m.MembersDeleted.Inc() }

// IncrementDeleteRefused counts a delete blocked by outstanding loans. entity is "book" or "member".
func (m *Metrics) IncrementDeleteRefused(entity string) {
	m.DeleteRefused.WithLabelValues(entity).Inc()
}

// ObserveCreateMember records the duration of a CreateMember call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreateMember(start time.Time) {
	m.CreateMemberDur.Observe(time.Since(start).Seconds())
}
