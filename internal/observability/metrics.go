package observability

import (
	"errors"

	"sitehub/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContactSubmissions counts contact form submissions by outcome.
	ContactSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitehub_contact_submissions_total",
		Help: "Contact form submissions by result",
	}, []string{"result"})

	// BlogViews counts blog detail reads.
	BlogViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitehub_blog_views_total",
		Help: "Total number of blog detail views",
	})

	// StoreErrors counts errors surfaced by repositories, by error code.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitehub_store_errors_total",
		Help: "Repository errors by code",
	}, []string{"code"})

	// AccountEvents counts account lifecycle events (registered, activated, ...).
	AccountEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitehub_account_events_total",
		Help: "Account lifecycle events by type",
	}, []string{"event"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitehub_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})
)

// RecordStoreError increments StoreErrors for failures the store produces:
// driver errors (Internal) and unique violations (Conflict). Validation,
// not-found and auth errors are request outcomes and are not counted.
func RecordStoreError(err error) {
	if err == nil {
		return
	}
	code := models.CodeInternal
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	if code != models.CodeInternal && code != models.CodeConflict {
		return
	}
	StoreErrors.WithLabelValues(code).Inc()
}
