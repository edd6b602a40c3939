// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

var (
	// CartMutations counts cart writes. Labels: op
	CartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Cart mutations by operation",
	}, []string{"op"})

	// AuthAttempts counts sign-in attempts. Labels: result
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication attempts by result",
	}, []string{"result"})

	// AdminActions counts guarded admin operations. Labels: op, result
	AdminActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "admin",
		Name:      "actions_total",
		Help:      "Admin operations by operation and result",
	}, []string{"op", "result"})

	// Checkouts counts checkout attempts. Labels: result
	Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "orders_total",
		Help:      "Checkout attempts by result",
	}, []string{"result"})

	// AuditEvents counts consumed order events. Labels: result (recorded, duplicate, ignored, error)
	AuditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "events_total",
		Help:      "Order events handled by the audit consumer",
	}, []string{"result"})
)

// Result labels an outcome by its error category.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.Category(err) {
	case apperr.ErrValidation:
		return "invalid"
	case apperr.ErrAuthentication:
		return "unauthenticated"
	case apperr.ErrPermission:
		return "forbidden"
	case apperr.ErrConstraint:
		return "rejected"
	case apperr.ErrNotFound:
		return "not_found"
	default:
		return "error"
	}
}
