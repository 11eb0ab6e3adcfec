// Package metrics defines and registers the custom Prometheus metrics of the
// inventory API. It is the single source of truth for metric names, labels
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "inventory"
	subsystem = "auth"
)

// RegistrationsTotal counts users created through registration.
// Label:
//   - role: role assigned to the new user ("admin" or "employee")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "registrations_total",
		Help:      "Total number of users registered, by role.",
	},
	[]string{"role"},
)

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "inactive" or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// TokenRefreshTotal counts refresh-token exchanges.
// Label:
//   - result: "success" or "rejected"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "token_refresh_total",
		Help:      "Total number of access tokens minted from refresh tokens.",
	},
	[]string{"result"},
)

// RoleChangesTotal counts role updates performed by admins.
// Label:
//   - new_role: the role assigned by the change
var RoleChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "role_changes_total",
		Help:      "Total number of user role changes, by new role.",
	},
	[]string{"new_role"},
)
