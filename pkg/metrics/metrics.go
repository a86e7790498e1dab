// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AutomodViolations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_automod_violations_total",
	Help: "Automod violations detected, by rule and configured action",
}, []string{"rule", "action"})

var CasesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_cases_created_total",
	Help: "Moderation cases written to the ledger",
}, []string{"action"})

var RaidsActivated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pancyguard_raids_activated_total",
	Help: "Number of times raid mode was activated",
})

var RaidMembersHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_raid_members_handled_total",
	Help: "Members handled while raid mode was active",
}, []string{"action"})

var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_notifications_total",
	Help: "Direct messages attempted, by delivery result",
}, []string{"result"})

var EnforcementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_enforcement_failures_total",
	Help: "Failed enforcement steps",
}, []string{"step"})

var TrackerEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "pancyguard_tracker_entries",
	Help: "Live entries held by the in-memory trackers",
}, []string{"tracker"})

var CommandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_commands_executed_total",
	Help: "Slash commands executed",
}, []string{"command"})

var AuditLogPosts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancyguard_audit_log_posts_total",
	Help: "Server audit log entries posted, by event kind and result",
}, []string{"event", "result"})
