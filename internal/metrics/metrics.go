// Package metrics counts per-route request/answer outcomes. The
// counter names are a fixed, closed set: callers never register new
// ones at runtime, they only increment names already known to the
// Counters implementation.
package metrics

// Counters increments named counters. Implementations must never let
// a missing or unreachable backend propagate as an error to the
// caller — Incr returns silently on failure.
type Counters interface {
	Incr(name string)
}

// Route identifies one of the four S6a command handlers.
type Route string

const (
	RouteAIR Route = "air"
	RouteNOR Route = "nor"
	RoutePUR Route = "pur"
	RouteULR Route = "ulr"
)

// AnswerKind is the closed set of outcomes an answer can carry.
type AnswerKind string

const (
	KindSuccess                       AnswerKind = "success"
	KindMissingAVP                    AnswerKind = "missing_avp"
	KindInvalidAVPValue               AnswerKind = "invalid_avp_value"
	KindUserUnknown                   AnswerKind = "user_unknown"
	KindUnknownServingNode            AnswerKind = "unknown_serving_node"
	KindAuthenticationDataUnavailable AnswerKind = "authentication_data_unavailable"
	KindRATNotAllowed                 AnswerKind = "rat_not_allowed"
	KindRoamingNotAllowed             AnswerKind = "roaming_not_allowed"
	KindRealmNotServed                AnswerKind = "realm_not_served"
	KindUnknownEPSSubscription        AnswerKind = "unknown_eps_subscription"
)

// IncrRequest increments <route>:num_requests.
func IncrRequest(c Counters, route Route) {
	c.Incr(string(route) + ":num_requests")
}

// IncrAnswer increments <route>:num_answers:<kind>.
func IncrAnswer(c Counters, route Route, kind AnswerKind) {
	c.Incr(string(route) + ":num_answers:" + string(kind))
}
