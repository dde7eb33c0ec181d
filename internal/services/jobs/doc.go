// Package jobsvc is the read-only admin service over a running queue. It
// backs the HTTP API: engine statistics, snapshots of ready and pending jobs
// with optional CEL filters, and the transition history.
//
// Filters are CEL boolean expressions evaluated per job with these variables:
//
//	id               int     job id
//	size             int     payload length
//	text             string  payload as text
//	json             dyn     payload parsed as JSON (null if not JSON)
//	deliveries       int     times handed out
//	delivered_at_ms  int     delivery time, 0 for ready jobs
//	age_ms           int     time since delivery, 0 for ready jobs
//	now_ms           int     evaluation time
//
// Example: `deliveries > 1 && json.kind == "email"`.
package jobsvc
