// Package httpserver exposes the read-only taxiway admin API over gin.
//
// Routes:
//
//	GET /v1/healthz
//	GET /v1/stats
//	GET /v1/jobs/ready?limit=&filter=
//	GET /v1/jobs/pending?limit=&filter=
//	GET /v1/history?kind=&jobId=&limit=
//
// Example:
//
//	s := httpserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, "127.0.0.1:8295")
package httpserver
