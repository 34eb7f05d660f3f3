// Package server exposes the crawl orchestrator over HTTP.
//
// Routes:
//
//	POST   /api/crawls            submit a crawl job
//	GET    /api/crawls/:id        poll job status
//	POST   /api/crawls/:id/cancel request an advisory cancel
//	DELETE /api/data              bulk-erase all crawl data
//	GET    /healthz               liveness endpoint
//
// Responses are JSON. Submission errors are synchronous; job failures
// surface only through polling.
package server
