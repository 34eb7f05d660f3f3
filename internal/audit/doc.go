// Package audit defines the contracts between the crawl core and the
// external deep-audit engines that consume the selected pages.
//
// The engines themselves (accessibility rule engine, quality scorer,
// privacy scanner) live outside this codebase; only their interfaces and
// result types are owned here, plus the artifact conventions the core is
// responsible for: the generated report filename and the markdown score
// report renderer.
//
// Adapter failures are degraded to empty results by callers and never
// change a crawl job's status.
package audit
