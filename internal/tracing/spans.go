package tracing

// Span attribute keys.
const (
	AttrPartNumber = "part.number"
	AttrTestSetID  = "testset.id"
	AttrRunOutcome = "run.outcome"
	AttrRunTotal   = "run.total"
	AttrHTTPMethod = "http.method"
	AttrHTTPPath   = "http.path"
	AttrHTTPStatus = "http.status_code"
)

// Span names.
const (
	SpanRun         = "run.attempt"
	SpanStartup     = "app.startup"
	SpanHTTPPrefix  = "backend."
	EventTestPassed = "test.passed"
	EventTestFailed = "test.failed"
	EventFeedLost   = "feed.lost"
)
