package run

// Phase is the controller's lifecycle position.
type Phase int

const (
	Idle Phase = iota
	Starting
	Running
	Passed
	Failed
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the run attempt is over.
func (p Phase) Terminal() bool {
	return p == Passed || p == Failed || p == Aborted
}

// State is a snapshot of a run attempt for rendering.
type State struct {
	Phase    Phase
	Total    int
	Current  int
	TestName string
	// FailedTest is the display name of the failing test once Failed.
	FailedTest string
	// StartErr is set when the backend refused to start the run.
	StartErr error
	// FeedErr is set when the event stream broke mid-run.
	FeedErr error
}

// Percent is floor(Current/Total*100), or 0 when there are no tests.
func (s State) Percent() int {
	if s.Total <= 0 || s.Current <= 0 {
		return 0
	}
	return s.Current * 100 / s.Total
}

// Outcome is what a handled message means for the caller.
type Outcome int

const (
	// None: keep listening or nothing to do.
	None Outcome = iota
	// Finished: the run completed; schedule the pass after the finish delay.
	Finished
	OutcomePassed
	OutcomeFailed
	OutcomeAborted
	// FeedLost: the stream broke; the run stays where it was.
	FeedLost
)

func (o Outcome) String() string {
	switch o {
	case None:
		return "none"
	case Finished:
		return "finished"
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeAborted:
		return "aborted"
	case FeedLost:
		return "feed_lost"
	default:
		return "unknown"
	}
}
