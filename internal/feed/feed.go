// Package feed consumes the backend's live test event stream.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zjrosen/prodtests/internal/log"
)

const (
	// EventTest is the named event carrying per-test progress.
	EventTest = "production-tests"
	// FinishedID marks the end of a run.
	FinishedID = "finished"
)

// ErrStreamClosed is reported when the server ends the stream before the
// run finished.
var ErrStreamClosed = errors.New("event stream closed by server")

// Kind classifies a feed message.
type Kind int

const (
	KindTest Kind = iota
	KindFinished
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindFinished:
		return "finished"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is one decoded item from the feed.
type Message struct {
	Kind Kind
	Test TestEvent
	Err  error
}

// TestEvent reports a change in one test's status.
type TestEvent struct {
	Index  int
	Name   string
	Status string
	Result string
}

// Passed reports a completed, passing test.
func (e TestEvent) Passed() bool { return e.Status == "done" && e.Result == "passed" }

// Failed reports a completed, failing test.
func (e TestEvent) Failed() bool { return e.Status == "done" && e.Result == "failed" }

var prefixToken = regexp.MustCompile(`[a-zA-Z0-9]*_`)

// DisplayName strips every identifier_ token, so "Common_Attn_Test" becomes
// "Test".
func DisplayName(name string) string {
	return prefixToken.ReplaceAllString(name, "")
}

type wireTest struct {
	Index  json.RawMessage `json:"index"`
	Name   string          `json:"name"`
	Status string          `json:"status"`
	Result string          `json:"result"`
}

// DecodeTest parses a per-test payload. The index may be a number or a
// numeric string.
func DecodeTest(data string) (TestEvent, error) {
	var w wireTest
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return TestEvent{}, fmt.Errorf("decoding test event: %w", err)
	}
	idx, err := parseIndex(w.Index)
	if err != nil {
		return TestEvent{}, err
	}
	return TestEvent{Index: idx, Name: w.Name, Status: w.Status, Result: w.Result}, nil
}

func parseIndex(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("decoding test event: bad index %s", raw)
	}
	return n, nil
}

// Classify maps a raw event onto a Message. ok is false for events the run
// does not care about.
func Classify(ev Event) (msg Message, ok bool) {
	switch {
	case ev.Type == EventTest:
		te, err := DecodeTest(ev.Data)
		if err != nil {
			log.Warn(log.CatFeed, "Dropping malformed test event", "error", err, "data", ev.Data)
			return Message{}, false
		}
		return Message{Kind: KindTest, Test: te}, true
	case ev.Type == "error":
		return Message{Kind: KindError, Err: fmt.Errorf("server error event: %s", ev.Data)}, true
	case ev.Type == "message" && ev.LastID == FinishedID:
		return Message{Kind: KindFinished}, true
	}
	return Message{}, false
}
