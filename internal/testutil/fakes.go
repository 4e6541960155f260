package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/prodtests/internal/api"
	"github.com/zjrosen/prodtests/internal/feed"
	"github.com/zjrosen/prodtests/internal/prodtest"
)

// MockBackend is a testify mock of api.Backend. Upload is matched on the
// uploaded content rather than the reader.
type MockBackend struct{ mock.Mock }

var _ api.Backend = (*MockBackend)(nil)

func (m *MockBackend) FetchRepository(ctx context.Context, partNumber string) (*prodtest.Repository, error) {
	args := m.Called(partNumber)
	repo, _ := args.Get(0).(*prodtest.Repository)
	return repo, args.Error(1)
}

func (m *MockBackend) CommitSets(ctx context.Context, partNumber string, sets []prodtest.TestSet) error {
	return m.Called(partNumber, sets).Error(0)
}

func (m *MockBackend) CommitSettings(ctx context.Context, partNumber string, repo *prodtest.Repository) error {
	return m.Called(partNumber, repo).Error(0)
}

func (m *MockBackend) StartRun(ctx context.Context, partNumber string, sel prodtest.Selection) error {
	return m.Called(partNumber, sel).Error(0)
}

func (m *MockBackend) Upload(ctx context.Context, name string, r io.Reader, location string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.Called(name, string(data), location).Error(0)
}

// FakeStream is a feed.Stream backed by a buffered channel.
type FakeStream struct {
	ch     chan feed.Message
	mu     sync.Mutex
	closes int
}

// Messages implements feed.Stream.
func (s *FakeStream) Messages() <-chan feed.Message { return s.ch }

// Close implements feed.Stream.
func (s *FakeStream) Close() {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
}

// Closes returns how many times Close was called.
func (s *FakeStream) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Send queues m for the subscriber.
func (s *FakeStream) Send(m feed.Message) { s.ch <- m }

// FakeSource hands out FakeStreams and remembers them.
type FakeSource struct {
	mu      sync.Mutex
	streams []*FakeStream
}

var _ feed.Source = (*FakeSource)(nil)

// Open implements feed.Source.
func (f *FakeSource) Open(context.Context) feed.Stream {
	s := &FakeStream{ch: make(chan feed.Message, 64)}
	f.mu.Lock()
	f.streams = append(f.streams, s)
	f.mu.Unlock()
	return s
}

// Streams returns every stream opened so far.
func (f *FakeSource) Streams() []*FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeStream(nil), f.streams...)
}

// Last returns the most recent stream, or nil.
func (f *FakeSource) Last() *FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

// Passed is a passing test event.
func Passed(i int, name string) feed.Message {
	return feed.Message{Kind: feed.KindTest, Test: feed.TestEvent{Index: i, Name: name, Status: "done", Result: "passed"}}
}

// Failed is a failing test event.
func Failed(i int, name string) feed.Message {
	return feed.Message{Kind: feed.KindTest, Test: feed.TestEvent{Index: i, Name: name, Status: "done", Result: "failed"}}
}

// Running is a test start event.
func Running(i int, name string) feed.Message {
	return feed.Message{Kind: feed.KindTest, Test: feed.TestEvent{Index: i, Name: name, Status: "running"}}
}

// Finished is the end-of-run sentinel.
func Finished() feed.Message {
	return feed.Message{Kind: feed.KindFinished}
}

// Lost is a transport error.
func Lost(err error) feed.Message {
	return feed.Message{Kind: feed.KindError, Err: err}
}
