// Package mode defines the application's pages, the navigator that moves
// between them and the services shared by page controllers.
package mode

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/prodtests/internal/api"
	"github.com/zjrosen/prodtests/internal/config"
	"github.com/zjrosen/prodtests/internal/feed"
	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/mode/shared"
)

// Page identifies a screen.
type Page int

const (
	Landing Page = iota
	Edit
	Config
	Progress
	Failure
)

func (p Page) String() string {
	switch p {
	case Landing:
		return "landing"
	case Edit:
		return "edit"
	case Config:
		return "config"
	case Progress:
		return "progress"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

// Services are the dependencies handed to page controllers.
type Services struct {
	Backend    api.Backend
	Feed       feed.Source
	Config     *config.Config
	ConfigPath string
	Flags      *flags.Registry
	History    history.Store
	Tracer     trace.Tracer
	Clock      shared.Clock
}

// ShowLogMsg asks the app to open the log viewer.
type ShowLogMsg struct{}
