package mode

import (
	"fmt"

	"github.com/zjrosen/prodtests/internal/log"
)

// transitions lists the pages reachable from each page.
var transitions = map[Page][]Page{
	Landing:  {Edit, Config, Progress},
	Progress: {Failure, Landing},
	Edit:     {Landing},
	Config:   {Landing},
	Failure:  {Landing},
}

// Navigator tracks the current page. The zero value starts on Landing.
type Navigator struct {
	current Page
}

// Current returns the current page.
func (n *Navigator) Current() Page { return n.current }

// CanGo reports whether to is reachable from the current page.
func (n *Navigator) CanGo(to Page) bool {
	for _, p := range transitions[n.current] {
		if p == to {
			return true
		}
	}
	return false
}

// Go moves to the page to. Illegal transitions leave the page unchanged.
func (n *Navigator) Go(to Page) error {
	if !n.CanGo(to) {
		err := fmt.Errorf("illegal page transition %s -> %s", n.current, to)
		log.Warn(log.CatNav, "Rejected navigation", "from", n.current, "to", to)
		return err
	}
	log.Debug(log.CatNav, "Navigate", "from", n.current, "to", to)
	n.current = to
	return nil
}

// NavigateMsg asks the root model to change page.
type NavigateMsg struct {
	To Page
}
