package viz

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

const feedBuffer = 8

// feed bridges updater snapshots into the Bubble Tea loop. When the program
// falls behind the oldest pending snapshot is discarded.
type feed struct {
	ch        chan sim.Snapshot
	closeOnce sync.Once
}

func newFeed() *feed {
	return &feed{ch: make(chan sim.Snapshot, feedBuffer)}
}

// OnSnapshot implements sim.Observer.
func (f *feed) OnSnapshot(s sim.Snapshot) {
	select {
	case f.ch <- s:
		return
	default:
	}
	select {
	case <-f.ch:
	default:
	}
	select {
	case f.ch <- s:
	default:
	}
}

// close releases a pending wait. It must only be called once the feed is
// unsubscribed, so no OnSnapshot can race with it.
func (f *feed) close() {
	f.closeOnce.Do(func() { close(f.ch) })
}

type snapshotMsg sim.Snapshot

func (f *feed) wait() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-f.ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}
