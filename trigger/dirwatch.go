package trigger

import (
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce is how long DirWatch waits after a filesystem event
// before firing, so a multi-file drop becomes one cycle.
const DefaultDebounce = 500 * time.Millisecond

// DirWatch fires when files appear or change under a directory. It pairs
// with the local connector: drop files in, a cycle picks them up.
//
// Filesystem events come in bursts (a copy emits create plus several
// writes), so DirWatch fires once per burst, debounce after the first
// event of the burst.
type DirWatch struct {
	watcher  *fsnotify.Watcher
	ch       chan time.Time
	stop     chan struct{}
	once     sync.Once
	debounce time.Duration
}

// NewDirWatch starts watching dir. Values of debounce below 1ms select
// DefaultDebounce.
func NewDirWatch(dir string, debounce time.Duration) (*DirWatch, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	if debounce < time.Millisecond {
		debounce = DefaultDebounce
	}
	d := &DirWatch{
		watcher:  watcher,
		ch:       make(chan time.Time, 1),
		stop:     make(chan struct{}),
		debounce: debounce,
	}
	go d.run()
	return d, nil
}

func (d *DirWatch) run() {
	defer close(d.ch)

	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.After(d.debounce)
			}
		case now := <-pending:
			pending = nil
			select {
			case d.ch <- now:
			case <-d.stop:
				return
			}
		case _, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
		case <-d.stop:
			return
		}
	}
}

// Fire returns the channel that paces the run loop.
func (d *DirWatch) Fire() <-chan time.Time { return d.ch }

// Stop ends the watcher and closes the fire channel. Safe to call more
// than once.
func (d *DirWatch) Stop() {
	d.once.Do(func() {
		close(d.stop)
		d.watcher.Close()
	})
}
