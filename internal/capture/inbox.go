package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrInboxClosed is returned by Next after Close.
var ErrInboxClosed = errors.New("inbox closed")

// inboxSettle is how long a file must stay quiet before it is delivered,
// so partially synced files are not read.
var inboxSettle = 400 * time.Millisecond

// Inbox watches a directory (e.g. a phone photo sync folder) and yields
// image files as they land.
type Inbox struct {
	dir     string
	watcher *fsnotify.Watcher
	out     chan string
	done    chan struct{}
	once    sync.Once
}

// WatchInbox starts watching dir.
func WatchInbox(dir string) (*Inbox, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir = expandHome(dir)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	in := &Inbox{
		dir:     dir,
		watcher: w,
		out:     make(chan string, 8),
		done:    make(chan struct{}),
	}
	go in.run()
	return in, nil
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string { return in.dir }

// settleTimers debounces events per path. Every event re-arms the path
// under a new generation, so a timer that already fired for an older
// generation cannot deliver the file a second time.
type settleTimers struct {
	gen     uint64
	pending map[string]pendingFile
}

type pendingFile struct {
	gen   uint64
	timer *time.Timer
}

type settledFile struct {
	name string
	gen  uint64
}

func newSettleTimers() *settleTimers {
	return &settleTimers{pending: map[string]pendingFile{}}
}

// touch (re)arms name and returns its new generation. fire runs after the
// file has been quiet for inboxSettle.
func (s *settleTimers) touch(name string, fire func(gen uint64)) uint64 {
	if p, ok := s.pending[name]; ok {
		p.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending[name] = pendingFile{gen: gen, timer: time.AfterFunc(inboxSettle, func() { fire(gen) })}
	return gen
}

// settle reports whether gen is the latest generation for name and, if
// so, forgets it.
func (s *settleTimers) settle(name string, gen uint64) bool {
	p, ok := s.pending[name]
	if !ok || p.gen != gen {
		return false
	}
	delete(s.pending, name)
	return true
}

func (s *settleTimers) stop() {
	for _, p := range s.pending {
		p.timer.Stop()
	}
}

func (in *Inbox) run() {
	timers := newSettleTimers()
	settled := make(chan settledFile)
	defer timers.stop()

	for {
		select {
		case ev, ok := <-in.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsImagePath(ev.Name) {
				continue
			}
			name := ev.Name
			timers.touch(name, func(gen uint64) {
				select {
				case settled <- settledFile{name: name, gen: gen}:
				case <-in.done:
				}
			})
		case f := <-settled:
			if !timers.settle(f.name, f.gen) {
				continue
			}
			select {
			case in.out <- f.name:
			default:
				slog.Warn("inbox backlog full, dropping file", "path", f.name)
			}
		case err, ok := <-in.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("inbox watcher error", "error", err)
		case <-in.done:
			return
		}
	}
}

// Next blocks until an image file settles in the directory.
func (in *Inbox) Next(ctx context.Context) (string, error) {
	select {
	case p := <-in.out:
		return p, nil
	case <-in.done:
		return "", ErrInboxClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops watching. It is safe to call more than once.
func (in *Inbox) Close() error {
	var err error
	in.once.Do(func() {
		close(in.done)
		err = in.watcher.Close()
	})
	return err
}
