// Package watch reconstructs raw files as they appear in an acquisition directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"rawrecon/internal/logger"
	"rawrecon/pkg/batch"
)

// DefaultSettle is used when a Watcher is created with a non-positive settle time.
const DefaultSettle = 500 * time.Millisecond

type action int

const (
	actionIgnore action = iota
	actionSchedule
	actionCancel
)

// Watcher reconstructs each matching file once it has stopped changing for the
// settle duration. Files are processed one at a time, in the order they settle.
type Watcher struct {
	proc   *batch.Processor
	settle time.Duration
}

// New creates a watcher that processes files with proc.
func New(proc *batch.Processor, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{proc: proc, settle: settle}
}

// classify maps a filesystem event to what the watcher does with its file.
func (w *Watcher) classify(ev fsnotify.Event) action {
	if !w.proc.Match(filepath.Base(ev.Name)) {
		return actionIgnore
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return actionCancel
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if st, err := os.Stat(ev.Name); err != nil || st.IsDir() {
			return actionIgnore
		}
		return actionSchedule
	default:
		return actionIgnore
	}
}

// Watch starts watching dir and returns a channel of outcomes, one per settled
// file. The channel is closed after ctx is cancelled. Files already present
// when Watch is called are not processed.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan batch.Outcome, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("Watching %s for %s (settle %v)", dir, w.proc.Params().Pattern, w.settle)

	out := make(chan batch.Outcome)
	go w.loop(ctx, fw, out)
	return out, nil
}

type settleTimer struct {
	timer *time.Timer
	gen   uint64
}

type settled struct {
	path string
	gen  uint64
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- batch.Outcome) {
	pending := make(map[string]settleTimer)
	ready := make(chan settled)
	done := make(chan struct{})
	var gen uint64

	defer func() {
		close(done)
		for _, p := range pending {
			p.timer.Stop()
		}
		fw.Close()
		close(out)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			path := ev.Name
			switch w.classify(ev) {
			case actionSchedule:
				if p, ok := pending[path]; ok {
					p.timer.Stop()
				}
				gen++
				msg := settled{path: path, gen: gen}
				pending[path] = settleTimer{
					gen: gen,
					timer: time.AfterFunc(w.settle, func() {
						select {
						case ready <- msg:
						case <-done:
						}
					}),
				}
			case actionCancel:
				if p, ok := pending[path]; ok {
					p.timer.Stop()
					delete(pending, path)
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)

		case msg := <-ready:
			// A stale timer may fire after being replaced or cancelled.
			if p, ok := pending[msg.path]; !ok || p.gen != msg.gen {
				continue
			}
			delete(pending, msg.path)

			o := w.proc.ProcessFile(msg.path)
			if !o.OK() {
				f := o.Failure()
				logger.Warn("failed to process %s [%s]: %v", f.File, f.Kind, f.Err)
			}
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}
}
