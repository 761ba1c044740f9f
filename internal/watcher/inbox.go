// Package watcher ingests exchange files dropped into an inbox directory, using fsnotify
// with per-file debouncing.
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/models"
)

const defaultDebounce = 400 * time.Millisecond

// Subdirectories of the inbox that ingested files are moved into.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Ingester stores one exchange.
type Ingester interface {
	Ingest(ctx context.Context, req *models.EmbedRequest) (*models.Exchange, error)
}

// Inbox watches one directory for *.json files holding an /embed request body. Each file is
// ingested once and then moved to processed/, or to failed/ when it cannot be ingested.
type Inbox struct {
	dir      string
	ingester Ingester
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	pending  map[string]*time.Timer
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets a logger for inbox events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Inbox) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a file must stay unchanged before it is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Inbox) { w.debounce = d }
}

// NewInbox creates an inbox over dir that hands files to ingester.
func NewInbox(dir string, ingester Ingester, opts ...Option) *Inbox {
	w := &Inbox{
		dir:      filepath.Clean(dir),
		ingester: ingester,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the watched directory.
func (w *Inbox) Dir() string {
	return w.dir
}

// Start creates the inbox directories and begins watching. Ingestion runs under ctx;
// the inbox stops when ctx is cancelled or Stop is called, and Stop cancels running
// ingestions before waiting for them.
func (w *Inbox) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	for _, d := range []string{w.dir, filepath.Join(w.dir, ProcessedDir), filepath.Join(w.dir, FailedDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create inbox directory: %w", err)
		}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true
	w.logger.Info("inbox watching", zap.String("dir", w.dir))
	go w.run(w.ctx, fw)
	return nil
}

func (w *Inbox) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("inbox watcher error", zap.Error(err))
		}
	}
}

func (w *Inbox) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !isExchangeFile(ev.Name) || filepath.Dir(filepath.Clean(ev.Name)) != w.dir {
		return
	}
	w.logger.Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.schedule(ev.Name)
}

// schedule ingests path once it has been quiet for the debounce interval.
func (w *Inbox) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if !w.started {
			w.mu.Unlock()
			return
		}
		w.inflight.Add(1)
		ctx := w.ctx
		w.mu.Unlock()
		defer w.inflight.Done()
		w.process(ctx, path)
	})
}

// SyncExisting schedules every exchange file already waiting in the inbox.
func (w *Inbox) SyncExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && isExchangeFile(e.Name()) {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}
	return nil
}

func (w *Inbox) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Already moved or deleted.
		w.logger.Debug("inbox file vanished", zap.String("path", path), zap.Error(err))
		return
	}
	var req models.EmbedRequest
	if err := json.Unmarshal(data, &req); err != nil {
		w.logger.Warn("inbox file is not an exchange", zap.String("path", path), zap.Error(err))
		w.move(path, FailedDir)
		return
	}
	ex, err := w.ingester.Ingest(ctx, &req)
	if err != nil {
		w.logger.Warn("inbox ingestion failed", zap.String("path", path), zap.Error(err))
		w.move(path, FailedDir)
		return
	}
	w.logger.Info("inbox file ingested",
		zap.String("path", path),
		zap.String("exchange_id", ex.ID),
		zap.Int("chunks", ex.Chunks))
	w.move(path, ProcessedDir)
}

func (w *Inbox) move(path, sub string) {
	dst := filepath.Join(w.dir, sub, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		w.logger.Error("inbox move failed", zap.String("path", path), zap.String("to", dst), zap.Error(err))
	}
}

// Stop stops watching, cancels ingestions already running and waits for them.
func (w *Inbox) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.cancel()
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	w.inflight.Wait()
}

func isExchangeFile(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".json") && !strings.HasPrefix(base, ".")
}
