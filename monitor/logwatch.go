package monitor

import (
	"bufio"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"content-platform-api/models"
	"content-platform-api/services"

	"github.com/fsnotify/fsnotify"
)

// LogWatcher tails the application log file and raises LOG_EVENT alerts to
// administrators for ERROR and WARN lines. Alert writes themselves are
// logged at info level, and a per-level cooldown keeps a repeating error
// from turning into an alert storm.
type LogWatcher struct {
	path        string
	broadcaster *services.Broadcaster

	mu        sync.Mutex
	offset    int64
	lastAlert map[string]time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

const logAlertCooldown = time.Minute

func NewLogWatcher(path string, broadcaster *services.Broadcaster) *LogWatcher {
	return &LogWatcher{
		path:        path,
		broadcaster: broadcaster,
		lastAlert:   make(map[string]time.Time),
		stop:        make(chan struct{}),
	}
}

// Start begins watching. Lines already in the file are skipped; only lines
// appended after startup can raise alerts.
func (w *LogWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: rotation replaces the file, and fsnotify keeps
	// delivering events for the directory entry either way.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	if info, err := os.Stat(w.path); err == nil {
		w.offset = info.Size()
	}

	go w.loop(watcher)
	return nil
}

// Stop shuts the watcher down. Safe to call twice.
func (w *LogWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *LogWatcher) loop(watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// Rotated: start over from the top of the new file.
				w.mu.Lock()
				w.offset = 0
				w.mu.Unlock()
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.scan()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("log watcher: %v", err)
		}
	}
}

// scan reads lines appended since the last pass.
func (w *LogWatcher) scan() {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Open(w.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < w.offset {
		// Truncated underneath us
		w.offset = 0
	}
	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		return
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		w.inspect(scanner.Text())
	}
	if pos, err := f.Seek(0, io.SeekCurrent); err == nil {
		w.offset = pos
	}
}

func (w *LogWatcher) inspect(line string) {
	level := ""
	switch {
	case strings.Contains(line, "ERROR"):
		level = "ERROR"
	case strings.Contains(line, "WARN"):
		level = "WARN"
	default:
		return
	}

	if last, ok := w.lastAlert[level]; ok && time.Since(last) < logAlertCooldown {
		return
	}
	w.lastAlert[level] = time.Now()

	alert := services.NewLogAlert(services.LogEntry{
		Level:    level,
		Category: "APP_LOG",
		Message:  line,
	})
	go func() {
		if _, err := w.broadcaster.RaiseForRole(models.RoleAdmin, func(string) models.Notification {
			return alert
		}); err != nil {
			log.Printf("log watcher: alert not raised: %v", err)
		}
	}()
}
