package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Options configures a Loader.
type Options struct {
	// MaxDim caps the decoded image's longer side; zero keeps full size.
	MaxDim int
	// Client fetches http(s) references; nil uses a client with a 30s timeout.
	Client *http.Client
	Logger *zap.Logger
}

// Loader resolves an image reference, a file path or http(s) URL, and holds
// the most recent successfully decoded image.
type Loader struct {
	ref    string
	opts   Options
	log    *zap.Logger
	client *http.Client

	mu  sync.Mutex
	img *image.NRGBA
	gen uint64
	err error
}

// NewLoader returns a Loader for ref. Nothing is read until Load or Start.
func NewLoader(ref string, opts Options) *Loader {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{ref: ref, opts: opts, client: client, log: log.Named("source")}
}

// Ref returns the image reference.
func (l *Loader) Ref() string { return l.ref }

// IsURL reports whether ref is fetched over HTTP.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Latest returns the current image and its generation. Generation 0 means
// nothing has loaded yet and the placeholder is returned.
func (l *Loader) Latest() (*image.NRGBA, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.img == nil {
		return Placeholder(), 0
	}
	return l.img, l.gen
}

// Err returns the error of the most recent load attempt, if it failed.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Load reads and decodes the reference now. On failure the previous image
// stays current.
func (l *Loader) Load(ctx context.Context) error {
	start := time.Now()
	img, format, err := l.fetch(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
	if err != nil {
		return err
	}
	l.img = img
	l.gen++
	l.log.Info("image loaded",
		zap.String("ref", l.ref),
		zap.String("format", format),
		zap.Int("width", img.Rect.Dx()),
		zap.Int("height", img.Rect.Dy()),
		zap.Uint64("generation", l.gen),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Start loads the image in the background.
func (l *Loader) Start(ctx context.Context) {
	go func() {
		if err := l.Load(ctx); err != nil {
			l.log.Error("image load failed", zap.String("ref", l.ref), zap.Error(err))
		}
	}()
}

func (l *Loader) fetch(ctx context.Context) (*image.NRGBA, string, error) {
	var r io.ReadCloser
	if IsURL(l.ref) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.ref, nil)
		if err != nil {
			return nil, "", fmt.Errorf("requesting %s: %w", l.ref, err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetching %s: %w", l.ref, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, "", fmt.Errorf("fetching %s: %s", l.ref, resp.Status)
		}
		r = resp.Body
	} else {
		f, err := os.Open(l.ref)
		if err != nil {
			return nil, "", fmt.Errorf("opening image: %w", err)
		}
		r = f
	}
	defer r.Close()
	return Decode(r, l.opts.MaxDim)
}

// Watch reloads a file reference whenever it changes, debouncing bursts of
// events, until ctx is done. URL references cannot be watched.
func (l *Loader) Watch(ctx context.Context, debounce time.Duration) error {
	if IsURL(l.ref) {
		return errors.New("cannot watch a URL image reference")
	}
	path, err := filepath.Abs(l.ref)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	l.log.Info("watching image", zap.String("path", path))

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
					continue
				}
				l.log.Debug("image changed", zap.String("op", event.Op.String()))
				debounceTimer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log.Error("watcher error", zap.Error(err))
			case <-debounceTimer.C:
				if err := l.Load(ctx); err != nil {
					l.log.Warn("image reload failed, keeping previous", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
