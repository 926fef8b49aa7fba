package assetcache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const userAgent = "spritecomp/1.0"

// Cache fetches remote texture files over HTTP and keeps a copy on disk.
type Cache struct {
	cacheDir   string
	client     *http.Client
	logger     *slog.Logger
	inFlight   map[string]chan struct{}
	inFlightMu sync.Mutex
	fetchQueue chan string
	queueMu    sync.Mutex
	closed     bool
	wg         sync.WaitGroup
}

// New creates a cache rooted at cacheDir with the given number of prefetch
// workers. A nil logger discards output.
func New(cacheDir string, workers int, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Cache{
		cacheDir: cacheDir,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		inFlight:   make(map[string]chan struct{}),
		fetchQueue: make(chan string, 256),
	}

	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}

	return c, nil
}

func (c *Cache) worker() {
	defer c.wg.Done()
	for u := range c.fetchQueue {
		if _, err := c.fetch(u); err != nil {
			c.logger.Warn("prefetch failed", "url", u, "err", err)
		}
	}
}

// Close stops the prefetch workers and waits for them to finish. Later
// Prefetch calls are ignored.
func (c *Cache) Close() {
	c.queueMu.Lock()
	if c.closed {
		c.queueMu.Unlock()
		return
	}
	c.closed = true
	close(c.fetchQueue)
	c.queueMu.Unlock()

	c.wg.Wait()
}

// IsRemote reports whether ref names an http or https resource.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// filePath returns the on-disk location for a cached URL.
func (c *Cache) filePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16])
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); len(ext) <= 5 {
			name += ext
		}
	}
	return filepath.Join(c.cacheDir, name)
}

// Get returns the bytes behind rawURL, downloading them on a cache miss.
func (c *Cache) Get(rawURL string) ([]byte, error) {
	if data, err := os.ReadFile(c.filePath(rawURL)); err == nil {
		return data, nil
	}
	return c.fetch(rawURL)
}

// Prefetch queues URLs for background download. URLs are dropped when the
// queue is full, already cached, or the cache is closed.
func (c *Cache) Prefetch(urls ...string) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if c.closed {
		return
	}
	for _, u := range urls {
		if c.IsCached(u) {
			continue
		}
		select {
		case c.fetchQueue <- u:
		default:
		}
	}
}

// IsCached checks whether rawURL already has a copy on disk.
func (c *Cache) IsCached(rawURL string) bool {
	_, err := os.Stat(c.filePath(rawURL))
	return err == nil
}

// fetch downloads rawURL and caches it, joining an in-flight download of the
// same URL if there is one.
func (c *Cache) fetch(rawURL string) ([]byte, error) {
	p := c.filePath(rawURL)

	if data, err := os.ReadFile(p); err == nil {
		return data, nil
	}

	c.inFlightMu.Lock()
	if ch, exists := c.inFlight[rawURL]; exists {
		c.inFlightMu.Unlock()
		<-ch
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "concurrent fetch of %s failed", rawURL)
		}
		return data, nil
	}

	ch := make(chan struct{})
	c.inFlight[rawURL] = ch
	c.inFlightMu.Unlock()

	defer func() {
		c.inFlightMu.Lock()
		delete(c.inFlight, rawURL)
		close(ch)
		c.inFlightMu.Unlock()
	}()

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch asset")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("asset server returned status %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read asset data")
	}

	// Readers must never observe a partially written file.
	tmp := p + ".part"
	if err := os.WriteFile(tmp, data, 0644); err == nil {
		if err := os.Rename(tmp, p); err != nil {
			c.logger.Warn("failed to cache asset", "url", rawURL, "err", err)
		}
	} else {
		c.logger.Warn("failed to cache asset", "url", rawURL, "err", err)
	}

	return data, nil
}
