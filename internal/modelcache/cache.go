// Package modelcache downloads model weight files on first use and keeps an
// index of them in SQLite next to the files.
package modelcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"image-upscaler/internal/db"
	"image-upscaler/internal/logger"
)

const indexFileName = "index.db"

// ErrNotCached is returned when weights are missing locally and no download
// source is configured.
var ErrNotCached = errors.New("model weights not cached and no download source configured")

// Spec identifies one weights file.
type Spec struct {
	Key   string
	Name  string
	Scale int
	File  string
}

// Entry is an indexed weights file.
type Entry struct {
	Key        string
	Name       string
	Scale      int
	Path       string
	Size       int64
	SHA256     string
	FetchedAt  time.Time
	LastUsedAt time.Time
}

// HumanSize formats Size for display.
func (e Entry) HumanSize() string {
	if e.Size < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(e.Size))
}

type Cache struct {
	db      *sql.DB
	dir     string
	baseURL string
	client  *http.Client
	logger  logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*Cache)

// WithHTTPClient overrides the download client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.client = client }
}

func WithLogger(log logger.Logger) Option {
	return func(c *Cache) { c.logger = log }
}

// Open opens the cache rooted at dir, creating the directory and index.
func Open(dir, baseURL string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model cache dir: %w", err)
	}

	conn, err := db.Open(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, fmt.Errorf("open model index: %w", err)
	}

	cache, err := New(conn, dir, baseURL, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return cache, nil
}

// New wraps an already open database.
func New(conn *sql.DB, dir, baseURL string, opts ...Option) (*Cache, error) {
	if err := initSchema(conn); err != nil {
		return nil, fmt.Errorf("init model index: %w", err)
	}

	c := &Cache{
		db:      conn,
		dir:     dir,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Minute},
		logger:  logger.Nop{},
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Dir returns the directory weights are stored in.
func (c *Cache) Dir() string {
	return c.dir
}

// CanDownload reports whether a download source is configured.
func (c *Cache) CanDownload() bool {
	return c.baseURL != ""
}

// Writable checks that new files can be created in the cache directory.
func (c *Cache) Writable() error {
	f, err := os.CreateTemp(c.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("model cache dir not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Has reports whether the weights file is present on disk.
func (c *Cache) Has(spec Spec) bool {
	info, err := os.Stat(c.pathFor(spec))
	return err == nil && info.Size() > 0
}

// Ensure returns the local path of the weights, downloading them on first
// use. Concurrent callers for the same key share one download.
func (c *Cache) Ensure(ctx context.Context, spec Spec) (string, error) {
	lock := c.keyLock(spec.Key)
	lock.Lock()
	defer lock.Unlock()

	path := c.pathFor(spec)
	if c.Has(spec) {
		if err := c.index(spec, path); err != nil {
			return "", err
		}
		return path, nil
	}

	if !c.CanDownload() {
		return "", fmt.Errorf("%s: %w", spec.Key, ErrNotCached)
	}

	if err := c.download(ctx, spec, path); err != nil {
		return "", err
	}
	return path, nil
}

// Lookup returns the index entry for key, or nil when not indexed.
func (c *Cache) Lookup(key string) (*Entry, error) {
	row := c.db.QueryRow(`
		SELECT key, name, scale, path, size, sha256, fetched_at, last_used_at
		FROM model_weights WHERE key = ?
	`, key)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// List returns every indexed entry ordered by key.
func (c *Cache) List() ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT key, name, scale, path, size, sha256, fetched_at, last_used_at
		FROM model_weights ORDER BY key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// TotalSize sums the sizes of all indexed files.
func (c *Cache) TotalSize() (int64, error) {
	var total sql.NullInt64
	if err := c.db.QueryRow(`SELECT SUM(size) FROM model_weights`).Scan(&total); err != nil {
		return 0, err
	}
	return db.NullInt64Value(total), nil
}

func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

func (c *Cache) pathFor(spec Spec) string {
	return filepath.Join(c.dir, filepath.Base(spec.File))
}

func (c *Cache) download(ctx context.Context, spec Spec, dest string) error {
	url := c.baseURL + "/" + filepath.Base(spec.File)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build weights request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", spec.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", spec.Key, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		return fmt.Errorf("download %s: %w", spec.Key, err)
	}
	if closeErr != nil {
		return fmt.Errorf("write %s: %w", spec.Key, closeErr)
	}
	if size == 0 {
		return fmt.Errorf("download %s: empty body", spec.Key)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("store %s: %w", spec.Key, err)
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	if err := c.upsert(spec, dest, size, sum, time.Now()); err != nil {
		return err
	}

	c.logger.Info("ModelCache", "weights downloaded", map[string]interface{}{
		"key":      spec.Key,
		"size":     humanize.IBytes(uint64(size)),
		"duration": time.Since(start).String(),
	})
	return nil
}

// index records a file already on disk, or refreshes its last use time.
func (c *Cache) index(spec Spec, path string) error {
	existing, err := c.Lookup(spec.Key)
	if err != nil {
		return err
	}
	if existing != nil && existing.Path == path {
		_, err := c.db.Exec(`UPDATE model_weights SET last_used_at = ? WHERE key = ?`,
			time.Now().Unix(), spec.Key)
		return err
	}

	size, sum, err := hashFile(path)
	if err != nil {
		return fmt.Errorf("index %s: %w", spec.Key, err)
	}
	return c.upsert(spec, path, size, sum, time.Now())
}

func (c *Cache) upsert(spec Spec, path string, size int64, sum string, at time.Time) error {
	return db.WithTx(c.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO model_weights (key, name, scale, path, size, sha256, fetched_at, last_used_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				name = excluded.name,
				scale = excluded.scale,
				path = excluded.path,
				size = excluded.size,
				sha256 = excluded.sha256,
				fetched_at = excluded.fetched_at,
				last_used_at = excluded.last_used_at
		`, spec.Key, spec.Name, spec.Scale, path, size, sum, at.Unix(), at.Unix())
		return err
	})
}

func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, f)
	if err != nil {
		return 0, "", err
	}
	return size, hex.EncodeToString(hash.Sum(nil)), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                 Entry
		fetched, lastUsed int64
	)
	if err := row.Scan(&e.Key, &e.Name, &e.Scale, &e.Path, &e.Size, &e.SHA256, &fetched, &lastUsed); err != nil {
		return nil, err
	}
	e.FetchedAt = time.Unix(fetched, 0)
	e.LastUsedAt = time.Unix(lastUsed, 0)
	return &e, nil
}
