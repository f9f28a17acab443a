// Package archive moves finished jobs out of the journal into
// compressed, optionally encrypted JSON-lines files.
package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"github.com/orrn/ptouch/internal/clock"
	"github.com/orrn/ptouch/internal/db"
)

const (
	compressedExt = ".jsonl.zst"
	encryptedExt  = ".age"
	filePrefix    = "archive_"
)

var ErrPassphraseRequired = errors.New("archive is encrypted and no passphrase is set")

// Store is the part of the journal the archiver needs.
type Store interface {
	ListFinishedBefore(ctx context.Context, t time.Time) ([]*db.PrintJob, error)
	RecordArchive(ctx context.Context, a *db.Archive, ids []string) error
}

type Config struct {
	Path       string
	Days       int
	Passphrase string
}

type ArchiveFile struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Encrypted bool      `json:"encrypted"`
	CreatedAt time.Time `json:"created_at"`
}

type Archiver struct {
	store      Store
	path       string
	days       int
	passphrase string
	workFactor int
	clock      clock.Clock
	logger     *slog.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
}

type Option func(*Archiver)

func WithClock(c clock.Clock) Option {
	return func(a *Archiver) { a.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Archiver) { a.logger = l }
}

func NewArchiver(store Store, cfg Config, opts ...Option) (*Archiver, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/archives"
	}
	if cfg.Days <= 0 {
		cfg.Days = 30
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	a := &Archiver{
		store:      store,
		path:       cfg.Path,
		days:       cfg.Days,
		passphrase: cfg.Passphrase,
		workFactor: 18,
		clock:      clock.Real(),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a, nil
}

func (a *Archiver) Start() {
	go a.runDaily()
}

func (a *Archiver) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

func (a *Archiver) runDaily() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			if _, err := a.Run(context.Background()); err != nil {
				a.logger.Error("scheduled archive failed", "error", err)
			}
		}
	}
}

// Run archives every job that finished more than the configured number
// of days ago. It returns nil when there was nothing to archive.
func (a *Archiver) Run(ctx context.Context) (*db.Archive, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now().UTC()
	cutoff := now.AddDate(0, 0, -a.days)

	jobs, err := a.store.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs for archival: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	name := filePrefix + now.Format("2006_01_02_150405") + compressedExt
	if a.passphrase != "" {
		name += encryptedExt
	}
	target := filepath.Join(a.path, name)

	if err := a.writeFile(target, jobs); err != nil {
		return nil, err
	}

	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	record := &db.Archive{
		ArchiveFile: name,
		JobCount:    len(jobs),
		Encrypted:   a.passphrase != "",
	}
	if err := a.store.RecordArchive(ctx, record, ids); err != nil {
		// the jobs are still journaled and go into the next archive
		if rmErr := os.Remove(target); rmErr != nil {
			a.logger.Error("failed to remove unrecorded archive", "file", name, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to record archive: %w", err)
	}

	a.logger.Info("archived jobs", "file", name, "jobs", len(jobs), "cutoff", cutoff)
	return record, nil
}

func (a *Archiver) writeFile(target string, jobs []*db.PrintJob) (err error) {
	tmp, err := os.CreateTemp(a.path, ".archive-*")
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var sink io.WriteCloser = nopWriteCloser{tmp}
	if a.passphrase != "" {
		recipient, err := age.NewScryptRecipient(a.passphrase)
		if err != nil {
			return fmt.Errorf("failed to create age recipient: %w", err)
		}
		recipient.SetWorkFactor(a.workFactor)
		sink, err = age.Encrypt(tmp, recipient)
		if err != nil {
			return fmt.Errorf("failed to start encryption: %w", err)
		}
	}

	zw, err := zstd.NewWriter(sink, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	for _, j := range jobs {
		if err := enc.Encode(j); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode job %s: %w", j.ID, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to finish encryption: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

// Read decodes every job stored in an archive. A bare file name is
// looked up in the archive directory.
func (a *Archiver) Read(name string) ([]*db.PrintJob, error) {
	path := name
	if filepath.Base(name) == name {
		path = filepath.Join(a.path, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(name, encryptedExt) {
		if a.passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		identity, err := age.NewScryptIdentity(a.passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to create age identity: %w", err)
		}
		src, err = age.Decrypt(f, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt archive: %w", err)
		}
	}

	zr, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var jobs []*db.PrintJob
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		j := &db.PrintJob{}
		if err := json.Unmarshal(scanner.Bytes(), j); err != nil {
			return nil, fmt.Errorf("failed to decode archived job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return jobs, nil
}

// List returns the archive files on disk, newest first.
func (a *Archiver) List() ([]*ArchiveFile, error) {
	entries, err := os.ReadDir(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var files []*ArchiveFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if !strings.HasSuffix(name, compressedExt) && !strings.HasSuffix(name, compressedExt+encryptedExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, &ArchiveFile{
			Filename:  name,
			Size:      info.Size(),
			Encrypted: strings.HasSuffix(name, encryptedExt),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename > files[j].Filename })
	return files, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
