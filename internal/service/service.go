// Package service runs label jobs against the configured printers and
// keeps the job journal and webhook subscribers informed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/orrn/ptouch/internal/clock"
	"github.com/orrn/ptouch/internal/config"
	"github.com/orrn/ptouch/internal/core"
	"github.com/orrn/ptouch/internal/db"
	"github.com/orrn/ptouch/internal/webhook"
)

var ErrUnknownPrinter = errors.New("unknown printer")

// Journal records the progress of each job.
type Journal interface {
	CreateJob(ctx context.Context, j *db.PrintJob) error
	UpdateJobState(ctx context.Context, id string, u db.JobUpdate) error
}

// Notifier receives the outcome of each job.
type Notifier interface {
	Send(event webhook.Event, data *webhook.JobEventData)
}

type Service struct {
	cfg      *config.Config
	policy   core.PollPolicy
	client   core.ProtocolClient
	decoder  core.Decoder
	journal  Journal
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

type Option func(*Service)

func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(cfg *config.Config, client core.ProtocolClient, decoder core.Decoder, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		policy:   cfg.Polling.Policy(),
		client:   client,
		decoder:  decoder,
		clock:    clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

func (s *Service) Printers() []config.PrinterConfig {
	out := make([]config.PrinterConfig, len(s.cfg.Printers))
	copy(out, s.cfg.Printers)
	return out
}

// Target is a printer resolved from a configured name or a raw URI.
type Target struct {
	Name     string
	URI      string
	Defaults []core.PrintOption
}

// Resolve accepts either a configured printer name or an ipp(s)/http(s)
// URI. Raw URIs carry no label defaults.
func (s *Service) Resolve(nameOrURI string) (*Target, error) {
	if p, ok := s.cfg.Printer(nameOrURI); ok {
		return &Target{Name: p.Name, URI: p.URI, Defaults: p.Options()}, nil
	}
	if strings.Contains(nameOrURI, "://") {
		return &Target{Name: nameOrURI, URI: nameOrURI}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPrinter, nameOrURI)
}

func (s *Service) Status(ctx context.Context, nameOrURI string) (*core.PrinterStatus, error) {
	t, err := s.Resolve(nameOrURI)
	if err != nil {
		return nil, err
	}
	return core.QueryStatus(ctx, s.client, t.URI)
}

// Compile builds a command stream from image data. printer may be empty,
// in which case only opts apply.
func (s *Service) Compile(printer string, data []byte, opts ...core.PrintOption) (core.CommandStream, error) {
	var defaults []core.PrintOption
	if printer != "" {
		t, err := s.Resolve(printer)
		if err != nil {
			return nil, err
		}
		defaults = t.Defaults
	}
	l := core.NewLabeler(s.decoder, nil, s.logger)
	return l.CompileBuffer(data, append(defaults, opts...)...)
}

// PrintRequest describes one label. Exactly one of Image and Path is
// used; Image wins when both are set.
type PrintRequest struct {
	Printer string
	Image   []byte
	Path    string
	Options []core.PrintOption
}

type PrintOutcome struct {
	JournalID string          `json:"journal_id,omitempty"`
	Printer   string          `json:"printer"`
	Result    *core.JobResult `json:"result,omitempty"`
}

// Print compiles the label, runs the job to completion and records the
// outcome. The outcome is returned alongside a failed job's error when a
// job was created.
func (s *Service) Print(ctx context.Context, req PrintRequest) (*PrintOutcome, error) {
	target, err := s.Resolve(req.Printer)
	if err != nil {
		return nil, err
	}
	opts := append(target.Defaults, req.Options...)
	cfg, err := core.NewPrintConfig(opts...)
	if err != nil {
		return nil, err
	}

	started := s.clock.Now()
	log := s.logger.With("printer", target.Name)
	outcome := &PrintOutcome{Printer: target.Name}

	// journal writes outlive a canceled request
	jctx := context.WithoutCancel(ctx)
	entry := &db.PrintJob{
		PrinterName:    target.Name,
		PrinterURI:     target.URI,
		TapeWidth:      cfg.TapeWidth,
		HighResolution: cfg.HighResolution,
	}
	if s.journal != nil {
		if err := s.journal.CreateJob(jctx, entry); err != nil {
			log.Error("failed to journal job", "error", err)
		}
		outcome.JournalID = entry.ID
	}

	labeler := core.NewLabeler(s.decoder, nil, s.logger)
	var stream core.CommandStream
	if req.Image != nil {
		stream, err = labeler.CompileBuffer(req.Image, opts...)
	} else {
		stream, err = labeler.CompileFile(req.Path, opts...)
	}
	if err != nil {
		s.finish(jctx, entry, target, nil, 0, started, err)
		return outcome, err
	}

	ctl := core.NewController(s.client,
		core.WithClock(s.clock),
		core.WithLogger(s.logger),
		core.WithPollPolicy(s.policy),
		core.WithTransitionHook(func(job core.PrintJob) {
			s.track(jctx, entry, job, len(stream))
		}))

	result, err := ctl.Run(ctx, target.URI, stream)
	outcome.Result = result
	s.finish(jctx, entry, target, result, len(stream), started, err)
	return outcome, err
}

func (s *Service) track(ctx context.Context, entry *db.PrintJob, job core.PrintJob, streamBytes int) {
	if s.journal == nil || entry.ID == "" || job.State.Terminal() {
		return
	}
	u := db.JobUpdate{State: job.State.String(), IPPJobID: job.ID, Attempts: job.Attempt}
	if job.State == core.JobStateSubmitted {
		u.StreamBytes = streamBytes
	}
	if err := s.journal.UpdateJobState(ctx, entry.ID, u); err != nil {
		s.logger.Warn("failed to journal transition", "journal_id", entry.ID, "state", u.State, "error", err)
	}
}

// finish writes the final journal state and notifies subscribers.
func (s *Service) finish(ctx context.Context, entry *db.PrintJob, target *Target, result *core.JobResult, streamBytes int, started time.Time, runErr error) {
	state, event := outcomeOf(result, runErr)
	u := db.JobUpdate{State: state, StreamBytes: streamBytes}
	data := &webhook.JobEventData{
		JobID:       entry.ID,
		PrinterName: target.Name,
		PrinterURI:  target.URI,
		State:       state,
		DurationMS:  s.clock.Now().Sub(started).Milliseconds(),
	}
	if result != nil {
		u.IPPJobID, data.IPPJobID = result.JobID, result.JobID
		u.Attempts, data.Attempts = result.Attempts, result.Attempts
	}
	if runErr != nil {
		u.ErrorMessage, data.ErrorMessage = runErr.Error(), runErr.Error()
	}

	if s.journal != nil && entry.ID != "" {
		if err := s.journal.UpdateJobState(ctx, entry.ID, u); err != nil {
			s.logger.Warn("failed to journal outcome", "journal_id", entry.ID, "state", state, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.Send(event, data)
	}
}

func outcomeOf(result *core.JobResult, err error) (string, webhook.Event) {
	switch {
	case err == nil:
		return db.StateCompleted, webhook.EventJobCompleted
	case errors.Is(err, core.ErrJobTimedOut):
		return db.StateTimedOut, webhook.EventJobTimedOut
	case result != nil && result.State == core.JobStateCanceled:
		return db.StateCanceled, webhook.EventJobFailed
	default:
		return db.StateFailed, webhook.EventJobFailed
	}
}
