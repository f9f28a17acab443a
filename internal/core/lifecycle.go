package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orrn/ptouch/internal/clock"
)

const (
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultPollInterval = 1000 * time.Millisecond
	DefaultMaxAttempts  = 51

	// cancelTimeout bounds the Cancel-Job issued after the caller's
	// context has already ended.
	cancelTimeout = 5 * time.Second
)

// PollPolicy controls the waits between submission and completion.
type PollPolicy struct {
	SettleDelay time.Duration
	Interval    time.Duration
	MaxAttempts int
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		SettleDelay: DefaultSettleDelay,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Controller submits a command stream and follows the job to
// completion. A Controller holds no per-job state and may be shared.
type Controller struct {
	client       ProtocolClient
	clock        clock.Clock
	logger       *slog.Logger
	policy       PollPolicy
	onTransition TransitionFunc
}

type ControllerOption func(*Controller)

func WithClock(c clock.Clock) ControllerOption {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithLogger(l *slog.Logger) ControllerOption {
	return func(ctl *Controller) { ctl.logger = l }
}

func WithPollPolicy(p PollPolicy) ControllerOption {
	return func(ctl *Controller) { ctl.policy = p }
}

// WithTransitionHook registers fn to receive every job state change.
// fn runs on the controller's goroutine and must not block.
func WithTransitionHook(fn TransitionFunc) ControllerOption {
	return func(ctl *Controller) { ctl.onTransition = fn }
}

func NewController(client ProtocolClient, opts ...ControllerOption) *Controller {
	ctl := &Controller{
		client: client,
		clock:  clock.Real(),
		policy: DefaultPollPolicy(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	if ctl.logger == nil {
		ctl.logger = slog.New(slog.DiscardHandler)
	}
	if ctl.policy.MaxAttempts < 1 {
		ctl.policy.MaxAttempts = 1
	}
	return ctl
}

// Status returns the printer's current state without submitting work.
func (c *Controller) Status(ctx context.Context, printerURI string) (*PrinterStatus, error) {
	return QueryStatus(ctx, c.client, printerURI)
}

// Run submits stream to printerURI and polls until the job completes or
// the poll budget runs out, in which case the job is canceled.
func (c *Controller) Run(ctx context.Context, printerURI string, stream CommandStream) (*JobResult, error) {
	log := c.logger.With("printer_uri", printerURI)

	status, err := c.Status(ctx, printerURI)
	if err != nil {
		return nil, err
	}
	if !status.CanPrint() {
		log.Warn("printer not ready", "state", status.State, "reasons", status.StateReasons)
		return nil, &PrinterNotReadyError{PrinterName: status.Name, State: status.State}
	}

	job := &PrintJob{}

	resp, err := c.client.Execute(ctx, printerURI, &Request{
		Operation: OpPrintJob,
		OperationAttributes: map[string]any{
			AttrRequestingUserName: "mobile",
			AttrJobName:            "label",
			AttrDocumentFormat:     "application/octet-stream",
		},
		JobAttributes: map[string]any{
			AttrCopies:      1,
			AttrSides:       "one-sided",
			AttrOrientation: "landscape",
		},
		Document: []byte(stream),
	})
	if err != nil {
		c.transition(job, JobStateFailed)
		return nil, fmt.Errorf("failed to submit print job: %w", err)
	}
	if !resp.Successful() {
		log.Warn("print job rejected", "status", resp.Status, "status_code", resp.StatusCode)
		c.transition(job, JobStateFailed)
		return nil, &SubmissionRejectedError{Response: resp}
	}

	job.ID, _ = IntAttr(resp.JobAttributes, AttrJobID)
	c.transition(job, JobStateSubmitted)
	log = log.With("job_id", job.ID)
	log.Info("print job submitted", "bytes", len(stream))

	if err := c.wait(ctx, c.policy.SettleDelay); err != nil {
		return c.abandon(ctx, log, printerURI, job, err)
	}

	c.transition(job, JobStatePolling)
	for job.Attempt < c.policy.MaxAttempts {
		job.Attempt++

		resp, err := c.client.Execute(ctx, printerURI, &Request{
			Operation: OpGetJobAttributes,
			OperationAttributes: map[string]any{
				AttrJobID: job.ID,
				"requested-attributes": []string{
					AttrJobState,
					AttrJobStateReasons,
				},
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return c.abandon(ctx, log, printerURI, job, ctx.Err())
			}
			c.transition(job, JobStateFailed)
			return nil, fmt.Errorf("failed to poll job %d: %w", job.ID, err)
		}

		state, _ := StringAttr(resp.JobAttributes, AttrJobState)
		log.Debug("polled job", "attempt", job.Attempt, "job_state", state)
		if state == IPPJobStateCompleted {
			c.transition(job, JobStateCompleted)
			log.Info("print job completed", "attempts", job.Attempt)
			return c.result(job, resp.JobAttributes), nil
		}

		if job.Attempt == c.policy.MaxAttempts {
			break
		}
		if err := c.wait(ctx, c.policy.Interval); err != nil {
			return c.abandon(ctx, log, printerURI, job, err)
		}
	}

	c.transition(job, JobStateTimedOut)
	log.Warn("print job did not complete, canceling", "attempts", job.Attempt)
	if err := c.cancel(ctx, printerURI, job.ID); err != nil {
		log.Error("failed to cancel job", "error", err)
	} else {
		c.transition(job, JobStateCanceled)
	}
	return c.result(job, nil), &JobTimedOutError{JobID: job.ID, Attempts: job.Attempt}
}

// abandon cancels the job on the printer after the caller's context
// ended mid-lifecycle.
func (c *Controller) abandon(ctx context.Context, log *slog.Logger, printerURI string, job *PrintJob, cause error) (*JobResult, error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer cancel()
	if err := c.cancel(cctx, printerURI, job.ID); err != nil {
		log.Error("failed to cancel abandoned job", "error", err)
	}
	c.transition(job, JobStateCanceled)
	return c.result(job, nil), cause
}

func (c *Controller) cancel(ctx context.Context, printerURI string, jobID int) error {
	resp, err := c.client.Execute(ctx, printerURI, &Request{
		Operation: OpCancelJob,
		OperationAttributes: map[string]any{
			AttrJobID: jobID,
		},
	})
	if err != nil {
		return err
	}
	if !resp.Successful() {
		return fmt.Errorf("cancel-job returned %s", resp.Status)
	}
	return nil
}

func (c *Controller) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func (c *Controller) transition(job *PrintJob, state JobState) {
	job.State = state
	if c.onTransition != nil {
		c.onTransition(*job)
	}
}

func (c *Controller) result(job *PrintJob, attrs map[string]any) *JobResult {
	return &JobResult{
		JobID:      job.ID,
		State:      job.State,
		Attempts:   job.Attempt,
		Attributes: attrs,
	}
}
