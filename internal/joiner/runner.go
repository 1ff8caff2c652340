// Package joiner runs the sequential join loop: one link at a time,
// paced by a configurable interval, with a single retry on server-issued
// flood waits.
//
// Per-link state machine:
//
//	Pending → Attempting → {Succeeded,
//	                        RateLimited → Attempting(retry=1) → {Succeeded, Failed},
//	                        Failed}
package joiner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/itsharshx/niftypool/internal/links"
	"github.com/itsharshx/niftypool/internal/results"
	"github.com/itsharshx/niftypool/internal/telegram"
)

// ErrAuth is returned when the session cannot be validated at startup.
// It is the only fatal condition: no link is attempted after it.
var ErrAuth = errors.New("joiner: session not authorized")

// Human-readable outcome notes recorded in results.
const (
	noteAlreadyMember = "Already a member"
	noteInvalidLink   = "Invalid or expired link"
	noteBanned        = "Banned from this group"
	noteSecondFactor  = "Second factor required"
)

// Client is the subset of the gateway client the runner needs.
type Client interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	JoinChannel(ctx context.Context, username string) (*telegram.Chat, error)
	ImportChatInvite(ctx context.Context, hash string) (*telegram.Chat, error)
	GetChat(ctx context.Context, username string) (*telegram.ChatFull, error)
	CheckPassword(ctx context.Context, password string) (*telegram.User, error)
}

// Config holds runner configuration.
type Config struct {
	// Interval is the base pause between consecutive join attempts.
	Interval time.Duration
	// Randomize jitters each pause by ±20% of Interval.
	Randomize bool

	Logger *slog.Logger

	// SecondFactor is called at most once per run when the gateway demands
	// the two-step verification password. Nil means the prompt is
	// unavailable (batch mode) and the link is recorded as failed.
	SecondFactor func(ctx context.Context) (string, error)

	// OnResult is called after each terminal outcome, in order. Nil is fine.
	OnResult func(results.Result)

	// Injectable for testing.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  func() float64
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.Rand == nil {
		c.Rand = rand.Float64
	}
	return c
}

// Runner executes join batches against a single session.
type Runner struct {
	client Client
	cfg    Config

	secondFactorUsed bool
}

// New creates a Runner. The client must be bound to an open session.
func New(client Client, cfg Config) *Runner {
	return &Runner{client: client, cfg: cfg.withDefaults()}
}

// Run processes every request in order and returns one result per input
// request. A per-link failure never aborts the run. The only fatal error
// is ErrAuth, raised before any link is attempted. Cancelling ctx stops
// the run after the current link; the results accumulated so far are
// returned alongside ctx's error so the caller can still flush them.
func (r *Runner) Run(ctx context.Context, reqs []links.Request) ([]results.Result, error) {
	if _, err := r.client.GetMe(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	out := make([]results.Result, 0, len(reqs))
	for i, req := range reqs {
		if i > 0 {
			if err := r.pause(ctx); err != nil {
				return out, err
			}
		}

		res := r.joinOne(ctx, req)
		out = append(out, res)
		if r.cfg.OnResult != nil {
			r.cfg.OnResult(res)
		}

		if ctx.Err() != nil {
			return out, ctx.Err()
		}
	}

	return out, nil
}

// pause sleeps for the configured interval, jittered ±20% when Randomize
// is on. No pause happens before the first link.
func (r *Runner) pause(ctx context.Context) error {
	delay := r.cfg.Interval
	if r.cfg.Randomize {
		delay = time.Duration(float64(delay) * (0.8 + r.cfg.Rand()*0.4))
	}
	r.cfg.Logger.Info("waiting before next join", "delay", delay)
	return r.cfg.Sleep(ctx, delay)
}

// joinOne drives a single link to a terminal state.
func (r *Runner) joinOne(ctx context.Context, req links.Request) results.Result {
	res := results.Result{
		Link:     req.Link,
		JoinTime: r.cfg.Now(),
	}

	// Public targets can be inspected before joining; best effort only.
	if req.Target.Kind == links.KindPublic {
		if full, err := r.client.GetChat(ctx, req.Target.Value); err == nil {
			res.GroupName = full.Title
			res.MemberCount = full.MemberCount
		}
	}

	chat, err := r.join(ctx, req.Target)
	if err != nil {
		if wait, ok := telegram.FloodWait(err); ok {
			chat, err = r.retryAfterFloodWait(ctx, req, wait)
		} else if telegram.IsPasswordNeeded(err) {
			chat, err = r.resolveSecondFactor(ctx, req)
		}
	}

	switch {
	case err == nil:
		res.Success = true
		if chat != nil && res.GroupName == "" {
			res.GroupName = chat.Title
		}
		r.cfg.Logger.Info("joined group", "link", req.Link, "group", res.GroupName)

	case telegram.IsAlreadyParticipant(err):
		res.Success = true
		res.Error = noteAlreadyMember
		r.cfg.Logger.Info("already a member", "link", req.Link)

	case telegram.IsPermanent(err):
		res.Error = classifyPermanent(err)
		r.cfg.Logger.Error("join failed", "link", req.Link, "reason", res.Error)

	default:
		if wait, ok := telegram.FloodWait(err); ok {
			res.Error = fmt.Sprintf("Rate limited. Wait %d seconds", int(wait.Seconds()))
		} else if telegram.IsPasswordNeeded(err) {
			res.Error = noteSecondFactor
		} else {
			res.Error = err.Error()
		}
		r.cfg.Logger.Error("join failed", "link", req.Link, "error", err)
	}

	return res
}

// join dispatches to the right gateway call for the target kind.
func (r *Runner) join(ctx context.Context, target links.Target) (*telegram.Chat, error) {
	if target.Kind == links.KindInvite {
		return r.client.ImportChatInvite(ctx, target.Value)
	}
	return r.client.JoinChannel(ctx, target.Value)
}

// retryAfterFloodWait honors the server-indicated wait, then retries the
// same link exactly once. Whatever the retry returns is terminal.
func (r *Runner) retryAfterFloodWait(ctx context.Context, req links.Request, wait time.Duration) (*telegram.Chat, error) {
	r.cfg.Logger.Warn("rate limited, waiting before retry",
		"link", req.Link,
		"wait", wait,
	)
	if err := r.cfg.Sleep(ctx, wait); err != nil {
		return nil, &telegram.APIError{
			Code:        420,
			Description: fmt.Sprintf("FLOOD_WAIT_%d", int(wait.Seconds())),
			RetryAfter:  int(wait.Seconds()),
		}
	}
	return r.join(ctx, req.Target)
}

// resolveSecondFactor prompts for the two-step password at most once per
// run, then retries the link. Without a prompt, or after a failed check,
// the original SESSION_PASSWORD_NEEDED error stands.
func (r *Runner) resolveSecondFactor(ctx context.Context, req links.Request) (*telegram.Chat, error) {
	needed := &telegram.APIError{Code: 401, Description: "SESSION_PASSWORD_NEEDED"}
	if r.cfg.SecondFactor == nil || r.secondFactorUsed {
		return nil, needed
	}
	r.secondFactorUsed = true

	password, err := r.cfg.SecondFactor(ctx)
	if err != nil {
		return nil, needed
	}
	if _, err := r.client.CheckPassword(ctx, password); err != nil {
		r.cfg.Logger.Error("second factor check failed", "error", err)
		return nil, needed
	}
	return r.join(ctx, req.Target)
}

// classifyPermanent maps a permanent gateway error to its result note.
func classifyPermanent(err error) string {
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) && apiErr.Description == "USER_BANNED_IN_CHANNEL" {
		return noteBanned
	}
	return noteInvalidLink
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
