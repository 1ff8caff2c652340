package joiner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itsharshx/niftypool/internal/links"
	"github.com/itsharshx/niftypool/internal/results"
	"github.com/itsharshx/niftypool/internal/telegram"
)

// fakeClient scripts join outcomes per target value. Each call pops the
// next outcome for that target.
type fakeClient struct {
	meErr    error
	outcomes map[string][]error
	chats    map[string]*telegram.Chat
	full     map[string]*telegram.ChatFull

	joinCalls []string
	passwords []string
	pwErr     error
}

func (f *fakeClient) GetMe(context.Context) (*telegram.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &telegram.User{ID: 1, FirstName: "Test"}, nil
}

func (f *fakeClient) pop(value string) error {
	f.joinCalls = append(f.joinCalls, value)
	queue := f.outcomes[value]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.outcomes[value] = queue[1:]
	return err
}

func (f *fakeClient) JoinChannel(_ context.Context, username string) (*telegram.Chat, error) {
	if err := f.pop(username); err != nil {
		return nil, err
	}
	if chat, ok := f.chats[username]; ok {
		return chat, nil
	}
	return &telegram.Chat{Title: username}, nil
}

func (f *fakeClient) ImportChatInvite(_ context.Context, hash string) (*telegram.Chat, error) {
	if err := f.pop(hash); err != nil {
		return nil, err
	}
	if chat, ok := f.chats[hash]; ok {
		return chat, nil
	}
	return &telegram.Chat{Title: hash}, nil
}

func (f *fakeClient) GetChat(_ context.Context, username string) (*telegram.ChatFull, error) {
	if full, ok := f.full[username]; ok {
		return full, nil
	}
	return nil, &telegram.APIError{Code: 400, Description: "USERNAME_NOT_OCCUPIED"}
}

func (f *fakeClient) CheckPassword(_ context.Context, password string) (*telegram.User, error) {
	f.passwords = append(f.passwords, password)
	if f.pwErr != nil {
		return nil, f.pwErr
	}
	return &telegram.User{ID: 1}, nil
}

// fakeClock advances its notion of "now" by every sleep it performs.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func publicReqs(names ...string) []links.Request {
	reqs := make([]links.Request, 0, len(names))
	for _, n := range names {
		reqs = append(reqs, links.Request{
			Link:   "https://t.me/" + n,
			Target: links.Target{Kind: links.KindPublic, Value: n},
		})
	}
	return reqs
}

func newTestRunner(client *fakeClient, clock *fakeClock, mutate func(*Config)) *Runner {
	cfg := Config{
		Interval: 5 * time.Minute,
		Now:      clock.Now,
		Sleep:    clock.Sleep,
		Rand:     func() float64 { return 0.5 }, // jitter factor 1.0
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(client, cfg)
}

func TestRunProducesOneResultPerLinkInOrder(t *testing.T) {
	client := &fakeClient{outcomes: map[string][]error{
		"beta": {&telegram.APIError{Code: 400, Description: "CHANNEL_PRIVATE"}},
	}}
	clock := newFakeClock()
	runner := newTestRunner(client, clock, nil)

	reqs := publicReqs("alpha", "beta", "gamma")
	out, err := runner.Run(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out) != len(reqs) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(reqs))
	}
	for i, req := range reqs {
		if out[i].Link != req.Link {
			t.Errorf("out[%d].Link = %q, want %q", i, out[i].Link, req.Link)
		}
	}
	if !out[0].Success || out[1].Success || !out[2].Success {
		t.Errorf("success flags = %v %v %v, want true false true",
			out[0].Success, out[1].Success, out[2].Success)
	}
	if out[1].Error != "Invalid or expired link" {
		t.Errorf("out[1].Error = %q", out[1].Error)
	}
}

func TestAlreadyMemberIsSuccess(t *testing.T) {
	client := &fakeClient{outcomes: map[string][]error{
		"alpha": {&telegram.APIError{Code: 400, Description: "USER_ALREADY_PARTICIPANT"}},
	}}
	runner := newTestRunner(client, newFakeClock(), nil)

	out, err := runner.Run(context.Background(), publicReqs("alpha"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !out[0].Success {
		t.Error("Success = false, want true")
	}
	if out[0].Error != "Already a member" {
		t.Errorf("Error = %q, want %q", out[0].Error, "Already a member")
	}
}

func TestFloodWaitRetriesOnceThenSucceeds(t *testing.T) {
	client := &fakeClient{outcomes: map[string][]error{
		"alpha": {&telegram.APIError{Code: 420, Description: "FLOOD_WAIT_45", RetryAfter: 45}},
	}}
	clock := newFakeClock()
	runner := newTestRunner(client, clock, nil)

	out, err := runner.Run(context.Background(), publicReqs("alpha"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !out[0].Success {
		t.Errorf("Success = false, want true (result: %+v)", out[0])
	}
	if got := len(client.joinCalls); got != 2 {
		t.Errorf("join calls = %d, want 2", got)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 45*time.Second {
		t.Errorf("sleeps = %v, want [45s]", clock.sleeps)
	}
}

func TestFloodWaitRetriesAtMostOnce(t *testing.T) {
	floodErr := func() error {
		return &telegram.APIError{Code: 420, Description: "FLOOD_WAIT_30", RetryAfter: 30}
	}
	client := &fakeClient{outcomes: map[string][]error{
		"alpha": {floodErr(), floodErr()},
	}}
	clock := newFakeClock()
	runner := newTestRunner(client, clock, nil)

	out, err := runner.Run(context.Background(), publicReqs("alpha"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out[0].Success {
		t.Error("Success = true, want false after second flood wait")
	}
	if out[0].Error != "Rate limited. Wait 30 seconds" {
		t.Errorf("Error = %q", out[0].Error)
	}
	if got := len(client.joinCalls); got != 2 {
		t.Errorf("join calls = %d, want 2 (retry at most once)", got)
	}
}

func TestExactSpacingWithoutRandomize(t *testing.T) {
	client := &fakeClient{}
	clock := newFakeClock()
	runner := newTestRunner(client, clock, nil)

	out, err := runner.Run(context.Background(), publicReqs("a", "b", "c"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Two pauses for three links, each exactly the base interval.
	if len(clock.sleeps) != 2 {
		t.Fatalf("sleeps = %v, want 2 pauses", clock.sleeps)
	}
	for i, d := range clock.sleeps {
		if d != 5*time.Minute {
			t.Errorf("sleeps[%d] = %v, want 5m", i, d)
		}
	}
	if gap := out[1].JoinTime.Sub(out[0].JoinTime); gap != 5*time.Minute {
		t.Errorf("gap = %v, want 5m", gap)
	}
}

func TestRandomizedSpacingStaysWithinBounds(t *testing.T) {
	for _, tt := range []struct {
		rand float64
		want time.Duration
	}{
		{rand: 0, want: 4 * time.Minute},   // 0.8×
		{rand: 1, want: 6 * time.Minute},   // 1.2×
		{rand: 0.5, want: 5 * time.Minute}, // 1.0×
	} {
		client := &fakeClient{}
		clock := newFakeClock()
		runner := newTestRunner(client, clock, func(c *Config) {
			c.Randomize = true
			c.Rand = func() float64 { return tt.rand }
		})

		if _, err := runner.Run(context.Background(), publicReqs("a", "b")); err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if len(clock.sleeps) != 1 || clock.sleeps[0] != tt.want {
			t.Errorf("rand=%.1f: sleeps = %v, want [%v]", tt.rand, clock.sleeps, tt.want)
		}
	}
}

func TestNoPauseBeforeFirstLink(t *testing.T) {
	client := &fakeClient{}
	clock := newFakeClock()
	runner := newTestRunner(client, clock, nil)

	if _, err := runner.Run(context.Background(), publicReqs("only")); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none for a single link", clock.sleeps)
	}
}

func TestFatalAuthAbortsBeforeAnyResult(t *testing.T) {
	client := &fakeClient{meErr: &telegram.APIError{Code: 401, Description: "AUTH_KEY_UNREGISTERED"}}
	runner := newTestRunner(client, newFakeClock(), nil)

	out, err := runner.Run(context.Background(), publicReqs("a", "b"))
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
	if len(client.joinCalls) != 0 {
		t.Errorf("join calls = %v, want none", client.joinCalls)
	}
}

func TestSecondFactorPromptedOnce(t *testing.T) {
	pwNeeded := func() error {
		return &telegram.APIError{Code: 401, Description: "SESSION_PASSWORD_NEEDED"}
	}
	client := &fakeClient{outcomes: map[string][]error{
		"alpha": {pwNeeded()},
		"beta":  {pwNeeded()},
	}}
	prompts := 0
	runner := newTestRunner(client, newFakeClock(), func(c *Config) {
		c.SecondFactor = func(context.Context) (string, error) {
			prompts++
			return "hunter2", nil
		}
	})

	out, err := runner.Run(context.Background(), publicReqs("alpha", "beta"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if prompts != 1 {
		t.Errorf("prompts = %d, want 1", prompts)
	}
	if len(client.passwords) != 1 || client.passwords[0] != "hunter2" {
		t.Errorf("passwords = %v", client.passwords)
	}
	// First link recovers via the password; the second hits the demand
	// again but the prompt is spent, so it is recorded as failed.
	if !out[0].Success {
		t.Errorf("out[0] = %+v, want success", out[0])
	}
	if out[1].Success || out[1].Error != "Second factor required" {
		t.Errorf("out[1] = %+v, want second-factor failure", out[1])
	}
}

func TestSecondFactorUnavailableRecordsFailure(t *testing.T) {
	client := &fakeClient{outcomes: map[string][]error{
		"alpha": {&telegram.APIError{Code: 401, Description: "SESSION_PASSWORD_NEEDED"}},
	}}
	runner := newTestRunner(client, newFakeClock(), nil)

	out, err := runner.Run(context.Background(), publicReqs("alpha"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out[0].Success || out[0].Error != "Second factor required" {
		t.Errorf("out[0] = %+v", out[0])
	}
}

func TestGroupInfoFromGetChat(t *testing.T) {
	client := &fakeClient{
		full: map[string]*telegram.ChatFull{
			"alpha": {
				Chat:        telegram.Chat{Title: "Alpha Group", Username: "alpha"},
				MemberCount: 1234,
			},
		},
	}
	runner := newTestRunner(client, newFakeClock(), nil)

	out, err := runner.Run(context.Background(), publicReqs("alpha"))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out[0].GroupName != "Alpha Group" {
		t.Errorf("GroupName = %q", out[0].GroupName)
	}
	if out[0].MemberCount != 1234 {
		t.Errorf("MemberCount = %d", out[0].MemberCount)
	}
}

func TestCancelStopsAfterCurrentLink(t *testing.T) {
	client := &fakeClient{}
	clock := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	runner := newTestRunner(client, clock, func(c *Config) {
		c.OnResult = func(results.Result) { cancel() }
	})

	out, err := runner.Run(ctx, publicReqs("a", "b", "c"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(out) != 1 {
		t.Errorf("len(out) = %d, want 1 (current link completed, rest skipped)", len(out))
	}
}

func TestOnResultSeesResultsInOrder(t *testing.T) {
	client := &fakeClient{}
	var seen []string
	runner := newTestRunner(client, newFakeClock(), func(c *Config) {
		c.OnResult = func(r results.Result) { seen = append(seen, r.Link) }
	})

	if _, err := runner.Run(context.Background(), publicReqs("a", "b")); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(seen) != 2 || seen[0] != "https://t.me/a" || seen[1] != "https://t.me/b" {
		t.Errorf("seen = %v", seen)
	}
}
