package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/storage/memory"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/videohost"
)

// fakeHost is a scripted video host that counts calls
type fakeHost struct {
	mu sync.Mutex

	ticket      videohost.Ticket
	allocateErr error
	complete    bool
	verifyErr   error
	updateErr   error
	releaseErr  error

	// block, when set, makes every call wait for it or for ctx.
	block chan struct{}

	allocateCalls int
	verifyCalls   int
	updateCalls   int
	releaseCalls  int
	metadata      map[string][2]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		ticket:   videohost.Ticket{VideoID: "v123", UploadEndpoint: "https://host/up/v123"},
		metadata: make(map[string][2]string),
	}
}

func (h *fakeHost) wait(ctx context.Context) error {
	h.mu.Lock()
	block := h.block
	h.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *fakeHost) AllocateUploadTicket(ctx context.Context, req videohost.TicketRequest) (videohost.Ticket, error) {
	h.mu.Lock()
	h.allocateCalls++
	h.mu.Unlock()
	if err := h.wait(ctx); err != nil {
		return videohost.Ticket{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ticket, h.allocateErr
}

func (h *fakeHost) VerifyUploadComplete(ctx context.Context, videoID string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	if err := h.wait(ctx); err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.complete, h.verifyErr
}

func (h *fakeHost) UpdateMetadata(ctx context.Context, videoID, name, description string) error {
	h.mu.Lock()
	h.updateCalls++
	h.mu.Unlock()
	if err := h.wait(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.updateErr != nil {
		return h.updateErr
	}
	h.metadata[videoID] = [2]string{name, description}
	return nil
}

func (h *fakeHost) ReleaseTicket(ctx context.Context, videoID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaseCalls++
	return h.releaseErr
}

func (h *fakeHost) totalCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocateCalls + h.verifyCalls + h.updateCalls + h.releaseCalls
}

type recordingPublisher struct {
	mu     sync.Mutex
	states []types.SessionState
}

func (p *recordingPublisher) PublishSessionChanged(session types.UploadSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, session.State)
}

func newTestCoordinator(t *testing.T, host *fakeHost, opts ...Option) (*Coordinator, *memory.Memory) {
	t.Helper()
	store := memory.New()
	ids := 0
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("s%d", ids)
		}),
	}
	return NewCoordinator(host, store, append(base, opts...)...), store
}

// waitForVerify returns once a completion holds the session lock and is inside
// the host call.
func waitForVerify(t *testing.T, host *fakeHost) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		host.mu.Lock()
		calls := host.verifyCalls
		host.mu.Unlock()
		if calls > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("completion never reached the host")
		}
		time.Sleep(time.Millisecond)
	}
}

// hookStore runs beforeSave once, ahead of the next SaveSession, and can be
// told to fail saves.
type hookStore struct {
	*memory.Memory
	beforeSave func()
	saveErr    error
}

func (s *hookStore) SaveSession(ctx context.Context, session types.UploadSession) error {
	if hook := s.beforeSave; hook != nil {
		s.beforeSave = nil
		hook()
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Memory.SaveSession(ctx, session)
}

func createIntroSession(t *testing.T, c *Coordinator) types.UploadSession {
	t.Helper()
	session, err := c.CreateSession(context.Background(), CreateRequest{
		SizeBytes: 1048576,
		Name:      "Intro Lecture",
		Privacy:   types.PrivacyUnlisted,
	})
	if err != nil {
		t.Fatalf("Unexpected error creating session: %v", err)
	}
	return session
}

func TestCreateSession(t *testing.T) {
	host := newFakeHost()
	c, store := newTestCoordinator(t, host)

	session := createIntroSession(t, c)

	if session.State != types.StateCreated {
		t.Fatalf("Expected state created, got %q", session.State)
	}
	if session.RemoteVideoID != "v123" {
		t.Fatalf("Expected remote video id v123, got %q", session.RemoteVideoID)
	}
	if session.UploadEndpoint == "" {
		t.Fatal("Expected a non-empty upload endpoint")
	}

	stored, err := store.LoadSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Expected session to be persisted: %v", err)
	}
	if stored.RemoteVideoID != "v123" || stored.State != types.StateCreated {
		t.Fatalf("unexpected stored session %+v", stored)
	}
}

func TestCreateSession_DefaultPrivacy(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeHost())

	session, err := c.CreateSession(context.Background(), CreateRequest{SizeBytes: 10, Name: "x"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.Privacy != types.PrivacyUnlisted {
		t.Fatalf("Expected unlisted privacy, got %q", session.Privacy)
	}
}

func TestCreateSession_InvalidArgument(t *testing.T) {
	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"negative size", CreateRequest{SizeBytes: -5, Name: "x", Privacy: types.PrivacyUnlisted}},
		{"zero size", CreateRequest{SizeBytes: 0, Name: "x", Privacy: types.PrivacyUnlisted}},
		{"blank name", CreateRequest{SizeBytes: 10, Name: "   ", Privacy: types.PrivacyUnlisted}},
		{"bad privacy", CreateRequest{SizeBytes: 10, Name: "x", Privacy: "secret"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host := newFakeHost()
			c, _ := newTestCoordinator(t, host)

			_, err := c.CreateSession(context.Background(), tc.req)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Expected InvalidArgument, got %v", err)
			}
			if calls := host.totalCalls(); calls != 0 {
				t.Fatalf("Expected zero host calls, got %d", calls)
			}
		})
	}
}

func TestCreateSession_RemoteAllocationFailed(t *testing.T) {
	host := newFakeHost()
	host.allocateErr = &videohost.RemoteError{Op: "create upload ticket", StatusCode: 403, Body: "quota exceeded"}
	c, store := newTestCoordinator(t, host)

	_, err := c.CreateSession(context.Background(), CreateRequest{SizeBytes: 10, Name: "x"})
	if !errors.Is(err, ErrRemoteAllocationFailed) {
		t.Fatalf("Expected RemoteAllocationFailed, got %v", err)
	}

	var remoteErr *videohost.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Body != "quota exceeded" {
		t.Fatalf("Expected host diagnostics to be attached, got %v", err)
	}

	if n, _ := store.Count(context.Background(), storage.CountActiveUploads); n != 0 {
		t.Fatalf("Expected no session persisted, got %d", n)
	}
}

func TestCreateSession_RemoteTimeout(t *testing.T) {
	host := newFakeHost()
	host.block = make(chan struct{})
	c, store := newTestCoordinator(t, host, WithRemoteTimeout(20*time.Millisecond))

	_, err := c.CreateSession(context.Background(), CreateRequest{SizeBytes: 10, Name: "x"})
	if !errors.Is(err, ErrRemoteTimeout) {
		t.Fatalf("Expected RemoteTimeout, got %v", err)
	}
	if errors.Is(err, ErrRemoteAllocationFailed) {
		t.Fatal("RemoteTimeout must be distinct from RemoteAllocationFailed")
	}
	if n, _ := store.Count(context.Background(), storage.CountActiveUploads); n != 0 {
		t.Fatalf("Expected no session persisted, got %d", n)
	}
}

func TestRecordProgress_HappyPath(t *testing.T) {
	host := newFakeHost()
	host.complete = true
	publisher := &recordingPublisher{}
	c, _ := newTestCoordinator(t, host, WithPublisher(publisher))
	ctx := context.Background()

	createIntroSession(t, c)

	session, err := c.RecordProgress(ctx, "s1", 500000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.State != types.StateInProgress || session.BytesConfirmed != 500000 {
		t.Fatalf("unexpected session after first progress: %+v", session)
	}
	if session.LastProgressAt == nil {
		t.Fatal("Expected last progress time to be set")
	}

	if _, err := c.RecordProgress(ctx, "s1", 1048576); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	session, err = c.CompleteSession(ctx, "s1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.State != types.StateCompleted {
		t.Fatalf("Expected state completed, got %q", session.State)
	}
	if session.RemoteVideoID != "v123" {
		t.Fatalf("Expected remote video id on completed session, got %q", session.RemoteVideoID)
	}

	want := []types.SessionState{types.StateCreated, types.StateInProgress, types.StateInProgress, types.StateCompleted}
	if len(publisher.states) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), publisher.states)
	}
	for i := range want {
		if publisher.states[i] != want[i] {
			t.Fatalf("event %d: expected %q, got %q", i, want[i], publisher.states[i])
		}
	}
}

func TestRecordProgress_NonMonotonic(t *testing.T) {
	c, store := newTestCoordinator(t, newFakeHost())
	ctx := context.Background()
	createIntroSession(t, c)

	if _, err := c.RecordProgress(ctx, "s1", 600); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	before, _ := store.LoadSession(ctx, "s1")

	_, err := c.RecordProgress(ctx, "s1", 599)
	if !errors.Is(err, ErrNonMonotonicProgress) {
		t.Fatalf("Expected NonMonotonicProgress, got %v", err)
	}

	after, _ := store.LoadSession(ctx, "s1")
	if after.BytesConfirmed != before.BytesConfirmed || after.State != before.State || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("Expected session unchanged, before %+v after %+v", before, after)
	}

	// repeating the same value is not a regression
	if _, err := c.RecordProgress(ctx, "s1", 600); err != nil {
		t.Fatalf("Unexpected error on repeated value: %v", err)
	}
}

func TestRecordProgress_Validation(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeHost())
	ctx := context.Background()
	createIntroSession(t, c)

	if _, err := c.RecordProgress(ctx, "s1", -1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected InvalidArgument for negative bytes, got %v", err)
	}
	if _, err := c.RecordProgress(ctx, "s1", 1048577); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected InvalidArgument beyond declared size, got %v", err)
	}
	if _, err := c.RecordProgress(ctx, "missing", 1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected SessionNotFound, got %v", err)
	}
}

func TestTerminalStatesRejectMutation(t *testing.T) {
	terminal := map[string]func(c *Coordinator, host *fakeHost){
		"completed": func(c *Coordinator, host *fakeHost) {
			host.complete = true
			c.CompleteSession(context.Background(), "s1")
		},
		"cancelled": func(c *Coordinator, host *fakeHost) {
			c.CancelSession(context.Background(), "s1")
		},
		"failed": func(c *Coordinator, host *fakeHost) {
			host.verifyErr = videohost.ErrUploadFailed
			c.CompleteSession(context.Background(), "s1")
			host.verifyErr = nil
		},
	}

	for name, reach := range terminal {
		t.Run(name, func(t *testing.T) {
			host := newFakeHost()
			c, _ := newTestCoordinator(t, host)
			ctx := context.Background()
			createIntroSession(t, c)
			reach(c, host)

			session, err := c.GetSession(ctx, "s1")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(session.State) != name {
				t.Fatalf("Expected state %s, got %s", name, session.State)
			}

			if _, err := c.RecordProgress(ctx, "s1", 10); !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("RecordProgress: expected InvalidStateTransition, got %v", err)
			}
			if _, err := c.CompleteSession(ctx, "s1"); !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("CompleteSession: expected InvalidStateTransition, got %v", err)
			}
			if _, err := c.CancelSession(ctx, "s1"); !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("CancelSession: expected InvalidStateTransition, got %v", err)
			}
		})
	}
}

func TestCompleteSession_Incomplete(t *testing.T) {
	host := newFakeHost()
	c, _ := newTestCoordinator(t, host)
	ctx := context.Background()
	createIntroSession(t, c)
	c.RecordProgress(ctx, "s1", 1000)

	session, err := c.CompleteSession(ctx, "s1")
	if !errors.Is(err, ErrUploadIncomplete) {
		t.Fatalf("Expected UploadIncomplete, got %v", err)
	}
	if session.State != types.StateInProgress {
		t.Fatalf("Expected state to stay in_progress, got %q", session.State)
	}

	// caller retries after more progress
	host.mu.Lock()
	host.complete = true
	host.mu.Unlock()
	c.RecordProgress(ctx, "s1", 1048576)
	if session, err = c.CompleteSession(ctx, "s1"); err != nil || session.State != types.StateCompleted {
		t.Fatalf("Expected completion on retry, got %+v, %v", session, err)
	}
}

func TestCompleteSession_FromCreated(t *testing.T) {
	host := newFakeHost()
	host.complete = true
	c, _ := newTestCoordinator(t, host)
	createIntroSession(t, c)

	session, err := c.CompleteSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.State != types.StateCompleted {
		t.Fatalf("Expected completed, got %q", session.State)
	}
}

func TestCompleteSession_HostErrors(t *testing.T) {
	t.Run("transient error keeps state", func(t *testing.T) {
		host := newFakeHost()
		host.verifyErr = &videohost.RemoteError{Op: "verify upload", StatusCode: 500, Body: "boom"}
		c, store := newTestCoordinator(t, host)
		createIntroSession(t, c)

		_, err := c.CompleteSession(context.Background(), "s1")
		if !errors.Is(err, ErrRemoteVerificationFailed) {
			t.Fatalf("Expected RemoteVerificationFailed, got %v", err)
		}
		stored, _ := store.LoadSession(context.Background(), "s1")
		if stored.State != types.StateCreated {
			t.Fatalf("Expected state created, got %q", stored.State)
		}
	})

	t.Run("missing video fails session", func(t *testing.T) {
		host := newFakeHost()
		host.verifyErr = videohost.ErrNotFound
		c, store := newTestCoordinator(t, host)
		createIntroSession(t, c)

		_, err := c.CompleteSession(context.Background(), "s1")
		if !errors.Is(err, ErrRemoteVerificationFailed) {
			t.Fatalf("Expected RemoteVerificationFailed, got %v", err)
		}
		stored, _ := store.LoadSession(context.Background(), "s1")
		if stored.State != types.StateFailed || stored.FailureReason == "" {
			t.Fatalf("Expected failed session with reason, got %+v", stored)
		}
	})

	t.Run("timeout keeps state", func(t *testing.T) {
		host := newFakeHost()
		c, store := newTestCoordinator(t, host, WithRemoteTimeout(20*time.Millisecond))
		createIntroSession(t, c)
		c.RecordProgress(context.Background(), "s1", 100)

		host.mu.Lock()
		host.block = make(chan struct{})
		host.mu.Unlock()

		_, err := c.CompleteSession(context.Background(), "s1")
		if !errors.Is(err, ErrRemoteTimeout) {
			t.Fatalf("Expected RemoteTimeout, got %v", err)
		}
		stored, _ := store.LoadSession(context.Background(), "s1")
		if stored.State != types.StateInProgress {
			t.Fatalf("Expected state in_progress, got %q", stored.State)
		}
	})
}

func TestCancelSession_ReleaseFailureIgnored(t *testing.T) {
	host := newFakeHost()
	host.releaseErr = errors.New("host unavailable")
	c, _ := newTestCoordinator(t, host)
	createIntroSession(t, c)

	session, err := c.CancelSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Expected cancellation to succeed, got %v", err)
	}
	if session.State != types.StateCancelled {
		t.Fatalf("Expected cancelled, got %q", session.State)
	}
	if host.releaseCalls != 1 {
		t.Fatalf("Expected one release call, got %d", host.releaseCalls)
	}
}

func TestUpdateMetadata(t *testing.T) {
	host := newFakeHost()
	c, _ := newTestCoordinator(t, host)
	ctx := context.Background()
	createIntroSession(t, c)

	first, err := c.UpdateMetadata(ctx, "v123", "Intro Lecture", "Course overview")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := c.UpdateMetadata(ctx, "v123", "Intro Lecture", "Course overview")
	if err != nil {
		t.Fatalf("Expected no error on repeated update, got %v", err)
	}
	if first != second {
		t.Fatalf("Expected identical acks, got %+v and %+v", first, second)
	}
	if got := host.metadata["v123"]; got != [2]string{"Intro Lecture", "Course overview"} {
		t.Fatalf("unexpected host metadata %v", got)
	}
}

func TestUpdateMetadata_Errors(t *testing.T) {
	host := newFakeHost()
	c, _ := newTestCoordinator(t, host)
	ctx := context.Background()
	createIntroSession(t, c)

	if _, err := c.UpdateMetadata(ctx, "unknown", "x", ""); !errors.Is(err, ErrUnknownVideoID) {
		t.Fatalf("Expected UnknownVideoId for video without session, got %v", err)
	}
	if _, err := c.UpdateMetadata(ctx, "v123", "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected InvalidArgument, got %v", err)
	}

	host.updateErr = videohost.ErrNotFound
	if _, err := c.UpdateMetadata(ctx, "v123", "x", ""); !errors.Is(err, ErrUnknownVideoID) {
		t.Fatalf("Expected UnknownVideoId from host, got %v", err)
	}

	host.updateErr = &videohost.RemoteError{Op: "update metadata", StatusCode: 400, Body: "name too long"}
	_, err := c.UpdateMetadata(ctx, "v123", "x", "")
	if !errors.Is(err, ErrRemoteUpdateFailed) {
		t.Fatalf("Expected RemoteUpdateFailed, got %v", err)
	}
	if KindOf(err) != KindRemoteUpdateFailed {
		t.Fatalf("Expected kind %s, got %s", KindRemoteUpdateFailed, KindOf(err))
	}
}

func TestUpdateMetadata_RemoteTimeout(t *testing.T) {
	host := newFakeHost()
	c, _ := newTestCoordinator(t, host, WithRemoteTimeout(20*time.Millisecond))
	createIntroSession(t, c)

	host.mu.Lock()
	host.block = make(chan struct{})
	host.mu.Unlock()
	defer close(host.block)

	_, err := c.UpdateMetadata(context.Background(), "v123", "Intro Lecture", "Course overview")
	if !errors.Is(err, ErrRemoteTimeout) {
		t.Fatalf("Expected RemoteTimeout, got %v", err)
	}

	host.mu.Lock()
	defer host.mu.Unlock()
	if host.updateCalls != 1 {
		t.Fatalf("Expected one update call, got %d", host.updateCalls)
	}
	if _, ok := host.metadata["v123"]; ok {
		t.Fatal("Expected no metadata stored after a timeout")
	}
}

func TestConcurrentModificationRejected(t *testing.T) {
	host := newFakeHost()
	host.complete = true
	c, _ := newTestCoordinator(t, host)
	ctx := context.Background()
	createIntroSession(t, c)

	host.mu.Lock()
	host.block = make(chan struct{})
	host.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := c.CompleteSession(ctx, "s1")
		done <- err
	}()

	waitForVerify(t, host)

	if _, err := c.RecordProgress(ctx, "s1", 10); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("Expected ConcurrentModification, got %v", err)
	}

	close(host.block)
	if err := <-done; err != nil {
		t.Fatalf("Unexpected error from completion: %v", err)
	}
}

// The API and the reaper run as separate processes, each with its own local
// locker, over one store.
func TestCompleteLosesToReaperInAnotherProcess(t *testing.T) {
	host := newFakeHost()
	host.complete = true
	store := memory.New()
	quiet := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	api := NewCoordinator(host, store, quiet,
		WithIDGenerator(func() string { return "s1" }),
		WithClock(func() time.Time { return now }))
	reaper := NewCoordinator(host, store, quiet,
		WithClock(func() time.Time { return now.Add(48 * time.Hour) }))
	ctx := context.Background()
	createIntroSession(t, api)

	host.mu.Lock()
	host.block = make(chan struct{})
	host.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := api.CompleteSession(ctx, "s1")
		done <- err
	}()
	waitForVerify(t, host)

	expired, err := reaper.ExpireStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("Expected the reaper to expire 1 session, got %d", expired)
	}

	close(host.block)
	if err := <-done; !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("Expected ConcurrentModification for the late completion, got %v", err)
	}

	stored, _ := store.LoadSession(ctx, "s1")
	if stored.State != types.StateCancelled {
		t.Fatalf("Expected the session to stay cancelled, got %q", stored.State)
	}
	if stored.Version != 2 {
		t.Fatalf("Expected version 2, got %d", stored.Version)
	}
}

func TestReaperLosesToProgressInAnotherProcess(t *testing.T) {
	host := newFakeHost()
	store := &hookStore{Memory: memory.New()}
	quiet := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	api := NewCoordinator(host, store, quiet,
		WithIDGenerator(func() string { return "s1" }),
		WithClock(func() time.Time { return now }))
	reaper := NewCoordinator(host, store, quiet,
		WithClock(func() time.Time { return now.Add(48 * time.Hour) }))
	ctx := context.Background()
	createIntroSession(t, api)

	var progressErr error
	store.beforeSave = func() {
		_, progressErr = api.RecordProgress(ctx, "s1", 4096)
	}

	expired, err := reaper.ExpireStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if progressErr != nil {
		t.Fatalf("Unexpected progress error: %v", progressErr)
	}
	if expired != 0 {
		t.Fatalf("Expected the reaper to give up, got %d expired", expired)
	}

	stored, _ := store.LoadSession(ctx, "s1")
	if stored.State != types.StateInProgress || stored.BytesConfirmed != 4096 {
		t.Fatalf("Expected progress to survive, got %q with %d bytes", stored.State, stored.BytesConfirmed)
	}
	if host.releaseCalls != 0 {
		t.Fatalf("Expected the ticket to be kept, got %d release calls", host.releaseCalls)
	}
}

func TestCancelSession_KeepsTicketWhenSaveFails(t *testing.T) {
	host := newFakeHost()
	store := &hookStore{Memory: memory.New()}
	c := NewCoordinator(host, store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { return "s1" }))
	ctx := context.Background()
	createIntroSession(t, c)

	store.saveErr = errors.New("database unavailable")
	if _, err := c.CancelSession(ctx, "s1"); err == nil {
		t.Fatal("Expected cancellation to fail when the save fails")
	}
	if host.releaseCalls != 0 {
		t.Fatalf("Expected no release before the cancellation is stored, got %d calls", host.releaseCalls)
	}

	stored, _ := store.LoadSession(ctx, "s1")
	if stored.State != types.StateCreated {
		t.Fatalf("Expected session to stay created, got %q", stored.State)
	}
}

func TestExpireStale(t *testing.T) {
	host := newFakeHost()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	c, store := newTestCoordinator(t, host, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	createIntroSession(t, c)
	clock = now.Add(3 * time.Hour)

	expired, err := c.ExpireStale(ctx, 2*time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("Expected 1 expired session, got %d", expired)
	}

	stored, _ := store.LoadSession(ctx, "s1")
	if stored.State != types.StateCancelled || stored.FailureReason == "" {
		t.Fatalf("Expected cancelled session with reason, got %+v", stored)
	}
	if host.releaseCalls != 1 {
		t.Fatalf("Expected ticket release, got %d calls", host.releaseCalls)
	}

	if expired, _ := c.ExpireStale(ctx, 2*time.Hour); expired != 0 {
		t.Fatalf("Expected nothing left to expire, got %d", expired)
	}
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Expected first lock to succeed, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "s1"); ok {
		t.Fatal("Expected second lock on same key to fail")
	}
	if _, ok, _ := l.TryLock(ctx, "s2"); !ok {
		t.Fatal("Expected lock on another key to succeed")
	}

	unlock()
	unlock()
	if _, ok, _ := l.TryLock(ctx, "s1"); !ok {
		t.Fatal("Expected lock to be free after unlock")
	}
}
