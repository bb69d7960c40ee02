// Package upload coordinates resumable video uploads: it allocates tickets on
// the video host, tracks client-reported progress, confirms completion and
// keeps the remote video metadata in line with the lesson.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/videohost"
)

const DefaultRemoteTimeout = 15 * time.Second

// Publisher receives every persisted session transition
type Publisher interface {
	PublishSessionChanged(session types.UploadSession)
}

type Coordinator struct {
	host           videohost.Host
	store          storage.SessionStore
	locks          Locker
	publisher      Publisher
	logger         *slog.Logger
	remoteTimeout  time.Duration
	defaultPrivacy types.Privacy
	now            func() time.Time
	newID          func() string
}

type Option func(*Coordinator)

func WithLocker(l Locker) Option {
	return func(c *Coordinator) { c.locks = l }
}

func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithRemoteTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.remoteTimeout = d }
}

func WithDefaultPrivacy(p types.Privacy) Option {
	return func(c *Coordinator) { c.defaultPrivacy = p }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

func NewCoordinator(host videohost.Host, store storage.SessionStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		host:           host,
		store:          store,
		locks:          NewLocalLocker(),
		logger:         slog.Default(),
		remoteTimeout:  DefaultRemoteTimeout,
		defaultPrivacy: types.PrivacyUnlisted,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type CreateRequest struct {
	SizeBytes int64
	Name      string
	Privacy   types.Privacy
	CreatedBy string
}

// Ack confirms a metadata update on the host
type Ack struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

// CreateSession allocates an upload ticket and persists the new session.
// Nothing is stored unless the host accepted the ticket.
func (c *Coordinator) CreateSession(ctx context.Context, req CreateRequest) (types.UploadSession, error) {
	name := strings.TrimSpace(req.Name)
	privacy := req.Privacy
	if privacy == "" {
		privacy = c.defaultPrivacy
	}

	switch {
	case req.SizeBytes <= 0:
		return types.UploadSession{}, newError(KindInvalidArgument, nil, "declared size must be positive, got %d", req.SizeBytes)
	case name == "":
		return types.UploadSession{}, newError(KindInvalidArgument, nil, "name is required")
	case !privacy.Valid():
		return types.UploadSession{}, newError(KindInvalidArgument, nil, "unknown privacy %q", privacy)
	}

	ticket, err := c.allocate(ctx, videohost.TicketRequest{SizeBytes: req.SizeBytes, Name: name, Privacy: privacy})
	if err != nil {
		return types.UploadSession{}, err
	}

	now := c.now()
	session := types.UploadSession{
		ID:                c.newID(),
		RemoteVideoID:     ticket.VideoID,
		DeclaredSizeBytes: req.SizeBytes,
		UploadEndpoint:    ticket.UploadEndpoint,
		Name:              name,
		Privacy:           privacy,
		State:             types.StateCreated,
		CreatedBy:         req.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}

	if err := c.store.SaveSession(ctx, session); err != nil {
		c.release(ctx, ticket.VideoID)
		return types.UploadSession{}, fmt.Errorf("failed to save upload session: %w", err)
	}

	c.logger.Info("Upload session created",
		slog.String("session_id", session.ID),
		slog.String("video_id", session.RemoteVideoID),
		slog.Int64("declared_size_bytes", session.DeclaredSizeBytes))
	c.publish(session)

	return session, nil
}

func (c *Coordinator) allocate(ctx context.Context, req videohost.TicketRequest) (videohost.Ticket, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	ticket, err := c.host.AllocateUploadTicket(callCtx, req)
	if err != nil {
		if isTimeout(err) {
			return ticket, newError(KindRemoteTimeout, err, "allocating upload ticket")
		}
		return ticket, newError(KindRemoteAllocationFailed, err, "allocating upload ticket")
	}
	if ticket.VideoID == "" || ticket.UploadEndpoint == "" {
		return ticket, newError(KindRemoteAllocationFailed, nil, "host returned an incomplete ticket")
	}
	return ticket, nil
}

// GetSession returns the stored session
func (c *Coordinator) GetSession(ctx context.Context, sessionID string) (types.UploadSession, error) {
	return c.load(ctx, sessionID)
}

// RecordProgress stores the byte count the client has pushed to the host
func (c *Coordinator) RecordProgress(ctx context.Context, sessionID string, bytesConfirmed int64) (types.UploadSession, error) {
	if bytesConfirmed < 0 {
		return types.UploadSession{}, newError(KindInvalidArgument, nil, "bytes confirmed must not be negative")
	}

	return c.mutate(ctx, sessionID, func(session *types.UploadSession) error {
		if bytesConfirmed < session.BytesConfirmed {
			return newError(KindNonMonotonicProgress, nil, "%d bytes already confirmed, got %d", session.BytesConfirmed, bytesConfirmed)
		}
		if bytesConfirmed > session.DeclaredSizeBytes {
			return newError(KindInvalidArgument, nil, "%d bytes exceeds declared size %d", bytesConfirmed, session.DeclaredSizeBytes)
		}

		now := c.now()
		session.State = types.StateInProgress
		session.BytesConfirmed = bytesConfirmed
		session.LastProgressAt = &now
		return nil
	})
}

// CompleteSession asks the host whether all bytes arrived and, if so, marks
// the session completed.
func (c *Coordinator) CompleteSession(ctx context.Context, sessionID string) (types.UploadSession, error) {
	return c.mutate(ctx, sessionID, func(session *types.UploadSession) error {
		callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
		defer cancel()

		done, err := c.host.VerifyUploadComplete(callCtx, session.RemoteVideoID)
		switch {
		case err == nil:
		case isTimeout(err):
			return newError(KindRemoteTimeout, err, "verifying upload %s", session.RemoteVideoID)
		case errors.Is(err, videohost.ErrNotFound), errors.Is(err, videohost.ErrUploadFailed):
			session.State = types.StateFailed
			session.FailureReason = err.Error()
			return &commitThenFail{err: newError(KindRemoteVerificationFailed, err, "verifying upload %s", session.RemoteVideoID)}
		default:
			return newError(KindRemoteVerificationFailed, err, "verifying upload %s", session.RemoteVideoID)
		}

		if !done {
			return newError(KindUploadIncomplete, nil, "host has not received all %d bytes", session.DeclaredSizeBytes)
		}

		session.State = types.StateCompleted
		session.BytesConfirmed = session.DeclaredSizeBytes
		return nil
	})
}

// CancelSession moves a live session to cancelled. The host ticket is
// released once the cancellation is stored; that release is best-effort and
// never fails the call.
func (c *Coordinator) CancelSession(ctx context.Context, sessionID string) (types.UploadSession, error) {
	return c.cancel(ctx, sessionID, "")
}

func (c *Coordinator) cancel(ctx context.Context, sessionID, reason string) (types.UploadSession, error) {
	session, err := c.mutate(ctx, sessionID, func(session *types.UploadSession) error {
		session.State = types.StateCancelled
		session.FailureReason = reason
		return nil
	})
	if err != nil {
		return session, err
	}
	if session.RemoteVideoID != "" {
		c.release(ctx, session.RemoteVideoID)
	}
	return session, nil
}

func (c *Coordinator) release(ctx context.Context, videoID string) {
	callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	if err := c.host.ReleaseTicket(callCtx, videoID); err != nil {
		c.logger.Warn("Failed to release upload ticket",
			slog.String("video_id", videoID),
			slog.String("error", err.Error()))
	}
}

// UpdateMetadata pushes name and description to the host. An empty
// description keeps the one the host has. It does not touch the session and
// can be retried freely.
func (c *Coordinator) UpdateMetadata(ctx context.Context, remoteVideoID, name, description string) (Ack, error) {
	name = strings.TrimSpace(name)
	if remoteVideoID == "" {
		return Ack{}, newError(KindInvalidArgument, nil, "video id is required")
	}
	if name == "" {
		return Ack{}, newError(KindInvalidArgument, nil, "name is required")
	}

	if _, err := c.store.FindSessionByVideoID(ctx, remoteVideoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Ack{}, newError(KindUnknownVideoID, nil, "no upload session for video %s", remoteVideoID)
		}
		return Ack{}, fmt.Errorf("failed to look up session for video %s: %w", remoteVideoID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	err := c.host.UpdateMetadata(callCtx, remoteVideoID, name, description)
	switch {
	case err == nil:
	case isTimeout(err):
		return Ack{}, newError(KindRemoteTimeout, err, "updating metadata of %s", remoteVideoID)
	case errors.Is(err, videohost.ErrNotFound):
		return Ack{}, newError(KindUnknownVideoID, err, "host has no video %s", remoteVideoID)
	default:
		return Ack{}, newError(KindRemoteUpdateFailed, err, "updating metadata of %s", remoteVideoID)
	}

	return Ack{VideoID: remoteVideoID, Status: "updated"}, nil
}

// ExpireStale cancels sessions that saw no activity for idleFor and returns
// how many were cancelled. Sessions locked by a live request are skipped.
func (c *Coordinator) ExpireStale(ctx context.Context, idleFor time.Duration) (int, error) {
	stale, err := c.store.ListStaleSessions(ctx, c.now().Add(-idleFor))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	expired := 0
	for _, session := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}

		_, err := c.cancel(ctx, session.ID, "expired after "+idleFor.String()+" without activity")
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrInvalidStateTransition):
		default:
			c.logger.Error("Failed to expire upload session",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()))
		}
	}
	return expired, nil
}

// commitThenFail makes mutate persist the modified session and still return err.
type commitThenFail struct {
	err error
}

func (e *commitThenFail) Error() string { return e.err.Error() }

// mutate runs fn on a locked, non-terminal session and saves the result when
// fn succeeds. On any other error the stored session is left untouched. The
// save only lands if the stored version is still the one that was loaded.
func (c *Coordinator) mutate(ctx context.Context, sessionID string, fn func(*types.UploadSession) error) (types.UploadSession, error) {
	unlock, ok, err := c.locks.TryLock(ctx, sessionID)
	if err != nil {
		return types.UploadSession{}, fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	if !ok {
		return types.UploadSession{}, newError(KindConcurrentModification, nil, "session %s is being modified", sessionID)
	}
	defer unlock()

	session, err := c.load(ctx, sessionID)
	if err != nil {
		return types.UploadSession{}, err
	}
	if session.State.Terminal() {
		return session, newError(KindInvalidStateTransition, nil, "session %s is %s", sessionID, session.State)
	}

	updated := session
	fnErr := fn(&updated)

	var commit *commitThenFail
	if fnErr != nil && !errors.As(fnErr, &commit) {
		return session, fnErr
	}

	updated.UpdatedAt = c.now()
	updated.Version = session.Version + 1
	if err := c.store.SaveSession(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrStaleSession) {
			return session, newError(KindConcurrentModification, err, "session %s changed while %s was applied", sessionID, updated.State)
		}
		return session, fmt.Errorf("failed to save upload session: %w", err)
	}

	c.logger.Info("Upload session updated",
		slog.String("session_id", updated.ID),
		slog.String("from", string(session.State)),
		slog.String("to", string(updated.State)),
		slog.Int64("bytes_confirmed", updated.BytesConfirmed))
	c.publish(updated)

	if commit != nil {
		return updated, commit.err
	}
	return updated, nil
}

func (c *Coordinator) load(ctx context.Context, sessionID string) (types.UploadSession, error) {
	session, err := c.store.LoadSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return session, newError(KindSessionNotFound, nil, "session %s", sessionID)
		}
		return session, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return session, nil
}

func (c *Coordinator) publish(session types.UploadSession) {
	if c.publisher != nil {
		c.publisher.PublishSessionChanged(session)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
