// Package videohost defines the contract between the upload coordinator and
// the service that actually stores lesson videos.
package videohost

import (
	"context"
	"errors"
	"fmt"

	"github.com/princekumarofficial/course-admin-service/internal/types"
)

var (
	// ErrNotFound is returned when the host has no video with the given id.
	ErrNotFound = errors.New("video not found on host")
	// ErrUploadFailed is returned when the host reports the upload as broken
	// beyond repair.
	ErrUploadFailed = errors.New("host reported upload failure")
)

type TicketRequest struct {
	SizeBytes int64
	Name      string
	Privacy   types.Privacy
}

type Ticket struct {
	VideoID        string
	UploadEndpoint string
}

// Host is implemented by every video-host adapter.
type Host interface {
	AllocateUploadTicket(ctx context.Context, req TicketRequest) (Ticket, error)
	VerifyUploadComplete(ctx context.Context, videoID string) (bool, error)
	// UpdateMetadata leaves the stored description alone when description is empty.
	UpdateMetadata(ctx context.Context, videoID, name, description string) error
	// ReleaseTicket is best-effort; callers log its failure.
	ReleaseTicket(ctx context.Context, videoID string) error
}

// RemoteError carries the host's own diagnostic for a rejected call.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("%s: host returned %d: %s", e.Op, e.StatusCode, e.Body)
}
