package storage

import (
	"context"
	"errors"
	"time"

	"github.com/princekumarofficial/course-admin-service/internal/types"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrOrderIndexTaken means another lesson of the course already uses the order index.
	ErrOrderIndexTaken = errors.New("order index already used in course")
	// ErrStaleSession means the stored session is no longer at the version the
	// write was based on.
	ErrStaleSession = errors.New("upload session was modified concurrently")
)

// Predicate names one of the counters exposed to the admin dashboard
type Predicate string

const (
	CountCourses          Predicate = "courses"
	CountStudents         Predicate = "students"
	CountVideos           Predicate = "videos"
	CountActiveUploads    Predicate = "active_uploads"
	CountCompletedUploads Predicate = "completed_uploads"
)

var Predicates = []Predicate{CountCourses, CountStudents, CountVideos, CountActiveUploads, CountCompletedUploads}

func (p Predicate) Valid() bool {
	for _, known := range Predicates {
		if p == known {
			return true
		}
	}
	return false
}

type SessionStore interface {
	// SaveSession inserts the session when Version is 1 and otherwise replaces
	// the stored row only if it is still at Version-1. Any other case returns
	// ErrStaleSession.
	SaveSession(ctx context.Context, session types.UploadSession) error
	LoadSession(ctx context.Context, sessionID string) (types.UploadSession, error)
	FindSessionByVideoID(ctx context.Context, videoID string) (types.UploadSession, error)
	// ListStaleSessions returns non-terminal sessions not touched since before.
	ListStaleSessions(ctx context.Context, before time.Time) ([]types.UploadSession, error)
}

type LessonStore interface {
	SaveLessonRecord(ctx context.Context, lesson types.LessonRecord) error
	ListLessons(ctx context.Context, courseID string) ([]types.LessonRecord, error)
}

type Counter interface {
	Count(ctx context.Context, predicate Predicate) (int64, error)
}

type Storage interface {
	SessionStore
	LessonStore
	Counter
}
