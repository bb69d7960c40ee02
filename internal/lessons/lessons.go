// Package lessons records course lessons that point at uploaded videos.
package lessons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/types/lessons"
)

// ErrVideoUnavailable means the referenced video belongs to a cancelled or
// failed upload session.
var ErrVideoUnavailable = errors.New("video upload was cancelled or failed")

type Store interface {
	storage.LessonStore
	FindSessionByVideoID(ctx context.Context, videoID string) (types.UploadSession, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// CreateLesson stores a lesson for an already validated request. Videos
// uploaded outside this service have no session and are accepted as is.
func (s *Service) CreateLesson(ctx context.Context, req lessons.CreateLessonRequest) (types.LessonRecord, error) {
	videoType := req.VideoType
	if videoType == "" {
		videoType = types.VideoTypeVimeo
	}

	session, err := s.store.FindSessionByVideoID(ctx, req.VimeoID)
	switch {
	case err == nil:
		if session.State == types.StateCancelled || session.State == types.StateFailed {
			return types.LessonRecord{}, fmt.Errorf("%w: session %s is %s", ErrVideoUnavailable, session.ID, session.State)
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return types.LessonRecord{}, fmt.Errorf("failed to look up upload session: %w", err)
	}

	lesson := types.LessonRecord{
		ID:          s.newID(),
		Title:       req.Title,
		Description: req.Description,
		CourseID:    req.CourseID,
		Video: types.VideoReference{
			ID:   req.VimeoID,
			Type: videoType,
			URL:  req.VideoURL,
		},
		CreatedAt: s.now().UTC(),
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}

	if err := s.store.SaveLessonRecord(ctx, lesson); err != nil {
		return types.LessonRecord{}, err
	}

	s.logger.Info("lesson created",
		slog.String("lesson_id", lesson.ID),
		slog.String("course_id", lesson.CourseID),
		slog.Int("order_index", lesson.OrderIndex),
		slog.String("video_id", lesson.Video.ID))

	return lesson, nil
}

func (s *Service) ListLessons(ctx context.Context, courseID string) ([]types.LessonRecord, error) {
	return s.store.ListLessons(ctx, courseID)
}
