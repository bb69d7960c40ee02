// Package memory is a process-local Storage used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

type Memory struct {
	mu       sync.RWMutex
	sessions map[string]types.UploadSession
	lessons  map[string]types.LessonRecord
	students map[string]struct{}
}

var _ storage.Storage = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		sessions: make(map[string]types.UploadSession),
		lessons:  make(map[string]types.LessonRecord),
		students: make(map[string]struct{}),
	}
}

// AddStudent registers a student for the students counter.
func (m *Memory) AddStudent(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[userID] = struct{}{}
}

func (m *Memory) SaveSession(_ context.Context, session types.UploadSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[session.ID]
	if existing.Version != session.Version-1 {
		return storage.ErrStaleSession
	}
	if ok && existing.RemoteVideoID != "" {
		session.RemoteVideoID = existing.RemoteVideoID
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *Memory) LoadSession(_ context.Context, sessionID string) (types.UploadSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return types.UploadSession{}, storage.ErrNotFound
	}
	return session, nil
}

func (m *Memory) FindSessionByVideoID(_ context.Context, videoID string) (types.UploadSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.sessions {
		if session.RemoteVideoID == videoID {
			return session, nil
		}
	}
	return types.UploadSession{}, storage.ErrNotFound
}

func (m *Memory) ListStaleSessions(_ context.Context, before time.Time) ([]types.UploadSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stale []types.UploadSession
	for _, session := range m.sessions {
		if !session.State.Terminal() && session.UpdatedAt.Before(before) {
			stale = append(stale, session)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	return stale, nil
}

func (m *Memory) SaveLessonRecord(_ context.Context, lesson types.LessonRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.lessons {
		if existing.ID != lesson.ID && existing.CourseID == lesson.CourseID && existing.OrderIndex == lesson.OrderIndex {
			return storage.ErrOrderIndexTaken
		}
	}
	m.lessons[lesson.ID] = lesson
	return nil
}

func (m *Memory) ListLessons(_ context.Context, courseID string) ([]types.LessonRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lessons := []types.LessonRecord{}
	for _, lesson := range m.lessons {
		if lesson.CourseID == courseID {
			lessons = append(lessons, lesson)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })
	return lessons, nil
}

func (m *Memory) Count(_ context.Context, predicate storage.Predicate) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch predicate {
	case storage.CountCourses:
		courses := make(map[string]struct{})
		for _, lesson := range m.lessons {
			courses[lesson.CourseID] = struct{}{}
		}
		return int64(len(courses)), nil
	case storage.CountStudents:
		return int64(len(m.students)), nil
	case storage.CountVideos:
		var n int64
		for _, lesson := range m.lessons {
			if lesson.Video.URL != "" {
				n++
			}
		}
		return n, nil
	case storage.CountActiveUploads, storage.CountCompletedUploads:
		var n int64
		for _, session := range m.sessions {
			if predicate == storage.CountActiveUploads && !session.State.Terminal() {
				n++
			}
			if predicate == storage.CountCompletedUploads && session.State == types.StateCompleted {
				n++
			}
		}
		return n, nil
	}
	return 0, storage.ErrNotFound
}
