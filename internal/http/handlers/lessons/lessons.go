package lessons

import (
	"errors"
	"net/http"

	"github.com/princekumarofficial/course-admin-service/internal/lessons"
	"github.com/princekumarofficial/course-admin-service/internal/storage"
	lessonTypes "github.com/princekumarofficial/course-admin-service/internal/types/lessons"
	"github.com/princekumarofficial/course-admin-service/internal/utils/request"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
)

// CreateLesson handles adding a lesson that points at an uploaded video
// @Summary Create a lesson
// @Description Records a lesson in a course. order_index must be unique within the course.
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body lessons.CreateLessonRequest true "Lesson"
// @Success 201 {object} lessons.CreateLessonResponse
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Order index taken or video unavailable"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/lessons [post]
func CreateLesson(svc *lessons.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lessonTypes.CreateLessonRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		lesson, err := svc.CreateLesson(r.Context(), req)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrOrderIndexTaken):
			response.WriteJSON(w, http.StatusConflict, response.KindError("OrderIndexTaken", err))
			return
		case errors.Is(err, lessons.ErrVideoUnavailable):
			response.WriteJSON(w, http.StatusConflict, response.KindError("VideoUnavailable", err))
			return
		default:
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusCreated, lessonTypes.CreateLessonResponse{
			Status:   "created",
			LessonID: lesson.ID,
			Message:  "Lesson created successfully",
		})
	}
}

// ListLessons returns the lessons of a course in order
// @Summary List course lessons
// @Tags lessons
// @Produce json
// @Param course_id path string true "Course ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /admin/courses/{course_id}/lessons [get]
func ListLessons(svc *lessons.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListLessons(r.Context(), r.PathValue("course_id"))
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Lessons fetched successfully", result))
	}
}
