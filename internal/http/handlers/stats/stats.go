package stats

import (
	"fmt"
	"net/http"

	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/types/lessons"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
)

// Summary returns every dashboard counter
// @Summary Dashboard counters
// @Tags stats
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/stats [get]
func Summary(counter storage.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := make(map[storage.Predicate]int64, len(storage.Predicates))
		for _, predicate := range storage.Predicates {
			count, err := counter.Count(r.Context(), predicate)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}
			counts[predicate] = count
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Stats fetched successfully", counts))
	}
}

// Count returns a single counter
// @Summary Single dashboard counter
// @Tags stats
// @Produce json
// @Param name path string true "courses, students, videos, active_uploads or completed_uploads"
// @Success 200 {object} lessons.CountResponse
// @Failure 404 {object} response.Response "Unknown counter"
// @Security BearerAuth
// @Router /admin/stats/{name} [get]
func Count(counter storage.Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		predicate := storage.Predicate(r.PathValue("name"))
		if !predicate.Valid() {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(fmt.Errorf("unknown counter %q", predicate)))
			return
		}

		count, err := counter.Count(r.Context(), predicate)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, lessons.CountResponse{Count: count})
	}
}
