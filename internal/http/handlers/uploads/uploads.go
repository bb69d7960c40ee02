package uploads

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/course-admin-service/internal/http/middleware"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/types/uploads"
	"github.com/princekumarofficial/course-admin-service/internal/upload"
	"github.com/princekumarofficial/course-admin-service/internal/utils/request"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
)

// StatusForKind maps coordinator failures to HTTP status codes
func StatusForKind(kind upload.Kind) int {
	switch kind {
	case upload.KindInvalidArgument:
		return http.StatusBadRequest
	case upload.KindSessionNotFound, upload.KindUnknownVideoID:
		return http.StatusNotFound
	case upload.KindInvalidStateTransition, upload.KindNonMonotonicProgress,
		upload.KindConcurrentModification, upload.KindUploadIncomplete:
		return http.StatusConflict
	case upload.KindRemoteAllocationFailed, upload.KindRemoteVerificationFailed, upload.KindRemoteUpdateFailed:
		return http.StatusBadGateway
	case upload.KindRemoteTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := upload.KindOf(err)
	status := StatusForKind(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("upload request failed",
			slog.String("path", r.URL.Path),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
	response.WriteJSON(w, status, response.KindError(string(kind), err))
}

// CreateUpload handles ticket allocation for a new resumable upload
// @Summary Create an upload session
// @Description Allocates a tus upload ticket on the video host and records the session
// @Tags uploads
// @Accept json
// @Produce json
// @Param upload body uploads.CreateUploadRequest true "Declared size and video name"
// @Success 201 {object} uploads.CreateUploadResponse
// @Failure 400 {object} response.Response "Invalid argument"
// @Failure 429 {object} response.Response "Rate limited"
// @Failure 502 {object} response.Response "Host rejected the ticket"
// @Failure 504 {object} response.Response "Host timed out"
// @Security BearerAuth
// @Router /admin/vimeo/create-upload [post]
func CreateUpload(coordinator *upload.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.GetPrincipalFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req uploads.CreateUploadRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		session, err := coordinator.CreateSession(r.Context(), upload.CreateRequest{
			SizeBytes: req.Size,
			Name:      req.Name,
			Privacy:   types.Privacy(req.Privacy),
			CreatedBy: principal.UserID,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, uploads.CreateUploadResponse{
			SessionID:    session.ID,
			UploadURL:    session.UploadEndpoint,
			UploadTicket: session.UploadEndpoint,
			VideoID:      session.RemoteVideoID,
			Status:       "created",
			State:        string(session.State),
		})
	}
}

// GetUpload returns a session
// @Summary Get an upload session
// @Tags uploads
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response "Session not found"
// @Security BearerAuth
// @Router /admin/uploads/{id} [get]
func GetUpload(coordinator *upload.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := coordinator.GetSession(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload session fetched", session))
	}
}

// RecordProgress stores the byte count the client has pushed so far
// @Summary Record upload progress
// @Tags uploads
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param progress body uploads.ProgressRequest true "Bytes confirmed"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response "Invalid argument"
// @Failure 404 {object} response.Response "Session not found"
// @Failure 409 {object} response.Response "Non monotonic progress, terminal session or concurrent modification"
// @Security BearerAuth
// @Router /admin/uploads/{id}/progress [post]
func RecordProgress(coordinator *upload.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploads.ProgressRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		session, err := coordinator.RecordProgress(r.Context(), r.PathValue("id"), *req.BytesConfirmed)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Progress recorded", session))
	}
}

// CompleteUpload verifies the upload with the host
// @Summary Complete an upload session
// @Tags uploads
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response "Session not found"
// @Failure 409 {object} response.Response "Upload incomplete or terminal session"
// @Failure 502 {object} response.Response "Verification failed"
// @Failure 504 {object} response.Response "Host timed out"
// @Security BearerAuth
// @Router /admin/uploads/{id}/complete [post]
func CompleteUpload(coordinator *upload.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := coordinator.CompleteSession(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload completed", session))
	}
}

// CancelUpload abandons a session
// @Summary Cancel an upload session
// @Tags uploads
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response "Session not found"
// @Failure 409 {object} response.Response "Terminal session"
// @Security BearerAuth
// @Router /admin/uploads/{id}/cancel [post]
func CancelUpload(coordinator *upload.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := coordinator.CancelSession(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload cancelled", session))
	}
}

// UpdateMetadata pushes a new name and description to the host
// @Summary Update video metadata
// @Tags uploads
// @Accept json
// @Produce json
// @Param video_id path string true "Remote video ID"
// @Param metadata body uploads.MetadataUpdateRequest true "Name and description"
// @Success 200 {object} uploads.MetadataUpdateResponse
// @Failure 400 {object} response.Response "Invalid argument"
// @Failure 404 {object} response.Response "Unknown video"
// @Failure 502 {object} response.Response "Host rejected the update"
// @Failure 504 {object} response.Response "Host timed out"
// @Security BearerAuth
// @Router /admin/vimeo/update-metadata/{video_id} [patch]
func UpdateMetadata(coordinator *upload.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req uploads.MetadataUpdateRequest
		if !request.DecodeJSON(w, r, &req) {
			return
		}

		ack, err := coordinator.UpdateMetadata(r.Context(), r.PathValue("video_id"), req.Name, req.Description)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, uploads.MetadataUpdateResponse{
			Status:  ack.Status,
			VideoID: ack.VideoID,
		})
	}
}
