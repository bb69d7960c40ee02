package uploads

// CreateUploadRequest asks for a resumable upload ticket
type CreateUploadRequest struct {
	Size    int64  `json:"size" validate:"required,min=1"`
	Name    string `json:"name" validate:"required"`
	Privacy string `json:"privacy" validate:"omitempty,oneof=anybody unlisted disable nobody contacts users"`
}

// CreateUploadResponse keeps the field names the admin uploader already reads.
// upload_ticket carries the same link as upload_url: the tus approach has a
// single resumable endpoint, session_id identifies the session locally.
type CreateUploadResponse struct {
	SessionID    string `json:"session_id"`
	UploadURL    string `json:"upload_url"`
	UploadTicket string `json:"upload_ticket"`
	VideoID      string `json:"video_id"`
	Status       string `json:"status"`
	State        string `json:"state"`
}

type ProgressRequest struct {
	BytesConfirmed *int64 `json:"bytes_confirmed" validate:"required"`
}

type MetadataUpdateRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type MetadataUpdateResponse struct {
	Status  string `json:"status"`
	VideoID string `json:"video_id"`
}
