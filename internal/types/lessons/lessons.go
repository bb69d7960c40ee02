package lessons

// CreateLessonRequest mirrors the payload sent by the admin uploader after a
// video has been pushed to the host.
type CreateLessonRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	CourseID    string `json:"course_id" validate:"required"`
	OrderIndex  *int   `json:"order_index" validate:"required,min=0"`
	VideoURL    string `json:"video_url" validate:"required,url"`
	VimeoID     string `json:"vimeo_id" validate:"required"`
	VideoType   string `json:"video_type" validate:"omitempty,oneof=vimeo objectstore"`
}

type CreateLessonResponse struct {
	Status   string `json:"status"`
	LessonID string `json:"lesson_id"`
	Message  string `json:"message"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
