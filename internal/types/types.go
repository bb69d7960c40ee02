package types

import "time"

// SessionState is the lifecycle state of an upload session
type SessionState string

const (
	StateCreated    SessionState = "created"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
	StateCancelled  SessionState = "cancelled"
	StateFailed     SessionState = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s SessionState) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Privacy is the view privacy requested from the video host
type Privacy string

const (
	PrivacyAnybody  Privacy = "anybody"
	PrivacyUnlisted Privacy = "unlisted"
	PrivacyDisable  Privacy = "disable"
	PrivacyNobody   Privacy = "nobody"
	PrivacyContacts Privacy = "contacts"
	PrivacyUsers    Privacy = "users"
)

func (p Privacy) Valid() bool {
	switch p {
	case PrivacyAnybody, PrivacyUnlisted, PrivacyDisable, PrivacyNobody, PrivacyContacts, PrivacyUsers:
		return true
	}
	return false
}

// UploadSession tracks one resumable upload from ticket request to completion.
// RemoteVideoID is empty until the host has confirmed the ticket and never
// changes afterwards. Version starts at 1 and grows by one with every saved
// transition.
type UploadSession struct {
	ID                string       `json:"session_id"`
	RemoteVideoID     string       `json:"video_id,omitempty"`
	DeclaredSizeBytes int64        `json:"declared_size_bytes"`
	BytesConfirmed    int64        `json:"bytes_confirmed"`
	UploadEndpoint    string       `json:"upload_url"`
	Name              string       `json:"name"`
	Privacy           Privacy      `json:"privacy"`
	State             SessionState `json:"state"`
	FailureReason     string       `json:"failure_reason,omitempty"`
	CreatedBy         string       `json:"created_by,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	LastProgressAt    *time.Time   `json:"last_progress_at,omitempty"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Version           int64        `json:"version"`
}

const (
	VideoTypeVimeo       = "vimeo"
	VideoTypeObjectStore = "objectstore"
)

// VideoReference points a lesson at a video on a specific host.
type VideoReference struct {
	ID   string `json:"vimeo_id"`
	Type string `json:"video_type"`
	URL  string `json:"video_url"`
}

type LessonRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	CourseID    string         `json:"course_id"`
	OrderIndex  int            `json:"order_index"`
	Video       VideoReference `json:"video"`
	CreatedAt   time.Time      `json:"created_at"`
}

const RoleAdmin = "admin"

// Principal is the authenticated caller
type Principal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
