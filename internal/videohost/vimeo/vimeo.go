package vimeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/princekumarofficial/course-admin-service/internal/config"
	"github.com/princekumarofficial/course-admin-service/internal/videohost"
)

const (
	acceptHeader = "application/vnd.vimeo.*+json;version=3.4"

	// maxDiagnosticBytes caps how much of an error body is kept.
	maxDiagnosticBytes = 4096
)

// Client talks to the Vimeo REST API using the tus upload approach.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

var _ videohost.Host = (*Client)(nil)

// NewClient creates a Vimeo adapter. Timeouts come from the caller's context,
// so the http.Client carries none of its own.
func NewClient(cfg config.Vimeo, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
	}
}

type createVideoRequest struct {
	Upload  uploadSpec  `json:"upload"`
	Name    string      `json:"name"`
	Privacy privacySpec `json:"privacy"`
}

type uploadSpec struct {
	Approach string `json:"approach"`
	Size     int64  `json:"size"`
}

type privacySpec struct {
	View string `json:"view"`
}

type videoResponse struct {
	URI    string `json:"uri"`
	Upload struct {
		Status     string `json:"status"`
		UploadLink string `json:"upload_link"`
	} `json:"upload"`
}

type metadataRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AllocateUploadTicket creates the video record and returns its tus link
func (c *Client) AllocateUploadTicket(ctx context.Context, req videohost.TicketRequest) (videohost.Ticket, error) {
	body := createVideoRequest{
		Upload:  uploadSpec{Approach: "tus", Size: req.SizeBytes},
		Name:    req.Name,
		Privacy: privacySpec{View: string(req.Privacy)},
	}

	resp, err := c.do(ctx, http.MethodPost, "/me/videos", body)
	if err != nil {
		return videohost.Ticket{}, fmt.Errorf("create upload ticket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return videohost.Ticket{}, remoteError("create upload ticket", resp)
	}

	var video videoResponse
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return videohost.Ticket{}, fmt.Errorf("decode upload ticket: %w", err)
	}

	videoID := videoIDFromURI(video.URI)
	if videoID == "" || video.Upload.UploadLink == "" {
		return videohost.Ticket{}, &videohost.RemoteError{
			Op:         "create upload ticket",
			StatusCode: resp.StatusCode,
			Body:       "response is missing uri or upload_link",
		}
	}

	return videohost.Ticket{VideoID: videoID, UploadEndpoint: video.Upload.UploadLink}, nil
}

// VerifyUploadComplete reads upload.status of the video
func (c *Client) VerifyUploadComplete(ctx context.Context, videoID string) (bool, error) {
	path := "/videos/" + url.PathEscape(videoID) + "?fields=uri,upload.status"

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, fmt.Errorf("verify upload: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, videohost.ErrNotFound
	default:
		return false, remoteError("verify upload", resp)
	}

	var video videoResponse
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return false, fmt.Errorf("decode video: %w", err)
	}

	switch video.Upload.Status {
	case "complete":
		return true, nil
	case "error":
		return false, videohost.ErrUploadFailed
	default:
		return false, nil
	}
}

// UpdateMetadata patches name and description; repeating it is harmless
func (c *Client) UpdateMetadata(ctx context.Context, videoID, name, description string) error {
	resp, err := c.do(ctx, http.MethodPatch, "/videos/"+url.PathEscape(videoID), metadataRequest{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return videohost.ErrNotFound
	default:
		return remoteError("update metadata", resp)
	}
}

// ReleaseTicket deletes the video record reserved for an abandoned upload
func (c *Client) ReleaseTicket(ctx context.Context, videoID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/videos/"+url.PathEscape(videoID), nil)
	if err != nil {
		return fmt.Errorf("release ticket: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return remoteError("release ticket", resp)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "bearer "+c.accessToken)
	req.Header.Set("Accept", acceptHeader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func remoteError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBytes))
	return &videohost.RemoteError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(data)),
	}
}

// videoIDFromURI turns "/videos/123456" into "123456"
func videoIDFromURI(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
