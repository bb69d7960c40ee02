// Package objectstore hosts lesson videos in an S3-compatible bucket. Each
// video is a single object written through a presigned PUT URL, with a JSON
// manifest next to it holding the declared size and the lesson metadata.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/course-admin-service/internal/config"
	"github.com/princekumarofficial/course-admin-service/internal/types"
	"github.com/princekumarofficial/course-admin-service/internal/videohost"
)

type Host struct {
	client     *minio.Client
	bucketName string
	ticketTTL  time.Duration
}

var _ videohost.Host = (*Host)(nil)

// manifest is stored at videos/<id>/manifest.json
type manifest struct {
	VideoID     string        `json:"video_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Privacy     types.Privacy `json:"privacy"`
	SizeBytes   int64         `json:"size_bytes"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewHost creates the MinIO client and makes sure the bucket exists
func NewHost(ctx context.Context, cfg config.MinIO) (*Host, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	host := &Host{
		client:     client,
		bucketName: cfg.BucketName,
		ticketTTL:  cfg.TicketTTL,
	}

	if err := host.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return host, nil
}

func (h *Host) ensureBucket(ctx context.Context) error {
	exists, err := h.client.BucketExists(ctx, h.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = h.client.MakeBucket(ctx, h.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func videoKey(videoID string) string {
	return fmt.Sprintf("videos/%s/source", videoID)
}

func manifestKey(videoID string) string {
	return fmt.Sprintf("videos/%s/manifest.json", videoID)
}

// AllocateUploadTicket writes the manifest and presigns the upload URL
func (h *Host) AllocateUploadTicket(ctx context.Context, req videohost.TicketRequest) (videohost.Ticket, error) {
	videoID := uuid.New().String()

	m := manifest{
		VideoID:   videoID,
		Name:      req.Name,
		Privacy:   req.Privacy,
		SizeBytes: req.SizeBytes,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.putManifest(ctx, m); err != nil {
		return videohost.Ticket{}, err
	}

	presignedURL, err := h.client.PresignedPutObject(ctx, h.bucketName, videoKey(videoID), h.ticketTTL)
	if err != nil {
		// the manifest alone is an orphan, drop it
		_ = h.client.RemoveObject(ctx, h.bucketName, manifestKey(videoID), minio.RemoveObjectOptions{})
		return videohost.Ticket{}, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return videohost.Ticket{VideoID: videoID, UploadEndpoint: presignedURL.String()}, nil
}

// VerifyUploadComplete compares the stored object size with the declared one
func (h *Host) VerifyUploadComplete(ctx context.Context, videoID string) (bool, error) {
	m, err := h.getManifest(ctx, videoID)
	if err != nil {
		return false, err
	}

	info, err := h.client.StatObject(ctx, h.bucketName, videoKey(videoID), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat video object: %w", err)
	}

	if info.Size > m.SizeBytes {
		return false, videohost.ErrUploadFailed
	}

	return info.Size == m.SizeBytes, nil
}

// UpdateMetadata rewrites the manifest with the new name and description
func (h *Host) UpdateMetadata(ctx context.Context, videoID, name, description string) error {
	m, err := h.getManifest(ctx, videoID)
	if err != nil {
		return err
	}

	m.Name = name
	if description != "" {
		m.Description = description
	}

	return h.putManifest(ctx, m)
}

// ReleaseTicket removes both the manifest and whatever bytes arrived
func (h *Host) ReleaseTicket(ctx context.Context, videoID string) error {
	for _, key := range []string{videoKey(videoID), manifestKey(videoID)} {
		err := h.client.RemoveObject(ctx, h.bucketName, key, minio.RemoveObjectOptions{})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

func (h *Host) putManifest(ctx context.Context, m manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = h.client.PutObject(ctx, h.bucketName, manifestKey(m.VideoID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (h *Host) getManifest(ctx context.Context, videoID string) (manifest, error) {
	var m manifest

	obj, err := h.client.GetObject(ctx, h.bucketName, manifestKey(videoID), minio.GetObjectOptions{})
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer obj.Close()

	if err := json.NewDecoder(obj).Decode(&m); err != nil {
		if isNotFound(err) {
			return m, videohost.ErrNotFound
		}
		return m, fmt.Errorf("failed to decode manifest: %w", err)
	}

	return m, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}
