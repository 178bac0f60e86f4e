// Package storage uploads campaign cover images to a Supabase bucket. It is
// a thin wrapper around an external collaborator; no invariants live here.
package storage

import (
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

type Images struct {
	client  *storage_go.Client
	baseURL string
	bucket  string
}

func NewImages(projectURL, serviceKey, bucket string) *Images {
	base := strings.TrimSuffix(projectURL, "/") + "/storage/v1"
	return &Images{
		client:  storage_go.NewClient(base, serviceKey, nil),
		baseURL: base,
		bucket:  bucket,
	}
}

// UploadCover stores the image under the campaign's id and returns its
// public URL.
func (s *Images) UploadCover(campaignID int64, filename, contentType string, r io.Reader) (string, error) {
	path := fmt.Sprintf("campaigns/%d/%s", campaignID, filename)
	opts := storage_go.FileOptions{ContentType: &contentType}
	if _, err := s.client.UploadFile(s.bucket, path, r, opts); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, path), nil
}
