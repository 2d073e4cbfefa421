// Package drive wraps the Google Drive v3 API as the remote table store for
// reference data. Authentication uses a service-account key file; files must
// be shared with the service account to be visible.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Client reads files from Google Drive.
type Client struct {
	svc *gdrive.Service
	log *zap.Logger
}

// New builds a client from a service-account credentials file.
func New(ctx context.Context, credentialsFile string, log *zap.Logger) (*Client, error) {
	svc, err := gdrive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc, log: log}, nil
}

// Files lists the files visible to the service account as id → name.
func (c *Client) Files(ctx context.Context) (map[string]string, error) {
	res, err := c.svc.Files.List().
		PageSize(10).
		Fields("nextPageToken, files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list drive files: %w", err)
	}
	files := make(map[string]string, len(res.Files))
	for _, f := range res.Files {
		files[f.Id] = f.Name
	}
	return files, nil
}

// Download fetches the raw bytes of a file. A not-found response usually
// means the file has not been shared with the service account.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download drive file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drive file %s: %w", fileID, err)
	}
	c.log.Debug("drive file downloaded", zap.String("file_id", fileID), zap.Int("bytes", len(data)))
	return data, nil
}

// DownloadTemp writes a file's bytes to a uniquely named temp file and
// returns its path. The caller removes the file when done.
func (c *Client) DownloadTemp(ctx context.Context, fileID string) (string, error) {
	data, err := c.Download(ctx, fileID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(os.TempDir(), uuid.NewString())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write drive temp file: %w", err)
	}
	return path, nil
}
