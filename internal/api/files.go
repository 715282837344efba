package api

import (
	"context"
	"fmt"
)

// DriveFile is an uploaded file in the user's personal drive.
type DriveFile struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// UploadFile uploads a file to the user's drive and returns its record. The
// returned id goes into a file message payload when sharing to a group.
func (c *Client) UploadFile(ctx context.Context, userID int64, filename string, content []byte) (*DriveFile, error) {
	var file DriveFile
	path := fmt.Sprintf("/file/upload/%d", userID)
	if err := c.postMultipart(ctx, path, nil, filename, content, &file); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	if file.ID == "" {
		return nil, fmt.Errorf("upload succeeded but response carried no file id")
	}
	return &file, nil
}

// ListFiles returns the files in the user's drive.
func (c *Client) ListFiles(ctx context.Context) ([]DriveFile, error) {
	var files []DriveFile
	if err := c.get(ctx, fmt.Sprintf("/file/viewall/%s", c.Username), &files); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// DownloadURL returns the direct download endpoint for a shared file.
func (c *Client) DownloadURL(fileID string) string {
	return c.url("/file/download/" + fileID)
}

// CopyToDrive copies a shared file into the user's own drive.
func (c *Client) CopyToDrive(ctx context.Context, fileID string, userID int64) error {
	path := fmt.Sprintf("/file/copy-to-drive/%s/%d", fileID, userID)
	if err := c.post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("failed to copy file %s to drive: %w", fileID, err)
	}
	return nil
}
