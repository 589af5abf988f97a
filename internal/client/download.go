package client

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

// ProgressFunc reports transfer progress. total is -1 when unknown.
type ProgressFunc func(done, total int64)

// DownloadFile streams one manifest file at the given project version into
// destPath, verifying the sha256 checksum against the record before the file
// is moved into place. Parent directories are created as needed.
func (c *Client) DownloadFile(namespace, name string, version int, rec manifest.FileRecord, destPath string, progress ProgressFunc) error {
	u := fmt.Sprintf("%s/v1/projects/%s/%s/raw/%s?version=%s",
		c.baseURL,
		url.PathEscape(namespace),
		url.PathEscape(name),
		escapeFilePath(rec.Path),
		manifest.FormatVersion(version))

	resp, err := c.do(http.MethodGet, u, nil, "")
	if err != nil {
		return fmt.Errorf("downloading %s: %w", rec.Path, err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp); err != nil {
		return fmt.Errorf("downloading %s: %w", rec.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rec.Path, err)
	}

	// Write to a temp file next to the destination so a failed transfer
	// never clobbers an existing copy.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".fieldsync-download-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", rec.Path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	h := sha256.New()
	total := resp.ContentLength
	var done int64

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := tmp.Write(buf[:n]); writeErr != nil {
				tmp.Close()
				return fmt.Errorf("writing %s: %w", rec.Path, writeErr)
			}
			h.Write(buf[:n])
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			tmp.Close()
			return fmt.Errorf("reading download stream for %s: %w", rec.Path, readErr)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", rec.Path, err)
	}

	if rec.Checksum != "" {
		actual := hex.EncodeToString(h.Sum(nil))
		if actual != rec.Checksum {
			return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", rec.Path, rec.Checksum, actual)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("placing %s: %w", rec.Path, err)
	}

	c.log.Debug("downloaded file",
		zap.String("path", rec.Path),
		zap.Int64("bytes", done))
	return nil
}
