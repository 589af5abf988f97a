package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

// PushRequest announces the changes a client intends to upload against a
// known base version. The server rejects it when the base is stale.
type PushRequest struct {
	Version string                `json:"version"` // base version, wire form
	Added   []manifest.FileRecord `json:"added,omitempty"`
	Updated []manifest.FileRecord `json:"updated,omitempty"`
	Removed []string              `json:"removed,omitempty"`
}

// PushTransaction is an open server-side push.
type PushTransaction struct {
	ID string `json:"id"`
}

// PushStart opens a push transaction. An idempotency key is generated per
// call so a retried request cannot open a second transaction.
func (c *Client) PushStart(namespace, name string, req PushRequest) (*PushTransaction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling push request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/projects/%s/%s/push",
		c.baseURL, url.PathEscape(namespace), url.PathEscape(name))

	httpReq, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating push request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.deviceID != "" {
		httpReq.Header.Set("X-Device-Id", c.deviceID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("starting push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("server has newer changes — pull before pushing")
	}
	if err := statusErr(resp); err != nil {
		return nil, fmt.Errorf("starting push: %w", err)
	}

	var tx PushTransaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("parsing push transaction: %w", err)
	}

	c.log.Debug("push transaction opened",
		zap.String("project", namespace+"/"+name),
		zap.String("tx", tx.ID))
	return &tx, nil
}

// UploadFile streams one file's contents into an open push transaction.
func (c *Client) UploadFile(namespace, name, txID string, rec manifest.FileRecord, src io.Reader) error {
	u := fmt.Sprintf("%s/v1/projects/%s/%s/push/%s/files/%s",
		c.baseURL,
		url.PathEscape(namespace),
		url.PathEscape(name),
		url.PathEscape(txID),
		escapeFilePath(rec.Path))

	resp, err := c.do(http.MethodPut, u, src, "application/octet-stream")
	if err != nil {
		return fmt.Errorf("uploading %s: %w", rec.Path, err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp); err != nil {
		return fmt.Errorf("uploading %s: %w", rec.Path, err)
	}
	return nil
}

// PushFinish closes the transaction and returns the manifest the server
// produced for the new project version.
func (c *Client) PushFinish(namespace, name, txID string) (*manifest.ProjectManifest, error) {
	u := fmt.Sprintf("%s/v1/projects/%s/%s/push/%s/finish",
		c.baseURL, url.PathEscape(namespace), url.PathEscape(name), url.PathEscape(txID))

	resp, err := c.do(http.MethodPost, u, nil, "")
	if err != nil {
		return nil, fmt.Errorf("finishing push: %w", err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp); err != nil {
		return nil, fmt.Errorf("finishing push: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading push response: %w", err)
	}

	m, diag := manifest.Parse(body)
	if diag != nil {
		c.log.Warn("push response manifest did not parse cleanly", zap.Error(diag))
	}
	return m, nil
}

// PushCancel abandons an open transaction. Best effort — the server also
// expires stale transactions on its own.
func (c *Client) PushCancel(namespace, name, txID string) error {
	u := fmt.Sprintf("%s/v1/projects/%s/%s/push/%s",
		c.baseURL, url.PathEscape(namespace), url.PathEscape(name), url.PathEscape(txID))

	resp, err := c.do(http.MethodDelete, u, nil, "")
	if err != nil {
		return fmt.Errorf("canceling push: %w", err)
	}
	defer resp.Body.Close()
	return statusErr(resp)
}
