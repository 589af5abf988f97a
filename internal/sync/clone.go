package sync

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldsync-labs/fieldsync/internal/client"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

// CloneOptions tunes a Clone call.
type CloneOptions struct {
	Log         *zap.Logger
	Concurrency int
	Progress    client.ProgressFunc
}

// Clone downloads a full project into dest, which must be empty or absent,
// and initializes it as a workspace with the server manifest cached.
func Clone(dest string, c *client.Client, namespace, name string, opts CloneOptions) (*workspace.Workspace, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	if entries, err := os.ReadDir(dest); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("destination %s is not empty", dest)
	}

	m, err := c.FetchManifest(namespace, name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dest, workspace.DirPerm); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}
	ws, err := workspace.Init(dest, workspace.Config{Name: name, Namespace: namespace})
	if err != nil {
		return nil, err
	}

	var downloaded atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)
	for _, rec := range m.Files {
		g.Go(func() error {
			if err := c.DownloadFile(namespace, name, m.Version, rec, ws.FilePath(rec.Path), opts.Progress); err != nil {
				return err
			}
			downloaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ws.SaveManifest(m); err != nil {
		return nil, err
	}

	opts.Log.Info("clone complete",
		zap.String("project", namespace+"/"+name),
		zap.Int("version", m.Version),
		zap.Int64("files", downloaded.Load()))
	return ws, nil
}
