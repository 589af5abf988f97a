// Package sync orchestrates the three project flows — status, pull, and
// push — on top of the manifest, scan, diff, and client packages.
//
// The invariant throughout: the cached manifest in the workspace metadata
// dir always describes the last state both sides agreed on. Local changes
// are the diff from that cache to the working tree; remote changes are the
// diff from the cache to the server manifest.
package sync

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldsync-labs/fieldsync/internal/client"
	"github.com/fieldsync-labs/fieldsync/internal/diff"
	"github.com/fieldsync-labs/fieldsync/internal/manifest"
	"github.com/fieldsync-labs/fieldsync/internal/scan"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

// DefaultConcurrency bounds parallel file transfers.
const DefaultConcurrency = 4

// Syncer runs sync flows for one workspace against one server.
type Syncer struct {
	WS          *workspace.Workspace
	Client      *client.Client
	Log         *zap.Logger
	Concurrency int
}

// New creates a Syncer with default concurrency and a no-op logger.
func New(ws *workspace.Workspace, c *client.Client) *Syncer {
	return &Syncer{
		WS:          ws,
		Client:      c,
		Log:         zap.NewNop(),
		Concurrency: DefaultConcurrency,
	}
}

// Status describes how the working tree and the server have diverged from
// the last-synced state.
type Status struct {
	LocalVersion  int
	RemoteVersion int
	Local         diff.Changes // cached manifest → working tree
	Remote        diff.Changes // cached manifest → server manifest
	Conflicts     []string     // paths changed on both sides
}

// Clean reports whether neither side has changes.
func (s *Status) Clean() bool {
	return s.Local.Empty() && s.Remote.Empty()
}

// LocalStatus diffs the working tree against the cached manifest without
// touching the network.
func (s *Syncer) LocalStatus() (*Status, error) {
	cached := s.WS.CachedManifest()
	local, err := scan.Dir(s.WS.Root, scan.Options{Ignore: s.WS.IgnorePatterns()})
	if err != nil {
		return nil, err
	}
	return &Status{
		LocalVersion: cached.Version,
		Local:        diff.Compare(cached.Files, local),
	}, nil
}

// Status computes local and remote changes plus the conflict overlap.
func (s *Syncer) Status() (*Status, error) {
	st, err := s.LocalStatus()
	if err != nil {
		return nil, err
	}

	remote, err := s.Client.FetchManifest(s.WS.Config.Namespace, s.WS.Config.Name)
	if err != nil {
		return nil, err
	}

	cached := s.WS.CachedManifest()
	st.RemoteVersion = remote.Version
	st.Remote = diff.Compare(cached.Files, remote.Files)
	st.Conflicts = diff.Conflicts(st.Local, st.Remote)
	return st, nil
}

// PullResult summarizes an applied pull.
type PullResult struct {
	Version    int
	Downloaded int
	Deleted    int
	Conflicts  []string // local copies preserved under a conflict name
}

// Pull applies the server's changes to the working tree. Files changed on
// both sides are never overwritten silently: the local copy is first moved
// aside under a conflict name. The cached manifest is replaced by the
// server manifest once all transfers succeed.
func (s *Syncer) Pull() (*PullResult, error) {
	remote, err := s.Client.FetchManifest(s.WS.Config.Namespace, s.WS.Config.Name)
	if err != nil {
		return nil, err
	}

	st, err := s.LocalStatus()
	if err != nil {
		return nil, err
	}
	cached := s.WS.CachedManifest()
	remoteChanges := diff.Compare(cached.Files, remote.Files)
	conflicts := diff.Conflicts(st.Local, remoteChanges)

	result := &PullResult{Version: remote.Version}

	// Preserve conflicted local copies before the server version lands.
	conflicted := make(map[string]bool, len(conflicts))
	for _, path := range conflicts {
		conflicted[path] = true
		src := s.WS.FilePath(path)
		if _, statErr := os.Stat(src); statErr != nil {
			continue // locally deleted, nothing to preserve
		}
		dst := s.WS.ConflictCopyPath(path)
		if err := os.Rename(src, dst); err != nil {
			return nil, fmt.Errorf("preserving conflicted copy of %s: %w", path, err)
		}
		s.Log.Warn("conflicting local changes moved aside",
			zap.String("path", path),
			zap.String("saved_as", dst))
		result.Conflicts = append(result.Conflicts, path)
	}

	// Download added and updated files in parallel.
	var downloaded atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.Concurrency)
	for _, rec := range append(remoteChanges.Added, remoteChanges.Updated...) {
		g.Go(func() error {
			dest := s.WS.FilePath(rec.Path)
			if err := s.Client.DownloadFile(s.WS.Config.Namespace, s.WS.Config.Name, remote.Version, rec, dest, nil); err != nil {
				return err
			}
			downloaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.Downloaded = int(downloaded.Load())

	// Apply removals, keeping files the user touched.
	for _, rec := range remoteChanges.Removed {
		if st.Local.Touches(rec.Path) {
			s.Log.Warn("server removed a locally modified file, keeping local copy",
				zap.String("path", rec.Path))
			continue
		}
		if err := os.Remove(s.WS.FilePath(rec.Path)); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing %s: %w", rec.Path, err)
		}
		result.Deleted++
	}

	if err := s.WS.SaveManifest(remote); err != nil {
		return nil, err
	}

	s.Log.Info("pull complete",
		zap.String("project", s.WS.Ref()),
		zap.Int("version", remote.Version),
		zap.Int("downloaded", result.Downloaded),
		zap.Int("deleted", result.Deleted),
		zap.Int("conflicts", len(result.Conflicts)))
	return result, nil
}

// PushResult summarizes a completed push.
type PushResult struct {
	Version  int
	Uploaded int
	Removed  int
}

// Push uploads local changes as a new project version. The workspace must
// be current with the server — if the server moved past the cached version
// the push is refused and the caller should pull first.
func (s *Syncer) Push() (*PushResult, error) {
	cached := s.WS.CachedManifest()

	remote, err := s.Client.FetchManifest(s.WS.Config.Namespace, s.WS.Config.Name)
	if err != nil {
		return nil, err
	}
	if remote.Version != cached.Version {
		return nil, fmt.Errorf("workspace is at v%d but server is at v%d — pull first",
			cached.Version, remote.Version)
	}

	st, err := s.LocalStatus()
	if err != nil {
		return nil, err
	}
	if st.Local.Empty() {
		return &PushResult{Version: cached.Version}, nil
	}

	removed := make([]string, 0, len(st.Local.Removed))
	for _, rec := range st.Local.Removed {
		removed = append(removed, rec.Path)
	}

	tx, err := s.Client.PushStart(s.WS.Config.Namespace, s.WS.Config.Name, client.PushRequest{
		Version: manifest.FormatVersion(cached.Version),
		Added:   st.Local.Added,
		Updated: st.Local.Updated,
		Removed: removed,
	})
	if err != nil {
		return nil, err
	}

	result := &PushResult{Removed: len(removed)}
	for _, rec := range append(st.Local.Added, st.Local.Updated...) {
		if err := s.uploadOne(tx.ID, rec); err != nil {
			// Abandon the transaction so the server does not hold a
			// half-uploaded version open.
			if cancelErr := s.Client.PushCancel(s.WS.Config.Namespace, s.WS.Config.Name, tx.ID); cancelErr != nil {
				s.Log.Warn("canceling push transaction failed", zap.Error(cancelErr))
			}
			return nil, err
		}
		result.Uploaded++
	}

	newManifest, err := s.Client.PushFinish(s.WS.Config.Namespace, s.WS.Config.Name, tx.ID)
	if err != nil {
		return nil, err
	}
	if err := s.WS.SaveManifest(newManifest); err != nil {
		return nil, err
	}

	result.Version = newManifest.Version
	s.Log.Info("push complete",
		zap.String("project", s.WS.Ref()),
		zap.Int("version", result.Version),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("removed", result.Removed))
	return result, nil
}

func (s *Syncer) uploadOne(txID string, rec manifest.FileRecord) error {
	f, err := os.Open(s.WS.FilePath(rec.Path))
	if err != nil {
		return fmt.Errorf("opening %s for upload: %w", rec.Path, err)
	}
	defer f.Close()
	return s.Client.UploadFile(s.WS.Config.Namespace, s.WS.Config.Name, txID, rec, f)
}
