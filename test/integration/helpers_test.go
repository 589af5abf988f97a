//go:build integration

package integration_test

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldsync-labs/fieldsync/internal/client"
	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

// testEnv isolates the user-level configuration directory.
type testEnv struct {
	HomeDir string // FIELDSYNC_HOME
}

// setupTestEnv redirects the config directory into a temp dir so nothing
// touches the real ~/.fieldsync.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{HomeDir: t.TempDir()}
	t.Setenv("FIELDSYNC_HOME", env.HomeDir)
	return env
}

// projectServer is an in-memory sync service hosting a single project
// (org1/survey) with versioned content and a push transaction cycle.
type projectServer struct {
	t *testing.T

	mu      sync.Mutex
	version int
	files   map[string][]byte

	nextTx   int
	pending  map[string]*client.PushRequest
	uploaded map[string]map[string][]byte

	srv *httptest.Server
}

func startProjectServer(t *testing.T, files map[string]string) *projectServer {
	t.Helper()
	ps := &projectServer{
		t:        t,
		version:  1,
		files:    make(map[string][]byte),
		pending:  make(map[string]*client.PushRequest),
		uploaded: make(map[string]map[string][]byte),
	}
	for path, content := range files {
		ps.files[path] = []byte(content)
	}
	ps.srv = httptest.NewServer(http.HandlerFunc(ps.handle))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *projectServer) client() *client.Client {
	return client.New(ps.srv.URL, "integration-token")
}

func (ps *projectServer) fileContent(path string) (string, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	content, ok := ps.files[path]
	return string(content), ok
}

func (ps *projectServer) currentVersion() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.version
}

func (ps *projectServer) manifest() *manifest.ProjectManifest {
	m := &manifest.ProjectManifest{Name: "survey", Namespace: "org1", Version: ps.version}
	mtime := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	for path, content := range ps.files {
		sum := sha256.Sum256(content)
		m.Files = append(m.Files, manifest.FileRecord{
			Path:     path,
			Checksum: hex.EncodeToString(sum[:]),
			Size:     int64(len(content)),
			MTime:    mtime,
		})
	}
	return m
}

func (ps *projectServer) handle(w http.ResponseWriter, r *http.Request) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/v1/info":
		io.WriteString(w, `{"version":"2.0.0","api_version":"1.0","min_client":"0.1.0","latest_client":"1.0.0"}`)

	case path == "/v1/projects":
		data, _ := json.Marshal([]client.ProjectSummary{
			{Name: "survey", Namespace: "org1", Version: manifest.FormatVersion(ps.version)},
		})
		w.Write(data)

	case path == "/v1/projects/org1/survey/manifest":
		data, err := ps.manifest().Encode()
		if err != nil {
			ps.t.Errorf("encoding manifest: %v", err)
		}
		w.Write(data)

	case strings.HasPrefix(path, "/v1/projects/org1/survey/raw/"):
		rel := strings.TrimPrefix(path, "/v1/projects/org1/survey/raw/")
		content, ok := ps.files[rel]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(content)

	case r.Method == http.MethodPost && path == "/v1/projects/org1/survey/push":
		var req client.PushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Version != manifest.FormatVersion(ps.version) {
			w.WriteHeader(http.StatusConflict)
			return
		}
		ps.nextTx++
		id := fmt.Sprintf("tx-%d", ps.nextTx)
		ps.pending[id] = &req
		ps.uploaded[id] = make(map[string][]byte)
		json.NewEncoder(w).Encode(client.PushTransaction{ID: id})

	case r.Method == http.MethodPut && strings.Contains(path, "/push/") && strings.Contains(path, "/files/"):
		rest := strings.TrimPrefix(path, "/v1/projects/org1/survey/push/")
		id, rel, _ := strings.Cut(rest, "/files/")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, ok := ps.pending[id]; !ok {
			http.NotFound(w, r)
			return
		}
		ps.uploaded[id][rel] = body
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/finish"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/v1/projects/org1/survey/push/"), "/finish")
		req, ok := ps.pending[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		for _, rec := range append(req.Added, req.Updated...) {
			ps.files[rec.Path] = ps.uploaded[id][rec.Path]
		}
		for _, rel := range req.Removed {
			delete(ps.files, rel)
		}
		ps.version++
		delete(ps.pending, id)
		delete(ps.uploaded, id)
		data, _ := ps.manifest().Encode()
		w.Write(data)

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/v1/projects/org1/survey/push/"):
		id := strings.TrimPrefix(path, "/v1/projects/org1/survey/push/")
		delete(ps.pending, id)
		delete(ps.uploaded, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		ps.t.Errorf("unexpected request: %s %s", r.Method, path)
		http.NotFound(w, r)
	}
}

// writeFile creates a file at the given path, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileContent fails unless the file exists with exactly content.
func assertFileContent(t *testing.T, path, content string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if string(data) != content {
		t.Errorf("%s = %q, want %q", path, data, content)
	}
}

// assertFileNotExists fails if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}
