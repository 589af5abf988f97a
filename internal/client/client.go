// Package client talks to the project-sync service: project listings,
// manifest retrieval, file downloads, and push transactions.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/fieldsync-labs/fieldsync/internal/manifest"
)

const userAgent = "fieldsync-client"

// Client is a project-sync service client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	deviceID   string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(cl *Client) {
		cl.log = log
	}
}

// WithDeviceID attaches the installation identifier to every request.
func WithDeviceID(id string) Option {
	return func(cl *Client) {
		cl.deviceID = id
	}
}

// New creates a Client for the server at baseURL. The token may be empty
// for anonymous access to public projects.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// ServerInfo describes the sync service and its client support window.
type ServerInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	MinClient    string `json:"min_client"`
	LatestClient string `json:"latest_client"`
}

// ServerInfo fetches the service descriptor.
func (c *Client) ServerInfo() (*ServerInfo, error) {
	var info ServerInfo
	if err := c.getJSON(c.baseURL+"/v1/info", &info); err != nil {
		return nil, fmt.Errorf("fetching server info: %w", err)
	}
	return &info, nil
}

// ClientVersions returns the latest and minimum client versions the server
// advertises.
func (c *Client) ClientVersions() (latest, min string, err error) {
	info, err := c.ServerInfo()
	if err != nil {
		return "", "", err
	}
	return info.LatestClient, info.MinClient, nil
}

// CheckCompatibility verifies that clientVersion satisfies the server's
// minimum supported client version. Unparseable versions (e.g. "dev"
// builds) pass the check.
func (c *Client) CheckCompatibility(clientVersion string) error {
	info, err := c.ServerInfo()
	if err != nil {
		return err
	}
	if info.MinClient == "" {
		return nil
	}

	min, err := semver.NewVersion(strings.TrimPrefix(info.MinClient, "v"))
	if err != nil {
		return nil
	}
	cur, err := semver.NewVersion(strings.TrimPrefix(clientVersion, "v"))
	if err != nil {
		c.log.Debug("skipping compatibility check for unparseable client version",
			zap.String("version", clientVersion))
		return nil
	}

	if cur.LessThan(min) {
		return fmt.Errorf("client %s is older than the server minimum %s — upgrade required",
			clientVersion, info.MinClient)
	}
	return nil
}

// ProjectSummary is one entry in a project listing.
type ProjectSummary struct {
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	Version   string    `json:"version"`
	Updated   time.Time `json:"updated"`
}

// ListProjects fetches the projects visible to this client, optionally
// restricted to a namespace and filtered by a free-text query.
func (c *Client) ListProjects(namespace, query string) ([]ProjectSummary, error) {
	u := c.baseURL + "/v1/projects"
	params := url.Values{}
	if namespace != "" {
		params.Set("namespace", namespace)
	}
	if query != "" {
		params.Set("q", query)
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var projects []ProjectSummary
	if err := c.getJSON(u, &projects); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// FetchManifest retrieves and parses the current manifest of a project.
// A manifest that transfers but does not parse cleanly is still returned
// (possibly empty) with the diagnostic logged, so callers keep a usable
// view instead of failing the sync flow.
func (c *Client) FetchManifest(namespace, name string) (*manifest.ProjectManifest, error) {
	u := fmt.Sprintf("%s/v1/projects/%s/%s/manifest",
		c.baseURL, url.PathEscape(namespace), url.PathEscape(name))

	resp, err := c.do(http.MethodGet, u, nil, "")
	if err != nil {
		return nil, fmt.Errorf("fetching manifest for %s/%s: %w", namespace, name, err)
	}
	defer resp.Body.Close()

	if err := statusErr(resp); err != nil {
		return nil, fmt.Errorf("fetching manifest for %s/%s: %w", namespace, name, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading manifest body: %w", err)
	}

	m, diag := manifest.Parse(body)
	if diag != nil {
		c.log.Warn("server manifest did not parse cleanly",
			zap.String("project", namespace+"/"+name),
			zap.Error(diag))
	}
	return m, nil
}

// do issues a request with the standard headers applied.
func (c *Client) do(method, u string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}
	return c.httpClient.Do(req)
}

func (c *Client) getJSON(u string, out any) error {
	resp, err := c.do(http.MethodGet, u, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := statusErr(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

// statusErr maps non-2xx responses to errors with actionable messages.
func statusErr(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("access denied (status %d) — check `config set server.token`", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("not found on server")
	default:
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
}

// escapeFilePath escapes a slash-separated manifest path for use in a URL,
// escaping each segment but keeping the separators.
func escapeFilePath(rel string) string {
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
