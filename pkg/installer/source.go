package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/pack"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

const defaultFetchTimeout = 30 * time.Second

// Source resolves plugin packages by id, either from a local directory or
// a remote repository.
type Source interface {
	// Resolve fetches the package archive for a plugin id and returns a
	// local path to it. cleanup may be nil.
	Resolve(ctx context.Context, id string) (archivePath string, cleanup func(), err error)

	// Available returns the version the source currently offers for a
	// plugin id.
	Available(ctx context.Context, id string) (string, error)
}

// LocalDirSource serves package archives from a directory of
// <id>.tpkg files.
type LocalDirSource struct {
	dir string
}

// NewLocalDirSource creates a source over a local archive directory.
func NewLocalDirSource(dir string) *LocalDirSource {
	return &LocalDirSource{dir: dir}
}

// Resolve implements Source.
func (s *LocalDirSource) Resolve(ctx context.Context, id string) (string, func(), error) {
	path := filepath.Join(s.dir, id+pack.ArchiveExt)
	if _, err := os.Stat(path); err != nil {
		return "", nil, &plugins.NotFoundError{ID: id}
	}
	return path, nil, nil
}

// Available implements Source.
func (s *LocalDirSource) Available(ctx context.Context, id string) (string, error) {
	path, _, err := s.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	p, err := pack.Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to read offered package: %w", err)
	}
	return p.Manifest.Version, nil
}

// HTTPSource fetches package archives from a remote repository under a
// bounded timeout. Unanswerable fetches fail closed.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source over a remote repository base URL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Resolve implements Source by downloading the archive to a temporary
// file.
func (s *HTTPSource) Resolve(ctx context.Context, id string) (string, func(), error) {
	url := s.baseURL + "/" + id + pack.ArchiveExt

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch package: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil, &plugins.NotFoundError{ID: id}
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("package fetch failed with status: %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "loofi-plugin-*"+pack.ArchiveExt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create download file: %w", err)
	}

	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to download package: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}

	return tmp.Name(), cleanup, nil
}

// Available implements Source.
func (s *HTTPSource) Available(ctx context.Context, id string) (string, error) {
	path, cleanup, err := s.Resolve(ctx, id)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", err
	}

	p, err := pack.Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to read offered package: %w", err)
	}
	return p.Manifest.Version, nil
}
