// Package fetch downloads the WP-CLI phar when it is not already on disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"bludgeon/internal/util"
)

// Fetcher downloads a single executable artifact from URL.
type Fetcher struct {
	URL    string
	Client *http.Client
}

// New returns a Fetcher using http.DefaultClient.
func New(url string) *Fetcher {
	return &Fetcher{URL: url, Client: http.DefaultClient}
}

// Ensure downloads the artifact to dest unless a file already exists there.
// It reports whether a download happened.
func (f *Fetcher) Ensure(ctx context.Context, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		util.Log.Debugf("WP-CLI already present at %s", dest)
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check %s: %w", dest, err)
	}
	if err := f.download(ctx, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh downloads the artifact to dest, replacing any existing file.
func (f *Fetcher) Refresh(ctx context.Context, dest string) error {
	return f.download(ctx, dest)
}

func (f *Fetcher) download(ctx context.Context, dest string) error {
	util.Log.Infof("Downloading wp-cli script from %s...", f.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request for %s: %w", f.URL, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", f.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %d", f.URL, resp.StatusCode)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0755); err != nil {
		return fmt.Errorf("failed to mark %s executable: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to move download into place at %s: %w", dest, err)
	}

	util.Log.Infof("Saved wp-cli script to %s (%d bytes)", dest, written)
	return nil
}
