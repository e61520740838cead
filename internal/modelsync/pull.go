// Package modelsync installs model bundles published alongside a release.
// A bundle is a tar.gz holding one or more <model>_risk_model.json files,
// published next to a checksums.txt in sha256sum format.
package modelsync

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lifeband/edgeai/internal/inference"
)

var (
	ErrChecksum    = errors.New("checksum verification failed")
	ErrEmptyBundle = errors.New("bundle holds no model files")
)

// Progress reports one step of a pull.
type Progress struct {
	Stage   string
	Message string
}

// Puller downloads and installs model bundles.
type Puller struct {
	client *http.Client
	major  string
}

// Option configures a Puller.
type Option func(*Puller)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Puller) { p.client = c }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(p *Puller) { p.client.Timeout = d }
}

// NewPuller returns a Puller that accepts model files whose schema major
// equals major.
func NewPuller(major string, opts ...Option) *Puller {
	p := &Puller{
		client: &http.Client{Timeout: time.Minute},
		major:  major,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PullInput names the bundle to fetch and where to install it.
type PullInput struct {
	BaseURL string // directory URL holding the bundle and checksums.txt
	Bundle  string // e.g. models-v1.2.0.tar.gz
	Dir     string // model directory
}

// Pull downloads the bundle, verifies its checksum, validates every model
// file it holds and installs them into in.Dir. Nothing is installed unless
// all files validate.
func (p *Puller) Pull(ctx context.Context, in PullInput, progress func(Progress)) ([]inference.Model, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	base := strings.TrimRight(in.BaseURL, "/")

	progress(Progress{Stage: "download", Message: fmt.Sprintf("Downloading %s...", in.Bundle)})
	archive, err := p.download(ctx, base+"/"+in.Bundle)
	if err != nil {
		return nil, fmt.Errorf("download bundle: %w", err)
	}

	progress(Progress{Stage: "verify", Message: "Verifying checksum..."})
	sums, err := p.download(ctx, base+"/checksums.txt")
	if err != nil {
		return nil, fmt.Errorf("download checksums: %w", err)
	}
	want, ok := parseChecksums(sums)[in.Bundle]
	if !ok {
		return nil, fmt.Errorf("no checksum found for %s in checksums.txt", in.Bundle)
	}
	if err := verifyChecksum(archive, want); err != nil {
		return nil, err
	}

	progress(Progress{Stage: "extract", Message: "Extracting model files..."})
	files, err := extractModels(archive)
	if err != nil {
		return nil, fmt.Errorf("extract bundle: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrEmptyBundle
	}

	progress(Progress{Stage: "validate", Message: "Validating model files..."})
	var models []inference.Model
	for _, m := range inference.Models {
		raw, ok := files[m]
		if !ok {
			continue
		}
		if _, err := inference.ParseModelFile(m, raw, p.major); err != nil {
			return nil, fmt.Errorf("%s: %w", inference.ModelFileName(m), err)
		}
		models = append(models, m)
	}

	if err := os.MkdirAll(in.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	for _, m := range models {
		progress(Progress{Stage: "install", Message: fmt.Sprintf("Installing %s...", inference.ModelFileName(m))})
		if err := install(files[m], inference.ModelPath(in.Dir, m)); err != nil {
			return models, fmt.Errorf("install %s: %w", m, err)
		}
	}

	progress(Progress{Stage: "done", Message: fmt.Sprintf("Installed %d model(s)", len(models))})
	return models, nil
}

func (p *Puller) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func parseChecksums(data []byte) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		result[parts[1]] = parts[0]
	}
	return result
}

func verifyChecksum(data []byte, expectedHex string) error {
	h := sha256.Sum256(data)
	if actual := hex.EncodeToString(h[:]); actual != expectedHex {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, expectedHex, actual)
	}
	return nil
}

// extractModels returns the recognized model files in a tar.gz, keyed by
// model. Other entries are ignored.
func extractModels(data []byte) (map[inference.Model][]byte, error) {
	names := make(map[string]inference.Model, len(inference.Models))
	for _, m := range inference.Models {
		names[inference.ModelFileName(m)] = m
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	out := make(map[inference.Model][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		m, ok := names[filepath.Base(hdr.Name)]
		if !ok || hdr.Typeflag != tar.TypeReg {
			continue
		}
		raw, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		out[m] = raw
	}
	return out, nil
}

// install writes data to a temp file beside target, verifies it and renames
// it into place.
func install(data []byte, target string) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".model-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmp.Name())
	if err != nil {
		return fmt.Errorf("re-read temp file: %w", err)
	}
	if sha256.Sum256(written) != sha256.Sum256(data) {
		return fmt.Errorf("%w: temp file changed after write", ErrChecksum)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(tmp.Name(), target)
}
