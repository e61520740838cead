package modelsync

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeband/edgeai/internal/inference"
)

func modelJSON(t *testing.T, m inference.Model) []byte {
	t.Helper()
	n := m.Outputs()
	weights := make([][]float32, n)
	for i := range weights {
		weights[i] = make([]float32, 5)
	}
	raw, err := json.Marshal(inference.ModelFile{
		Name:          m.String(),
		SchemaVersion: "v1.0.0",
		Inputs:        5,
		Outputs:       n,
		Layers: []inference.LayerSpec{{
			Weights:    weights,
			Bias:       make([]float32, n),
			Activation: inference.ActivationSoftmax,
		}},
	})
	require.NoError(t, err)
	return raw
}

func makeBundle(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, data := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "bundle/" + name,
			Mode:     0o644,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func sha(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func serve(t *testing.T, bundle []byte, checksums string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/models.tar.gz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bundle)
	})
	mux.HandleFunc("/releases/checksums.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(checksums))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseChecksums(t *testing.T) {
	got := parseChecksums([]byte("abc123  models.tar.gz\nbadline\n  \nfoo  bar  baz\ndef456  other.tar.gz\n"))
	assert.Equal(t, map[string]string{
		"models.tar.gz": "abc123",
		"other.tar.gz":  "def456",
	}, got)
}

func TestPull_InstallsModels(t *testing.T) {
	bundle := makeBundle(t, map[string][]byte{
		inference.ModelFileName(inference.ModelAnemia):       modelJSON(t, inference.ModelAnemia),
		inference.ModelFileName(inference.ModelPreeclampsia): modelJSON(t, inference.ModelPreeclampsia),
		"README.md": []byte("ignored"),
	})
	srv := serve(t, bundle, fmt.Sprintf("%s  models.tar.gz\n", sha(bundle)))
	dir := filepath.Join(t.TempDir(), "models")

	var stages []string
	models, err := NewPuller("v1").Pull(context.Background(), PullInput{
		BaseURL: srv.URL + "/releases/",
		Bundle:  "models.tar.gz",
		Dir:     dir,
	}, func(p Progress) { stages = append(stages, p.Stage) })
	require.NoError(t, err)

	assert.Equal(t, []inference.Model{inference.ModelAnemia, inference.ModelPreeclampsia}, models)
	assert.Equal(t, "done", stages[len(stages)-1])

	for _, m := range models {
		_, err := os.Stat(inference.ModelPath(dir, m))
		assert.NoError(t, err, m.String())
	}
	_, err = os.Stat(inference.ModelPath(dir, inference.ModelArrhythmia))
	assert.True(t, os.IsNotExist(err))

	// The installed files load.
	b := inference.NewDenseBackend(dir, "v1")
	assert.True(t, b.Init(inference.ModelAnemia))
}

func TestPull_ChecksumMismatch(t *testing.T) {
	bundle := makeBundle(t, map[string][]byte{
		inference.ModelFileName(inference.ModelAnemia): modelJSON(t, inference.ModelAnemia),
	})
	srv := serve(t, bundle, "0000  models.tar.gz\n")
	dir := t.TempDir()

	_, err := NewPuller("v1").Pull(context.Background(), PullInput{BaseURL: srv.URL + "/releases", Bundle: "models.tar.gz", Dir: dir}, nil)
	require.ErrorIs(t, err, ErrChecksum)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPull_MissingChecksumEntry(t *testing.T) {
	bundle := makeBundle(t, map[string][]byte{})
	srv := serve(t, bundle, fmt.Sprintf("%s  other.tar.gz\n", sha(bundle)))

	_, err := NewPuller("v1").Pull(context.Background(), PullInput{BaseURL: srv.URL + "/releases", Bundle: "models.tar.gz", Dir: t.TempDir()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checksum found")
}

func TestPull_EmptyBundle(t *testing.T) {
	bundle := makeBundle(t, map[string][]byte{"notes.txt": []byte("hi")})
	srv := serve(t, bundle, fmt.Sprintf("%s  models.tar.gz\n", sha(bundle)))

	_, err := NewPuller("v1").Pull(context.Background(), PullInput{BaseURL: srv.URL + "/releases", Bundle: "models.tar.gz", Dir: t.TempDir()}, nil)
	require.ErrorIs(t, err, ErrEmptyBundle)
}

func TestPull_InvalidModelInstallsNothing(t *testing.T) {
	bad := modelJSON(t, inference.ModelAnemia) // wrong name for the arrhythmia slot
	bundle := makeBundle(t, map[string][]byte{
		inference.ModelFileName(inference.ModelAnemia):     modelJSON(t, inference.ModelAnemia),
		inference.ModelFileName(inference.ModelArrhythmia): bad,
	})
	srv := serve(t, bundle, fmt.Sprintf("%s  models.tar.gz\n", sha(bundle)))
	dir := t.TempDir()

	_, err := NewPuller("v1").Pull(context.Background(), PullInput{BaseURL: srv.URL + "/releases", Bundle: "models.tar.gz", Dir: dir}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arrhythmia_risk_model.json")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPull_WrongSchemaMajor(t *testing.T) {
	bundle := makeBundle(t, map[string][]byte{
		inference.ModelFileName(inference.ModelAnemia): modelJSON(t, inference.ModelAnemia),
	})
	srv := serve(t, bundle, fmt.Sprintf("%s  models.tar.gz\n", sha(bundle)))

	_, err := NewPuller("v2").Pull(context.Background(), PullInput{BaseURL: srv.URL + "/releases", Bundle: "models.tar.gz", Dir: t.TempDir()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestPull_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewPuller("v1").Pull(context.Background(), PullInput{BaseURL: srv.URL, Bundle: "models.tar.gz", Dir: t.TempDir()}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
