package updater

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/platform"
)

func TestCompareVersionsDottedSegments(t *testing.T) {
	assert.Equal(t, 1, compareVersions("1.2.3", "1.2.2"))
	assert.Equal(t, -1, compareVersions("1.2", "1.2.1"))
	assert.Equal(t, 0, compareVersions("1.0.0", "1.0"))
	assert.Equal(t, 1, compareVersions("2.0", "1.9.9"))
}

func TestCompareVersionsStripsNonNumeric(t *testing.T) {
	assert.Equal(t, 0, compareVersions("1.2.3-beta", "1.2.3"))
}

func TestCompareVersionsLexicographicFallback(t *testing.T) {
	assert.Equal(t, strCompareSign("abc", "abd"), compareVersions("abc", "abd"))
}

func strCompareSign(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func TestManifestResolveSimpleShape(t *testing.T) {
	m, err := parseManifest([]byte(`{"version":"2.0.0","downloadUrl":"https://x/y.tar.gz","signature":"sig","size":100,"mandatory":true,"releaseDate":"2026-01-02","releaseNotes":"n"}`))
	require.NoError(t, err)
	info, ok := m.resolve(platform.UpdateTarget())
	require.True(t, ok)
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, "https://x/y.tar.gz", info.URL)
	assert.Equal(t, "sig", info.Signature)
	assert.Equal(t, int64(100), info.Size)
	assert.True(t, info.Mandatory)
	assert.Equal(t, "2026-01-02", info.Date)
	assert.Equal(t, "n", info.Notes)
}

func TestManifestResolveMultiPlatformShapeMissingTarget(t *testing.T) {
	m, err := parseManifest([]byte(`{"version":"2.0.0","platforms":{"nonexistent-arch":{"url":"https://x"}}}`))
	require.NoError(t, err)
	_, ok := m.resolve(platform.UpdateTarget())
	assert.False(t, ok)
}

func TestManifestResolveMultiPlatformShapeMatchingTarget(t *testing.T) {
	target := platform.UpdateTarget()
	body := fmt.Sprintf(`{"version":"3.0.0","pub_date":"2026-02-01","platforms":{%q:{"url":"https://x/bin","signature":"sig","size":42}}}`, target)
	m, err := parseManifest([]byte(body))
	require.NoError(t, err)
	info, ok := m.resolve(target)
	require.True(t, ok)
	assert.Equal(t, "3.0.0", info.Version)
	assert.Equal(t, int64(42), info.Size)
	assert.Equal(t, "2026-02-01", info.Date)
	assert.False(t, info.Mandatory, "multi-platform manifests don't carry a mandatory flag")
}

func TestCheckReturnsAbsentOn204(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	u, err := New(Config{Endpoints: []string{srv.URL}, CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	info, err := u.Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCheckReturnsNewerVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":"2.0.0","downloadUrl":"https://example/u.bin","signature":"","size":10}`)
	}))
	defer srv.Close()

	u, err := New(Config{Endpoints: []string{srv.URL}, CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	info, err := u.Check(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "2.0.0", info.Version)
}

func TestCheckReturnsAbsentWhenNotNewer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":"1.0.0","downloadUrl":"https://example/u.bin"}`)
	}))
	defer srv.Close()

	u, err := New(Config{Endpoints: []string{srv.URL}, CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	info, err := u.Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCheckAggregatesErrorWhenAllEndpointsUnreachable(t *testing.T) {
	u, err := New(Config{Endpoints: []string{"http://127.0.0.1:1"}, CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	_, err = u.Check(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpdateCheck))
}

func TestCheckFallsThroughToNextEndpointOnServerError(t *testing.T) {
	var firstHits int
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstHits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := platform.UpdateTarget()
		fmt.Fprintf(w, `{"version":"1.1.0","platforms":{%q:{"url":"https://example/u.bin","signature":"","size":10}}}`, target)
	}))
	defer second.Close()

	u, err := New(Config{Endpoints: []string{first.URL, second.URL}, CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	info, err := u.Check(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "1.1.0", info.Version)
	assert.Equal(t, 1, firstHits, "the failing endpoint must only be contacted once")
}

func TestDownloadWritesFileAndReportsProgress(t *testing.T) {
	payload := []byte("update-bytes-payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	u, err := New(Config{DownloadDir: dir, CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	var lastFraction float64
	path, err := u.Download(context.Background(), UpdateInfo{URL: srv.URL + "/artifact.bin", Size: int64(len(payload))}, func(f float64) {
		lastFraction = f
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "updates", "artifact.bin"), path)
	assert.Equal(t, 1.0, lastFraction)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, path, u.LastDownloadedUpdate())
}

func TestVerifySucceedsWithValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "artifact.bin")
	data := []byte("artifact contents")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	sig := ed25519.Sign(priv, data)

	u, err := New(Config{PublicKeyB64: base64.StdEncoding.EncodeToString(pub), CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	assert.NoError(t, u.Verify(file, base64.StdEncoding.EncodeToString(sig)))
}

func TestVerifyFailsOnTamperedFile(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "artifact.bin")
	require.NoError(t, os.WriteFile(file, []byte("original"), 0o644))
	sig := ed25519.Sign(priv, []byte("original"))

	require.NoError(t, os.WriteFile(file, []byte("tampered!"), 0o644))

	u, err := New(Config{PublicKeyB64: base64.StdEncoding.EncodeToString(pub), CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	err = u.Verify(file, base64.StdEncoding.EncodeToString(sig))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindSignatureVerification))
}

func TestVerifyRefusesMissingSignatureWhenKeyConfigured(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "artifact.bin")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o644))

	u, err := New(Config{PublicKeyB64: base64.StdEncoding.EncodeToString(pub), CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	err = u.Verify(file, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindSignatureVerification))
}

func TestVerifyProceedsWithNoConfiguredKey(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "artifact.bin")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o644))

	u, err := New(Config{CurrentVersion: "1.0.0"}, nil, "")
	require.NoError(t, err)

	assert.NoError(t, u.Verify(file, ""))
	assert.NoError(t, u.Verify(file, "c29tZS1zaWc="))
}

func TestDetectInstallMethodNeverErrors(t *testing.T) {
	assert.NotEmpty(t, DetectInstallMethod())
}
