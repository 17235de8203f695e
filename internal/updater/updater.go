// Package updater implements C11: checking configured endpoints for a
// newer version, downloading and Ed25519-verifying the artifact, and
// handing off to an external installer collaborator.
package updater

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/platform"
)

// UpdateInfo describes an available update, resolved for the running
// platform's target.
type UpdateInfo struct {
	Version   string
	Notes     string
	URL       string
	Signature string
	Size      int64
	Mandatory bool
	Date      string
}

// Installer is the out-of-scope platform installer collaborator C11
// delegates to.
type Installer interface {
	Install(path string) error
	Restart() error
}

// ProgressFunc receives download progress as a fraction in [0, 1].
type ProgressFunc func(fraction float64)

// Config configures an Updater (grounded on internal/config.UpdaterConfig).
type Config struct {
	Endpoints      []string
	CurrentVersion string
	PublicKeyB64   string
	Timeout        time.Duration
	DownloadDir    string
}

// Updater checks, downloads, verifies, and installs updates.
type Updater struct {
	cfg            Config
	publicKey      ed25519.PublicKey
	httpClient     *http.Client
	downloadClient *http.Client
	installer      Installer
	userAgent      string
	lastDownloaded atomic.Value // string
	log            zerolog.Logger
}

// New builds an Updater. Passing an empty PublicKeyB64 disables signature
// verification (logged, not an error).
func New(cfg Config, installer Installer, userAgent string) (*Updater, error) {
	var pub ed25519.PublicKey
	if cfg.PublicKeyB64 != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.PublicKeyB64)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpdateCheck, "decoding updater public key", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, apperr.Newf(apperr.KindUpdateCheck, "updater public key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
		}
		pub = ed25519.PublicKey(raw)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = "webcore-updater/1"
	}
	u := &Updater{
		cfg:            cfg,
		publicKey:      pub,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		downloadClient: &http.Client{Timeout: 10 * time.Minute},
		installer:      installer,
		userAgent:      userAgent,
		log:            logging.For("updater"),
	}
	return u, nil
}

// Check tries each configured endpoint in order, substituting template
// variables. Returns (nil, nil) when up to date; an *apperr.Error on
// total failure. A transport-level failure or a non-2xx/204 HTTP
// response only rules out that one endpoint — the next endpoint is still
// consulted (spec's S4: E1 returning HTTP 500 doesn't stop E2 from being
// tried). A 204 is terminal with no further endpoints consulted ("up to
// date", testable property 12); a 200 is terminal once parsed, successful
// or not, matching the spec's "first endpoint whose comparison is
// strictly greater" framing for the success path.
func (u *Updater) Check(ctx context.Context) (*UpdateInfo, error) {
	var lastErr error
	target := platform.UpdateTarget()

	for _, tmpl := range u.cfg.Endpoints {
		endpoint := substitute(tmpl, target, platform.Arch(), u.cfg.CurrentVersion)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("User-Agent", u.userAgent)

		resp, err := u.httpClient.Do(req)
		if err != nil {
			lastErr = err
			u.log.Warn().Err(err).Str("endpoint", endpoint).Msg("update check endpoint unreachable")
			continue
		}

		if resp.StatusCode == http.StatusNoContent {
			resp.Body.Close()
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = apperr.Newf(apperr.KindUpdateCheck, "update endpoint returned status %d", resp.StatusCode)
			u.log.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("update check endpoint returned non-OK status")
			continue
		}

		info, err := u.handleCheckResponse(resp)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		return info, nil
	}

	return nil, apperr.Wrap(apperr.KindUpdateCheck, "all update endpoints failed", lastErr)
}

// handleCheckResponse parses a 200 response's body; the caller has already
// handled 204 and non-OK statuses.
func (u *Updater) handleCheckResponse(resp *http.Response) (*UpdateInfo, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpdateCheck, "reading update manifest", err)
	}
	m, err := parseManifest(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpdateCheck, "parsing update manifest", err)
	}

	target := platform.UpdateTarget()
	info, ok := m.resolve(target)
	if !ok {
		return nil, nil
	}
	if compareVersions(info.Version, u.cfg.CurrentVersion) <= 0 {
		return nil, nil
	}
	return &info, nil
}

func substitute(tmpl, target, arch, currentVersion string) string {
	r := strings.NewReplacer(
		"{{target}}", target,
		"{{arch}}", arch,
		"{{current_version}}", currentVersion,
	)
	return r.Replace(tmpl)
}

// Download streams info.URL into a file under cfg.DownloadDir/updates,
// reporting progress as downloaded/total clamped to 1.0.
func (u *Updater) Download(ctx context.Context, info UpdateInfo, progress ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpdateCheck, "building download request", err)
	}
	req.Header.Set("User-Agent", u.userAgent)

	resp, err := u.downloadClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpdateCheck, "downloading update", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Newf(apperr.KindUpdateCheck, "download returned status %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	dir := filepath.Join(u.cfg.DownloadDir, "updates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.KindUpdateCheck, "creating updates directory", err)
	}
	dest := filepath.Join(dir, downloadFilename(info.URL))

	out, err := os.Create(dest)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpdateCheck, "creating update file", err)
	}
	defer out.Close()

	counter := &progressWriter{total: total, onProgress: progress}
	if _, err := io.Copy(out, io.TeeReader(resp.Body, counter)); err != nil {
		return "", apperr.Wrap(apperr.KindUpdateCheck, "writing downloaded update", err)
	}

	u.lastDownloaded.Store(dest)
	return dest, nil
}

// LastDownloadedUpdate returns the path most recently produced by
// Download, or "" if none.
func (u *Updater) LastDownloadedUpdate() string {
	if v := u.lastDownloaded.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func downloadFilename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "update.bin"
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "update.bin"
	}
	return base
}

type progressWriter struct {
	total      int64
	written    int64
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.onProgress != nil && p.total > 0 {
		fraction := float64(p.written) / float64(p.total)
		if fraction > 1.0 {
			fraction = 1.0
		}
		p.onProgress(fraction)
	}
	return len(b), nil
}

// Verify checks a downloaded artifact's signature against the configured
// public key, per spec §4.11:
//   - public key configured, signature absent or verification fails ->
//     security error (KindSignatureVerification).
//   - public key configured, verification succeeds -> nil.
//   - no public key configured, signature present -> proceed, warn-logged.
//   - no public key configured, signature absent -> proceed, info-logged.
func (u *Updater) Verify(filePath, signatureB64 string) error {
	if u.publicKey == nil {
		if signatureB64 != "" {
			u.log.Warn().Msg("update artifact is signed but no public key is configured; skipping verification")
		} else {
			u.log.Info().Msg("update signature verification is disabled")
		}
		return nil
	}
	if signatureB64 == "" {
		return apperr.New(apperr.KindSignatureVerification, "update artifact has no signature but verification is required")
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return apperr.Wrap(apperr.KindSignatureVerification, "decoding update signature", err)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return apperr.Wrap(apperr.KindSignatureVerification, "reading downloaded update", err)
	}
	if !ed25519.Verify(u.publicKey, data, sig) {
		return apperr.New(apperr.KindSignatureVerification, "update signature verification failed")
	}
	return nil
}

// Install delegates to the configured installer.
func (u *Updater) Install(path string) error {
	if u.installer == nil {
		return apperr.New(apperr.KindUpdateCheck, "no installer configured")
	}
	return u.installer.Install(path)
}

// Restart delegates to the configured installer.
func (u *Updater) Restart() error {
	if u.installer == nil {
		return apperr.New(apperr.KindUpdateCheck, "no installer configured")
	}
	return u.installer.Restart()
}
