package updater

import (
	"os"
	"strings"

	"github.com/webcore-dev/webcore/internal/platform"
)

// InstallMethod identifies how the running binary likely got onto the
// machine, so the app layer can adapt update messaging (a package-manager
// install usually shouldn't self-update at all) — a supplemented feature,
// the distilled spec does not define this but original update tooling
// commonly checks it before offering a self-update.
type InstallMethod string

const (
	InstallUnknown     InstallMethod = "unknown"
	InstallHomebrew    InstallMethod = "homebrew"
	InstallAppImage    InstallMethod = "appimage"
	InstallWindowsMSI  InstallMethod = "windows-msi"
	InstallPortable    InstallMethod = "portable"
)

// DetectInstallMethod inspects the running executable's path and
// environment for install-method fingerprints. It is best-effort: a layout
// with no recognized fingerprint returns InstallPortable, and InstallUnknown
// is returned only when the executable path cannot be determined.
func DetectInstallMethod() InstallMethod {
	exe, err := os.Executable()
	if err != nil {
		return InstallUnknown
	}
	lower := strings.ToLower(exe)

	switch platform.CurrentOS() {
	case platform.MacOS:
		if strings.Contains(lower, "/homebrew/") || strings.Contains(lower, "/cellar/") {
			return InstallHomebrew
		}
	case platform.Linux:
		if os.Getenv("APPIMAGE") != "" || os.Getenv("APPDIR") != "" {
			return InstallAppImage
		}
	case platform.Windows:
		if strings.Contains(lower, `\program files\`) {
			return InstallWindowsMSI
		}
	}
	return InstallPortable
}
