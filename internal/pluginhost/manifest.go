// Package pluginhost implements the out-of-process half of C8 discovery
// source 3: external plugin artifacts. Spec §4.8 leaves "platform-specific
// dynamic code loading" deliberately unspecified and notes it "may be
// disabled in a fully static build" — Go's native plugin package is
// Linux/macOS-only and locked to the exact toolchain that built the host,
// which rules it out for a general third-party plugin ecosystem. Instead
// each external plugin ships as its own executable, spawned as a
// subprocess that dials back over a loopback WebSocket and authenticates
// with a short-lived JWT minted for that one spawn.
package pluginhost

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/webcore-dev/webcore/internal/apperr"
)

// Manifest is the plugin.yaml contract an external plugin artifact
// declares (spec §4.8: "each artifact is expected to declare a plugin
// manifest naming its entry type").
type Manifest struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Dependencies []string `yaml:"dependencies"`
	Entry        string   `yaml:"entry"`
	Permissions  []string `yaml:"permissions"`
}

// LoadManifest reads and parses a plugin.yaml file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, apperr.Wrap(apperr.KindPluginLoad, "reading plugin manifest", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, apperr.Wrap(apperr.KindPluginLoad, "parsing plugin manifest", err)
	}
	if m.Name == "" || m.Entry == "" {
		return Manifest{}, apperr.Newf(apperr.KindPluginLoad, "plugin manifest %s missing name or entry", path)
	}
	return m, nil
}
