// Package platform implements C1: pure inspection of the running process's
// OS and architecture, cached on first computation. No component outside
// this package should call runtime.GOOS/GOARCH directly — everyone else
// consumes the normalized values here so the rest of webcore has one place
// that knows about platform-name quirks.
package platform

import (
	"runtime"
	"sync"
)

// OS is one of the normalized operating system identifiers.
type OS string

const (
	MacOS   OS = "macos"
	Windows OS = "windows"
	Linux   OS = "linux"
	Unknown OS = "unknown"
)

var (
	once       sync.Once
	currentOS  OS
	currentArch string
)

func compute() {
	switch runtime.GOOS {
	case "darwin":
		currentOS = MacOS
	case "windows":
		currentOS = Windows
	case "linux":
		currentOS = Linux
	default:
		currentOS = Unknown
	}

	switch runtime.GOARCH {
	case "arm64":
		currentArch = "aarch64"
	case "amd64":
		currentArch = "x86_64"
	case "386":
		currentArch = "x86"
	default:
		currentArch = runtime.GOARCH
	}
}

// CurrentOS returns the normalized OS of the running process.
func CurrentOS() OS {
	once.Do(compute)
	return currentOS
}

// Arch returns the normalized architecture of the running process.
func Arch() string {
	once.Do(compute)
	return currentArch
}

// LibraryFilename returns the platform-conventional shared library filename
// for a given base name, e.g. "webview" -> "libwebview.dylib" on macOS.
func LibraryFilename(base string) string {
	switch CurrentOS() {
	case MacOS:
		return "lib" + base + ".dylib"
	case Windows:
		return base + ".dll"
	default:
		return "lib" + base + ".so"
	}
}

// UpdateTarget returns the "<os>-<arch>" string used to select an update
// artifact from a multi-platform manifest (spec §3, §4.11).
func UpdateTarget() string {
	var osName string
	switch CurrentOS() {
	case MacOS:
		osName = "darwin"
	case Windows:
		osName = "windows"
	case Linux:
		osName = "linux"
	default:
		osName = "unknown"
	}
	return osName + "-" + Arch()
}
