package platform

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentOSMatchesRuntimeGOOS(t *testing.T) {
	os := CurrentOS()
	assert.NotEqual(t, Unknown, os, "the test runner's GOOS=%s should normalize to a known OS", runtime.GOOS)
}

func TestLibraryFilenameUsesPlatformConvention(t *testing.T) {
	name := LibraryFilename("webview")
	switch CurrentOS() {
	case MacOS:
		assert.Equal(t, "libwebview.dylib", name)
	case Windows:
		assert.Equal(t, "webview.dll", name)
	default:
		assert.Equal(t, "libwebview.so", name)
	}
}

func TestUpdateTargetIsOSDashArch(t *testing.T) {
	target := UpdateTarget()
	parts := strings.SplitN(target, "-", 2)
	assert.Len(t, parts, 2)
	assert.Equal(t, Arch(), parts[1])
}
