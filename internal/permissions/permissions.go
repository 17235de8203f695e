// Package permissions implements C9: grant-set matching against a
// command's declared permission requirement.
package permissions

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/logging"
)

// Universal is the grant that matches every permission key.
const Universal = "*"

// Checker holds a mutable grant set and the global enforcement toggle.
type Checker struct {
	mu       sync.RWMutex
	grants   map[string]struct{}
	enforce  bool
	log      zerolog.Logger
}

// NewChecker builds a Checker with the given initial grants. enforce=false
// makes Check log-only: denials are logged but never block dispatch.
func NewChecker(grants []string, enforce bool) *Checker {
	c := &Checker{
		grants:  make(map[string]struct{}, len(grants)),
		enforce: enforce,
		log:     logging.For("permissions"),
	}
	for _, g := range grants {
		c.grants[g] = struct{}{}
	}
	return c
}

// Grant adds a permission key to the grant set.
func (c *Checker) Grant(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[key] = struct{}{}
}

// Revoke removes a permission key from the grant set.
func (c *Checker) Revoke(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.grants, key)
}

// SetEnforcement toggles whether Check blocks on denial or only logs.
func (c *Checker) SetEnforcement(enforce bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enforce = enforce
}

// IsGranted reports whether key is covered by the grant set: an exact
// match, a namespace wildcard ("fs:*" covers "fs:read"), or the universal
// grant ("*").
func (c *Checker) IsGranted(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isGrantedLocked(key)
}

func (c *Checker) isGrantedLocked(key string) bool {
	if _, ok := c.grants[Universal]; ok {
		return true
	}
	if _, ok := c.grants[key]; ok {
		return true
	}
	ns, _, found := strings.Cut(key, ":")
	if found {
		if _, ok := c.grants[ns+":*"]; ok {
			return true
		}
	}
	return false
}

// Check validates spec against the current grant set. If enforcement is
// disabled, a denial is logged and nil is returned (never blocks).
func (c *Checker) Check(spec commands.PermissionSpec) error {
	if !spec.Required() {
		return nil
	}

	c.mu.RLock()
	missing := make([]string, 0, len(spec.Keys))
	satisfied := false
	for _, key := range spec.Keys {
		if c.isGrantedLocked(key) {
			satisfied = true
		} else {
			missing = append(missing, key)
		}
	}
	enforce := c.enforce
	c.mu.RUnlock()

	var denied bool
	switch spec.Semantics {
	case commands.AnyOf:
		denied = !satisfied
	default: // AllOf
		denied = len(missing) > 0
	}
	if !denied {
		return nil
	}

	if !enforce {
		c.log.Warn().Strs("missing", missing).Msg("permission denied, enforcement disabled — allowing")
		return nil
	}
	return apperr.Newf(apperr.KindPermissionDenied, "missing required permissions: %s", strings.Join(missing, ", "))
}
