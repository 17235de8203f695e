package plugins

import (
	"sort"
	"strings"

	"github.com/webcore-dev/webcore/internal/apperr"
)

// orderByDependencies topologically sorts plugins by Dependencies() using
// Kahn's algorithm. Unresolved dependency names and members of a cycle are
// collected into a single plugin-load error naming every offender (spec
// §4.8: "cycles and unresolved names are reported as a single plugin-load
// error naming every offender").
func orderByDependencies(plugins []Plugin) ([]Plugin, error) {
	byName := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		byName[p.Name()] = p
	}

	unresolved := map[string]struct{}{}
	inDegree := make(map[string]int, len(plugins))
	dependents := make(map[string][]string, len(plugins))

	for _, p := range plugins {
		name := p.Name()
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
		for _, dep := range p.Dependencies() {
			if _, ok := byName[dep]; !ok {
				unresolved[dep] = struct{}{}
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	if len(unresolved) > 0 {
		names := make([]string, 0, len(unresolved))
		for n := range unresolved {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, apperr.Newf(apperr.KindPluginLoad, "unresolved plugin dependencies: %s", strings.Join(names, ", "))
	}

	queue := make([]string, 0, len(plugins))
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	ordered := make([]Plugin, 0, len(plugins))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byName[name])

		next := append([]string(nil), dependents[name]...)
		sort.Strings(next)
		for _, dep := range next {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(ordered) != len(plugins) {
		remaining := make([]string, 0, len(plugins)-len(ordered))
		seen := make(map[string]bool, len(ordered))
		for _, p := range ordered {
			seen[p.Name()] = true
		}
		for _, p := range plugins {
			if !seen[p.Name()] {
				remaining = append(remaining, p.Name())
			}
		}
		sort.Strings(remaining)
		return nil, apperr.Newf(apperr.KindPluginLoad, "dependency cycle among plugins: %s", strings.Join(remaining, ", "))
	}

	return ordered, nil
}
