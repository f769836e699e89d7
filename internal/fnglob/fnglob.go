// Package fnglob matches dotted, lowercase event-type strings against
// glob patterns whose segments may be the literal wildcard "*".
//
// Pattern "function.*" matches "function.executing" and "function.executed"
// but not "function.executing.detail" (segment counts must match, mirroring
// spec.md's "'*' wildcard segments" grammar rather than a recursive "**").
package fnglob

import "strings"

// Match reports whether typ matches pattern, segment by segment.
func Match(pattern, typ string) bool {
	if pattern == "" {
		return true
	}
	pSegs := strings.Split(pattern, ".")
	tSegs := strings.Split(typ, ".")
	if len(pSegs) != len(tSegs) {
		return false
	}
	for i, p := range pSegs {
		if p == "*" {
			continue
		}
		if p != tSegs[i] {
			return false
		}
	}
	return true
}
