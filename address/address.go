// Package address implements the Address Resolver (spec component C6):
// parsing and read-only dereferencing of `@<logical-id>[.segment...]`
// references against a registry.
//
// The grammar is taken as a literal reading of the fully-specified
// `'@' <uuid> ('.' <segment>)*` shape; no pack repo parses an address of
// this exact form, so there is no closer precedent to ground it on than
// the grammar itself. Field traversal reuses entity.Classify's domain
// (see entity/fields.go) of what counts as a "field" on an entity — an
// embedded Base/ConfigMarker never contributes an addressable name.
package address

import (
	"errors"
	"strings"

	"github.com/jtomasevic/entityctl/internal/ids"
)

// Address is a parsed `'@' <logical-id> ('.' <segment>)*` reference
// (spec.md §4.6, §6 "Address syntax").
type Address struct {
	LogicalID ids.LogicalID
	Path      []string
}

var (
	errMissingSigil = errors.New("address must start with '@'")
	errMissingID    = errors.New("address is missing a logical id")
	errEmptySegment = errors.New("address contains an empty path segment")
)

// Parse accepts only the exact grammar `@<uuid>(.<name-or-index>)*`; any
// other shape fails with InvalidAddressError.
func Parse(s string) (Address, error) {
	if !strings.HasPrefix(s, "@") {
		return Address{}, &InvalidAddressError{Input: s, Cause: errMissingSigil}
	}
	parts := strings.Split(s[1:], ".")
	if parts[0] == "" {
		return Address{}, &InvalidAddressError{Input: s, Cause: errMissingID}
	}

	id, err := ids.ParseLogicalID(parts[0])
	if err != nil {
		return Address{}, &InvalidAddressError{Input: s, Cause: err}
	}

	path := parts[1:]
	for _, seg := range path {
		if seg == "" {
			return Address{}, &InvalidAddressError{Input: s, Cause: errEmptySegment}
		}
	}

	return Address{LogicalID: id, Path: path}, nil
}
