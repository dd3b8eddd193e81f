package contract

import (
	"fmt"
	"sort"
	"strings"
)

// BuiltinKind is an ABI compiled into the binary.
type BuiltinKind struct {
	ID          string // "astrometer", "erc20"
	Name        string
	Description string
	ABI         []ABIEntry
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds b to the registry, replacing any entry with the same
// ID. It is meant to be called from init().
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns the builtin registered under id.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// LookupBuiltin is GetBuiltin with an error naming the known IDs.
func LookupBuiltin(id string) (BuiltinKind, error) {
	if b, ok := builtinRegistry[id]; ok {
		return b, nil
	}
	ids := make([]string, 0, len(builtinRegistry))
	for _, b := range AllBuiltins() {
		ids = append(ids, b.ID)
	}
	return BuiltinKind{}, fmt.Errorf("unknown ABI %q (have: %s)", id, strings.Join(ids, ", "))
}

// GetBuiltinABI returns the ABI registered under id, or nil.
func GetBuiltinABI(id string) []ABIEntry {
	return builtinRegistry[id].ABI
}

// AllBuiltins returns every registered builtin sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
