package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ErrFunctionNotFound is returned when an ABI has no matching function.
var ErrFunctionNotFound = errors.New("function not found")

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature returns the canonical signature, e.g. "transfer(address,uint256)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector.
func (e ABIEntry) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], keccak256([]byte(e.Signature())))
	return sel
}

// SelectorHex returns the selector as 0x-prefixed hex.
func (e ABIEntry) SelectorHex() string {
	sel := e.Selector()
	return "0x" + common.Bytes2Hex(sel[:])
}

// Topic returns topic0 of an event: the Keccak-256 of its signature.
func (e ABIEntry) Topic() common.Hash {
	return common.BytesToHash(keccak256([]byte(e.Signature())))
}

func inputTypes(params []ABIParam) []string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

// FindFunction returns the function called name.
func FindFunction(abi []ABIEntry, name string) (*ABIEntry, error) {
	for i := range abi {
		if abi[i].Type == "function" && abi[i].Name == name {
			return &abi[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
}

// FindEvent returns the event called name, or nil.
func FindEvent(abi []ABIEntry, name string) *ABIEntry {
	for i := range abi {
		if abi[i].Type == "event" && abi[i].Name == name {
			return &abi[i]
		}
	}
	return nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// abiFunction builds a function entry.
func abiFunction(name, mutability string, inputs, outputs []ABIParam) ABIEntry {
	return ABIEntry{Name: name, Type: "function", Inputs: inputs, Outputs: outputs, StateMutability: mutability}
}

func abiEvent(name string, inputs []ABIParam) ABIEntry {
	return ABIEntry{Name: name, Type: "event", Inputs: inputs}
}

// abiParams parses "type name" or "type indexed name" specs. A bare type
// gives an unnamed parameter. No specs gives nil.
func abiParams(specs ...string) []ABIParam {
	if len(specs) == 0 {
		return nil
	}
	out := make([]ABIParam, len(specs))
	for i, spec := range specs {
		f := strings.Fields(spec)
		p := ABIParam{Type: f[0]}
		if len(f) > 1 && f[1] == "indexed" {
			p.Indexed = true
			f = f[1:]
		}
		if len(f) > 1 {
			p.Name = f[1]
		}
		out[i] = p
	}
	return out
}
