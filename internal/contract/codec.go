package contract

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMalformedData is returned when ABI data is truncated or inconsistent.
var ErrMalformedData = errors.New("malformed ABI data")

const wordSize = 32

// Supported Go values per ABI type:
//
//	address   common.Address
//	uintN     *big.Int
//	bool      bool
//	string    string
//	T[]       []common.Address, []*big.Int, []bool, []string

// EncodeCall builds calldata: 4-byte selector + encoded args.
func EncodeCall(fn *ABIEntry, values ...any) ([]byte, error) {
	if len(values) != len(fn.Inputs) {
		return nil, fmt.Errorf("%s: want %d args, got %d", fn.Name, len(fn.Inputs), len(values))
	}
	args, err := EncodeValues(inputTypes(fn.Inputs), values)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", fn.Name, err)
	}
	sel := fn.Selector()
	return append(sel[:], args...), nil
}

// DecodeArgs checks that calldata targets fn and decodes its inputs.
func DecodeArgs(fn *ABIEntry, calldata []byte) ([]any, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("%w: calldata shorter than a selector", ErrMalformedData)
	}
	if sel := fn.Selector(); string(sel[:]) != string(calldata[:4]) {
		return nil, fmt.Errorf("%w: selector mismatch for %s", ErrMalformedData, fn.Name)
	}
	return DecodeValues(inputTypes(fn.Inputs), calldata[4:])
}

// EncodeValues ABI-encodes values as a tuple of the given types.
func EncodeValues(types []string, values []any) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("want %d values, got %d", len(types), len(values))
	}

	head := make([]byte, 0, wordSize*len(types))
	var tail []byte
	for i, typ := range types {
		if isDynamic(typ) {
			enc, err := encodeDynamic(typ, values[i])
			if err != nil {
				return nil, fmt.Errorf("arg %d (%s): %w", i, typ, err)
			}
			head = append(head, uintWord(uint64(wordSize*len(types)+len(tail)))...)
			tail = append(tail, enc...)
			continue
		}
		word, err := encodeStatic(typ, values[i])
		if err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, typ, err)
		}
		head = append(head, word...)
	}
	return append(head, tail...), nil
}

// DecodeValues decodes an ABI tuple of the given types.
func DecodeValues(types []string, data []byte) ([]any, error) {
	out := make([]any, len(types))
	for i, typ := range types {
		word, err := wordAt(data, i*wordSize)
		if err != nil {
			return nil, err
		}
		if !isDynamic(typ) {
			if out[i], err = decodeStatic(typ, word); err != nil {
				return nil, fmt.Errorf("arg %d (%s): %w", i, typ, err)
			}
			continue
		}
		off, err := wordToInt(word, len(data))
		if err != nil {
			return nil, err
		}
		if out[i], err = decodeDynamic(typ, data[off:]); err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, typ, err)
		}
	}
	return out, nil
}

func isDynamic(typ string) bool {
	return typ == "string" || typ == "bytes" || strings.HasSuffix(typ, "[]")
}

func encodeStatic(typ string, v any) ([]byte, error) {
	switch {
	case typ == "address":
		a, ok := v.(common.Address)
		if !ok {
			return nil, fmt.Errorf("want common.Address, got %T", v)
		}
		return common.LeftPadBytes(a.Bytes(), wordSize), nil

	case strings.HasPrefix(typ, "uint"):
		n, ok := v.(*big.Int)
		if !ok || n == nil {
			return nil, fmt.Errorf("want *big.Int, got %T", v)
		}
		bits, err := uintBits(typ)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 || n.BitLen() > bits {
			return nil, fmt.Errorf("%s out of range for %s", n, typ)
		}
		return common.LeftPadBytes(n.Bytes(), wordSize), nil

	case typ == "bool":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		if b {
			return uintWord(1), nil
		}
		return uintWord(0), nil
	}
	return nil, fmt.Errorf("unsupported type %s", typ)
}

func encodeDynamic(typ string, v any) ([]byte, error) {
	if typ == "string" {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return encodeBytes([]byte(s)), nil
	}
	if typ == "bytes" {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("want []byte, got %T", v)
		}
		return encodeBytes(b), nil
	}

	elem := strings.TrimSuffix(typ, "[]")
	items, err := toAnySlice(v)
	if err != nil {
		return nil, err
	}
	types := make([]string, len(items))
	for i := range types {
		types[i] = elem
	}
	body, err := EncodeValues(types, items)
	if err != nil {
		return nil, err
	}
	return append(uintWord(uint64(len(items))), body...), nil
}

func encodeBytes(b []byte) []byte {
	padded := (len(b) + wordSize - 1) / wordSize * wordSize
	out := make([]byte, wordSize+padded)
	copy(out, uintWord(uint64(len(b))))
	copy(out[wordSize:], b)
	return out
}

func toAnySlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case []common.Address:
		return anySlice(s), nil
	case []*big.Int:
		return anySlice(s), nil
	case []bool:
		return anySlice(s), nil
	case []string:
		return anySlice(s), nil
	}
	return nil, fmt.Errorf("unsupported array value %T", v)
}

func anySlice[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func decodeStatic(typ string, word []byte) (any, error) {
	switch {
	case typ == "address":
		return common.BytesToAddress(word[12:]), nil
	case strings.HasPrefix(typ, "uint"):
		bits, err := uintBits(typ)
		if err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(word)
		if n.BitLen() > bits {
			return nil, fmt.Errorf("%w: %s out of range for %s", ErrMalformedData, n, typ)
		}
		return n, nil
	case typ == "bool":
		n := new(big.Int).SetBytes(word)
		if !n.IsUint64() || n.Uint64() > 1 {
			return nil, fmt.Errorf("%w: invalid bool", ErrMalformedData)
		}
		return n.Uint64() == 1, nil
	}
	return nil, fmt.Errorf("unsupported type %s", typ)
}

func decodeDynamic(typ string, data []byte) (any, error) {
	word, err := wordAt(data, 0)
	if err != nil {
		return nil, err
	}
	length, err := wordToInt(word, len(data))
	if err != nil {
		return nil, err
	}

	if typ == "string" || typ == "bytes" {
		if wordSize+length > len(data) {
			return nil, fmt.Errorf("%w: %s length %d exceeds data", ErrMalformedData, typ, length)
		}
		raw := data[wordSize : wordSize+length]
		if typ == "string" {
			return string(raw), nil
		}
		return append([]byte(nil), raw...), nil
	}

	elem := strings.TrimSuffix(typ, "[]")
	types := make([]string, length)
	for i := range types {
		types[i] = elem
	}
	items, err := DecodeValues(types, data[wordSize:])
	if err != nil {
		return nil, err
	}
	return typedSlice(elem, items), nil
}

// typedSlice turns decoded array items into the concrete slice type that
// encodeDynamic accepts.
func typedSlice(elem string, items []any) any {
	switch {
	case elem == "address":
		return typed[common.Address](items)
	case strings.HasPrefix(elem, "uint"):
		return typed[*big.Int](items)
	case elem == "bool":
		return typed[bool](items)
	case elem == "string":
		return typed[string](items)
	}
	return items
}

func typed[T any](items []any) []T {
	out := make([]T, len(items))
	for i, v := range items {
		out[i] = v.(T)
	}
	return out
}

func uintBits(typ string) (int, error) {
	s := strings.TrimPrefix(typ, "uint")
	if s == "" {
		return 256, nil
	}
	bits, err := strconv.Atoi(s)
	if err != nil || bits <= 0 || bits > 256 || bits%8 != 0 {
		return 0, fmt.Errorf("unsupported type %s", typ)
	}
	return bits, nil
}

func uintWord(n uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(n).Bytes(), wordSize)
}

func wordAt(data []byte, off int) ([]byte, error) {
	if off < 0 || off+wordSize > len(data) {
		return nil, fmt.Errorf("%w: need word at offset %d, have %d bytes", ErrMalformedData, off, len(data))
	}
	return data[off : off+wordSize], nil
}

// wordToInt reads an offset or length word and bounds it by limit.
func wordToInt(word []byte, limit int) (int, error) {
	n := new(big.Int).SetBytes(word)
	if !n.IsInt64() || n.Int64() > int64(limit) {
		return 0, fmt.Errorf("%w: offset/length %s out of bounds", ErrMalformedData, n)
	}
	return int(n.Int64()), nil
}
