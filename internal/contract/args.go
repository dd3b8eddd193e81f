package contract

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseArg converts a command-line string into the Go value EncodeValues
// expects for typ. Array arguments are comma-separated.
func ParseArg(typ, val string) (any, error) {
	val = strings.TrimSpace(val)

	switch {
	case strings.HasSuffix(typ, "[]"):
		elem := strings.TrimSuffix(typ, "[]")
		var parts []string
		if val != "" {
			parts = strings.Split(val, ",")
		}
		items := make([]any, len(parts))
		for i, p := range parts {
			v, err := ParseArg(elem, p)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return typedSlice(elem, items), nil

	case typ == "address":
		if !common.IsHexAddress(val) {
			return nil, fmt.Errorf("invalid address: %q", val)
		}
		return common.HexToAddress(val), nil

	case strings.HasPrefix(typ, "uint"):
		n, ok := new(big.Int).SetString(val, 0)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid integer: %q", val)
		}
		return n, nil

	case typ == "bool":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("invalid bool: %q", val)
		}
		return b, nil

	case typ == "string":
		return val, nil
	}
	return nil, fmt.Errorf("unsupported type %s", typ)
}

// ParseArgs parses one string per input of fn.
func ParseArgs(fn *ABIEntry, args []string) ([]any, error) {
	if len(args) != len(fn.Inputs) {
		return nil, fmt.Errorf("%s expects %d args (%s), got %d",
			fn.Name, len(fn.Inputs), strings.Join(inputTypes(fn.Inputs), ", "), len(args))
	}
	out := make([]any, len(args))
	for i, p := range fn.Inputs {
		v, err := ParseArg(p.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", paramLabel(p, i), err)
		}
		out[i] = v
	}
	return out, nil
}

// FormatValue renders a decoded ABI value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case *big.Int:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case []byte:
		return "0x" + common.Bytes2Hex(x)
	case []common.Address, []*big.Int, []bool, []string, []any:
		items, _ := toAnySlice(x)
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = FormatValue(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

func paramLabel(p ABIParam, i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("#%d", i)
}
