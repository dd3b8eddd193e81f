package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Dispatch errors.
var (
	ErrUnknownSelector = errors.New("unknown function selector")
	ErrReadOnlyCall    = errors.New("state-changing function called read-only")
	ErrArgRange        = errors.New("argument out of range")
)

// Result is the outcome of one dispatched call.
type Result struct {
	Function *ABIEntry
	Output   []byte // ABI-encoded return values
	Values   []any  // the same values, decoded
	Logs     []Log
}

type handler func(from common.Address, args []any) ([]any, []token.Event, error)

// Dispatcher routes ABI calldata to the matching Token entry point.
type Dispatcher struct {
	token      *token.Token
	abi        []ABIEntry
	bySelector map[[4]byte]*ABIEntry
	handlers   map[string]handler
}

// NewDispatcher serves the AstroMeter ABI on top of t.
func NewDispatcher(t *token.Token) *Dispatcher {
	d := &Dispatcher{
		token:      t,
		abi:        AstrometerABI(),
		bySelector: make(map[[4]byte]*ABIEntry),
	}
	for i := range d.abi {
		if d.abi[i].Type == "function" {
			d.bySelector[d.abi[i].Selector()] = &d.abi[i]
		}
	}
	d.handlers = d.routes()
	return d
}

// ABI returns the ABI the dispatcher serves.
func (d *Dispatcher) ABI() []ABIEntry { return d.abi }

// Lookup resolves the function targeted by calldata.
func (d *Dispatcher) Lookup(calldata []byte) (*ABIEntry, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("%w: calldata shorter than a selector", ErrMalformedData)
	}
	var sel [4]byte
	copy(sel[:], calldata[:4])
	fn, ok := d.bySelector[sel]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnknownSelector, sel)
	}
	return fn, nil
}

// Call runs a view function as from. State-changing functions are refused.
func (d *Dispatcher) Call(from common.Address, calldata []byte) (*Result, error) {
	fn, err := d.Lookup(calldata)
	if err != nil {
		return nil, err
	}
	if !fn.IsReadFunction() {
		return nil, fmt.Errorf("%w: %s", ErrReadOnlyCall, fn.Name)
	}
	return d.run(fn, from, calldata)
}

// Execute runs any function as from.
func (d *Dispatcher) Execute(from common.Address, calldata []byte) (*Result, error) {
	fn, err := d.Lookup(calldata)
	if err != nil {
		return nil, err
	}
	return d.run(fn, from, calldata)
}

func (d *Dispatcher) run(fn *ABIEntry, from common.Address, calldata []byte) (*Result, error) {
	args, err := DecodeArgs(fn, calldata)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name, err)
	}
	h, ok := d.handlers[fn.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no handler", ErrUnknownSelector, fn.Name)
	}

	values, events, err := h(from, args)
	if err != nil {
		return nil, err
	}

	out, err := EncodeValues(inputTypes(fn.Outputs), values)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding return: %w", fn.Name, err)
	}
	logs, err := d.Logs(events)
	if err != nil {
		return nil, err
	}
	return &Result{Function: fn, Output: out, Values: values, Logs: logs}, nil
}

// Logs converts token events into EVM logs emitted by the token address.
func (d *Dispatcher) Logs(events []token.Event) ([]Log, error) {
	out := make([]Log, 0, len(events))
	for _, e := range events {
		ev := FindEvent(d.abi, e.Name)
		if ev == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, e.Name)
		}
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = abiValue(a)
		}
		l, err := EncodeLog(ev, d.token.Address(), args)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func abiValue(v any) any {
	switch x := v.(type) {
	case *uint256.Int:
		return x.ToBig()
	case uint64:
		return new(big.Int).SetUint64(x)
	case uint8:
		return big.NewInt(int64(x))
	case int:
		return big.NewInt(int64(x))
	}
	return v
}

func (d *Dispatcher) routes() map[string]handler {
	t := d.token
	return map[string]handler{
		// ERC-20 reads
		"name":   func(common.Address, []any) ([]any, []token.Event, error) { return []any{t.Name()}, nil, nil },
		"symbol": func(common.Address, []any) ([]any, []token.Event, error) { return []any{t.Symbol()}, nil, nil },
		"decimals": func(common.Address, []any) ([]any, []token.Event, error) {
			return []any{big.NewInt(int64(t.Decimals()))}, nil, nil
		},
		"totalSupply": func(common.Address, []any) ([]any, []token.Event, error) {
			return []any{t.TotalSupply().ToBig()}, nil, nil
		},
		"balanceOf": func(_ common.Address, a []any) ([]any, []token.Event, error) {
			return []any{t.BalanceOf(a[0].(common.Address)).ToBig()}, nil, nil
		},
		"allowance": func(_ common.Address, a []any) ([]any, []token.Event, error) {
			return []any{t.Allowance(a[0].(common.Address), a[1].(common.Address)).ToBig()}, nil, nil
		},

		// ERC-20 writes
		"transfer": func(from common.Address, a []any) ([]any, []token.Event, error) {
			amount, err := toUint256(a[1])
			if err != nil {
				return nil, nil, err
			}
			ev, err := t.Transfer(from, a[0].(common.Address), amount)
			return []any{true}, ev, err
		},
		"approve": func(from common.Address, a []any) ([]any, []token.Event, error) {
			amount, err := toUint256(a[1])
			if err != nil {
				return nil, nil, err
			}
			ev, err := t.Approve(from, a[0].(common.Address), amount)
			return []any{true}, ev, err
		},
		"transferFrom": func(from common.Address, a []any) ([]any, []token.Event, error) {
			amount, err := toUint256(a[2])
			if err != nil {
				return nil, nil, err
			}
			ev, err := t.TransferFrom(from, a[0].(common.Address), a[1].(common.Address), amount)
			return []any{true}, ev, err
		},

		// Owner registry
		"addAddress": func(from common.Address, a []any) ([]any, []token.Event, error) {
			ev, err := t.AddAddress(from, a[0].(common.Address))
			return nil, ev, err
		},
		"deleteAddress": func(from common.Address, a []any) ([]any, []token.Event, error) {
			ev, err := t.DeleteAddress(from, a[0].(common.Address))
			return nil, ev, err
		},
		"hasOwner": func(_ common.Address, a []any) ([]any, []token.Event, error) {
			return []any{t.HasOwner(a[0].(common.Address))}, nil, nil
		},
		"getOwners": func(common.Address, []any) ([]any, []token.Event, error) {
			return []any{t.Owners()}, nil, nil
		},
		"getWaitingConfirmationsList": func(common.Address, []any) ([]any, []token.Event, error) {
			pending := t.WaitingConfirmations()
			kinds := make([]*big.Int, len(pending))
			targets := make([]common.Address, len(pending))
			counts := make([]*big.Int, len(pending))
			for i, p := range pending {
				kinds[i] = big.NewInt(int64(p.Kind))
				targets[i] = p.Target
				counts[i] = big.NewInt(int64(len(p.Confirmers)))
			}
			return []any{kinds, targets, counts}, nil, nil
		},

		// Super owners
		"checkSuperOwner": func(from common.Address, _ []any) ([]any, []token.Event, error) {
			return []any{t.CheckSuperOwner(from)}, nil, nil
		},
		"getSuperOwners": func(common.Address, []any) ([]any, []token.Event, error) {
			return []any{t.SuperOwners()}, nil, nil
		},

		// Roles
		"addRole": func(from common.Address, a []any) ([]any, []token.Event, error) {
			id, err := toRoleID(a[0])
			if err != nil {
				return nil, nil, err
			}
			ev, err := t.AddRole(from, id, a[1].(common.Address), a[2].(string))
			return nil, ev, err
		},
		"deleteRole": func(from common.Address, a []any) ([]any, []token.Event, error) {
			id, err := toRoleID(a[0])
			if err != nil {
				return nil, nil, err
			}
			ev, err := t.DeleteRole(from, id, a[1].(common.Address))
			return nil, ev, err
		},
		"hasRole": func(_ common.Address, a []any) ([]any, []token.Event, error) {
			id, err := toRoleID(a[0])
			if err != nil {
				// No role can have an id beyond uint64.
				return []any{false}, nil, nil
			}
			return []any{t.HasRole(id, a[1].(common.Address))}, nil, nil
		},
		"showRoles": func(common.Address, []any) ([]any, []token.Event, error) {
			roles := t.ShowRoles()
			ids := make([]*big.Int, len(roles))
			labels := make([]string, len(roles))
			for i, r := range roles {
				ids[i] = new(big.Int).SetUint64(r.ID)
				labels[i] = r.Label
			}
			return []any{ids, labels}, nil, nil
		},

		// Distribution
		"startDistribution": func(from common.Address, _ []any) ([]any, []token.Event, error) {
			ev, err := t.StartDistribution(from)
			return nil, ev, err
		},
		"getDistributionStatus": func(common.Address, []any) ([]any, []token.Event, error) {
			st := t.DistributionStatus()
			return []any{st.Started, st.Initiator}, nil, nil
		},
	}
}

func toUint256(v any) (*uint256.Int, error) {
	n, overflow := uint256.FromBig(v.(*big.Int))
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds uint256", ErrArgRange, v)
	}
	return n, nil
}

func toRoleID(v any) (uint64, error) {
	n := v.(*big.Int)
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: role id %s", ErrArgRange, n)
	}
	return n.Uint64(), nil
}
