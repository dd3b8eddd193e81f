package contract

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownEvent is returned when a log's topic0 matches no ABI event.
var ErrUnknownEvent = errors.New("unknown event")

// Log is one emitted event in EVM log form.
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    []byte         `json:"data"`
}

// NamedValue is a decoded event or return field.
type NamedValue struct {
	Name  string
	Type  string
	Value any
}

// DecodedLog is a Log resolved against an ABI.
type DecodedLog struct {
	Event string
	Args  []NamedValue
}

// EncodeLog builds the log for ev emitted by addr. Indexed static args go
// to topics; the rest are ABI-encoded into data.
func EncodeLog(ev *ABIEntry, addr common.Address, args []any) (Log, error) {
	if len(args) != len(ev.Inputs) {
		return Log{}, fmt.Errorf("%s: want %d args, got %d", ev.Name, len(ev.Inputs), len(args))
	}

	l := Log{Address: addr, Topics: []common.Hash{ev.Topic()}}
	var types []string
	var values []any
	for i, p := range ev.Inputs {
		if !p.Indexed {
			types = append(types, p.Type)
			values = append(values, args[i])
			continue
		}
		if s, ok := args[i].(string); ok && p.Type == "string" {
			l.Topics = append(l.Topics, common.BytesToHash(keccak256([]byte(s))))
			continue
		}
		if isDynamic(p.Type) {
			enc, err := encodeDynamic(p.Type, args[i])
			if err != nil {
				return Log{}, fmt.Errorf("%s.%s: %w", ev.Name, p.Name, err)
			}
			l.Topics = append(l.Topics, common.BytesToHash(keccak256(enc)))
			continue
		}
		word, err := encodeStatic(p.Type, args[i])
		if err != nil {
			return Log{}, fmt.Errorf("%s.%s: %w", ev.Name, p.Name, err)
		}
		l.Topics = append(l.Topics, common.BytesToHash(word))
	}

	data, err := EncodeValues(types, values)
	if err != nil {
		return Log{}, fmt.Errorf("%s: %w", ev.Name, err)
	}
	l.Data = data
	return l, nil
}

// DecodeLog resolves l against the events in abi.
func DecodeLog(abi []ABIEntry, l Log) (*DecodedLog, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("%w: log has no topics", ErrUnknownEvent)
	}

	var ev *ABIEntry
	for i := range abi {
		if abi[i].Type == "event" && abi[i].Topic() == l.Topics[0] {
			ev = &abi[i]
			break
		}
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, l.Topics[0].Hex())
	}

	var dataTypes []string
	for _, p := range ev.Inputs {
		if !p.Indexed {
			dataTypes = append(dataTypes, p.Type)
		}
	}
	dataValues, err := DecodeValues(dataTypes, l.Data)
	if err != nil {
		return nil, fmt.Errorf("%s data: %w", ev.Name, err)
	}

	out := &DecodedLog{Event: ev.Name}
	topic, data := 1, 0
	for _, p := range ev.Inputs {
		nv := NamedValue{Name: p.Name, Type: p.Type}
		switch {
		case !p.Indexed:
			nv.Value = dataValues[data]
			data++
		case topic >= len(l.Topics):
			return nil, fmt.Errorf("%w: %s is missing topic for %s", ErrMalformedData, ev.Name, p.Name)
		case isDynamic(p.Type):
			// Only the hash of an indexed dynamic value is recoverable.
			nv.Value = l.Topics[topic]
			topic++
		default:
			if nv.Value, err = decodeStatic(p.Type, l.Topics[topic].Bytes()); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ev.Name, p.Name, err)
			}
			topic++
		}
		out.Args = append(out.Args, nv)
	}
	return out, nil
}
