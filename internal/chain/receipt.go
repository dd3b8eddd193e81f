package chain

import (
	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Receipt is the outcome of one applied transaction.
type Receipt struct {
	TxHash          common.Hash    `json:"transaction_hash"`
	From            common.Address `json:"from"`
	To              common.Address `json:"to"`
	Nonce           uint64         `json:"nonce"`
	Method          string         `json:"method"`
	Status          uint64         `json:"status"` // 1 = success, 0 = reverted
	RevertReason    string         `json:"revert_reason,omitempty"`
	BlockNumber     uint64         `json:"block_number"`
	ContractAddress common.Address `json:"contract_address,omitzero"` // set on deployment only
	Output          []byte         `json:"output,omitempty"`
	Logs            []LogEntry     `json:"logs"`
}

// Succeeded reports whether the transaction was applied.
func (r *Receipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// LogEntry is a contract log positioned in the chain.
type LogEntry struct {
	contract.Log
	BlockNumber uint64      `json:"block_number"`
	TxHash      common.Hash `json:"transaction_hash"`
	LogIndex    uint        `json:"log_index"`
}

func entries(logs []contract.Log, block uint64, tx common.Hash) []LogEntry {
	out := make([]LogEntry, len(logs))
	for i, l := range logs {
		out[i] = LogEntry{Log: l, BlockNumber: block, TxHash: tx, LogIndex: uint(i)}
	}
	return out
}
