package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/ethereum/go-ethereum/common"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no receipt matches a lookup.
var ErrNotFound = errors.New("receipt not found")

// DB stores receipts and their logs in SQLite.
type DB struct {
	db  *sql.DB
	abi []contract.ABIEntry
}

var _ chain.Journal = (*DB)(nil)

// Filter narrows a Logs query. Zero fields match everything.
type Filter struct {
	Event     string         // event name, e.g. "Transfer"
	Account   common.Address // matches any indexed address topic
	FromBlock uint64
	Limit     int // keeps the newest Limit logs, still returned oldest first
}

// Entry is a journaled log with its decoded event name.
type Entry struct {
	chain.LogEntry
	Event string
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	j := &DB{db: db, abi: contract.AstrometerABI()}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

func (j *DB) Close() error {
	return j.db.Close()
}

func (j *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_hash TEXT UNIQUE NOT NULL,
			block_number INTEGER NOT NULL,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			nonce INTEGER NOT NULL,
			method TEXT NOT NULL,
			status INTEGER NOT NULL,
			revert_reason TEXT DEFAULT '',
			contract_address TEXT DEFAULT '',
			output BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_hash TEXT NOT NULL,
			block_number INTEGER NOT NULL,
			log_index INTEGER NOT NULL,
			address TEXT NOT NULL,
			event TEXT DEFAULT '',
			topic0 TEXT DEFAULT '',
			topic1 TEXT DEFAULT '',
			topic2 TEXT DEFAULT '',
			topic3 TEXT DEFAULT '',
			data BLOB,
			FOREIGN KEY (tx_hash) REFERENCES receipts(tx_hash)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_block ON receipts(block_number)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_event ON logs(event)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_block ON logs(block_number, log_index)`,
	}

	for _, m := range migrations {
		if _, err := j.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// === Receipts ===

// Record stores r and its logs in one transaction.
func (j *DB) Record(r *chain.Receipt) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var contractAddr string
	if r.ContractAddress != (common.Address{}) {
		contractAddr = r.ContractAddress.Hex()
	}
	_, err = tx.Exec(
		`INSERT INTO receipts (tx_hash, block_number, sender, recipient, nonce, method, status, revert_reason, contract_address, output)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TxHash.Hex(), r.BlockNumber, r.From.Hex(), r.To.Hex(), r.Nonce, r.Method, r.Status, r.RevertReason, contractAddr, r.Output,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	for _, l := range r.Logs {
		var topics [4]string
		for i, t := range l.Topics {
			if i < len(topics) {
				topics[i] = t.Hex()
			}
		}
		_, err := tx.Exec(
			`INSERT INTO logs (tx_hash, block_number, log_index, address, event, topic0, topic1, topic2, topic3, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.TxHash.Hex(), l.BlockNumber, l.LogIndex, l.Address.Hex(), j.eventName(l.Log),
			topics[0], topics[1], topics[2], topics[3], l.Data,
		)
		if err != nil {
			return fmt.Errorf("insert log %d: %w", l.LogIndex, err)
		}
	}
	return tx.Commit()
}

func (j *DB) eventName(l contract.Log) string {
	dec, err := contract.DecodeLog(j.abi, l)
	if err != nil {
		return ""
	}
	return dec.Event
}

const receiptColumns = `tx_hash, block_number, sender, recipient, nonce, method, status, COALESCE(revert_reason, ''), COALESCE(contract_address, ''), output`

// Receipts returns up to limit receipts, newest first. limit <= 0 means all.
func (j *DB) Receipts(limit int) ([]*chain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*chain.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range receipts {
		if r.Logs, err = j.logsForTx(r.TxHash); err != nil {
			return nil, err
		}
	}
	return receipts, nil
}

// Receipt returns the receipt for hash with its logs.
func (j *DB) Receipt(hash common.Hash) (*chain.Receipt, error) {
	row := j.db.QueryRow(`SELECT `+receiptColumns+` FROM receipts WHERE tx_hash = ?`, hash.Hex())
	r, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash.Hex())
	}
	if err != nil {
		return nil, err
	}
	if r.Logs, err = j.logsForTx(hash); err != nil {
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(s scanner) (*chain.Receipt, error) {
	var r chain.Receipt
	var hash, from, to, contractAddr string
	err := s.Scan(&hash, &r.BlockNumber, &from, &to, &r.Nonce, &r.Method, &r.Status, &r.RevertReason, &contractAddr, &r.Output)
	if err != nil {
		return nil, err
	}
	r.TxHash = common.HexToHash(hash)
	r.From = common.HexToAddress(from)
	r.To = common.HexToAddress(to)
	if contractAddr != "" {
		r.ContractAddress = common.HexToAddress(contractAddr)
	}
	return &r, nil
}

// === Logs ===

const logColumns = `tx_hash, block_number, log_index, address, COALESCE(event, ''), topic0, topic1, topic2, topic3, data`

func (j *DB) logsForTx(hash common.Hash) ([]chain.LogEntry, error) {
	entries, err := j.queryLogs(`SELECT `+logColumns+` FROM logs WHERE tx_hash = ? ORDER BY log_index`, hash.Hex())
	if err != nil {
		return nil, err
	}
	out := make([]chain.LogEntry, len(entries))
	for i, e := range entries {
		out[i] = e.LogEntry
	}
	return out, nil
}

// Logs returns journaled logs matching f in chain order.
func (j *DB) Logs(f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Event != "" {
		where = append(where, `event = ?`)
		args = append(args, f.Event)
	}
	if f.Account != (common.Address{}) {
		topic := common.BytesToHash(f.Account.Bytes()).Hex()
		where = append(where, `(topic1 = ? OR topic2 = ? OR topic3 = ?)`)
		args = append(args, topic, topic, topic)
	}
	if f.FromBlock > 0 {
		where = append(where, `block_number >= ?`)
		args = append(args, f.FromBlock)
	}

	from := `logs`
	if len(where) > 0 {
		from += ` WHERE ` + strings.Join(where, ` AND `)
	}
	if f.Limit > 0 {
		from = `(SELECT * FROM ` + from + ` ORDER BY block_number DESC, log_index DESC LIMIT ?)`
		args = append(args, f.Limit)
	}
	return j.queryLogs(`SELECT `+logColumns+` FROM `+from+` ORDER BY block_number, log_index`, args...)
}

func (j *DB) queryLogs(query string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e             Entry
			hash, address string
			topics        [4]string
		)
		if err := rows.Scan(&hash, &e.BlockNumber, &e.LogIndex, &address, &e.Event,
			&topics[0], &topics[1], &topics[2], &topics[3], &e.Data); err != nil {
			return nil, err
		}
		e.TxHash = common.HexToHash(hash)
		e.Address = common.HexToAddress(address)
		for _, t := range topics {
			if t != "" {
				e.Topics = append(e.Topics, common.HexToHash(t))
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
