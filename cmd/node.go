package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/Mohsinsiddi/astrometer/internal/config"
	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/Mohsinsiddi/astrometer/internal/journal"
	"github.com/Mohsinsiddi/astrometer/internal/logging"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/Mohsinsiddi/astrometer/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// newLogger returns a stderr logger under --verbose and a silent one otherwise.
func newLogger() logging.Logger {
	if verbose {
		return log.New(os.Stderr, "astrometer: ", log.Ltime)
	}
	return logging.Discard
}

// newKeystore opens the keystore backend selected in config.
func newKeystore() (wallet.KeystoreBackend, error) {
	if cfg.Keystore == config.KeystoreFile {
		return wallet.FileKeystore(cfg.KeysDir(), os.Getenv(config.PassphraseEnvVar))
	}
	return wallet.DefaultKeystore(), nil
}

// newWalletManager creates a Manager backed by the config-dir JSON store.
func newWalletManager() (*wallet.Manager, error) {
	ks, err := newKeystore()
	if err != nil {
		return nil, err
	}
	store := wallet.NewJSONStore(cfg.WalletsPath())
	return wallet.NewManager(wallet.WithStore(store), wallet.WithKeystore(ks)), nil
}

// defaultWallet prefers the wallet named in config over the store's flag.
func defaultWallet(mgr *wallet.Manager) (*wallet.Wallet, error) {
	if cfg.DefaultWallet != "" {
		return mgr.Get(cfg.DefaultWallet)
	}
	if w := mgr.Default(); w != nil {
		return w, nil
	}
	return nil, errors.New("no wallet selected: pass --from or set one with `astrometer wallet use <name>`")
}

// session is an opened node plus the wallets acting on it.
type session struct {
	node *chain.Node
	db   *journal.DB
	mgr  *wallet.Manager
	out  io.Writer
}

// openSession opens the journal and resumes the node deployed in the
// config dir.
func openSession(out io.Writer) (*session, error) {
	mgr, err := newWalletManager()
	if err != nil {
		return nil, err
	}
	db, err := journal.New(cfg.JournalPath())
	if err != nil {
		return nil, err
	}
	n, err := chain.Open(chain.Options{
		Store:   chain.NewFileStore(cfg.StatePath()),
		Journal: db,
		Logger:  newLogger(),
	})
	if err != nil {
		db.Close()
		if errors.Is(err, chain.ErrNoState) {
			return nil, fmt.Errorf("no token deployed in %s: run `astrometer init` first", cfg.Dir())
		}
		return nil, fmt.Errorf("opening node: %w", err)
	}
	return &session{node: n, db: db, mgr: mgr, out: out}, nil
}

func (s *session) Close() error { return s.db.Close() }

// caller resolves --from (name or address) or the default wallet.
func (s *session) caller() (common.Address, error) {
	if fromFlag != "" {
		return s.mgr.Resolve(fromFlag)
	}
	w, err := defaultWallet(s.mgr)
	if err != nil {
		return common.Address{}, err
	}
	return w.Addr(), nil
}

// signingWallet resolves --from to a wallet that holds a key.
func (s *session) signingWallet() (*wallet.Wallet, error) {
	return loadSigningWallet(s.mgr, fromFlag)
}

// loadSigningWallet finds a signing wallet by name or address, falling back
// to the default wallet when nameOrAddress is empty.
func loadSigningWallet(mgr *wallet.Manager, nameOrAddress string) (*wallet.Wallet, error) {
	var w *wallet.Wallet
	var err error
	switch {
	case nameOrAddress == "":
		w, err = defaultWallet(mgr)
	case common.IsHexAddress(nameOrAddress):
		addr := common.HexToAddress(nameOrAddress)
		if held := mgr.Holding(addr); len(held) > 0 && held[0].CanSign() {
			w = held[0]
		} else {
			err = fmt.Errorf("%w: no signing wallet holds %s", wallet.ErrWalletNotFound, addr.Hex())
		}
	default:
		w, err = mgr.Get(nameOrAddress)
	}
	if err != nil {
		return nil, err
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign transactions\n  To add a signing wallet: astrometer wallet add <name> --key <private-key>", w.Name)
	}
	return w, nil
}

// view runs a read-only function as the resolved caller.
func (s *session) view(method string, values ...any) ([]any, error) {
	from, err := s.caller()
	if err != nil {
		// Views other than checkSuperOwner do not depend on the caller.
		from = common.Address{}
	}
	return s.viewAs(from, method, values...)
}

func (s *session) viewAs(from common.Address, method string, values ...any) ([]any, error) {
	fn, err := contract.FindFunction(s.node.ABI(), method)
	if err != nil {
		return nil, err
	}
	data, err := contract.EncodeCall(fn, values...)
	if err != nil {
		return nil, err
	}
	res, err := s.node.Call(from, data)
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

// send signs a transaction calling method from the signing wallet and
// applies it. A reverted receipt is printed and returned as an error.
func (s *session) send(method string, values ...any) (*chain.Receipt, error) {
	fn, err := contract.FindFunction(s.node.ABI(), method)
	if err != nil {
		return nil, err
	}
	data, err := contract.EncodeCall(fn, values...)
	if err != nil {
		return nil, err
	}
	return s.sendData(data)
}

func (s *session) sendData(data []byte) (*chain.Receipt, error) {
	w, err := s.signingWallet()
	if err != nil {
		return nil, err
	}
	signer := wallet.NewSigner(w, s.mgr.Keystore())

	to := s.node.TokenAddress()
	chainID := s.node.ChainID()
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     s.node.Nonce(signer.Address()),
		GasTipCap: new(big.Int),
		GasFeeCap: new(big.Int),
		Gas:       config.GasLimitContractCall,
		To:        &to,
		Data:      data,
	})
	raw, err := signer.SignTx(tx, chainID)
	if err != nil {
		return nil, err
	}
	r, err := s.node.SendRawTransaction(raw)
	if err != nil {
		return nil, err
	}

	s.printReceipt(r)
	if !r.Succeeded() {
		return r, fmt.Errorf("transaction reverted: %s", r.RevertReason)
	}
	return r, nil
}

// printReceipt renders a receipt and its decoded logs.
func (s *session) printReceipt(r *chain.Receipt) {
	status := ui.StyleSuccess.Render("applied")
	if !r.Succeeded() {
		status = ui.StyleError.Render("reverted")
	}
	pairs := [][2]string{
		{"Method", ui.Val(r.Method)},
		{"Tx hash", ui.Addr(r.TxHash.Hex())},
		{"From", ui.Addr(r.From.Hex())},
		{"Block", fmt.Sprintf("%d", r.BlockNumber)},
		{"Nonce", fmt.Sprintf("%d", r.Nonce)},
		{"Status", status},
	}
	if r.RevertReason != "" {
		pairs = append(pairs, [2]string{"Revert reason", ui.StyleError.Render(r.RevertReason)})
	}
	if r.ContractAddress != (common.Address{}) {
		pairs = append(pairs, [2]string{"Token address", ui.Addr(r.ContractAddress.Hex())})
	}
	fmt.Fprintln(s.out, ui.KeyValueBlock("Transaction", pairs))
	for _, l := range r.Logs {
		fmt.Fprintln(s.out, "  "+formatLog(s.node.ABI(), l.Log))
	}
}

// formatLog renders a log as Event(name=value, ...).
func formatLog(abi []contract.ABIEntry, l contract.Log) string {
	dec, err := contract.DecodeLog(abi, l)
	if err != nil {
		return ui.Meta("undecoded log: " + err.Error())
	}
	args := make([]string, len(dec.Args))
	for i, a := range dec.Args {
		args[i] = a.Name + "=" + contract.FormatValue(a.Value)
	}
	return ui.Symbol(dec.Event) + "(" + strings.Join(args, ", ") + ")"
}

// hasEvent reports whether r emitted an event called name.
func hasEvent(abi []contract.ABIEntry, r *chain.Receipt, name string) bool {
	ev := contract.FindEvent(abi, name)
	if ev == nil {
		return false
	}
	for _, l := range r.Logs {
		if len(l.Topics) > 0 && l.Topics[0] == ev.Topic() {
			return true
		}
	}
	return false
}

// parseAddress accepts a hex address or the name of a known wallet.
func (s *session) parseAddress(nameOrAddress string) (common.Address, error) {
	return s.mgr.Resolve(nameOrAddress)
}
