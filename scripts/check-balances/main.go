// check-balances: reads the deployed token in a config directory and prints
// balance and governance standing for every known account (wallets,
// super-owners and owners), querying them in parallel.
//
// Run from the module root:
//
//	go run ./scripts/check-balances [config-dir]
package main

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/Mohsinsiddi/astrometer/internal/config"
	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/Mohsinsiddi/astrometer/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	account  common.Address
	wallet   string
	balance  string
	standing string
	err      string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	var dir string
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := run(dir); err != nil {
		fmt.Fprintln(os.Stderr, "check-balances:", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	node, err := chain.Open(chain.Options{Store: chain.NewFileStore(cfg.StatePath())})
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.StatePath(), err)
	}

	// Read-only: keys are never touched, so the keystore stays in memory.
	names := wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.NewInMemoryKeystore()),
	).Names()

	supers, err := addresses(node, "getSuperOwners")
	if err != nil {
		return err
	}
	owners, err := addresses(node, "getOwners")
	if err != nil {
		return err
	}
	standing := make(map[common.Address]string)
	for _, a := range owners {
		standing[a] = "owner"
	}
	for _, a := range supers {
		standing[a] = "super-owner"
	}

	accounts := make(map[common.Address]struct{})
	for a := range names {
		accounts[a] = struct{}{}
	}
	for a := range standing {
		accounts[a] = struct{}{}
	}

	symbol, err := call(node, "symbol")
	if err != nil {
		return err
	}
	decimals, err := call(node, "decimals")
	if err != nil {
		return err
	}
	dec := uint8(decimals.(*big.Int).Uint64())

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)
	for a := range accounts {
		wg.Add(1)
		go func(a common.Address) {
			defer wg.Done()

			r := result{account: a, wallet: names[a], standing: standing[a], balance: "—"}
			if bal, err := call(node, "balanceOf", a); err != nil {
				r.err = err.Error()
			} else if u, overflow := uint256.FromBig(bal.(*big.Int)); !overflow {
				r.balance = ui.FormatUnits(u, dec)
			}

			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	printTable(results, symbol.(string), node)
	return nil
}

// ── node access ───────────────────────────────────────────────────────────────

func call(node *chain.Node, method string, args ...any) (any, error) {
	fn, err := contract.FindFunction(node.ABI(), method)
	if err != nil {
		return nil, err
	}
	data, err := contract.EncodeCall(fn, args...)
	if err != nil {
		return nil, err
	}
	res, err := node.Call(common.Address{}, data)
	if err != nil {
		return nil, err
	}
	return res.Values[0], nil
}

func addresses(node *chain.Node, method string) ([]common.Address, error) {
	v, err := call(node, method)
	if err != nil {
		return nil, err
	}
	return v.([]common.Address), nil
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result, symbol string, node *chain.Node) {
	// Super-owners first, then owners, then plain holders; by address within.
	rank := map[string]int{"super-owner": 0, "owner": 1, "": 2}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if rank[a.standing] != rank[b.standing] {
			return rank[a.standing] < rank[b.standing]
		}
		return a.account.Hex() < b.account.Hex()
	})

	fmt.Printf("%s at %s, block %d\n\n", symbol, node.TokenAddress().Hex(), node.BlockNumber())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tWALLET\tSTANDING\tBALANCE\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 42)+"\t"+
		strings.Repeat("-", 12)+"\t"+
		strings.Repeat("-", 11)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))
	for _, r := range results {
		standing := r.standing
		if standing == "" {
			standing = "—"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.account.Hex(), r.wallet, standing, r.balance, symbol, r.err)
	}
	w.Flush()
}
