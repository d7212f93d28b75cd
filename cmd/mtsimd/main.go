// Multi-token contract simulator daemon.
//
// Usage:
//
//	mtsimd [--storage=badger --datadir=...]  Run the demo scenario
//	mtsimd --help                            Show help
//
// It boots one contract account on the configured storage backend,
// registers a pair of demo receiver contracts, and drives a scripted
// session: mint, approve, plain transfer, and both outcomes of a
// transfer-call. Every nep246 event the contract emits is printed.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-mt/config"
	"github.com/Klingon-tech/klingnet-mt/internal/contract"
	"github.com/Klingon-tech/klingnet-mt/internal/host"
	klog "github.com/Klingon-tech/klingnet-mt/internal/log"
	"github.com/Klingon-tech/klingnet-mt/internal/storage"
	"github.com/Klingon-tech/klingnet-mt/pkg/event"
	"github.com/Klingon-tech/klingnet-mt/pkg/types"
)

const version = "0.1.0"

func main() {
	flags := config.ParseFlags()
	if flags.Version {
		fmt.Printf("mtsimd %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("mtsimd")

	db, err := openDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage")
	}
	defer db.Close()

	if err := run(cfg, db); err != nil {
		logger.Fatal().Err(err).Msg("scenario failed")
	}
}

func openDB(cfg *config.Config) (storage.DB, error) {
	switch cfg.Storage {
	case config.StorageBadger:
		if err := os.MkdirAll(cfg.StateDir(), 0o755); err != nil {
			return nil, err
		}
		return storage.NewBadger(cfg.StateDir())
	default:
		return storage.NewMemory(), nil
	}
}

// vaultReceiver keeps every token it is offered.
type vaultReceiver struct{}

func (vaultReceiver) Invoke(env *host.Env, method string, args []byte) ([]byte, error) {
	if method != contract.MethodOnTransfer {
		return nil, fmt.Errorf("vault: unknown method %s", method)
	}
	var a contract.OnTransferArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	env.Log(fmt.Sprintf("vault: keeping %s from %s (msg=%q)", a.TokenID, a.SenderID, a.Msg))
	return json.Marshal(false)
}

// bouncerReceiver refuses every token it is offered.
type bouncerReceiver struct{}

func (bouncerReceiver) Invoke(env *host.Env, method string, args []byte) ([]byte, error) {
	if method != contract.MethodOnTransfer {
		return nil, fmt.Errorf("bouncer: unknown method %s", method)
	}
	var a contract.OnTransferArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	env.Log(fmt.Sprintf("bouncer: returning %s to %s", a.TokenID, a.SenderID))
	return json.Marshal(true)
}

func run(cfg *config.Config, db storage.DB) error {
	logger := klog.WithContract(cfg.ContractID)

	c, err := contract.New(types.AccountID(cfg.ContractID), db)
	if err != nil {
		return err
	}
	rt := host.NewRuntime()
	for id, acct := range map[types.AccountID]host.Contract{
		c.ID():    c,
		"vault":   vaultReceiver{},
		"bouncer": bouncerReceiver{},
	} {
		if err := rt.Register(id, acct); err != nil {
			return err
		}
	}

	call := func(caller types.AccountID, method string, args any) (host.Result, error) {
		b, err := json.Marshal(args)
		if err != nil {
			return host.Result{}, err
		}
		p := rt.Submit(caller, c.ID(), method, b)
		rt.Run()
		res, ok := rt.ResultOf(p)
		if !ok {
			return host.Result{}, errors.New(method + " did not settle")
		}
		return res, nil
	}

	// Mint one token with an explicit ID and one with a derived ID.
	if _, err := call("bob", contract.MethodMint, contract.MintArgs{
		OwnerID: "bob", TokenID: "sword-1",
	}); err != nil {
		return err
	}
	res, err := call("bob", contract.MethodMint, contract.MintArgs{OwnerID: "bob"})
	if err != nil {
		return err
	}
	var derived types.TokenID
	if err := json.Unmarshal(res.Value, &derived); err != nil {
		return fmt.Errorf("decode minted id: %w", err)
	}
	logger.Info().Str("token", derived.String()).Msg("minted derived token")

	// Grant carol an approval and let her move the derived token.
	if _, err := call("bob", contract.MethodApprove, contract.ApproveArgs{
		TokenID: derived, AccountID: "carol",
	}); err != nil {
		return err
	}
	if _, err := call("carol", contract.MethodTransfer, contract.TransferArgs{
		ReceiverID: "dave", TokenID: derived, Memo: "for dave",
	}); err != nil {
		return err
	}

	// A transfer-call the receiver accepts, then one it refuses.
	kept, err := transferCall(rt, c.ID(), "bob", "vault", "sword-1", "hold this")
	if err != nil {
		return err
	}
	logger.Info().Bool("kept", kept).Msg("vault transfer-call finalized")

	kept, err = transferCall(rt, c.ID(), "dave", "bouncer", derived, "try this")
	if err != nil {
		return err
	}
	logger.Info().Bool("kept", kept).Msg("bouncer transfer-call finalized")

	// Wind the session down.
	if _, err := call("dave", contract.MethodBurn, contract.BurnArgs{
		TokenID: derived, Memo: "spent",
	}); err != nil {
		return err
	}

	fmt.Println("--- emitted events ---")
	for _, line := range rt.Logs() {
		if strings.HasPrefix(line, event.LogPrefix) {
			fmt.Println(line)
		}
	}
	return nil
}

func transferCall(rt *host.Runtime, contractID, caller, receiver types.AccountID, id types.TokenID, msg string) (bool, error) {
	b, err := json.Marshal(contract.TransferCallArgs{
		TransferArgs: contract.TransferArgs{ReceiverID: receiver, TokenID: id},
		Msg:          msg,
	})
	if err != nil {
		return false, err
	}
	p := rt.Submit(caller, contractID, contract.MethodTransferCall, b)
	rt.Run()
	res, ok := rt.ResultOf(p)
	if !ok {
		return false, errors.New("transfer-call did not settle")
	}
	if !res.Ok {
		return false, errors.New("transfer-call failed")
	}
	var kept bool
	if err := json.Unmarshal(res.Value, &kept); err != nil {
		return false, fmt.Errorf("decode finalize result: %w", err)
	}
	return kept, nil
}
