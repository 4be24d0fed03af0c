package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/tidwall/gjson"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	solanago "github.com/krazyTry/presale-go/solana"
)

// customErrorPaths locate anchor's custom error code in a preflight error or simulation result.
var customErrorPaths = []string{
	"err.InstructionError.1.Custom",
	"InstructionError.1.Custom",
}

// ProgramErrorFrom maps a failed send or simulation to the program error it carries, wrapping
// the original error. Errors without a known custom code are returned unchanged.
func ProgramErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	var payload any
	var simErr *solanago.SimulationError
	var rpcErr *jsonrpc.RPCError
	switch {
	case errors.As(err, &simErr):
		payload = simErr.Err
	case errors.As(err, &rpcErr):
		payload = rpcErr.Data
	default:
		return err
	}
	raw, mErr := json.Marshal(payload)
	if mErr != nil {
		return err
	}
	for _, path := range customErrorPaths {
		code := gjson.GetBytes(raw, path)
		if !code.Exists() {
			continue
		}
		if programErr, ok := presalegen.ErrorFromCode(uint32(code.Uint())); ok {
			return fmt.Errorf("%w: %w", programErr, err)
		}
	}
	return err
}

func notFound(kind string, err error) error {
	if errors.Is(err, rpc.ErrNotFound) {
		return fmt.Errorf("%s: %w", kind, presalegen.ErrAccountNotFound)
	}
	return err
}
