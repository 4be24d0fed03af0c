package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	sendandconfirmtransaction "github.com/gagliardetto/solana-go/rpc/sendAndConfirmTransaction"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// SimulatedSignature is returned instead of a signature when a transaction is only simulated.
const SimulatedSignature = "-"

// Sender signs and submits transactions.
type Sender struct {
	RPC        *rpc.Client
	WS         *ws.Client
	Commitment rpc.CommitmentType
	Simulate   bool
}

// SignTransaction builds a transaction paid by payer and signs it with every wallet whose key
// it references.
func SignTransaction(
	instructions []solana.Instruction,
	blockhash solana.Hash,
	payer *solana.Wallet,
	signers ...*solana.Wallet,
) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, err
	}

	wallets := append([]*solana.Wallet{payer}, signers...)
	if _, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, w := range wallets {
			if w != nil && key.Equals(w.PublicKey()) {
				return &w.PrivateKey
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return tx, nil
}

// Send merges instructions, signs and submits them, then waits for confirmation over the
// websocket. In simulate mode the transaction is only simulated and SimulatedSignature returned.
func (s *Sender) Send(
	ctx context.Context,
	instructions []solana.Instruction,
	payer *solana.Wallet,
	signers ...*solana.Wallet,
) (string, error) {
	latestBlockhash, err := GetLatestBlockhash(ctx, s.RPC, s.Commitment)
	if err != nil {
		return "", err
	}

	tx, err := SignTransaction(MergeInstructions(instructions), latestBlockhash, payer, signers...)
	if err != nil {
		return "", err
	}

	if s.Simulate {
		out, err := s.RPC.SimulateTransactionWithOpts(
			ctx,
			tx,
			&rpc.SimulateTransactionOpts{
				SigVerify:  false,
				Commitment: s.Commitment,
			})
		if err != nil {
			return "", err
		}
		if out.Value != nil && out.Value.Err != nil {
			return "", &SimulationError{Err: out.Value.Err, Logs: out.Value.Logs}
		}
		return SimulatedSignature, nil
	}

	sig, err := s.RPC.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: s.Commitment,
		},
	)
	if err != nil {
		return "", err
	}

	if s.WS != nil {
		if _, err = sendandconfirmtransaction.WaitForConfirmation(ctx, s.WS, sig, nil); err != nil {
			return "", err
		}
	}
	return sig.String(), nil
}

// SimulationError is a transaction error reported by simulateTransaction.
type SimulationError struct {
	Err  any
	Logs []string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation failed: %v", e.Err)
}
