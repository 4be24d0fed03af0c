package solana

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// CurrentTime returns the block time of the latest slot at commitment.
func CurrentTime(ctx context.Context, rpcClient *rpc.Client, commitment rpc.CommitmentType) (int64, error) {
	currentSlot, err := rpcClient.GetSlot(ctx, commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get slot: %w", err)
	}
	currentTime, err := rpcClient.GetBlockTime(ctx, currentSlot)
	if err != nil {
		return 0, fmt.Errorf("failed to get block time: %w", err)
	}
	if currentTime == nil {
		return 0, fmt.Errorf("no block time for slot %d", currentSlot)
	}
	return currentTime.Time().Unix(), nil
}

func GetLatestBlockhash(ctx context.Context, rpcClient *rpc.Client, commitment rpc.CommitmentType) (solana.Hash, error) {
	recent, err := rpcClient.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return solana.Hash{}, err
	}
	return recent.Value.Blockhash, nil
}

func discriminator(name string) []byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out[:]
}

// GenProgramAccountFilter selects program accounts of type key. Filters with a zero key are skipped.
func GenProgramAccountFilter(key string, commitment rpc.CommitmentType, filters ...Filter) *rpc.GetProgramAccountsOpts {
	opt := &rpc.GetProgramAccountsOpts{
		Commitment: commitment,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: 0,
					Bytes:  discriminator(key),
				},
			},
		},
	}
	for _, f := range filters {
		if f.Key.IsZero() {
			continue
		}
		opt.Filters = append(opt.Filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: f.Offset,
				Bytes:  f.Key.Bytes(),
			},
		})
	}
	return opt
}

func GetAccountInfo(ctx context.Context, rpcClient *rpc.Client, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetAccountInfoResult, error) {
	return rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{Commitment: commitment})
}

func GetMultipleAccountInfo(ctx context.Context, rpcClient *rpc.Client, accounts []solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetMultipleAccountsResult, error) {
	return rpcClient.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{Commitment: commitment, Encoding: solana.EncodingBase64})
}

// GetMultipleToken fetches mints; missing accounts are returned as nil.
func GetMultipleToken(ctx context.Context, rpcClient *rpc.Client, commitment rpc.CommitmentType, tokens ...solana.PublicKey) ([]*Token, error) {
	outs, err := GetMultipleAccountInfo(ctx, rpcClient, tokens, commitment)
	if err != nil {
		return nil, err
	}
	list := make([]*Token, len(outs.Value))
	for i, out := range outs.Value {
		if out == nil {
			continue
		}

		token, err := new(TokenLayout).Decode(out.Data.GetBinary())
		if err != nil {
			return nil, err
		}
		token.Owner = out.Owner

		list[i] = token
	}
	return list, nil
}
