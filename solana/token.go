package solana

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
)

// Token is a decoded SPL mint and the program owning it.
type Token struct {
	token.Mint
	Owner solana.PublicKey
}

// UiAmount scales a raw amount of this mint by its decimals.
func (t *Token) UiAmount(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(t.Decimals))
}

type TokenLayout struct {
}

func (l *TokenLayout) Decode(data []byte) (*Token, error) {
	mint := token.Mint{}

	if err := mint.Decode(data); err != nil {
		return nil, fmt.Errorf("decode mint: %w", err)
	}
	if !mint.IsInitialized {
		return nil, fmt.Errorf("mint is not initialized")
	}
	return &Token{Mint: mint}, nil
}
