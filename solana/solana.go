package solana

import "github.com/gagliardetto/solana-go"

// Filter matches Key at Offset of an account's data.
type Filter struct {
	Key    solana.PublicKey
	Offset uint64
}
