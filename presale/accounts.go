package presale

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	solanago "github.com/krazyTry/presale-go/solana"
)

type accountReader interface {
	Get(key solana.PublicKey) ([]byte, bool)
}

type marshaler interface {
	Marshal() ([]byte, error)
}

func load[T any](r accountReader, key solana.PublicKey, kind string, parse func([]byte) (*T, error)) (*T, error) {
	data, ok := r.Get(key)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, key, ErrAccountNotFound)
	}
	obj, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", kind, key, err, ErrInvalidAccount)
	}
	return obj, nil
}

func store(t *Txn, key solana.PublicKey, obj marshaler) error {
	data, err := obj.Marshal()
	if err != nil {
		return err
	}
	return t.Put(key, data)
}

func exists(r accountReader, key solana.PublicKey) bool {
	_, ok := r.Get(key)
	return ok
}

func loadFactory(r accountReader, key solana.PublicKey) (*presalegen.Factory, error) {
	return load(r, key, "factory", presalegen.ParseAccount_Factory)
}

func loadPresale(r accountReader, key solana.PublicKey) (*presalegen.Presale, error) {
	return load(r, key, "presale", presalegen.ParseAccount_Presale)
}

func loadPurchase(r accountReader, key solana.PublicKey) (*presalegen.Purchase, error) {
	return load(r, key, "purchase", presalegen.ParseAccount_Purchase)
}

func loadToken(r accountReader, key solana.PublicKey) (*solanago.Account, error) {
	account, err := load(r, key, "token account", new(solanago.AccountLayout).Decode)
	if err != nil {
		return nil, err
	}
	account.Address = key
	return account, nil
}

func storeToken(t *Txn, account *solanago.Account) error {
	data, err := new(solanago.AccountLayout).Encode(account)
	if err != nil {
		return err
	}
	return t.Put(account.Address, data)
}

func expectAccount(name string, got, want solana.PublicKey) error {
	if !got.Equals(want) {
		return fmt.Errorf("%s: expected %s, got %s: %w", name, want, got, ErrInvalidAccount)
	}
	return nil
}
