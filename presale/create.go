package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale/math"
	"github.com/krazyTry/presale-go/u128"
)

// PresaleConfig holds the create_presale parameters, echoed unchanged into the Presale.
type PresaleConfig = presalegen.CreatePresaleArgs

// ValidateConfig checks a presale configuration without touching the ledger.
func ValidateConfig(cfg PresaleConfig) error {
	switch {
	case cfg.Owner.IsZero() || cfg.Token.IsZero():
		return fmt.Errorf("owner and token are required: %w", ErrInvalidConfig)
	case !cfg.IsNative && cfg.PaymentToken.IsZero():
		return fmt.Errorf("payment token is required for non-native presales: %w", ErrInvalidConfig)
	case cfg.HardCap == 0 || cfg.SoftCap > cfg.HardCap:
		return ErrInvalidCap
	case cfg.StartSale >= cfg.EndSale:
		return ErrInvalidTime
	case cfg.MaxBuy == 0 || cfg.MinBuy > cfg.MaxBuy || cfg.MaxBuy > cfg.HardCap:
		return ErrInvalidMinMax
	case cfg.PresaleRate == 0:
		return fmt.Errorf("presale rate must be positive: %w", ErrInvalidConfig)
	case cfg.LiquidityPercent > math.PercentMax:
		return fmt.Errorf("liquidity percent %d: %w", cfg.LiquidityPercent, ErrInvalidConfig)
	case cfg.IsAutoListing && cfg.ListingRate == 0:
		return fmt.Errorf("auto listing needs a listing rate: %w", ErrInvalidConfig)
	case cfg.IsFund && cfg.IsVesting:
		return fmt.Errorf("fund mode delivers at purchase and cannot vest: %w", ErrInvalidConfig)
	}
	if cfg.IsVesting {
		if err := math.ValidateVestingSchedule(cfg.FirstReleasePercent, cfg.VestingPeriod, cfg.TokensReleasePercent); err != nil {
			return fmt.Errorf("vesting schedule: %w", err)
		}
	}
	return nil
}

// CreatePresale opens a presale under factory. creator must own the factory and hold the sale
// tokens the presale can distribute in its associated token account.
func (p *Program) CreatePresale(ctx context.Context, factory, creator solana.PublicKey, cfg PresaleConfig) (solana.PublicKey, *presalegen.Presale, error) {
	var (
		address solana.PublicKey
		obj     *presalegen.Presale
	)
	err := p.execResolved(ctx, "create_presale", func() ([]solana.PublicKey, func(*Txn) error, error) {
		accounts, err := p.resolveCreatePresale(factory, creator, cfg)
		if err != nil {
			return nil, nil, err
		}
		address = accounts.Presale
		writable, fn, err := p.createPresaleTxn(accounts, cfg, &obj)
		return writable, fn, err
	})
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	p.logger.Info("presale created",
		zap.Stringer("presale", address),
		zap.Stringer("factory", factory),
		zap.Uint64("id", obj.ID))
	return address, obj, nil
}

func (p *Program) resolveCreatePresale(factory, creator solana.PublicKey, cfg PresaleConfig) (presalegen.CreatePresaleAccounts, error) {
	f, err := loadFactory(p.ledger, factory)
	if err != nil {
		return presalegen.CreatePresaleAccounts{}, err
	}
	return presalegen.ResolveCreatePresale(factory, f.PresaleCount, creator, cfg)
}

func (p *Program) createPresale(ctx context.Context, accounts presalegen.CreatePresaleAccounts, cfg PresaleConfig) (*presalegen.Presale, error) {
	var obj *presalegen.Presale
	writable, fn, err := p.createPresaleTxn(accounts, cfg, &obj)
	if err != nil {
		return nil, err
	}
	if err := p.exec(ctx, "create_presale", writable, fn); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *Program) createPresaleTxn(accounts presalegen.CreatePresaleAccounts, cfg PresaleConfig, out **presalegen.Presale) ([]solana.PublicKey, func(*Txn) error, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}
	vaults, err := presalegen.DeriveVaults(accounts.Presale)
	if err != nil {
		return nil, nil, err
	}
	paymentMint := presalegen.PaymentMint(cfg.IsNative, cfg.PaymentToken)
	for _, check := range []struct {
		name      string
		got, want solana.PublicKey
	}{
		{"presale authority", accounts.PresaleAuthority, vaults.Authority},
		{"presale vault", accounts.PresaleVault, vaults.PresaleVault},
		{"token vault", accounts.TokenVault, vaults.TokenVault},
		{"token mint", accounts.TokenMint, cfg.Token},
		{"payment mint", accounts.PaymentMint, paymentMint},
	} {
		if err := expectAccount(check.name, check.got, check.want); err != nil {
			return nil, nil, err
		}
	}
	required, err := math.RequiredSaleTokens(cfg.HardCap, cfg.PresaleRate, cfg.IsAutoListing, cfg.LiquidityPercent, cfg.ListingRate)
	if err != nil {
		return nil, nil, err
	}

	writable := []solana.PublicKey{
		accounts.Factory,
		accounts.Presale,
		accounts.PresaleVault,
		accounts.TokenVault,
		accounts.OwnerTokenAccount,
	}
	fn := func(t *Txn) error {
		factory, err := loadFactory(t, accounts.Factory)
		if err != nil {
			return err
		}
		if !factory.Owner.Equals(accounts.Owner) {
			return ErrUnauthorized
		}
		expected, err := presalegen.DerivePresalePDA(accounts.Factory, factory.PresaleCount)
		if err != nil {
			return err
		}
		if !expected.Equals(accounts.Presale) {
			return fmt.Errorf("presale %s is not the next id %d: %w: %w", accounts.Presale, factory.PresaleCount, errStaleAccounts, ErrInvalidAccount)
		}
		if exists(t, accounts.Presale) {
			return fmt.Errorf("presale %s: %w", accounts.Presale, ErrAccountAlreadyInitialized)
		}

		if _, err := ensureTokenAccount(t, accounts.TokenVault, vaults.Authority, cfg.Token); err != nil {
			return err
		}
		if _, err := ensureTokenAccount(t, accounts.PresaleVault, vaults.Authority, paymentMint); err != nil {
			return err
		}
		if err := transferTokens(t, accounts.OwnerTokenAccount, accounts.TokenVault, accounts.Owner, required); err != nil {
			return fmt.Errorf("deposit sale tokens: %w", err)
		}

		maxPlatformFee, err := math.PlatformCut(cfg.HardCap, factory.PlatformFee)
		if err != nil {
			return err
		}
		obj := newPresale(cfg)
		obj.MaxPlatformFee = maxPlatformFee
		obj.Factory = accounts.Factory
		obj.ID = factory.PresaleCount
		obj.TokenVault = accounts.TokenVault
		obj.PresaleVault = accounts.PresaleVault
		obj.State = presalegen.PresaleStateActive

		if factory.PresaleCount, err = u128.CheckedAdd(factory.PresaleCount, 1); err != nil {
			return ErrMathOverflow
		}
		if err := store(t, accounts.Presale, obj); err != nil {
			return err
		}
		if err := store(t, accounts.Factory, factory); err != nil {
			return err
		}
		t.Emit(presalegen.PresaleCreated{
			Presale:   accounts.Presale,
			Owner:     obj.Owner,
			StartSale: obj.StartSale,
			EndSale:   obj.EndSale,
		})
		*out = obj
		return nil
	}
	return writable, fn, nil
}

func newPresale(cfg PresaleConfig) *presalegen.Presale {
	return &presalegen.Presale{
		Owner:                cfg.Owner,
		Token:                cfg.Token,
		PaymentToken:         cfg.PaymentToken,
		DexRouter:            cfg.DexRouter,
		PresaleRate:          cfg.PresaleRate,
		SoftCap:              cfg.SoftCap,
		HardCap:              cfg.HardCap,
		MinBuy:               cfg.MinBuy,
		MaxBuy:               cfg.MaxBuy,
		StartSale:            cfg.StartSale,
		EndSale:              cfg.EndSale,
		LiquidityPercent:     cfg.LiquidityPercent,
		IsFund:               cfg.IsFund,
		IsNative:             cfg.IsNative,
		IsWhitelist:          cfg.IsWhitelist,
		IsAutoListing:        cfg.IsAutoListing,
		IsVesting:            cfg.IsVesting,
		FirstReleasePercent:  cfg.FirstReleasePercent,
		VestingPeriod:        cfg.VestingPeriod,
		TokensReleasePercent: cfg.TokensReleasePercent,
		ListingRate:          cfg.ListingRate,
		DemyAddress:          cfg.DemyAddress,
		LiquidityTime:        cfg.LiquidityTime,
		Qerralock:            cfg.Qerralock,
		UniswapFactory:       cfg.UniswapFactory,
	}
}
