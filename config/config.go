package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Prefix is prepended to every variable name, e.g. PRESALE_RPC_URL.
const Prefix = "PRESALE_"

// Config configures the presale daemon.
type Config struct {
	RPCURL     string        `env:"RPC_URL" envDefault:"http://127.0.0.1:8899"`
	WSURL      string        `env:"WS_URL"`
	Commitment string        `env:"COMMITMENT" envDefault:"finalized"`
	Simulate   bool          `env:"SIMULATE"`
	MaxRetry   time.Duration `env:"MAX_RETRY" envDefault:"10s"`

	// Factory is the factory whose presales are settled.
	Factory solana.PublicKey `env:"FACTORY,required"`
	// KeypairPath is a solana-keygen JSON file. The key pays for and signs settlements.
	KeypairPath string `env:"KEYPAIR,required"`

	// DatabaseDSN enables the postgres event index.
	DatabaseDSN string `env:"DATABASE_DSN"`
	// AMQPURL enables event publishing.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"presale.events"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	Settle         bool   `env:"SETTLE" envDefault:"true"`
	SettleSchedule string `env:"SETTLE_SCHEDULE" envDefault:"0 * * * * *"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: Prefix})
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.RPCCommitment(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%sLOG_LEVEL: %w", Prefix, err)
	}
	if c.Factory.IsZero() {
		return fmt.Errorf("%sFACTORY must not be the zero key", Prefix)
	}
	return nil
}

func (c *Config) RPCCommitment() (rpc.CommitmentType, error) {
	switch commitment := rpc.CommitmentType(c.Commitment); commitment {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return commitment, nil
	}
	return "", fmt.Errorf("%sCOMMITMENT %q: want processed, confirmed or finalized", Prefix, c.Commitment)
}

// Wallet loads the signing keypair.
func (c *Config) Wallet() (*solana.Wallet, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(c.KeypairPath)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", c.KeypairPath, err)
	}
	return &solana.Wallet{PrivateKey: key}, nil
}

// Logger builds a production logger, or a development one when LogDevelopment is set.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
