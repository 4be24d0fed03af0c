package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("record not found")

// Store indexes program events into postgres. It keeps the raw event log and a projection of
// factories, presales and purchases built from it.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db, opts...), nil
}

func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: zap.NewNop()}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	driver, err := pgmigrate.WithInstance(sqlDB, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	s.logger.Info("database migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// pointer normalizes events emitted by value to the pointer form ParseEvent returns.
func pointer(ev presalegen.Event) presalegen.Event {
	switch e := ev.(type) {
	case presalegen.FactoryInitialized:
		return &e
	case presalegen.PlatformFeeUpdated:
		return &e
	case presalegen.OwnershipTransferred:
		return &e
	case presalegen.PresaleCreated:
		return &e
	case presalegen.TokensPurchased:
		return &e
	case presalegen.PresaleFinalized:
		return &e
	case presalegen.PresaleCancelled:
		return &e
	case presalegen.Refunded:
		return &e
	case presalegen.TokensClaimed:
		return &e
	case presalegen.WhitelistUpdated:
		return &e
	}
	return ev
}

func eventRecord(ev presalegen.Event) (*EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	return &EventRecord{
		Name:    ev.EventName(),
		Account: ev.EventAccount().String(),
		Payload: payload,
	}, nil
}

// Emit appends ev to the event log and applies it to the projection in one database transaction.
func (s *Store) Emit(ctx context.Context, ev presalegen.Event) error {
	ev = pointer(ev)
	record, err := eventRecord(ev)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return project(tx, ev)
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", record.Name, err)
	}
	s.logger.Debug("event indexed", zap.String("event", record.Name), zap.String("account", record.Account))
	return nil
}

func project(tx *gorm.DB, ev presalegen.Event) error {
	switch e := ev.(type) {
	case *presalegen.FactoryInitialized:
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner", "platform_fee", "updated_at"}),
		}).Create(&FactoryRecord{
			Address:     e.Factory.String(),
			Owner:       e.Owner.String(),
			PlatformFee: e.PlatformFee,
		}).Error
	case *presalegen.PlatformFeeUpdated:
		return tx.Model(&FactoryRecord{}).
			Where("address = ?", e.Factory.String()).
			Update("platform_fee", e.NewPlatformFee).Error
	case *presalegen.OwnershipTransferred:
		return tx.Model(&FactoryRecord{}).
			Where("address = ?", e.Factory.String()).
			Update("owner", e.NewOwner.String()).Error
	case *presalegen.PresaleCreated:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&PresaleRecord{
			Address:   e.Presale.String(),
			Owner:     e.Owner.String(),
			StartSale: e.StartSale,
			EndSale:   e.EndSale,
			State:     presalegen.PresaleStateActive.String(),
		}).Error
	case *presalegen.TokensPurchased:
		if err := tx.Model(&PresaleRecord{}).
			Where("address = ?", e.Presale.String()).
			Updates(map[string]any{"funds_raised": e.FundsRaised, "tokens_sold": e.TokensSold}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "presale"}, {Name: "buyer"}},
			DoUpdates: clause.Assignments(map[string]any{
				"contributed": gorm.Expr("purchases.contributed + EXCLUDED.contributed"),
				"tokens_owed": gorm.Expr("purchases.tokens_owed + EXCLUDED.tokens_owed"),
				"updated_at":  gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).Create(&PurchaseRecord{
			Presale:     e.Presale.String(),
			Buyer:       e.Buyer.String(),
			Contributed: e.Amount,
			TokensOwed:  e.TokensOwed,
		}).Error
	case *presalegen.PresaleFinalized:
		return tx.Model(&PresaleRecord{}).
			Where("address = ?", e.Presale.String()).
			Updates(map[string]any{
				"state":        presalegen.PresaleStateFinalized.String(),
				"funds_raised": e.FundsRaised,
				"platform_fee": e.PlatformFee,
				"finalized_at": e.FinalizedAt,
			}).Error
	case *presalegen.PresaleCancelled:
		return tx.Model(&PresaleRecord{}).
			Where("address = ?", e.Presale.String()).
			Update("state", presalegen.PresaleStateCancelled.String()).Error
	case *presalegen.Refunded:
		return tx.Model(&PurchaseRecord{}).
			Where("presale = ? AND buyer = ?", e.Presale.String(), e.Buyer.String()).
			Update("refunded", gorm.Expr("refunded + ?", e.Amount)).Error
	case *presalegen.TokensClaimed:
		return tx.Model(&PurchaseRecord{}).
			Where("presale = ? AND buyer = ?", e.Presale.String(), e.Buyer.String()).
			Update("tokens_claimed", e.TotalClaimed).Error
	}
	return nil
}

// Events returns the events of account with an id above after, oldest first.
func (s *Store) Events(ctx context.Context, account string, after uint64, limit int) ([]EventRecord, error) {
	var list []EventRecord
	err := s.db.WithContext(ctx).
		Where("account = ? AND id > ?", account, after).
		Order("id").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return list, nil
}

func (s *Store) Presale(ctx context.Context, address string) (*PresaleRecord, error) {
	var record PresaleRecord
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query presale: %w", err)
	}
	return &record, nil
}

// Presales lists indexed presales, optionally restricted to one owner.
func (s *Store) Presales(ctx context.Context, owner string) ([]PresaleRecord, error) {
	var list []PresaleRecord
	q := s.db.WithContext(ctx).Order("created_at")
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("query presales: %w", err)
	}
	return list, nil
}

func (s *Store) Purchases(ctx context.Context, presale string) ([]PurchaseRecord, error) {
	var list []PurchaseRecord
	err := s.db.WithContext(ctx).Where("presale = ?", presale).Order("buyer").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	return list, nil
}
