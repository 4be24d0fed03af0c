package store

import (
	"encoding/json"
	"time"
)

type FactoryRecord struct {
	Address     string    `gorm:"primarykey;size:44" json:"address"`
	Owner       string    `gorm:"size:44;not null" json:"owner"`
	PlatformFee uint64    `gorm:"not null;default:0" json:"platform_fee"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FactoryRecord) TableName() string {
	return "factories"
}

// PresaleRecord is the indexed view of a presale, maintained from its events.
type PresaleRecord struct {
	Address     string    `gorm:"primarykey;size:44" json:"address"`
	Owner       string    `gorm:"size:44;not null" json:"owner"`
	StartSale   int64     `gorm:"not null" json:"start_sale"`
	EndSale     int64     `gorm:"not null" json:"end_sale"`
	State       string    `gorm:"size:16;not null;default:'active'" json:"state"`
	FundsRaised uint64    `gorm:"not null;default:0" json:"funds_raised"`
	TokensSold  uint64    `gorm:"not null;default:0" json:"tokens_sold"`
	PlatformFee uint64    `gorm:"not null;default:0" json:"platform_fee"`
	FinalizedAt int64     `gorm:"not null;default:0" json:"finalized_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PresaleRecord) TableName() string {
	return "presales"
}

type PurchaseRecord struct {
	Presale       string    `gorm:"primarykey;size:44" json:"presale"`
	Buyer         string    `gorm:"primarykey;size:44" json:"buyer"`
	Contributed   uint64    `gorm:"not null;default:0" json:"contributed"`
	TokensOwed    uint64    `gorm:"not null;default:0" json:"tokens_owed"`
	TokensClaimed uint64    `gorm:"not null;default:0" json:"tokens_claimed"`
	Refunded      uint64    `gorm:"not null;default:0" json:"refunded"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PurchaseRecord) TableName() string {
	return "purchases"
}

// EventRecord is one program event in the order it was indexed. Account is the factory or
// presale the event belongs to.
type EventRecord struct {
	ID        uint64          `gorm:"primarykey" json:"id"`
	Name      string          `gorm:"size:32;not null" json:"name"`
	Account   string          `gorm:"size:44;not null" json:"account"`
	Payload   json.RawMessage `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (EventRecord) TableName() string {
	return "presale_events"
}
