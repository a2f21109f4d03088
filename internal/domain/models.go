package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is a user's financial document together with its extracted fields.
type Document struct {
	ID               int64               `db:"id" json:"id"`
	UserID           int64               `db:"user_id" json:"user_id"`
	FilePath         *string             `db:"file_path" json:"file_path,omitempty"`
	OriginalName     *string             `db:"original_name" json:"original_name,omitempty"`
	FileType         *FileType           `db:"file_type" json:"file_type,omitempty"`
	DocKind          *DocumentKind       `db:"doc_type" json:"doc_type,omitempty"`
	Date             *time.Time          `db:"doc_date" json:"date,omitempty"`
	Time             *string             `db:"doc_time" json:"time,omitempty"`
	Merchant         *string             `db:"merchant" json:"merchant,omitempty"`
	Location         *string             `db:"location" json:"location,omitempty"`
	TotalAmount      decimal.NullDecimal `db:"total_amount" json:"total_amount"`
	Currency         string              `db:"currency" json:"currency"`
	IsIncome         bool                `db:"is_income" json:"is_income"`
	IsRecurring      bool                `db:"is_recurring" json:"is_recurring"`
	OCRRawText       *string             `db:"ocr_raw_text" json:"ocr_raw_text,omitempty"`
	OCRConfidence    decimal.NullDecimal `db:"ocr_confidence" json:"ocr_confidence"`
	ProcessingStatus ProcessingStatus    `db:"processing_status" json:"processing_status"`
	ProcessingError  *string             `db:"processing_error" json:"processing_error,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`

	Items []Item `db:"-" json:"items,omitempty"`
	Tags  []Tag  `db:"-" json:"tags,omitempty"`
}

// Item is one line of a document. Items created by extraction are replaced
// wholesale on every successful run.
type Item struct {
	ID         int64               `db:"id" json:"id"`
	DocumentID int64               `db:"document_id" json:"document_id"`
	Name       string              `db:"name" json:"name"`
	Quantity   decimal.Decimal     `db:"quantity" json:"quantity"`
	Unit       *string             `db:"unit" json:"unit,omitempty"`
	UnitPrice  decimal.NullDecimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.NullDecimal `db:"total_price" json:"total_price"`
	Category   *string             `db:"category" json:"category,omitempty"`
	CreatedAt  time.Time           `db:"created_at" json:"created_at"`
}

// Tag is a user-owned label that can be attached to documents.
type Tag struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	Icon      *string   `db:"icon" json:"icon,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Column widths enforced when merging extracted values.
const (
	CurrencyWidth = 3
	MerchantWidth = 255
	LocationWidth = 255
	ItemNameWidth = 255
)
