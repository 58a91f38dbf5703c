package expense

import "time"

// Expense is the persisted row. Amount is in minor units; Date is YYYY-MM-DD.
// IdempotencyKey is nullable so any number of rows may omit it.
type Expense struct {
	ID             string    `gorm:"column:id;primaryKey;type:varchar(36)" bson:"_id"`
	Amount         int64     `gorm:"column:amount;not null" bson:"amount"`
	Category       string    `gorm:"column:category;not null" bson:"category"`
	Description    string    `gorm:"column:description;not null" bson:"description"`
	Date           string    `gorm:"column:date;type:varchar(10);not null;index" bson:"date"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index" bson:"created_at"`
	IdempotencyKey *string   `gorm:"column:idempotency_key;uniqueIndex" bson:"idempotency_key,omitempty"`
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}
