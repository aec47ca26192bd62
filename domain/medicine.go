package domain

import "github.com/shopspring/decimal"

type Medicine struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Unit        *string         `db:"unit" json:"unit,omitempty"`
	Category    *string         `db:"category" json:"category,omitempty"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

// UnitOrDefault returns the medicine's unit, falling back to "units".
func (m Medicine) UnitOrDefault() string {
	return unitOrDefault(m.Unit)
}

func unitOrDefault(unit *string) string {
	if unit == nil || *unit == "" {
		return "units"
	}
	return *unit
}
