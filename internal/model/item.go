package model

import "time"

// Unit is the measurement unit of an item. The set is fixed; display labels
// live in the view layer.
type Unit string

const (
	UnitUnidade Unit = "unidade"
	UnitKg      Unit = "kg"
	UnitG       Unit = "g"
	UnitL       Unit = "l"
	UnitMl      Unit = "ml"
	UnitPacote  Unit = "pacote"
	UnitCaixa   Unit = "caixa"
)

// ValidUnit reports whether u is one of the fixed measurement units.
func ValidUnit(u Unit) bool {
	switch u {
	case UnitUnidade, UnitKg, UnitG, UnitL, UnitMl, UnitPacote, UnitCaixa:
		return true
	}
	return false
}

// Item is a pantry or shopping-list entry. IDs are millisecond timestamps
// assigned at creation; an item belongs to exactly one owner and appears in at
// most one of the two collections at a time.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Unit      Unit      `json:"unit"`
	Bought    int       `json:"bought,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
