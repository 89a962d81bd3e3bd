// Package view projects item collections into display lists. It holds no
// state: rendering the same collection twice yields the same result.
package view

import (
	"fmt"

	"github.com/feedme-app/feedme/internal/model"
)

// SignInPlaceholder is shown in place of a list when nobody is signed in.
const SignInPlaceholder = "Faça login para ver seus itens"

// unitLabels maps unit codes to their display labels. Unknown codes pass
// through unchanged.
var unitLabels = map[model.Unit]string{
	model.UnitUnidade: "unidade(s)",
	model.UnitKg:      "kg",
	model.UnitG:       "g",
	model.UnitL:       "L",
	model.UnitMl:      "ml",
	model.UnitPacote:  "pacote(s)",
	model.UnitCaixa:   "caixa(s)",
}

// UnitLabel returns the display label for a unit code.
func UnitLabel(u model.Unit) string {
	if label, ok := unitLabels[u]; ok {
		return label
	}
	return string(u)
}

// Row is one rendered list entry. ItemID addresses the increment, decrement
// and remove affordances; Display is the quantity with its unit label.
type Row struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Display  string `json:"display"`
}

// List is a rendered collection, or a placeholder when signed out.
type List struct {
	Rows        []Row  `json:"rows"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Render projects items into a List. With signedIn false the items are
// ignored and only the placeholder is produced.
func Render(items []model.Item, signedIn bool) List {
	if !signedIn {
		return List{Placeholder: SignInPlaceholder}
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, Row{
			ItemID:   item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Display:  fmt.Sprintf("%d %s", item.Quantity, UnitLabel(item.Unit)),
		})
	}
	return List{Rows: rows}
}
