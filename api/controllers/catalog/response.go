package catalog

import (
	catalogsvc "github.com/angelmondragon/storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// suggestion is the trimmed product shape used by the search dropdown.
type suggestion struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
}

func suggestionsFrom(products []catalogsvc.Product) []suggestion {
	out := make([]suggestion, 0, len(products))
	for _, p := range products {
		out = append(out, suggestion{
			ID:       p.ID,
			Title:    p.Title,
			Category: p.Category,
			Price:    p.Price,
			Image:    p.Image,
		})
	}
	return out
}
