package catalog

import "github.com/shopspring/decimal"

func product(id int, title, category string, price int64) Product {
	return Product{ID: id, Title: title, Category: category, Price: decimal.NewFromInt(price)}
}

func sampleProducts() []Product {
	return []Product{
		product(1, "Red Shirt", "clothing", 20),
		product(2, "Blue Shirt", "clothing", 40),
		product(3, "Phone", "electronics", 300),
	}
}

func ids(products []Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
