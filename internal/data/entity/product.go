package entity

type ProductStatus string

const (
	ProductStatusActive ProductStatus = "active"
	ProductStatusSold   ProductStatus = "sold"
)

type Product struct {
	Base
	Title  string        `db:"title"`
	Price  float64       `db:"price"`
	Status ProductStatus `db:"status"`
}
