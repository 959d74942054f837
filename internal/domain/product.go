package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID        string // uuid
	Name      string
	Category  string
	Price     int64 // Цена хранится в центах
	ImageRef  string
	Position  int64 // Порядковый номер добавления в каталог
	CreatedAt time.Time
}

func NewProduct(id string, name string, category string, price int64, imageRef string) *Product {
	return &Product{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    price,
		ImageRef: imageRef,
	}
}
