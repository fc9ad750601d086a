package models

import "time"

// Product represents a product as served by the catalog API.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"isActive"`
}

// ProductForm holds the editable fields of a product, as submitted by the
// add and update dialogs.
type ProductForm struct {
	Name        string  `json:"name" form:"name" validate:"min=2"`
	Description string  `json:"description" form:"description" validate:"min=2"`
	Price       float64 `json:"price" form:"price" validate:"gte=1"`
	Stock       int     `json:"stock" form:"stock" validate:"gte=1"`
}

// FormOf returns the editable fields of p.
func FormOf(p Product) ProductForm {
	return ProductForm{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
	}
}

// ProductUpdate is the body of an update request.
type ProductUpdate struct {
	ID string `json:"id" validate:"required"`
	ProductForm
}

// ProductRef is the body of the soft-delete, restore and hard-delete requests.
type ProductRef struct {
	ID string `json:"id" validate:"required"`
}

// ProductListResponse is the body returned by the product-list endpoint.
type ProductListResponse struct {
	Data []Product `json:"data"`
}

// MessageResponse is the body returned by every mutating endpoint.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductRecord is the stored form of a product in the catalog stub.
type ProductRecord struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"not null"`
	Stock       int       `gorm:"not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name so both drivers agree on it.
func (ProductRecord) TableName() string {
	return "products"
}

// ToProduct converts the stored record to its API representation.
func (r ProductRecord) ToProduct() Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
}
