package repositories

import (
	"errors"

	"tokoadmin/internal/models"
)

// ErrProductNotFound is returned when no product has the requested ID.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.ProductRecord, error)
	GetByID(id string) (*models.ProductRecord, error)
	Create(product *models.ProductRecord) error
	Update(product *models.ProductRecord) error
	SetActive(id string, active bool) error
	Delete(id string) error
}
