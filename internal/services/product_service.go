package services

import (
	"encoding/json"
	"log"
	"time"

	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
	"tokoadmin/pkg/rabbitmq"
)

// Operations reported in product change events.
const (
	OpCreated     = "created"
	OpUpdated     = "updated"
	OpDeactivated = "deactivated"
	OpRestored    = "restored"
	OpDeleted     = "deleted"
)

// ProductEvent announces a change to the catalog.
type ProductEvent struct {
	Operation string    `json:"operation"`
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
}

// EventPublisher publishes raw messages to an exchange.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewProductService creates a new ProductService. events may be nil, in
// which case no change events are published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts retrieves all products, active or not.
func (s *ProductService) ListProducts() ([]models.Product, error) {
	records, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(records))
	for _, r := range records {
		products = append(products, r.ToProduct())
	}
	return products, nil
}

// CreateProduct creates a new, active product.
func (s *ProductService) CreateProduct(form models.ProductForm) (*models.Product, error) {
	record := &models.ProductRecord{
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		Stock:       form.Stock,
		IsActive:    true,
	}
	if err := s.repo.Create(record); err != nil {
		return nil, err
	}
	s.publish(OpCreated, record.ID)
	product := record.ToProduct()
	return &product, nil
}

// UpdateProduct replaces the editable fields of product id.
func (s *ProductService) UpdateProduct(id string, form models.ProductForm) error {
	err := s.repo.Update(&models.ProductRecord{
		ID:          id,
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		Stock:       form.Stock,
	})
	if err != nil {
		return err
	}
	s.publish(OpUpdated, id)
	return nil
}

// DeactivateProduct soft deletes product id.
func (s *ProductService) DeactivateProduct(id string) error {
	if err := s.repo.SetActive(id, false); err != nil {
		return err
	}
	s.publish(OpDeactivated, id)
	return nil
}

// RestoreProduct reactivates product id.
func (s *ProductService) RestoreProduct(id string) error {
	if err := s.repo.SetActive(id, true); err != nil {
		return err
	}
	s.publish(OpRestored, id)
	return nil
}

// DeleteProduct permanently deletes product id.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish(OpDeleted, id)
	return nil
}

// publish announces a change. Failures are logged only; the change itself
// has already been stored.
func (s *ProductService) publish(op, id string) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(ProductEvent{Operation: op, ID: id, At: time.Now().UTC()})
	if err != nil {
		log.Printf("Failed to marshal product event: %v", err)
		return
	}
	if err := s.events.Publish(rabbitmq.CatalogExchange, "product."+op, body); err != nil {
		log.Printf("Warning: Failed to publish product %s event for product %s: %v", op, id, err)
	}
}
