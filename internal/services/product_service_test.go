package services_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/services"
	"tokoadmin/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.ProductRecord, error) {
	args := m.Called()
	return args.Get(0).([]models.ProductRecord), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.ProductRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductRecord), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.ProductRecord) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.ProductRecord) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) SetActive(id string, active bool) error {
	args := m.Called(id, active)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

func TestProductService_ListProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("GetAll").Return([]models.ProductRecord{
		{ID: "1", Name: "Product A", Price: 10.0, Stock: 100, IsActive: true},
		{ID: "2", Name: "Product B", Price: 20.0, Stock: 50},
	}, nil).Once()

	products, err := service.ListProducts()

	assert.NoError(t, err)
	assert.Equal(t, []models.Product{
		{ID: "1", Name: "Product A", Price: 10.0, Stock: 100, IsActive: true},
		{ID: "2", Name: "Product B", Price: 20.0, Stock: 50},
	}, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher)

	mockRepo.On("Create", mock.MatchedBy(func(p *models.ProductRecord) bool {
		return p.Name == "Cap" && p.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*models.ProductRecord).ID = "p1"
	}).Return(nil).Once()
	publisher.On("Publish", rabbitmq.CatalogExchange, "product.created", mock.Anything).Return(nil).Once()

	product, err := service.CreateProduct(models.ProductForm{Name: "Cap", Description: "Blue cap", Price: 50, Stock: 10})

	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.True(t, product.IsActive)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	body := publisher.Calls[0].Arguments.Get(2).([]byte)
	var event services.ProductEvent
	require.NoError(t, json.Unmarshal(body, &event))
	assert.Equal(t, services.OpCreated, event.Operation)
	assert.Equal(t, "p1", event.ID)
}

func TestProductService_CreateProductFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher)

	mockRepo.On("Create", mock.Anything).Return(fmt.Errorf("database error")).Once()

	_, err := service.CreateProduct(models.ProductForm{Name: "Cap", Description: "Blue cap", Price: 50, Stock: 10})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expected := &models.ProductRecord{ID: "1", Name: "Product A Updated", Description: "Updated", Price: 12.0, Stock: 95}
	mockRepo.On("Update", expected).Return(nil).Once()
	err := service.UpdateProduct("1", models.ProductForm{Name: "Product A Updated", Description: "Updated", Price: 12.0, Stock: 95})
	assert.NoError(t, err)

	mockRepo.On("Update", mock.Anything).Return(fmt.Errorf("product with ID 99 for update: %w", repositories.ErrProductNotFound)).Once()
	err = service.UpdateProduct("99", models.ProductForm{Name: "NonExistent", Description: "x", Price: 1.0, Stock: 1})
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_ToggleStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	publisher := new(MockPublisher)
	service := services.NewProductService(mockRepo, publisher)

	mockRepo.On("SetActive", "1", false).Return(nil).Once()
	mockRepo.On("SetActive", "1", true).Return(nil).Once()
	publisher.On("Publish", rabbitmq.CatalogExchange, "product.deactivated", mock.Anything).Return(nil).Once()
	publisher.On("Publish", rabbitmq.CatalogExchange, "product.restored", mock.Anything).Return(fmt.Errorf("channel closed")).Once()

	assert.NoError(t, service.DeactivateProduct("1"))
	assert.NoError(t, service.RestoreProduct("1"), "publish failures do not fail the change")
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct("1")
	assert.NoError(t, err)

	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99 for deletion: %w", repositories.ErrProductNotFound)).Once()
	err = service.DeleteProduct("99")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}
