package handlers

import (
	"errors"
	"log"

	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/services"
	"tokoadmin/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog API used by the admin console.
type ProductHandler struct {
	service  *services.ProductService
	validate *validation.Validator
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, v *validation.Validator) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: v,
	}
}

// RegisterRoutes registers the product routes with the Fiber router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/product-list", h.HandleList)
	router.Post("/product-create", h.HandleCreate)
	router.Post("/product-update", h.HandleUpdate)
	router.Post("/product-soft-delete", h.HandleSoftDelete)
	router.Post("/product-restore", h.HandleRestore)
	router.Post("/product-hard-delete", h.HandleHardDelete)
}

// HandleList returns every product.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.ListProducts()
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(models.ProductListResponse{Data: products})
}

// HandleCreate creates a product.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var form models.ProductForm
	if ok, err := h.bind(c, &form); !ok {
		return err
	}

	product, err := h.service.CreateProduct(form)
	if err != nil {
		return h.fail(c, "create", err)
	}
	log.Printf("Created product %s", product.ID)
	return c.Status(fiber.StatusCreated).JSON(models.MessageResponse{Message: "Product created successfully"})
}

// HandleUpdate replaces the editable fields of a product.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.ProductUpdate
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.service.UpdateProduct(req.ID, req.ProductForm); err != nil {
		return h.fail(c, "update", err)
	}
	return c.JSON(models.MessageResponse{Message: "Product updated successfully"})
}

// HandleSoftDelete deactivates a product.
func (h *ProductHandler) HandleSoftDelete(c *fiber.Ctx) error {
	var req models.ProductRef
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.service.DeactivateProduct(req.ID); err != nil {
		return h.fail(c, "deactivate", err)
	}
	return c.JSON(models.MessageResponse{Message: "Product deactivated successfully"})
}

// HandleRestore reactivates a product.
func (h *ProductHandler) HandleRestore(c *fiber.Ctx) error {
	var req models.ProductRef
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.service.RestoreProduct(req.ID); err != nil {
		return h.fail(c, "restore", err)
	}
	return c.JSON(models.MessageResponse{Message: "Product restored successfully"})
}

// HandleHardDelete permanently deletes a product.
func (h *ProductHandler) HandleHardDelete(c *fiber.Ctx) error {
	var req models.ProductRef
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	if err := h.service.DeleteProduct(req.ID); err != nil {
		return h.fail(c, "delete", err)
	}
	return c.JSON(models.MessageResponse{Message: "Product deleted successfully"})
}

// bind parses and validates the request body. When it reports false the
// 400 response has already been written.
func (h *ProductHandler) bind(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if fields := h.validate.Fields(dst); len(fields) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fields,
		})
	}
	return true, nil
}

func (h *ProductHandler) fail(c *fiber.Ctx, op string, err error) error {
	log.Printf("Error during product %s: %v", op, err)
	if errors.Is(err, repositories.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not " + op + " product",
		"error":   err.Error(),
	})
}
