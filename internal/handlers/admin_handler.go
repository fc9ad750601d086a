package handlers

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"math"
	"strconv"
	"strings"

	"tokoadmin/internal/admin"
	"tokoadmin/internal/modal"
	"tokoadmin/internal/models"
	"tokoadmin/internal/notify"
	"tokoadmin/internal/validation"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// formDialog is what the product form template reads from the add and
// update dialogs.
type formDialog interface {
	Form() models.ProductForm
	FieldError() *validation.Error
	SubmitLabel() string
	IsSubmitting() bool
}

type formView struct {
	Action string
	Dialog formDialog
}

type confirmView struct {
	Action     string
	Submitting bool
	Label      string
}

var templateFuncs = template.FuncMap{
	"formData": func(action string, d formDialog) formView {
		return formView{Action: action, Dialog: d}
	},
	"confirmData": func(action string, submitting bool, label string) confirmView {
		return confirmView{Action: action, Submitting: submitting, Label: label}
	},
}

// AdminHandler serves the product admin console.
type AdminHandler struct {
	page   *admin.Page
	toasts *notify.Queue
	tmpl   *template.Template
}

// NewAdminHandler parses the embedded templates once.
func NewAdminHandler(page *admin.Page, toasts *notify.Queue) (*AdminHandler, error) {
	tmpl, err := template.New("products.gohtml").Funcs(templateFuncs).ParseFS(templateFS, "templates/products.gohtml")
	if err != nil {
		return nil, err
	}
	return &AdminHandler{
		page:   page,
		toasts: toasts,
		tmpl:   tmpl,
	}, nil
}

// RegisterRoutes registers the console routes with the Fiber router.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
	router.Post("/refresh", h.HandleRefresh)

	tableRoutes := router.Group("/table")
	tableRoutes.Post("/sort/:column", h.HandleSort)
	tableRoutes.Post("/select-all", h.HandleSelectAll)
	tableRoutes.Post("/select/:id", h.HandleSelect)
	tableRoutes.Post("/filter", h.HandleFilter)

	addRoutes := router.Group("/modals/add")
	addRoutes.Post("/open", h.HandleAddOpen)
	addRoutes.Post("/submit", h.HandleAddSubmit)
	addRoutes.Post("/cancel", h.HandleAddCancel)

	productRoutes := router.Group("/products/:id")
	productRoutes.Post("/:dialog/open", h.HandleRowOpen)
	productRoutes.Post("/:dialog/submit", h.HandleRowSubmit)
	productRoutes.Post("/:dialog/cancel", h.HandleRowCancel)
}

// HandleIndex renders the product table.
func (h *AdminHandler) HandleIndex(c *fiber.Ctx) error {
	view := h.page.View()
	c.Type("html", "utf-8")
	if err := h.tmpl.Execute(c, view); err != nil {
		log.Printf("Error rendering product page: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Could not render page")
	}
	return nil
}

// HandleRefresh revalidates the product list.
func (h *AdminHandler) HandleRefresh(c *fiber.Ctx) error {
	h.page.Revalidate()
	return h.back(c)
}

// HandleSort toggles the sorting of a column.
func (h *AdminHandler) HandleSort(c *fiber.Ctx) error {
	if err := h.page.Table().ToggleSort(c.Params("column")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid sort column",
			"error":   err.Error(),
		})
	}
	return h.back(c)
}

// HandleSelectAll toggles the selection of every product the filter shows.
func (h *AdminHandler) HandleSelectAll(c *fiber.Ctx) error {
	tbl := h.page.Table()
	tbl.ToggleAll(tbl.Visible(h.page.Products()))
	return h.back(c)
}

// HandleSelect toggles the selection of one product.
func (h *AdminHandler) HandleSelect(c *fiber.Ctx) error {
	h.page.Table().ToggleSelected(c.Params("id"))
	return h.back(c)
}

// HandleFilter sets the name filter.
func (h *AdminHandler) HandleFilter(c *fiber.Ctx) error {
	h.page.Table().SetFilter(c.FormValue("q"))
	return h.back(c)
}

// HandleAddOpen opens the add dialog.
func (h *AdminHandler) HandleAddOpen(c *fiber.Ctx) error {
	h.page.Add().Open()
	return h.back(c)
}

// HandleAddSubmit submits the add dialog.
func (h *AdminHandler) HandleAddSubmit(c *fiber.Ctx) error {
	h.logSubmit("add", h.page.Add().Submit(parseForm(c)))
	return h.back(c)
}

// HandleAddCancel closes the add dialog.
func (h *AdminHandler) HandleAddCancel(c *fiber.Ctx) error {
	h.logSubmit("add", h.page.Add().Cancel())
	return h.back(c)
}

// HandleRowOpen opens one of a product's dialogs.
func (h *AdminHandler) HandleRowOpen(c *fiber.Ctx) error {
	return h.withRow(c, func(row *admin.RowModals, dialog string) error {
		switch dialog {
		case "update":
			row.Update.Open()
		case "toggle":
			row.Toggle.Open()
		case "delete":
			row.Delete.Open()
		}
		return nil
	})
}

// HandleRowSubmit submits or confirms one of a product's dialogs.
func (h *AdminHandler) HandleRowSubmit(c *fiber.Ctx) error {
	return h.withRow(c, func(row *admin.RowModals, dialog string) error {
		switch dialog {
		case "update":
			return row.Update.Submit(parseForm(c))
		case "toggle":
			return row.Toggle.Confirm()
		default:
			return row.Delete.Confirm()
		}
	})
}

// HandleRowCancel closes one of a product's dialogs.
func (h *AdminHandler) HandleRowCancel(c *fiber.Ctx) error {
	return h.withRow(c, func(row *admin.RowModals, dialog string) error {
		switch dialog {
		case "update":
			return row.Update.Cancel()
		case "toggle":
			return row.Toggle.Cancel()
		default:
			return row.Delete.Cancel()
		}
	})
}

func (h *AdminHandler) withRow(c *fiber.Ctx, fn func(row *admin.RowModals, dialog string) error) error {
	dialog := c.Params("dialog")
	switch dialog {
	case "update", "toggle", "delete":
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Unknown dialog " + dialog,
		})
	}

	row, err := h.page.Row(c.Params("id"))
	if err != nil {
		log.Printf("Error finding product row: %v", err)
		h.toasts.Error("Product not found!")
		return h.back(c)
	}
	h.logSubmit(dialog, fn(row, dialog))
	return h.back(c)
}

// logSubmit records dialog errors. They need no response of their own:
// validation errors are rendered inline and a repeated submit is ignored.
func (h *AdminHandler) logSubmit(dialog string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, modal.ErrInvalid):
	default:
		log.Printf("Ignoring %s dialog action: %v", dialog, err)
	}
}

func (h *AdminHandler) back(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusSeeOther)
}

// parseForm reads the product form fields. Numbers that do not parse, are
// out of range or are not finite are left at zero, which validation rejects.
func parseForm(c *fiber.Ctx) models.ProductForm {
	price, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue("price")), 64)
	if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
		price = 0
	}
	stock, err := strconv.Atoi(strings.TrimSpace(c.FormValue("stock")))
	if err != nil {
		stock = 0
	}
	return models.ProductForm{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		Stock:       stock,
	}
}
