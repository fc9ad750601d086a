package admin

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tokoadmin/internal/cache"
	"tokoadmin/internal/client"
	"tokoadmin/internal/modal"
	"tokoadmin/internal/models"
	"tokoadmin/internal/notify"
	"tokoadmin/internal/table"
	"tokoadmin/internal/validation"
)

// ProductListKey identifies the product list in the data cache.
const ProductListKey = client.ListPath

// ProductStore is the data cache the page reads the product list from.
type ProductStore interface {
	Read(key string) cache.Entry[[]models.Product]
	Revalidate(key string) error
}

// RowModals are the dialogs hosted by one row's action menu.
type RowModals struct {
	Update *modal.UpdateModal
	Toggle *modal.ToggleModal
	Delete *modal.DeleteModal
}

func (r *RowModals) busy() bool {
	return r.Update.IsSubmitting() || r.Toggle.IsSubmitting() || r.Delete.IsSubmitting()
}

func (r *RowModals) dispose() {
	r.Update.Dispose()
	r.Toggle.Dispose()
	r.Delete.Dispose()
}

func (r *RowModals) wait() {
	r.Update.Wait()
	r.Toggle.Wait()
	r.Delete.Wait()
}

// RowView is one rendered table row with its dialogs.
type RowView struct {
	table.Row
	Modals *RowModals
}

// View is everything needed to render the product page once.
type View struct {
	Columns   []table.Column
	Rows      []RowView
	Add       *modal.AddModal
	Toasts    []notify.Toast
	Loaded    bool
	Loading   bool
	UpdatedAt time.Time
	SortBy    string
	SortDir   table.Direction
	Filter    string
	Selected  []string
	// Busy reports whether any dialog has a request in flight.
	Busy bool
}

// Config holds the collaborators of a Page.
type Config struct {
	Store     ProductStore
	API       modal.ProductAPI
	Table     *table.Table
	Toasts    *notify.Queue
	Validator *validation.Validator
	// Context is the parent context of every dialog request.
	Context context.Context
}

// Page composes the cached product list, the table and the dialogs. Every
// dialog's success is wired to a revalidation of the list; the page never
// patches the cached list itself.
type Page struct {
	store     ProductStore
	api       modal.ProductAPI
	table     *table.Table
	toasts    *notify.Queue
	validator *validation.Validator
	ctx       context.Context

	mu   sync.Mutex
	add  *modal.AddModal
	rows map[string]*RowModals
}

// New creates a Page.
func New(cfg Config) *Page {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Toasts == nil {
		cfg.Toasts = notify.NewQueue(0)
	}
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	p := &Page{
		store:     cfg.Store,
		api:       cfg.API,
		table:     cfg.Table,
		toasts:    cfg.Toasts,
		validator: cfg.Validator,
		ctx:       cfg.Context,
		rows:      make(map[string]*RowModals),
	}
	p.add = modal.NewAddModal(p.deps(), p.validator)
	return p
}

func (p *Page) deps() modal.Deps {
	return modal.Deps{
		API:       p.api,
		Notifier:  p.toasts,
		OnSuccess: p.Revalidate,
		Context:   p.ctx,
	}
}

// Revalidate asks the cache to refetch the product list.
func (p *Page) Revalidate() {
	if err := p.store.Revalidate(ProductListKey); err != nil {
		log.Printf("Failed to revalidate product list: %v", err)
	}
}

// Products returns the cached product list, empty before the first load.
func (p *Page) Products() []models.Product {
	data := p.store.Read(ProductListKey).Data
	if data == nil {
		return []models.Product{}
	}
	return data
}

// Table returns the table state.
func (p *Page) Table() *table.Table {
	return p.table
}

// Add returns the add-product dialog.
func (p *Page) Add() *modal.AddModal {
	return p.add
}

// Row returns the dialogs of product id.
func (p *Page) Row(id string) (*RowModals, error) {
	p.sync(p.Products())

	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %s is not in the list", id)
	}
	return r, nil
}

// View renders the current state and drains pending notifications.
func (p *Page) View() View {
	entry := p.store.Read(ProductListKey)
	products := entry.Data
	if products == nil {
		products = []models.Product{}
	}
	p.sync(products)

	sortBy, sortDir := p.table.Sorting()
	v := View{
		Columns:   p.table.Columns(),
		Add:       p.add,
		Loaded:    entry.Loaded,
		Loading:   entry.Loading,
		UpdatedAt: entry.UpdatedAt,
		SortBy:    sortBy,
		SortDir:   sortDir,
		Filter:    p.table.Filter(),
		Busy:      p.add.IsSubmitting(),
	}

	rows := p.table.Rows(products)
	p.mu.Lock()
	for _, r := range rows {
		m := p.rows[r.Product.ID]
		v.Rows = append(v.Rows, RowView{Row: r, Modals: m})
	}
	for _, m := range p.rows {
		if m.busy() {
			v.Busy = true
		}
	}
	p.mu.Unlock()

	v.Selected = p.table.Selected()
	v.Toasts = p.toasts.Drain()
	return v
}

// sync keeps one set of dialogs per listed product. Dialogs of products
// that left the list are disposed so late responses cannot touch them.
func (p *Page) sync(products []models.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool, len(products))
	for _, prod := range products {
		seen[prod.ID] = true
		if r, ok := p.rows[prod.ID]; ok {
			r.Update.Sync(prod)
			r.Toggle.Sync(prod.IsActive)
			continue
		}
		deps := p.deps()
		p.rows[prod.ID] = &RowModals{
			Update: modal.NewUpdateModal(deps, p.validator, prod),
			Toggle: modal.NewToggleModal(deps, prod.ID, prod.IsActive),
			Delete: modal.NewDeleteModal(deps, prod.ID),
		}
	}
	for id, r := range p.rows {
		if !seen[id] {
			r.dispose()
			delete(p.rows, id)
		}
	}
}

// Wait blocks until every dialog request has settled.
func (p *Page) Wait() {
	p.add.Wait()
	p.mu.Lock()
	rows := make([]*RowModals, 0, len(p.rows))
	for _, r := range p.rows {
		rows = append(rows, r)
	}
	p.mu.Unlock()
	for _, r := range rows {
		r.wait()
	}
}

// Close disposes every dialog.
func (p *Page) Close() {
	p.add.Dispose()
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, r := range p.rows {
		r.dispose()
		delete(p.rows, id)
	}
}
