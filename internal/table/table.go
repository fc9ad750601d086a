package table

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"tokoadmin/internal/models"
)

// Direction is the sort direction of a column.
type Direction int

const (
	Unsorted Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "none"
	}
}

// ErrNotSortable is returned when toggling sort on a column that has none.
var ErrNotSortable = errors.New("column is not sortable")

// Column projects a product into one cell.
type Column struct {
	ID     string
	Header string
	// Cell renders the display value. Nil for the select and actions
	// columns, which the view renders itself.
	Cell func(p models.Product) string
	// Less orders two products; nil when the column cannot be sorted.
	Less func(a, b models.Product) bool
}

// Sortable reports whether the header toggles sorting.
func (c Column) Sortable() bool { return c.Less != nil }

// Columns returns the product table columns, in display order.
func Columns(prices *PriceFormatter) []Column {
	return []Column{
		{ID: "select"},
		{ID: "id", Header: "Product ID", Cell: func(p models.Product) string { return p.ID }},
		{
			ID:     "name",
			Header: "Product Name",
			Cell:   func(p models.Product) string { return p.Name },
			Less: func(a, b models.Product) bool {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			},
		},
		{ID: "description", Header: "Description", Cell: func(p models.Product) string { return p.Description }},
		{ID: "stock", Header: "Stock", Cell: func(p models.Product) string { return strconv.Itoa(p.Stock) }},
		{ID: "price", Header: "Price", Cell: func(p models.Product) string { return prices.Format(p.Price) }},
		{ID: "isActive", Header: "Status", Cell: func(p models.Product) string { return StatusBadge(p.IsActive) }},
		{ID: "actions", Header: "Actions"},
	}
}

// StatusBadge is the label of the status column.
func StatusBadge(isActive bool) string {
	if isActive {
		return "Active"
	}
	return "Inactive"
}

// Row is a product ready for display.
type Row struct {
	Product  models.Product
	Selected bool
	Cells    map[string]string
}

// Table holds the view state of the product table: sorting, filtering and
// row selection. None of it is shared with the data cache.
type Table struct {
	columns []Column

	mu       sync.Mutex
	sortBy   string
	sortDir  Direction
	filter   string
	selected map[string]bool
}

// New creates a Table over columns.
func New(columns []Column) *Table {
	return &Table{
		columns:  columns,
		selected: make(map[string]bool),
	}
}

// Columns returns the table's columns.
func (t *Table) Columns() []Column {
	return t.columns
}

// ToggleSort cycles the sorting of column id through ascending, descending
// and unsorted. Sorting another column starts it at ascending.
func (t *Table) ToggleSort(id string) error {
	col, ok := t.column(id)
	if !ok {
		return fmt.Errorf("unknown column %q", id)
	}
	if !col.Sortable() {
		return fmt.Errorf("%w: %s", ErrNotSortable, id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sortBy != id {
		t.sortBy, t.sortDir = id, Ascending
		return nil
	}
	switch t.sortDir {
	case Ascending:
		t.sortDir = Descending
	case Descending:
		t.sortBy, t.sortDir = "", Unsorted
	default:
		t.sortDir = Ascending
	}
	return nil
}

// Sorting returns the sorted column and its direction.
func (t *Table) Sorting() (string, Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortBy, t.sortDir
}

// SetFilter keeps only rows whose name contains q, ignoring case.
func (t *Table) SetFilter(q string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = strings.TrimSpace(q)
}

// Filter returns the current name filter.
func (t *Table) Filter() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// ToggleSelected flips the selection of row id.
func (t *Table) ToggleSelected(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selected[id] {
		delete(t.selected, id)
	} else {
		t.selected[id] = true
	}
}

// ToggleAll selects every given product unless all are already selected,
// in which case it clears the selection.
func (t *Table) ToggleAll(products []models.Product) {
	t.mu.Lock()
	defer t.mu.Unlock()
	all := len(products) > 0
	for _, p := range products {
		if !t.selected[p.ID] {
			all = false
			break
		}
	}
	if all {
		t.selected = make(map[string]bool)
		return
	}
	for _, p := range products {
		t.selected[p.ID] = true
	}
}

// Selected returns the selected ids in sorted order.
func (t *Table) Selected() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.selected))
	for id := range t.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rows projects products through the columns, applying the filter and the
// sorting to a copy. Selected ids that are no longer present are dropped.
func (t *Table) Rows(products []models.Product) []Row {
	t.mu.Lock()
	present := make(map[string]bool, len(products))
	for _, p := range products {
		present[p.ID] = true
	}
	for id := range t.selected {
		if !present[id] {
			delete(t.selected, id)
		}
	}
	filter := strings.ToLower(t.filter)
	sortBy, dir := t.sortBy, t.sortDir
	selected := make(map[string]bool, len(t.selected))
	for id := range t.selected {
		selected[id] = true
	}
	t.mu.Unlock()

	visible := filterByName(products, filter)

	if col, ok := t.column(sortBy); ok && col.Sortable() && dir != Unsorted {
		sort.SliceStable(visible, func(i, j int) bool {
			if dir == Descending {
				return col.Less(visible[j], visible[i])
			}
			return col.Less(visible[i], visible[j])
		})
	}

	rows := make([]Row, 0, len(visible))
	for _, p := range visible {
		cells := make(map[string]string, len(t.columns))
		for _, c := range t.columns {
			if c.Cell != nil {
				cells[c.ID] = c.Cell(p)
			}
		}
		rows = append(rows, Row{Product: p, Selected: selected[p.ID], Cells: cells})
	}
	return rows
}

// Visible returns the products that pass the name filter, in input order.
func (t *Table) Visible(products []models.Product) []models.Product {
	return filterByName(products, strings.ToLower(t.Filter()))
}

func filterByName(products []models.Product, filter string) []models.Product {
	visible := make([]models.Product, 0, len(products))
	for _, p := range products {
		if filter == "" || strings.Contains(strings.ToLower(p.Name), filter) {
			visible = append(visible, p)
		}
	}
	return visible
}

func (t *Table) column(id string) (Column, bool) {
	for _, c := range t.columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}
