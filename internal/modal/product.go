package modal

import (
	"context"
	"fmt"

	"tokoadmin/internal/models"
	"tokoadmin/internal/validation"
)

// formDialog is a Dialog carrying a validated product form.
type formDialog struct {
	*Dialog
	validator *validation.Validator
	defaults  models.ProductForm
	form      models.ProductForm
	fieldErr  *validation.Error
}

// Form returns the values currently in the form.
func (f *formDialog) Form() models.ProductForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// FieldError returns the validation failure of the last submission, if any.
func (f *formDialog) FieldError() *validation.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fieldErr
}

// SubmitLabel is the text of the submit button.
func (f *formDialog) SubmitLabel() string {
	if f.IsSubmitting() {
		return "Saving..."
	}
	return "Save Product"
}

// Cancel closes an idle dialog and discards unsaved edits.
func (f *formDialog) Cancel() error {
	if err := f.Dialog.Cancel(); err != nil {
		return err
	}
	f.mu.Lock()
	f.reset()
	f.mu.Unlock()
	return nil
}

// validate records form and checks it. It must run under the dialog lock.
func (f *formDialog) validate(form models.ProductForm) error {
	f.form = form
	f.fieldErr = f.validator.First(form)
	if f.fieldErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, f.fieldErr)
	}
	return nil
}

// reset must run under the dialog lock.
func (f *formDialog) reset() {
	f.form = f.defaults
	f.fieldErr = nil
}

// AddModal creates a product.
type AddModal struct {
	formDialog
}

// NewAddModal creates a closed add dialog.
func NewAddModal(deps Deps, v *validation.Validator) *AddModal {
	return &AddModal{formDialog{Dialog: newDialog(deps), validator: v}}
}

// Submit validates form and, when valid, sends the create request.
func (m *AddModal) Submit(form models.ProductForm) error {
	return m.submit(func() (request, error) {
		if err := m.validate(form); err != nil {
			return request{}, err
		}
		return request{
			verb:    "Creating",
			failure: "Failed to create product!",
			call: func(ctx context.Context) (string, error) {
				return m.deps.API.Create(ctx, form)
			},
			done: m.reset,
		}, nil
	})
}

// UpdateModal replaces the editable fields of one product.
type UpdateModal struct {
	formDialog
	id string
}

// NewUpdateModal creates a closed update dialog for p, prefilled with its
// current values.
func NewUpdateModal(deps Deps, v *validation.Validator, p models.Product) *UpdateModal {
	form := models.FormOf(p)
	return &UpdateModal{
		formDialog: formDialog{Dialog: newDialog(deps), validator: v, defaults: form, form: form},
		id:         p.ID,
	}
}

// ProductID returns the id of the product being edited.
func (m *UpdateModal) ProductID() string { return m.id }

// Sync refreshes the prefilled values from a newer copy of the product.
// Open dialogs keep the operator's edits.
func (m *UpdateModal) Sync(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = models.FormOf(p)
	if m.state == Closed {
		m.reset()
	}
}

// Submit validates form and, when valid, sends the update request.
func (m *UpdateModal) Submit(form models.ProductForm) error {
	return m.submit(func() (request, error) {
		if err := m.validate(form); err != nil {
			return request{}, err
		}
		return request{
			verb:    "Updating",
			failure: "Failed to update product!",
			call: func(ctx context.Context) (string, error) {
				return m.deps.API.Update(ctx, m.id, form)
			},
			done: m.reset,
		}, nil
	})
}

// ToggleModal activates an inactive product or deactivates an active one.
type ToggleModal struct {
	*Dialog
	id       string
	isActive bool
}

// NewToggleModal creates a closed toggle dialog for product id.
func NewToggleModal(deps Deps, id string, isActive bool) *ToggleModal {
	return &ToggleModal{Dialog: newDialog(deps), id: id, isActive: isActive}
}

// ProductID returns the id of the product being toggled.
func (m *ToggleModal) ProductID() string { return m.id }

// IsActive reports the product status the dialog acts on.
func (m *ToggleModal) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isActive
}

// Sync records the product's latest status. It is ignored while a request
// is in flight so the label and the request stay consistent.
func (m *ToggleModal) Sync(isActive bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != OpenSubmitting {
		m.isActive = isActive
	}
}

// TriggerLabel is the text of the action menu entry.
func (m *ToggleModal) TriggerLabel() string {
	if m.IsActive() {
		return "Deactivate Product"
	}
	return "Activate Product"
}

// Prompt is the question shown in the dialog.
func (m *ToggleModal) Prompt() string {
	if m.IsActive() {
		return "Are you want to deactivate? You can reactivate it later."
	}
	return "Are you want to activate?"
}

// SubmitLabel is the text of the confirm button.
func (m *ToggleModal) SubmitLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.state == OpenSubmitting && m.isActive:
		return "Deactivating..."
	case m.state == OpenSubmitting:
		return "Activating..."
	case m.isActive:
		return "Deactivate"
	default:
		return "Activate"
	}
}

// Confirm soft-deletes an active product or restores an inactive one.
func (m *ToggleModal) Confirm() error {
	return m.submit(func() (request, error) {
		if m.isActive {
			return request{
				verb:    "Deactivating",
				failure: "Failed to deactivate product!",
				call: func(ctx context.Context) (string, error) {
					return m.deps.API.SoftDelete(ctx, m.id)
				},
			}, nil
		}
		return request{
			verb:    "Activating",
			failure: "Failed to activate product!",
			call: func(ctx context.Context) (string, error) {
				return m.deps.API.Restore(ctx, m.id)
			},
		}, nil
	})
}

// DeleteModal permanently removes a product after confirmation.
type DeleteModal struct {
	*Dialog
	id string
}

// NewDeleteModal creates a closed delete dialog for product id.
func NewDeleteModal(deps Deps, id string) *DeleteModal {
	return &DeleteModal{Dialog: newDialog(deps), id: id}
}

// ProductID returns the id of the product to delete.
func (m *DeleteModal) ProductID() string { return m.id }

// SubmitLabel is the text of the confirm button.
func (m *DeleteModal) SubmitLabel() string {
	if m.IsSubmitting() {
		return "Deleting..."
	}
	return "Delete"
}

// Confirm sends the hard-delete request.
func (m *DeleteModal) Confirm() error {
	return m.submit(func() (request, error) {
		return request{
			verb:    "Deleting",
			failure: "Failed to delete product!",
			call: func(ctx context.Context) (string, error) {
				return m.deps.API.HardDelete(ctx, m.id)
			},
		}, nil
	})
}
