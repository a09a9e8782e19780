package catalog

import (
	"context"
	"database/sql"

	"github.com/cafeverde/backoffice/internal/db"
	"github.com/cafeverde/backoffice/internal/store"
)

// SupplierInput carries the fields accepted when creating a supplier.
type SupplierInput struct {
	Name        string `json:"name" validate:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Notes       string `json:"notes"`
}

// SupplierUpdate carries a partial supplier update; nil fields keep their
// stored value.
type SupplierUpdate struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Notes       *string `json:"notes"`
	Active      *bool   `json:"active"`
}

// CreateSupplier validates and inserts a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (*store.Supplier, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	sup := &store.Supplier{
		Name:        input.Name,
		ContactName: input.ContactName,
		Phone:       input.Phone,
		Email:       input.Email,
		Notes:       input.Notes,
		Active:      true,
	}

	id, err := store.New(s.db).InsertSupplier(sup)
	if err != nil {
		return nil, err
	}
	sup.ID = id
	return sup, nil
}

// UpdateSupplier applies a partial update and reports whether a row changed.
func (s *Service) UpdateSupplier(ctx context.Context, id int64, upd SupplierUpdate) (bool, error) {
	changed := false
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)
		sup, err := st.FindSupplier(id)
		if err != nil {
			return err
		}

		applyString(&sup.Name, upd.Name)
		applyString(&sup.ContactName, upd.ContactName)
		applyString(&sup.Phone, upd.Phone)
		applyString(&sup.Email, upd.Email)
		applyString(&sup.Notes, upd.Notes)
		applyBool(&sup.Active, upd.Active)

		if sup.Name == "" {
			return &ValidationError{Field: "Name", Reason: "required"}
		}

		changed, err = st.UpdateSupplier(sup)
		return err
	})
	return changed, err
}

// DeactivateSupplier soft-deletes a supplier. Raw materials keep their
// reference so historical purchases stay resolvable.
func (s *Service) DeactivateSupplier(ctx context.Context, id int64) (bool, error) {
	inactive := false
	return s.UpdateSupplier(ctx, id, SupplierUpdate{Active: &inactive})
}

// ListSuppliers returns suppliers, optionally only active ones.
func (s *Service) ListSuppliers(ctx context.Context, onlyActive bool) ([]store.Supplier, error) {
	return store.New(s.db).ListSuppliers(onlyActive)
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
