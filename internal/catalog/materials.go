package catalog

import (
	"context"
	"database/sql"

	"github.com/cafeverde/backoffice/internal/costing"
	"github.com/cafeverde/backoffice/internal/db"
	"github.com/cafeverde/backoffice/internal/store"
)

// RawMaterialInput carries the fields accepted when creating a raw material.
type RawMaterialInput struct {
	Name             string  `json:"name" validate:"required"`
	SupplierID       *int64  `json:"supplier_id"`
	PurchasePrice    float64 `json:"purchase_price" validate:"gte=0"`
	PurchaseQuantity float64 `json:"purchase_quantity" validate:"gt=0"`
	PurchaseUnit     string  `json:"purchase_unit" validate:"required,oneof=kg gr l ml unidad"`
}

// RawMaterialUpdate carries a partial raw material update; nil fields keep
// their stored value.
type RawMaterialUpdate struct {
	Name             *string  `json:"name"`
	SupplierID       *int64   `json:"supplier_id"`
	PurchasePrice    *float64 `json:"purchase_price"`
	PurchaseQuantity *float64 `json:"purchase_quantity"`
	PurchaseUnit     *string  `json:"purchase_unit"`
	Active           *bool    `json:"active"`
}

// CreateRawMaterial validates the input, derives the unit cost and inserts
// the material.
func (s *Service) CreateRawMaterial(ctx context.Context, input RawMaterialInput) (*store.RawMaterial, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	unitCost, err := costing.UnitCost(input.PurchasePrice, input.PurchaseQuantity, input.PurchaseUnit, "")
	if err != nil {
		return nil, err
	}

	m := &store.RawMaterial{
		Name:             input.Name,
		SupplierID:       input.SupplierID,
		PurchasePrice:    input.PurchasePrice,
		PurchaseQuantity: input.PurchaseQuantity,
		PurchaseUnit:     input.PurchaseUnit,
		UnitCost:         unitCost,
		Active:           true,
	}

	id, err := store.New(s.db).InsertRawMaterial(m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	return m, nil
}

// UpdateRawMaterial applies a partial update. When the purchase price,
// quantity or unit changed it rederives the unit cost and runs the full
// cascade (recipes using the material, then their products) inside the same
// transaction.
func (s *Service) UpdateRawMaterial(ctx context.Context, id int64, upd RawMaterialUpdate) (bool, error) {
	changed := false
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)
		m, err := st.FindRawMaterial(id)
		if err != nil {
			return err
		}

		applyString(&m.Name, upd.Name)
		if upd.SupplierID != nil {
			m.SupplierID = upd.SupplierID
		}
		applyFloat(&m.PurchasePrice, upd.PurchasePrice)
		applyFloat(&m.PurchaseQuantity, upd.PurchaseQuantity)
		priceChanged := upd.PurchasePrice != nil || upd.PurchaseQuantity != nil || upd.PurchaseUnit != nil
		applyString(&m.PurchaseUnit, upd.PurchaseUnit)
		applyBool(&m.Active, upd.Active)

		if m.Name == "" {
			return &ValidationError{Field: "Name", Reason: "required"}
		}
		if upd.PurchaseUnit != nil && !validUnit(*upd.PurchaseUnit) {
			return &ValidationError{Field: "PurchaseUnit", Reason: "oneof=kg gr l ml unidad"}
		}

		if priceChanged {
			unitCost, err := costing.UnitCost(m.PurchasePrice, m.PurchaseQuantity, m.PurchaseUnit, "")
			if err != nil {
				return err
			}
			m.UnitCost = unitCost
		}

		changed, err = st.UpdateRawMaterial(m, priceChanged)
		if err != nil {
			return err
		}

		if priceChanged {
			s.cascadeFromMaterial(st, m.ID)
		}
		return nil
	})
	return changed, err
}

// DeactivateRawMaterial soft-deletes a raw material. Existing recipe
// ingredient rows keep resolving its historical unit cost.
func (s *Service) DeactivateRawMaterial(ctx context.Context, id int64) (bool, error) {
	inactive := false
	return s.UpdateRawMaterial(ctx, id, RawMaterialUpdate{Active: &inactive})
}

// GetRawMaterial loads one raw material.
func (s *Service) GetRawMaterial(ctx context.Context, id int64) (*store.RawMaterial, error) {
	return store.New(s.db).FindRawMaterial(id)
}

// ListRawMaterials returns raw materials, optionally only active ones.
func (s *Service) ListRawMaterials(ctx context.Context, onlyActive bool) ([]store.RawMaterial, error) {
	return store.New(s.db).ListRawMaterials(onlyActive)
}

func validUnit(unit string) bool {
	switch unit {
	case "kg", "gr", "l", "ml", "unidad":
		return true
	}
	return false
}
