package catalog

import (
	"context"
	"database/sql"

	"github.com/cafeverde/backoffice/internal/costing"
	"github.com/cafeverde/backoffice/internal/db"
	"github.com/cafeverde/backoffice/internal/store"
)

// CostProductInput carries the fields accepted when creating a cost product.
// FixedCost holds the per-item amount and, under the global policy, the
// global amount (legacy field reuse).
type CostProductInput struct {
	Name               string  `json:"name" validate:"required"`
	RecipeID           *int64  `json:"recipe_id"`
	FixedCost          float64 `json:"fixed_cost" validate:"gte=0"`
	FixedCostPerMinute float64 `json:"fixed_cost_per_minute" validate:"gte=0"`
	FixedCostPolicy    string  `json:"fixed_cost_policy" validate:"omitempty,oneof=per_item per_minute global"`
	PreparationMinutes float64 `json:"preparation_minutes" validate:"gte=0"`
	MarginPercent      float64 `json:"margin_percent" validate:"gte=0"`
}

// CostProductUpdate carries a partial cost product update; nil fields keep
// their stored value.
type CostProductUpdate struct {
	Name               *string  `json:"name"`
	RecipeID           *int64   `json:"recipe_id"`
	FixedCost          *float64 `json:"fixed_cost"`
	FixedCostPerMinute *float64 `json:"fixed_cost_per_minute"`
	FixedCostPolicy    *string  `json:"fixed_cost_policy"`
	PreparationMinutes *float64 `json:"preparation_minutes"`
	MarginPercent      *float64 `json:"margin_percent"`
	Active             *bool    `json:"active"`
}

// CreateCostProduct validates the input, derives the three price fields and
// inserts the product, all in one transaction.
func (s *Service) CreateCostProduct(ctx context.Context, input CostProductInput) (*store.CostProduct, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}
	if input.FixedCostPolicy == "" {
		input.FixedCostPolicy = costing.PolicyPerItem
	}

	var product *store.CostProduct
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)

		if input.RecipeID != nil {
			if _, err := st.FindRecipe(*input.RecipeID); err != nil {
				return err
			}
		}

		p := &store.CostProduct{
			Name:               input.Name,
			RecipeID:           input.RecipeID,
			FixedCost:          input.FixedCost,
			FixedCostPerMinute: input.FixedCostPerMinute,
			FixedCostPolicy:    input.FixedCostPolicy,
			PreparationMinutes: input.PreparationMinutes,
			MarginPercent:      input.MarginPercent,
			Active:             true,
		}

		id, err := st.InsertCostProduct(p)
		if err != nil {
			return err
		}
		if err := s.recomputeProduct(st, id); err != nil {
			return err
		}

		p, err = st.FindCostProduct(id)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateCostProduct applies a partial update and rederives the price fields
// when any cost-relevant field changed. The product is a leaf consumer:
// nothing cascades further.
func (s *Service) UpdateCostProduct(ctx context.Context, id int64, upd CostProductUpdate) (bool, error) {
	if upd.FixedCostPolicy != nil {
		switch *upd.FixedCostPolicy {
		case costing.PolicyPerItem, costing.PolicyPerMinute, costing.PolicyGlobal:
		default:
			return false, &ValidationError{Field: "FixedCostPolicy", Reason: "oneof=per_item per_minute global"}
		}
	}

	changed := false
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)
		p, err := st.FindCostProduct(id)
		if err != nil {
			return err
		}

		applyString(&p.Name, upd.Name)
		applyBool(&p.Active, upd.Active)
		costRelevant := upd.RecipeID != nil || upd.FixedCost != nil || upd.FixedCostPerMinute != nil ||
			upd.FixedCostPolicy != nil || upd.PreparationMinutes != nil || upd.MarginPercent != nil
		if upd.RecipeID != nil {
			if _, err := st.FindRecipe(*upd.RecipeID); err != nil {
				return err
			}
			p.RecipeID = upd.RecipeID
		}
		applyFloat(&p.FixedCost, upd.FixedCost)
		applyFloat(&p.FixedCostPerMinute, upd.FixedCostPerMinute)
		applyString(&p.FixedCostPolicy, upd.FixedCostPolicy)
		applyFloat(&p.PreparationMinutes, upd.PreparationMinutes)
		applyFloat(&p.MarginPercent, upd.MarginPercent)

		if p.Name == "" {
			return &ValidationError{Field: "Name", Reason: "required"}
		}

		changed, err = st.UpdateCostProduct(p)
		if err != nil {
			return err
		}

		if costRelevant {
			return s.recomputeProduct(st, id)
		}
		return nil
	})
	return changed, err
}

// RecalculateCostProduct is the idempotent escape hatch for one product: it
// rederives the price fields from current data. Missing cost inputs price
// as 0, they never fail the operation.
func (s *Service) RecalculateCostProduct(ctx context.Context, id int64) (bool, error) {
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		return s.recomputeProduct(store.New(tx), id)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeactivateCostProduct soft-deletes a cost product.
func (s *Service) DeactivateCostProduct(ctx context.Context, id int64) (bool, error) {
	inactive := false
	return s.UpdateCostProduct(ctx, id, CostProductUpdate{Active: &inactive})
}

// GetCostProduct loads one cost product.
func (s *Service) GetCostProduct(ctx context.Context, id int64) (*store.CostProduct, error) {
	return store.New(s.db).FindCostProduct(id)
}

// ListCostProducts returns cost products, optionally only active ones.
func (s *Service) ListCostProducts(ctx context.Context, onlyActive bool) ([]store.CostProduct, error) {
	return store.New(s.db).ListCostProducts(onlyActive)
}
