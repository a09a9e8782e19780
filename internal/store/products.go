package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cafeverde/backoffice/internal/costing"
)

// InsertCostProduct creates a cost product with its precomputed derived
// price fields and returns its id.
func (s *Store) InsertCostProduct(p *CostProduct) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO cost_products (
			name, recipe_id, fixed_cost, fixed_cost_per_minute, fixed_cost_policy,
			preparation_minutes, margin_percent, calculated_cost, suggested_price,
			rounded_price, active
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.RecipeID, p.FixedCost, p.FixedCostPerMinute, p.FixedCostPolicy,
		p.PreparationMinutes, p.MarginPercent, p.CalculatedCost, p.SuggestedPrice,
		p.RoundedPrice, p.Active)
	if err != nil {
		return 0, fmt.Errorf("insert cost product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cost product insert id: %w", err)
	}
	return id, nil
}

// FindCostProduct loads one cost product or ErrNotFound.
func (s *Store) FindCostProduct(id int64) (*CostProduct, error) {
	var p CostProduct
	err := s.q.QueryRow(`
		SELECT id, name, recipe_id, fixed_cost, fixed_cost_per_minute,
			fixed_cost_policy, preparation_minutes, margin_percent,
			calculated_cost, suggested_price, rounded_price, active
		FROM cost_products
		WHERE id = ?
	`, id).Scan(
		&p.ID, &p.Name, &p.RecipeID, &p.FixedCost, &p.FixedCostPerMinute,
		&p.FixedCostPolicy, &p.PreparationMinutes, &p.MarginPercent,
		&p.CalculatedCost, &p.SuggestedPrice, &p.RoundedPrice, &p.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cost product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query cost product: %w", err)
	}
	return &p, nil
}

// ListCostProducts returns cost products, newest first.
func (s *Store) ListCostProducts(onlyActive bool) ([]CostProduct, error) {
	rows, err := s.q.Query(`
		SELECT id, name, recipe_id, fixed_cost, fixed_cost_per_minute,
			fixed_cost_policy, preparation_minutes, margin_percent,
			calculated_cost, suggested_price, rounded_price, active
		FROM cost_products
		WHERE (? = 0 OR active)
		ORDER BY id DESC
	`, boolArg(onlyActive))
	if err != nil {
		return nil, fmt.Errorf("query cost products: %w", err)
	}
	defer rows.Close()

	products := make([]CostProduct, 0)
	for rows.Next() {
		var p CostProduct
		if err := rows.Scan(
			&p.ID, &p.Name, &p.RecipeID, &p.FixedCost, &p.FixedCostPerMinute,
			&p.FixedCostPolicy, &p.PreparationMinutes, &p.MarginPercent,
			&p.CalculatedCost, &p.SuggestedPrice, &p.RoundedPrice, &p.Active,
		); err != nil {
			return nil, fmt.Errorf("scan cost product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost products: %w", err)
	}
	return products, nil
}

// UpdateCostProduct writes the full cost product row and reports whether a
// row changed.
func (s *Store) UpdateCostProduct(p *CostProduct) (bool, error) {
	res, err := s.q.Exec(`
		UPDATE cost_products
		SET
			name = ?,
			recipe_id = ?,
			fixed_cost = ?,
			fixed_cost_per_minute = ?,
			fixed_cost_policy = ?,
			preparation_minutes = ?,
			margin_percent = ?,
			calculated_cost = ?,
			suggested_price = ?,
			rounded_price = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, p.Name, p.RecipeID, p.FixedCost, p.FixedCostPerMinute, p.FixedCostPolicy,
		p.PreparationMinutes, p.MarginPercent, p.CalculatedCost, p.SuggestedPrice,
		p.RoundedPrice, p.Active, p.ID)
	if err != nil {
		return false, fmt.Errorf("update cost product: %w", err)
	}
	return rowChanged(res)
}

// UpdateCostProductPrices refreshes only the cached derived price fields.
func (s *Store) UpdateCostProductPrices(id int64, quote costing.Quote) (bool, error) {
	res, err := s.q.Exec(`
		UPDATE cost_products
		SET
			calculated_cost = ?,
			suggested_price = ?,
			rounded_price = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, quote.TotalCost, quote.SuggestedPrice, quote.RoundedPrice, id)
	if err != nil {
		return false, fmt.Errorf("update cost product prices: %w", err)
	}
	return rowChanged(res)
}

// CostProductIDsUsingRecipe returns the ids of every cost product that
// references the recipe.
func (s *Store) CostProductIDsUsingRecipe(recipeID int64) ([]int64, error) {
	rows, err := s.q.Query(`
		SELECT id
		FROM cost_products
		WHERE recipe_id = ?
		ORDER BY id
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query products using recipe: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cost product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost product ids: %w", err)
	}
	return ids, nil
}
