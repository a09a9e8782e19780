package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cafeverde/backoffice/internal/costing"
)

// InsertRecipe creates a recipe and returns its id. Ingredients are written
// separately with ReplaceRecipeIngredients.
func (s *Store) InsertRecipe(r *Recipe) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO recipes (name, description, recipe_cost, active)
		VALUES (?, ?, ?, ?)
	`, r.Name, r.Description, r.RecipeCost, r.Active)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recipe insert id: %w", err)
	}
	return id, nil
}

// FindRecipe loads one recipe or ErrNotFound.
func (s *Store) FindRecipe(id int64) (*Recipe, error) {
	var r Recipe
	err := s.q.QueryRow(`
		SELECT id, name, COALESCE(description, ''), recipe_cost, active
		FROM recipes
		WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.Description, &r.RecipeCost, &r.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query recipe: %w", err)
	}
	return &r, nil
}

// ListRecipes returns recipes, newest first.
func (s *Store) ListRecipes(onlyActive bool) ([]Recipe, error) {
	rows, err := s.q.Query(`
		SELECT id, name, COALESCE(description, ''), recipe_cost, active
		FROM recipes
		WHERE (? = 0 OR active)
		ORDER BY id DESC
	`, boolArg(onlyActive))
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]Recipe, 0)
	for rows.Next() {
		var r Recipe
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.RecipeCost, &r.Active); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return recipes, nil
}

// UpdateRecipe writes the full recipe row and reports whether a row changed.
func (s *Store) UpdateRecipe(r *Recipe) (bool, error) {
	res, err := s.q.Exec(`
		UPDATE recipes
		SET
			name = ?,
			description = ?,
			recipe_cost = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Name, r.Description, r.RecipeCost, r.Active, r.ID)
	if err != nil {
		return false, fmt.Errorf("update recipe: %w", err)
	}
	return rowChanged(res)
}

// UpdateRecipeCost refreshes only the cached recipe cost.
func (s *Store) UpdateRecipeCost(id int64, cost float64) (bool, error) {
	res, err := s.q.Exec(`
		UPDATE recipes
		SET recipe_cost = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cost, id)
	if err != nil {
		return false, fmt.Errorf("update recipe cost: %w", err)
	}
	return rowChanged(res)
}

// ReplaceRecipeIngredients swaps the recipe's full ingredient set.
func (s *Store) ReplaceRecipeIngredients(recipeID int64, ingredients []RecipeIngredient) error {
	if _, err := s.q.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("delete recipe ingredients: %w", err)
	}

	for _, ing := range ingredients {
		if _, err := s.q.Exec(`
			INSERT INTO recipe_ingredients (recipe_id, raw_material_id, quantity, unit)
			VALUES (?, ?, ?, ?)
		`, recipeID, ing.RawMaterialID, ing.Quantity, ing.Unit); err != nil {
			return fmt.Errorf("insert recipe ingredient: %w", err)
		}
	}
	return nil
}

// ListRecipeIngredients returns the raw ingredient rows of a recipe.
func (s *Store) ListRecipeIngredients(recipeID int64) ([]RecipeIngredient, error) {
	rows, err := s.q.Query(`
		SELECT id, recipe_id, raw_material_id, quantity, unit
		FROM recipe_ingredients
		WHERE recipe_id = ?
		ORDER BY id
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query recipe ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := make([]RecipeIngredient, 0)
	for rows.Next() {
		var ing RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.RawMaterialID, &ing.Quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("scan recipe ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe ingredients: %w", err)
	}
	return ingredients, nil
}

// ListIngredientCosts joins a recipe's ingredients with their raw materials
// so the aggregator can price them. The join is LEFT and ignores the active
// flag: a soft-deleted material keeps its historical unit cost, and a
// dangling reference comes back with unit cost 0.
func (s *Store) ListIngredientCosts(recipeID int64) ([]costing.Ingredient, error) {
	rows, err := s.q.Query(`
		SELECT
			ri.raw_material_id,
			COALESCE(rm.name, ''),
			ri.quantity,
			ri.unit,
			COALESCE(rm.purchase_unit, ri.unit),
			COALESCE(rm.unit_cost, 0)
		FROM recipe_ingredients ri
		LEFT JOIN raw_materials rm ON rm.id = ri.raw_material_id
		WHERE ri.recipe_id = ?
		ORDER BY ri.id
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query ingredient costs: %w", err)
	}
	defer rows.Close()

	ingredients := make([]costing.Ingredient, 0)
	for rows.Next() {
		var ing costing.Ingredient
		if err := rows.Scan(&ing.RawMaterialID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.PurchaseUnit, &ing.UnitCost); err != nil {
			return nil, fmt.Errorf("scan ingredient cost: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredient costs: %w", err)
	}
	return ingredients, nil
}

// RecipeIDsUsingMaterial returns the ids of every recipe with at least one
// ingredient referencing the raw material.
func (s *Store) RecipeIDsUsingMaterial(rawMaterialID int64) ([]int64, error) {
	rows, err := s.q.Query(`
		SELECT DISTINCT recipe_id
		FROM recipe_ingredients
		WHERE raw_material_id = ?
		ORDER BY recipe_id
	`, rawMaterialID)
	if err != nil {
		return nil, fmt.Errorf("query recipes using material: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipe id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe ids: %w", err)
	}
	return ids, nil
}
