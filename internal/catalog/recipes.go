package catalog

import (
	"context"
	"database/sql"

	"github.com/cafeverde/backoffice/internal/db"
	"github.com/cafeverde/backoffice/internal/store"
)

// IngredientInput is one recipe line as accepted at the boundary. A zero
// quantity is allowed and simply contributes no cost.
type IngredientInput struct {
	RawMaterialID int64   `json:"raw_material_id" validate:"gt=0"`
	Quantity      float64 `json:"quantity" validate:"gte=0"`
	Unit          string  `json:"unit" validate:"required,oneof=kg gr l ml unidad"`
}

// RecipeInput carries the fields accepted when creating a recipe.
type RecipeInput struct {
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Ingredients []IngredientInput `json:"ingredients" validate:"dive"`
}

// RecipeUpdate carries a partial recipe update. A nil Ingredients keeps the
// stored ingredient set; a non-nil one replaces it wholesale.
type RecipeUpdate struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Active      *bool              `json:"active"`
	Ingredients *[]IngredientInput `json:"ingredients"`
}

// CreateRecipe inserts the recipe with its ingredient set and computes its
// cost, all in one transaction.
func (s *Service) CreateRecipe(ctx context.Context, input RecipeInput) (*store.Recipe, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}

	var recipe *store.Recipe
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)

		r := &store.Recipe{Name: input.Name, Description: input.Description, Active: true}
		id, err := st.InsertRecipe(r)
		if err != nil {
			return err
		}

		if err := st.ReplaceRecipeIngredients(id, ingredientRows(id, input.Ingredients)); err != nil {
			return err
		}

		cost, err := s.recomputeRecipe(st, id)
		if err != nil {
			return err
		}

		r.ID = id
		r.RecipeCost = cost
		recipe = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRecipe applies a partial update, replaces the ingredient set when
// one is provided, recomputes the recipe cost and cascades to the products
// referencing it, all in one transaction.
func (s *Service) UpdateRecipe(ctx context.Context, id int64, upd RecipeUpdate) (bool, error) {
	if upd.Ingredients != nil {
		for _, ing := range *upd.Ingredients {
			if err := s.check(ing); err != nil {
				return false, err
			}
		}
	}

	changed := false
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)
		r, err := st.FindRecipe(id)
		if err != nil {
			return err
		}

		applyString(&r.Name, upd.Name)
		applyString(&r.Description, upd.Description)
		applyBool(&r.Active, upd.Active)
		if r.Name == "" {
			return &ValidationError{Field: "Name", Reason: "required"}
		}

		changed, err = st.UpdateRecipe(r)
		if err != nil {
			return err
		}

		if upd.Ingredients != nil {
			if err := st.ReplaceRecipeIngredients(id, ingredientRows(id, *upd.Ingredients)); err != nil {
				return err
			}
		}

		if _, err := s.recomputeRecipe(st, id); err != nil {
			return err
		}
		s.cascadeFromRecipe(st, id)
		return nil
	})
	return changed, err
}

// RecalculateRecipe is the idempotent escape hatch: it reprices the recipe
// from current data and cascades to its products, returning the cost.
// Missing ingredient costs yield 0 contributions, never an error.
func (s *Service) RecalculateRecipe(ctx context.Context, id int64) (float64, error) {
	var cost float64
	err := db.Tx(ctx, s.db, func(tx *sql.Tx) error {
		st := store.New(tx)
		if _, err := st.FindRecipe(id); err != nil {
			return err
		}

		var err error
		cost, err = s.recomputeRecipe(st, id)
		if err != nil {
			return err
		}
		s.cascadeFromRecipe(st, id)
		return nil
	})
	return cost, err
}

// GetRecipe loads one recipe.
func (s *Service) GetRecipe(ctx context.Context, id int64) (*store.Recipe, error) {
	return store.New(s.db).FindRecipe(id)
}

// GetRecipeIngredients loads the ingredient rows of a recipe.
func (s *Service) GetRecipeIngredients(ctx context.Context, id int64) ([]store.RecipeIngredient, error) {
	return store.New(s.db).ListRecipeIngredients(id)
}

// ListRecipes returns recipes, optionally only active ones.
func (s *Service) ListRecipes(ctx context.Context, onlyActive bool) ([]store.Recipe, error) {
	return store.New(s.db).ListRecipes(onlyActive)
}

func ingredientRows(recipeID int64, inputs []IngredientInput) []store.RecipeIngredient {
	rows := make([]store.RecipeIngredient, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, store.RecipeIngredient{
			RecipeID:      recipeID,
			RawMaterialID: in.RawMaterialID,
			Quantity:      in.Quantity,
			Unit:          in.Unit,
		})
	}
	return rows
}
