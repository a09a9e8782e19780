package catalog

import (
	"errors"

	"github.com/cafeverde/backoffice/internal/costing"
	"github.com/cafeverde/backoffice/internal/store"
)

// cascadeFromMaterial propagates a raw material change: every recipe using
// the material gets its cost recomputed, then every product using each of
// those recipes gets its prices recomputed. A failure on one entity is
// logged and skipped so the rest of the catalog still reprices; the caller's
// transaction makes whatever completed atomic.
func (s *Service) cascadeFromMaterial(st *store.Store, rawMaterialID int64) {
	recipeIDs, err := st.RecipeIDsUsingMaterial(rawMaterialID)
	if err != nil {
		s.log.Warn().Err(err).Int64("raw_material_id", rawMaterialID).
			Msg("cascade: could not list recipes using material")
		return
	}

	for _, recipeID := range recipeIDs {
		if _, err := s.recomputeRecipe(st, recipeID); err != nil {
			s.log.Warn().Err(err).Int64("recipe_id", recipeID).
				Msg("cascade: recipe recompute skipped")
			continue
		}
		s.cascadeFromRecipe(st, recipeID)
	}
}

// cascadeFromRecipe reprices every product referencing the recipe.
func (s *Service) cascadeFromRecipe(st *store.Store, recipeID int64) {
	productIDs, err := st.CostProductIDsUsingRecipe(recipeID)
	if err != nil {
		s.log.Warn().Err(err).Int64("recipe_id", recipeID).
			Msg("cascade: could not list products using recipe")
		return
	}

	for _, productID := range productIDs {
		if err := s.recomputeProduct(st, productID); err != nil {
			s.log.Warn().Err(err).Int64("cost_product_id", productID).
				Msg("cascade: product recompute skipped")
		}
	}
}

// recomputeRecipe reprices one recipe from its current ingredient rows and
// refreshes the cached cost. Idempotent: same rows, same cost.
func (s *Service) recomputeRecipe(st *store.Store, recipeID int64) (float64, error) {
	ingredients, err := st.ListIngredientCosts(recipeID)
	if err != nil {
		return 0, err
	}

	cost := costing.RecipeCost(ingredients, s.log)
	if _, err := st.UpdateRecipeCost(recipeID, cost); err != nil {
		return 0, err
	}
	return cost, nil
}

// recomputeProduct rederives the three cached price fields of one product
// from the current recipe cost, its fixed-cost fields and the configured
// price step. A dangling recipe reference contributes cost 0 instead of
// failing.
func (s *Service) recomputeProduct(st *store.Store, productID int64) error {
	p, err := st.FindCostProduct(productID)
	if err != nil {
		return err
	}

	recipeCost := 0.0
	if p.RecipeID != nil {
		recipe, err := st.FindRecipe(*p.RecipeID)
		switch {
		case err == nil:
			recipeCost = recipe.RecipeCost
		case errors.Is(err, store.ErrNotFound):
			s.log.Warn().Int64("cost_product_id", productID).Int64("recipe_id", *p.RecipeID).
				Msg("product recipe missing, pricing with zero recipe cost")
		default:
			return err
		}
	}

	cfg, err := st.GetPricingConfig()
	if err != nil {
		return err
	}

	fixed := costing.FixedCost(p.FixedCost, p.FixedCostPerMinute, p.PreparationMinutes, p.FixedCostPolicy)
	quote := costing.Price(recipeCost, fixed, p.MarginPercent, cfg.PriceRoundStep)

	_, err = st.UpdateCostProductPrices(productID, quote)
	return err
}
