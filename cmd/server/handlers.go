package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cafeverde/backoffice/internal/catalog"
	"github.com/cafeverde/backoffice/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP codes: validation
// failures name the field with 400, missing entities are 404, the rest 500.
func (s *server) writeError(w http.ResponseWriter, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Reason, Field: verr.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &catalog.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}

func onlyActive(r *http.Request) bool {
	return r.URL.Query().Get("include_inactive") != "1"
}

func (s *server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var input catalog.SupplierInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	supplier, err := s.catalog.CreateSupplier(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplier)
}

func (s *server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := s.catalog.ListSuppliers(r.Context(), onlyActive(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (s *server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var upd catalog.SupplierUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	changed, err := s.catalog.UpdateSupplier(r.Context(), id, upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (s *server) handleDeactivateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	changed, err := s.catalog.DeactivateSupplier(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (s *server) handleCreateRawMaterial(w http.ResponseWriter, r *http.Request) {
	var input catalog.RawMaterialInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	material, err := s.catalog.CreateRawMaterial(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, material)
}

func (s *server) handleGetRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	material, err := s.catalog.GetRawMaterial(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, material)
}

func (s *server) handleListRawMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.catalog.ListRawMaterials(r.Context(), onlyActive(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleUpdateRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var upd catalog.RawMaterialUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	changed, err := s.catalog.UpdateRawMaterial(r.Context(), id, upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (s *server) handleDeactivateRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	changed, err := s.catalog.DeactivateRawMaterial(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (s *server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var input catalog.RecipeInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	recipe, err := s.catalog.CreateRecipe(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

type recipeDetail struct {
	store.Recipe
	Ingredients []store.RecipeIngredient `json:"ingredients"`
}

func (s *server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	recipe, err := s.catalog.GetRecipe(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ingredients, err := s.catalog.GetRecipeIngredients(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeDetail{Recipe: *recipe, Ingredients: ingredients})
}

func (s *server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.catalog.ListRecipes(r.Context(), onlyActive(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var upd catalog.RecipeUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	changed, err := s.catalog.UpdateRecipe(r.Context(), id, upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (s *server) handleRecalculateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	cost, err := s.catalog.RecalculateRecipe(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"recipe_cost": cost})
}

func (s *server) handleCreateCostProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.CostProductInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	product, err := s.catalog.CreateCostProduct(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *server) handleGetCostProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	product, err := s.catalog.GetCostProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *server) handleListCostProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListCostProducts(r.Context(), onlyActive(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleUpdateCostProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var upd catalog.CostProductUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	changed, err := s.catalog.UpdateCostProduct(r.Context(), id, upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (s *server) handleRecalculateCostProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ok, err := s.catalog.RecalculateCostProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"recalculated": ok})
}

func (s *server) handleDeactivateCostProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	changed, err := s.catalog.DeactivateCostProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}
