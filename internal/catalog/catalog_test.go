package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cafeverde/backoffice/internal/catalog"
	"github.com/cafeverde/backoffice/internal/db"
	"github.com/cafeverde/backoffice/internal/migrations"
	"github.com/cafeverde/backoffice/internal/seed"
	"github.com/cafeverde/backoffice/internal/store"
)

func newService(t *testing.T) (*catalog.Service, *sql.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	return catalog.New(database, zerolog.Nop()), database
}

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCreateRawMaterialDerivesUnitCost(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Café en grano tostado", PurchasePrice: 7600, PurchaseQuantity: 1000, PurchaseUnit: "gr",
	})
	if err != nil {
		t.Fatalf("create raw material: %v", err)
	}
	nearlyEqual(t, "unit cost per gram", m.UnitCost, 7.6)
}

func TestCreateRawMaterialValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var verr *catalog.ValidationError

	_, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		PurchasePrice: 100, PurchaseQuantity: 1, PurchaseUnit: "gr",
	})
	if !errors.As(err, &verr) || verr.Field != "Name" {
		t.Fatalf("expected validation error on Name, got %v", err)
	}

	_, err = svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Azúcar", PurchasePrice: 100, PurchaseQuantity: 0, PurchaseUnit: "gr",
	})
	if !errors.As(err, &verr) || verr.Field != "PurchaseQuantity" {
		t.Fatalf("expected validation error on PurchaseQuantity, got %v", err)
	}

	_, err = svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Azúcar", PurchasePrice: 100, PurchaseQuantity: 1, PurchaseUnit: "libras",
	})
	if !errors.As(err, &verr) || verr.Field != "PurchaseUnit" {
		t.Fatalf("expected validation error on PurchaseUnit, got %v", err)
	}
}

// The full bottom-up scenario: 7600 for 1000 gr prices the gram at 7.6, a
// recipe using 18 gr costs 136.80, and a product with fixed cost 5, margin
// 50% and step 10 sells at 220.
func TestEndToEndPricingScenario(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	material, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Café en grano tostado", PurchasePrice: 7600, PurchaseQuantity: 1000, PurchaseUnit: "gr",
	})
	if err != nil {
		t.Fatalf("create raw material: %v", err)
	}

	recipe, err := svc.CreateRecipe(ctx, catalog.RecipeInput{
		Name: "Espresso doble",
		Ingredients: []catalog.IngredientInput{
			{RawMaterialID: material.ID, Quantity: 18, Unit: "gr"},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	nearlyEqual(t, "recipe cost", recipe.RecipeCost, 136.8)

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Espresso doble 8oz", RecipeID: &recipe.ID,
		FixedCost: 5, FixedCostPolicy: "per_item", MarginPercent: 50,
	})
	if err != nil {
		t.Fatalf("create cost product: %v", err)
	}

	nearlyEqual(t, "calculated cost", product.CalculatedCost, 141.8)
	nearlyEqual(t, "suggested price", product.SuggestedPrice, 212.7)
	nearlyEqual(t, "rounded price", product.RoundedPrice, 220)
}

// Updating a raw material's purchase price must reprice its recipes and
// their products, and leave unrelated products alone.
func TestRawMaterialUpdateCascades(t *testing.T) {
	svc, database := newService(t)
	ctx := context.Background()

	material, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Café en grano tostado", PurchasePrice: 7600, PurchaseQuantity: 1000, PurchaseUnit: "gr",
	})
	if err != nil {
		t.Fatalf("create raw material: %v", err)
	}

	recipe, err := svc.CreateRecipe(ctx, catalog.RecipeInput{
		Name: "Espresso doble",
		Ingredients: []catalog.IngredientInput{
			{RawMaterialID: material.ID, Quantity: 18, Unit: "gr"},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Espresso doble 8oz", RecipeID: &recipe.ID,
		FixedCost: 5, FixedCostPolicy: "per_item", MarginPercent: 50,
	})
	if err != nil {
		t.Fatalf("create cost product: %v", err)
	}

	unrelated, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Brownie", FixedCost: 800, FixedCostPolicy: "per_item", MarginPercent: 100,
	})
	if err != nil {
		t.Fatalf("create unrelated product: %v", err)
	}

	newPrice := 8000.0
	changed, err := svc.UpdateRawMaterial(ctx, material.ID, catalog.RawMaterialUpdate{PurchasePrice: &newPrice})
	if err != nil {
		t.Fatalf("update raw material: %v", err)
	}
	if !changed {
		t.Fatal("expected the update to report a change")
	}

	updatedMaterial, err := svc.GetRawMaterial(ctx, material.ID)
	if err != nil {
		t.Fatalf("reload material: %v", err)
	}
	nearlyEqual(t, "unit cost after update", updatedMaterial.UnitCost, 8.0)

	updatedRecipe, err := svc.GetRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	nearlyEqual(t, "recipe cost after cascade", updatedRecipe.RecipeCost, 144.0)

	updatedProduct, err := svc.GetCostProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	nearlyEqual(t, "calculated cost after cascade", updatedProduct.CalculatedCost, 149.0)
	nearlyEqual(t, "suggested price after cascade", updatedProduct.SuggestedPrice, 223.5)
	nearlyEqual(t, "rounded price after cascade", updatedProduct.RoundedPrice, 230)

	untouched, err := svc.GetCostProduct(ctx, unrelated.ID)
	if err != nil {
		t.Fatalf("reload unrelated product: %v", err)
	}
	nearlyEqual(t, "unrelated rounded price", untouched.RoundedPrice, 1600)

	// The cascade runs in one transaction, so the recipe and product rows
	// can never disagree about which upstream price they reflect.
	var recipeCost, productCost float64
	err = database.QueryRow(`
		SELECT r.recipe_cost, p.calculated_cost
		FROM recipes r JOIN cost_products p ON p.recipe_id = r.id
		WHERE r.id = ?
	`, recipe.ID).Scan(&recipeCost, &productCost)
	if err != nil {
		t.Fatalf("query cascade rows: %v", err)
	}
	nearlyEqual(t, "persisted recipe cost", recipeCost, 144.0)
	nearlyEqual(t, "persisted product cost", productCost, 149.0)
}

func TestRecipeUpdateReplacesIngredientsAndCascades(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	coffee, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Café en grano tostado", PurchasePrice: 7600, PurchaseQuantity: 1000, PurchaseUnit: "gr",
	})
	if err != nil {
		t.Fatalf("create coffee: %v", err)
	}
	milk, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Leche entera", PurchasePrice: 4000, PurchaseQuantity: 1, PurchaseUnit: "l",
	})
	if err != nil {
		t.Fatalf("create milk: %v", err)
	}

	recipe, err := svc.CreateRecipe(ctx, catalog.RecipeInput{
		Name: "Espresso doble",
		Ingredients: []catalog.IngredientInput{
			{RawMaterialID: coffee.ID, Quantity: 18, Unit: "gr"},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Latte 12oz", RecipeID: &recipe.ID, FixedCost: 5, FixedCostPolicy: "per_item", MarginPercent: 50,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	// Turn the espresso into a latte: same coffee plus 200 ml of milk
	// bought by the liter (4000 per 1000 ml -> 0.2 l at 4000 = 800).
	newIngredients := []catalog.IngredientInput{
		{RawMaterialID: coffee.ID, Quantity: 18, Unit: "gr"},
		{RawMaterialID: milk.ID, Quantity: 200, Unit: "ml"},
	}
	if _, err := svc.UpdateRecipe(ctx, recipe.ID, catalog.RecipeUpdate{Ingredients: &newIngredients}); err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	updatedRecipe, err := svc.GetRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	nearlyEqual(t, "recipe cost with milk", updatedRecipe.RecipeCost, 936.8)

	updatedProduct, err := svc.GetCostProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	nearlyEqual(t, "calculated cost with milk", updatedProduct.CalculatedCost, 941.8)
}

func TestRecalculateRecipeIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	material, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Café en grano tostado", PurchasePrice: 7600, PurchaseQuantity: 1000, PurchaseUnit: "gr",
	})
	if err != nil {
		t.Fatalf("create raw material: %v", err)
	}

	recipe, err := svc.CreateRecipe(ctx, catalog.RecipeInput{
		Name: "Espresso doble",
		Ingredients: []catalog.IngredientInput{
			{RawMaterialID: material.ID, Quantity: 18, Unit: "gr"},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	first, err := svc.RecalculateRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("first recalculation: %v", err)
	}
	second, err := svc.RecalculateRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("second recalculation: %v", err)
	}
	nearlyEqual(t, "idempotent recalculation", first, second)
	nearlyEqual(t, "recalculated cost", first, 136.8)
}

func TestRecalculateRecipeNotFound(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.RecalculateRecipe(context.Background(), 4242); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivatedMaterialStillPricesRecipes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	material, err := svc.CreateRawMaterial(ctx, catalog.RawMaterialInput{
		Name: "Café en grano tostado", PurchasePrice: 7600, PurchaseQuantity: 1000, PurchaseUnit: "gr",
	})
	if err != nil {
		t.Fatalf("create raw material: %v", err)
	}

	recipe, err := svc.CreateRecipe(ctx, catalog.RecipeInput{
		Name: "Espresso doble",
		Ingredients: []catalog.IngredientInput{
			{RawMaterialID: material.ID, Quantity: 18, Unit: "gr"},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := svc.DeactivateRawMaterial(ctx, material.ID); err != nil {
		t.Fatalf("deactivate material: %v", err)
	}

	cost, err := svc.RecalculateRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("recalculate recipe: %v", err)
	}
	nearlyEqual(t, "cost with soft-deleted material", cost, 136.8)
}

func TestCostProductWithoutRecipe(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Botella de agua", FixedCost: 1500, FixedCostPolicy: "per_item", MarginPercent: 100,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	nearlyEqual(t, "calculated cost", product.CalculatedCost, 1500)
	nearlyEqual(t, "suggested price", product.SuggestedPrice, 3000)
	nearlyEqual(t, "rounded price", product.RoundedPrice, 3000)
}

func TestCostProductPerMinutePolicy(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Sandwich de la casa", FixedCostPerMinute: 50, FixedCostPolicy: "per_minute",
		PreparationMinutes: 12, MarginPercent: 0,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	nearlyEqual(t, "per-minute fixed cost", product.CalculatedCost, 600)
}

func TestCostProductGlobalPolicyReusesPerItemAmount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Menú del día", FixedCost: 900, FixedCostPolicy: "global", MarginPercent: 0,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	nearlyEqual(t, "global fixed cost", product.CalculatedCost, 900)
}

func TestUpdateCostProductRecomputesOnMarginChange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Brownie", FixedCost: 800, FixedCostPolicy: "per_item", MarginPercent: 50,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	nearlyEqual(t, "initial rounded price", product.RoundedPrice, 1200)

	margin := 100.0
	if _, err := svc.UpdateCostProduct(ctx, product.ID, catalog.CostProductUpdate{MarginPercent: &margin}); err != nil {
		t.Fatalf("update product: %v", err)
	}

	updated, err := svc.GetCostProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	nearlyEqual(t, "rounded price after margin change", updated.RoundedPrice, 1600)
}

func TestRecalculateCostProductIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Brownie", FixedCost: 800, FixedCostPolicy: "per_item", MarginPercent: 50,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.RecalculateCostProduct(ctx, product.ID); err != nil {
			t.Fatalf("recalculate (iteration=%d): %v", i, err)
		}
	}

	reloaded, err := svc.GetCostProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	nearlyEqual(t, "rounded price after recalculations", reloaded.RoundedPrice, 1200)
}

func TestPriceRoundStepFromPricingConfig(t *testing.T) {
	svc, database := newService(t)
	ctx := context.Background()

	if err := store.New(database).UpdatePricingConfig(store.PricingConfig{PriceRoundStep: 50, Currency: "COP"}); err != nil {
		t.Fatalf("update pricing config: %v", err)
	}

	product, err := svc.CreateCostProduct(ctx, catalog.CostProductInput{
		Name: "Brownie", FixedCost: 800, FixedCostPolicy: "per_item", MarginPercent: 50,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	nearlyEqual(t, "price on step 50", product.RoundedPrice, 1200)

	margin := 55.0
	if _, err := svc.UpdateCostProduct(ctx, product.ID, catalog.CostProductUpdate{MarginPercent: &margin}); err != nil {
		t.Fatalf("update product: %v", err)
	}
	updated, err := svc.GetCostProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	// 800 * 1.55 = 1240, rounded up on a step of 50.
	nearlyEqual(t, "rounded to step 50", updated.RoundedPrice, 1250)
}

func TestCreateCostProductRejectsMissingRecipe(t *testing.T) {
	svc, _ := newService(t)

	missing := int64(4242)
	_, err := svc.CreateCostProduct(context.Background(), catalog.CostProductInput{
		Name: "Espresso", RecipeID: &missing, FixedCostPolicy: "per_item",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing recipe, got %v", err)
	}
}
