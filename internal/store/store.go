// Package store is the record store of the cost engine: entity types and
// the SQL that reads and writes them. Every method works over a Querier so
// the same code runs against *sql.DB or against the transaction a cascade
// opened.
package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("record not found")

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store exposes the record-store operations over a database handle or an
// open transaction.
type Store struct {
	q Querier
}

// New returns a Store over the given handle.
func New(q Querier) *Store {
	return &Store{q: q}
}

// Supplier identifies where raw materials are purchased.
type Supplier struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Notes       string `json:"notes"`
	Active      bool   `json:"active"`
}

// RawMaterial is a purchasable ingredient. UnitCost is a cached derived
// value: cost of one PurchaseUnit, recomputed on every price-relevant write.
type RawMaterial struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	SupplierID       *int64  `json:"supplier_id"`
	PurchasePrice    float64 `json:"purchase_price"`
	PurchaseQuantity float64 `json:"purchase_quantity"`
	PurchaseUnit     string  `json:"purchase_unit"`
	UnitCost         float64 `json:"unit_cost"`
	PriceUpdatedAt   string  `json:"price_updated_at"`
	Active           bool    `json:"active"`
}

// Recipe is a named composition of raw materials. RecipeCost is cached and
// kept in sync by the cascade.
type Recipe struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	RecipeCost  float64 `json:"recipe_cost"`
	Active      bool    `json:"active"`
}

// RecipeIngredient is one line of a recipe. Its unit may differ from the
// raw material's purchase unit; conversion happens at cost time.
type RecipeIngredient struct {
	ID            int64   `json:"id"`
	RecipeID      int64   `json:"recipe_id"`
	RawMaterialID int64   `json:"raw_material_id"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
}

// CostProduct is a sellable menu item with its three cached derived price
// fields. FixedCost holds the per-item amount and, under the global policy,
// the global amount too (legacy field reuse).
type CostProduct struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	RecipeID           *int64  `json:"recipe_id"`
	FixedCost          float64 `json:"fixed_cost"`
	FixedCostPerMinute float64 `json:"fixed_cost_per_minute"`
	FixedCostPolicy    string  `json:"fixed_cost_policy"`
	PreparationMinutes float64 `json:"preparation_minutes"`
	MarginPercent      float64 `json:"margin_percent"`
	CalculatedCost     float64 `json:"calculated_cost"`
	SuggestedPrice     float64 `json:"suggested_price"`
	RoundedPrice       float64 `json:"rounded_price"`
	Active             bool    `json:"active"`
}

// PricingConfig is the singleton pricing configuration row.
type PricingConfig struct {
	PriceRoundStep float64
	Currency       string
}

// GetPricingConfig reads the singleton pricing configuration. A missing row
// yields the defaults (step 10, COP) instead of an error so recomputation
// never blocks on configuration.
func (s *Store) GetPricingConfig() (PricingConfig, error) {
	cfg := PricingConfig{PriceRoundStep: 10, Currency: "COP"}
	err := s.q.QueryRow(`
		SELECT price_round_step, currency
		FROM pricing_config
		WHERE id = 1
	`).Scan(&cfg.PriceRoundStep, &cfg.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PricingConfig{PriceRoundStep: 10, Currency: "COP"}, nil
		}
		return cfg, err
	}
	return cfg, nil
}

// UpdatePricingConfig replaces the singleton pricing configuration.
func (s *Store) UpdatePricingConfig(cfg PricingConfig) error {
	_, err := s.q.Exec(`
		INSERT INTO pricing_config (id, price_round_step, currency)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			price_round_step = excluded.price_round_step,
			currency = excluded.currency,
			updated_at = CURRENT_TIMESTAMP
	`, cfg.PriceRoundStep, cfg.Currency)
	return err
}
