package seed

import (
	"database/sql"
	"fmt"
)

const (
	defaultSupplierName = "Proveedor General"
	defaultMaterialName = "Café en grano"
	defaultCurrency     = "COP"
	defaultRoundStep    = 10
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way: the pricing
// configuration singleton, a default supplier and a starter raw material.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensurePricingConfig(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSupplier(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureMaterial(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensurePricingConfig(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM pricing_config WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check pricing config existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO pricing_config (id, price_round_step, currency)
		VALUES (1, ?, ?)
	`, defaultRoundStep, defaultCurrency); err != nil {
		return fmt.Errorf("insert pricing config singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureSupplier(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM suppliers WHERE name = ? LIMIT 1)`, defaultSupplierName).Scan(&exists); err != nil {
		return fmt.Errorf("check default supplier existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO suppliers (name, notes, active)
		VALUES (?, ?, TRUE)
	`, defaultSupplierName, ""); err != nil {
		return fmt.Errorf("insert default supplier: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureMaterial(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM raw_materials WHERE name = ? LIMIT 1)`, defaultMaterialName).Scan(&exists); err != nil {
		return fmt.Errorf("check default material existence: %w", err)
	}
	if exists {
		return nil
	}

	var supplierID int64
	if err := tx.QueryRow(`SELECT id FROM suppliers WHERE name = ? LIMIT 1`, defaultSupplierName).Scan(&supplierID); err != nil {
		return fmt.Errorf("resolve default supplier: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO raw_materials (name, supplier_id, purchase_price, purchase_quantity, purchase_unit, unit_cost, active)
		VALUES (?, ?, 0, 1, 'kg', 0, TRUE)
	`, defaultMaterialName, supplierID); err != nil {
		return fmt.Errorf("insert default material: %w", err)
	}
	stats.Inserts++
	return nil
}
