package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// InsertSupplier creates a supplier and returns its id.
func (s *Store) InsertSupplier(sup *Supplier) (int64, error) {
	res, err := s.q.Exec(`
		INSERT INTO suppliers (name, contact_name, phone, email, notes, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sup.Name, sup.ContactName, sup.Phone, sup.Email, sup.Notes, sup.Active)
	if err != nil {
		return 0, fmt.Errorf("insert supplier: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("supplier insert id: %w", err)
	}
	return id, nil
}

// FindSupplier loads one supplier or ErrNotFound.
func (s *Store) FindSupplier(id int64) (*Supplier, error) {
	var sup Supplier
	err := s.q.QueryRow(`
		SELECT id, name, COALESCE(contact_name, ''), COALESCE(phone, ''), COALESCE(email, ''), COALESCE(notes, ''), active
		FROM suppliers
		WHERE id = ?
	`, id).Scan(&sup.ID, &sup.Name, &sup.ContactName, &sup.Phone, &sup.Email, &sup.Notes, &sup.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query supplier: %w", err)
	}
	return &sup, nil
}

// ListSuppliers returns suppliers, newest first, optionally only active ones.
func (s *Store) ListSuppliers(onlyActive bool) ([]Supplier, error) {
	rows, err := s.q.Query(`
		SELECT id, name, COALESCE(contact_name, ''), COALESCE(phone, ''), COALESCE(email, ''), COALESCE(notes, ''), active
		FROM suppliers
		WHERE (? = 0 OR active)
		ORDER BY id DESC
	`, boolArg(onlyActive))
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0)
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.ContactName, &sup.Phone, &sup.Email, &sup.Notes, &sup.Active); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}
	return suppliers, nil
}

// UpdateSupplier writes the full supplier row and reports whether a row
// changed.
func (s *Store) UpdateSupplier(sup *Supplier) (bool, error) {
	res, err := s.q.Exec(`
		UPDATE suppliers
		SET
			name = ?,
			contact_name = ?,
			phone = ?,
			email = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sup.Name, sup.ContactName, sup.Phone, sup.Email, sup.Notes, sup.Active, sup.ID)
	if err != nil {
		return false, fmt.Errorf("update supplier: %w", err)
	}
	return rowChanged(res)
}

func rowChanged(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}
