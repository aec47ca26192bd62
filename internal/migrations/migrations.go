package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"medstore/m/internal/database"
)

// schema uses {{id}} for the auto-increment primary key column, which
// differs between SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id {{id}},
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            full_name TEXT,
            avatar_url TEXT,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id {{id}},
            name TEXT NOT NULL UNIQUE,
            unit TEXT,
            category TEXT,
            description TEXT,
            price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (price >= 0)
        );`,
	`CREATE TABLE IF NOT EXISTS suppliers (
            id {{id}},
            name TEXT NOT NULL UNIQUE,
            phone TEXT,
            email TEXT,
            address TEXT,
            created_at TIMESTAMP NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS stock (
            id {{id}},
            supplier_id INTEGER NOT NULL REFERENCES suppliers(id),
            total_value NUMERIC(12,2) NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS stock_items (
            id {{id}},
            stock_id INTEGER NOT NULL REFERENCES stock(id),
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
            subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
            expiry_date DATE,
            batch_number TEXT
        );`,
	`CREATE INDEX IF NOT EXISTS idx_stock_items_medicine ON stock_items(medicine_id);`,
	`CREATE TABLE IF NOT EXISTS sales (
            id {{id}},
            patient_name TEXT NOT NULL,
            total_amount NUMERIC(12,2) NOT NULL,
            description TEXT,
            created_at TIMESTAMP NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id {{id}},
            sale_id INTEGER NOT NULL REFERENCES sales(id),
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
            subtotal NUMERIC(12,2) NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);`,
}

// Run creates the database schema required by the service.
func Run(ctx context.Context, db *sqlx.DB) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if database.DialectOf(db) == database.Postgres {
		id = "SERIAL PRIMARY KEY"
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, strings.ReplaceAll(stmt, "{{id}}", id)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
