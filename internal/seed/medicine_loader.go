package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medstore/m/domain"
)

// Result counts the rows handled by LoadMedicines.
type Result struct {
	Inserted int
	Skipped  int
}

// LoadMedicinesFile opens csvPath and passes it to LoadMedicines.
func LoadMedicinesFile(ctx context.Context, db *sqlx.DB, csvPath string, log *zap.Logger) (Result, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return Result{}, fmt.Errorf("unable to load medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return LoadMedicines(ctx, db, file, log)
}

// LoadMedicines ingests a name,unit,category,price,description CSV into
// the medicines table. Names that already exist are left untouched, as are
// rows without a name or with an invalid price.
func LoadMedicines(ctx context.Context, db *sqlx.DB, r io.Reader, log *zap.Logger) (Result, error) {
	var res Result
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return res, fmt.Errorf("unable to read medicine header: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("unable to start medicine transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO medicines (name, unit, category, price, description)
        VALUES (?, ?, ?, ?, ?) ON CONFLICT (name) DO NOTHING`))
	if err != nil {
		return res, fmt.Errorf("unable to prepare medicine insert: %w", err)
	}
	defer stmt.Close()

	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			log.Warn("unable to read medicine row", zap.Int("line", line), zap.Error(err))
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("unable to read medicine catalog at line %d: %w", line, err)
		}
		if len(record) < 4 {
			res.Skipped++
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			res.Skipped++
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(record[3]))
		if err == nil {
			err = domain.CheckPrice(price)
		}
		if err != nil {
			log.Warn("invalid medicine price", zap.String("name", name), zap.String("price", record[3]))
			res.Skipped++
			continue
		}
		var description string
		if len(record) > 4 {
			description = record[4]
		}

		out, err := stmt.ExecContext(ctx, name, nullIfEmpty(record[1]), nullIfEmpty(record[2]), price, nullIfEmpty(description))
		if err != nil {
			return res, fmt.Errorf("unable to insert medicine %s: %w", name, err)
		}
		if n, _ := out.RowsAffected(); n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("unable to commit medicine seed: %w", err)
	}
	log.Info("seeded medicine catalog", zap.Int("inserted", res.Inserted), zap.Int("skipped", res.Skipped))
	return res, nil
}

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
