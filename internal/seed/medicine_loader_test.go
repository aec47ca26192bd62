package seed

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"medstore/m/internal/testdb"
)

const catalog = `name,unit,category,price,description
Paracetamol,tablets,Analgesic,2.50,Pain relief
Amoxicillin,capsules,Antibiotic,8,
,tablets,Ghost,1,
Cough Syrup,ml,,not-a-price,
Paracetamol,strips,Analgesic,3,Duplicate
`

func TestLoadMedicines(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	res, err := LoadMedicines(ctx, db, strings.NewReader(catalog), zap.NewNop())
	if err != nil {
		t.Fatalf("LoadMedicines() error = %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 3 {
		t.Errorf("LoadMedicines() = %+v, want 2 inserted 3 skipped", res)
	}

	var unit string
	if err := db.Get(&unit, `SELECT unit FROM medicines WHERE name = 'Paracetamol'`); err != nil {
		t.Fatalf("select unit: %v", err)
	}
	if unit != "tablets" {
		t.Errorf("duplicate row overwrote unit: %q", unit)
	}

	// Loading again is a no-op.
	res, err = LoadMedicines(ctx, db, strings.NewReader(catalog), zap.NewNop())
	if err != nil || res.Inserted != 0 {
		t.Errorf("second LoadMedicines() = %+v, %v", res, err)
	}
}

func TestLoadMedicines_EmptyInput(t *testing.T) {
	if _, err := LoadMedicines(context.Background(), testdb.Open(t), strings.NewReader(""), zap.NewNop()); err == nil {
		t.Error("LoadMedicines(empty) error = nil, want header error")
	}
}

var errDisk = errors.New("read error")

// brokenReader serves data and then fails every later read.
type brokenReader struct{ data io.Reader }

func (r brokenReader) Read(p []byte) (int, error) {
	n, err := r.data.Read(p)
	if err == io.EOF {
		return n, errDisk
	}
	return n, err
}

func TestLoadMedicines_ReadErrorStops(t *testing.T) {
	_, err := LoadMedicines(context.Background(), testdb.Open(t), brokenReader{strings.NewReader(catalog)}, zap.NewNop())
	if !errors.Is(err, errDisk) {
		t.Errorf("LoadMedicines() error = %v, want %v", err, errDisk)
	}
}

func TestLoadMedicines_SkipsMalformedRows(t *testing.T) {
	const input = `name,unit,category,price,description
Bad"Quote,tablets,,1,
Ibuprofen,tablets,Analgesic,4.25,
Gauze,rolls,,0.125,
`
	res, err := LoadMedicines(context.Background(), testdb.Open(t), strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("LoadMedicines() error = %v", err)
	}
	if res.Inserted != 1 || res.Skipped != 2 {
		t.Errorf("LoadMedicines() = %+v, want 1 inserted 2 skipped", res)
	}
}
