package materials

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildPlanFile(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	_ = f.SetSheetRow(sheet, "A1", &[]any{"material_id", "section_id", "quantity"})
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		r := row
		_ = f.SetSheetRow(sheet, cell, &r)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

func TestParsePlan(t *testing.T) {
	data := buildPlanFile(t, [][]any{
		{"1", "2", "60"},
		{"1", "3", "40.5"},
	})

	rows, err := ParsePlan(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].MaterialID != 1 || rows[0].SectionID != 2 || rows[0].Quantity != 60 {
		t.Fatalf("row0 = %+v", rows[0])
	}
	if rows[1].Quantity != 40.5 {
		t.Fatalf("row1 = %+v", rows[1])
	}
	if rows[1].Line != 3 {
		t.Fatalf("line = %d, want 3", rows[1].Line)
	}
}

func TestParsePlanBadRows(t *testing.T) {
	data := buildPlanFile(t, [][]any{
		{"1", "2", "60"},
		{"x", "3", "40"},
	})
	if _, err := ParsePlan(data); err == nil || !strings.Contains(err.Error(), "строка 3") {
		t.Fatalf("want line-numbered error, got %v", err)
	}

	if _, err := ParsePlan([]byte("not an xlsx")); err == nil {
		t.Fatal("garbage must be rejected")
	}

	empty := buildPlanFile(t, nil)
	if _, err := ParsePlan(empty); err == nil {
		t.Fatal("header-only file must be rejected")
	}
}

func TestApplyPlan(t *testing.T) {
	st := NewMemoryStore()
	mat := st.AddMaterial(1, "Кабель", "м", 100)
	secA := st.AddSection(1, "А")
	secB := st.AddSection(1, "Б")
	l := NewLedger(st)

	rows := []PlanRow{
		{Line: 2, MaterialID: mat.ID, SectionID: secA.ID, Quantity: 60},
		{Line: 3, MaterialID: mat.ID, SectionID: secB.ID, Quantity: 50}, // сверх лимита
		{Line: 4, MaterialID: mat.ID, SectionID: secB.ID, Quantity: 40},
	}
	applied, failures := ApplyPlan(context.Background(), l, rows)
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}
	if len(failures) != 1 || !strings.Contains(failures[0], "строка 3") {
		t.Fatalf("failures = %v", failures)
	}

	a, _ := st.Allocation(context.Background(), mat.ID, secB.ID)
	if a == nil || a.Quantity != 40 {
		t.Fatalf("section B allocation = %+v", a)
	}
}
