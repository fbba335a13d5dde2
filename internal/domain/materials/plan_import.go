package materials

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// PlanRow — строка плана распределения из Excel-файла.
type PlanRow struct {
	Line       int // номер строки в файле, для сообщений об ошибках
	MaterialID int64
	SectionID  int64
	Quantity   float64
}

// ParsePlan читает план распределения из .xlsx: первая строка — заголовок,
// дальше колонки material_id, section_id, quantity.
func ParsePlan(data []byte) ([]PlanRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("открыть файл: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("прочитать лист: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("файл не содержит строк с данными")
	}

	var out []PlanRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 3 {
			continue
		}
		matStr := strings.TrimSpace(row[0])
		secStr := strings.TrimSpace(row[1])
		qtyStr := strings.TrimSpace(row[2])
		if matStr == "" && secStr == "" && qtyStr == "" {
			continue
		}

		matID, err := strconv.ParseInt(matStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("строка %d: некорректный material_id (%q)", i+1, matStr)
		}
		secID, err := strconv.ParseInt(secStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("строка %d: некорректный section_id (%q)", i+1, secStr)
		}
		qty, err := strconv.ParseFloat(strings.ReplaceAll(qtyStr, ",", "."), 64)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("строка %d: некорректное количество (%q)", i+1, qtyStr)
		}

		out = append(out, PlanRow{Line: i + 1, MaterialID: matID, SectionID: secID, Quantity: qty})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("файл не содержит строк с данными")
	}
	return out, nil
}

// ApplyPlan прогоняет строки плана через Allocate. Ошибки собираются
// построчно, успешные строки применяются независимо от неудачных.
func ApplyPlan(ctx context.Context, l *Ledger, rows []PlanRow) (applied int, failures []string) {
	for _, r := range rows {
		if err := l.Allocate(ctx, r.MaterialID, r.SectionID, r.Quantity); err != nil {
			failures = append(failures, fmt.Sprintf("строка %d: %v", r.Line, err))
			continue
		}
		applied++
	}
	return applied, failures
}
