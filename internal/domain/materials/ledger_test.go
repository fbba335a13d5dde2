package materials

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func setup() (*Ledger, *MemoryStore, Material, Section, Section) {
	st := NewMemoryStore()
	mat := st.AddMaterial(1, "Кабель ВВГ", "м", 100)
	secA := st.AddSection(1, "Участок А")
	secB := st.AddSection(1, "Участок Б")
	return NewLedger(st), st, mat, secA, secB
}

func TestAllocateWithinTotal(t *testing.T) {
	l, _, mat, secA, secB := setup()
	ctx := context.Background()

	if err := l.Allocate(ctx, mat.ID, secA.ID, 60); err != nil {
		t.Fatalf("allocate 60: %v", err)
	}
	if err := l.Allocate(ctx, mat.ID, secB.ID, 40); err != nil {
		t.Fatalf("allocate 40: %v", err)
	}
	// ровно в ноль — допустимо; сверх — нет
	if err := l.Allocate(ctx, mat.ID, secB.ID, 41); err == nil {
		t.Fatal("over-allocation must be rejected")
	}
}

func TestAllocateInsufficientMessage(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	m := st.AddMaterial(1, "Труба", "м", 10)
	sa := st.AddSection(1, "А")
	sb := st.AddSection(1, "Б")
	led := NewLedger(st)

	if err := led.Allocate(ctx, m.ID, sa.ID, 8); err != nil {
		t.Fatalf("allocate 8: %v", err)
	}
	err := led.Allocate(ctx, m.ID, sb.ID, 5)
	var ins *InsufficientError
	if !errors.As(err, &ins) {
		t.Fatalf("want InsufficientError, got %v", err)
	}
	if ins.Available != 2 || ins.Requested != 5 {
		t.Fatalf("available=%v requested=%v", ins.Available, ins.Requested)
	}
	if !strings.Contains(err.Error(), "2") || !strings.Contains(err.Error(), "5") {
		t.Fatalf("message must carry the numbers verbatim: %s", err)
	}
	// неудачная попытка ничего не записала
	alloc, _ := st.Allocation(ctx, m.ID, sb.ID)
	if alloc != nil {
		t.Fatal("failed allocate must leave no allocation")
	}
}

func TestAllocateReplaceSemantics(t *testing.T) {
	l, st, mat, secA, _ := setup()
	ctx := context.Background()

	_ = l.Allocate(ctx, mat.ID, secA.ID, 70)
	if err := l.Allocate(ctx, mat.ID, secA.ID, 30); err != nil {
		t.Fatalf("re-allocate: %v", err)
	}
	a, _ := st.Allocation(ctx, mat.ID, secA.ID)
	if a == nil || a.Quantity != 30 {
		t.Fatalf("allocation = %+v, want 30", a)
	}

	// замена учитывает только чужие участки: 100 на ту же пару проходит
	if err := l.Allocate(ctx, mat.ID, secA.ID, 100); err != nil {
		t.Fatalf("full re-allocate must pass: %v", err)
	}
}

func TestAllocateUnknownMaterialOrSection(t *testing.T) {
	l, _, mat, secA, _ := setup()
	ctx := context.Background()

	if err := l.Allocate(ctx, 9999, secA.ID, 1); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("want ErrMaterialNotFound, got %v", err)
	}
	if err := l.Allocate(ctx, mat.ID, 9999, 1); !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("want ErrSectionNotFound, got %v", err)
	}
	if err := l.Allocate(ctx, mat.ID, secA.ID, -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("want ErrNegativeQuantity, got %v", err)
	}
}

func TestCheckBalanceClassification(t *testing.T) {
	l, _, mat, secA, secB := setup()
	ctx := context.Background()

	_ = l.Allocate(ctx, mat.ID, secA.ID, 60)
	_ = l.Allocate(ctx, mat.ID, secB.ID, 40)

	rep, err := l.CheckBalance(ctx, 1)
	if err != nil {
		t.Fatalf("check balance: %v", err)
	}
	if len(rep.Materials) != 1 {
		t.Fatalf("materials = %d", len(rep.Materials))
	}
	mb := rep.Materials[0]
	if !mb.Balanced || mb.Difference != 0 {
		t.Fatalf("want balanced diff 0, got %+v", mb)
	}

	// 60 + 30 из 100 — расхождение 10
	_ = l.Allocate(ctx, mat.ID, secB.ID, 30)
	rep, _ = l.CheckBalance(ctx, 1)
	mb = rep.Materials[0]
	if mb.Balanced || mb.Difference != 10 {
		t.Fatalf("want mismatch diff 10, got %+v", mb)
	}

	// раскладка по участкам
	if len(rep.Sections) != 2 {
		t.Fatalf("sections = %d", len(rep.Sections))
	}
	if len(rep.Sections[0].Items) != 1 || rep.Sections[0].Items[0].Quantity != 60 {
		t.Fatalf("section A items = %+v", rep.Sections[0].Items)
	}
}

func TestTrackInstalled(t *testing.T) {
	l, st, mat, secA, _ := setup()
	ctx := context.Background()

	// без распределения монтаж не принимается
	if err := l.TrackInstalled(ctx, mat.ID, secA.ID, 5); !errors.Is(err, ErrNotAllocated) {
		t.Fatalf("want ErrNotAllocated, got %v", err)
	}

	_ = l.Allocate(ctx, mat.ID, secA.ID, 50)
	if err := l.TrackInstalled(ctx, mat.ID, secA.ID, 20); err != nil {
		t.Fatalf("track: %v", err)
	}
	// замена, не прибавление
	if err := l.TrackInstalled(ctx, mat.ID, secA.ID, 35); err != nil {
		t.Fatalf("track: %v", err)
	}
	rec, _ := st.Montage(ctx, mat.ID, secA.ID)
	if rec == nil || rec.Installed != 35 {
		t.Fatalf("installed = %+v, want 35", rec)
	}
}

// Монтаж сверх распределённого на участок не принимается;
// в ошибке — оба числа.
func TestTrackInstalledOverAllocation(t *testing.T) {
	l, st, mat, secA, _ := setup()
	ctx := context.Background()

	_ = l.Allocate(ctx, mat.ID, secA.ID, 50)
	err := l.TrackInstalled(ctx, mat.ID, secA.ID, 100)
	var over *OverInstallError
	if !errors.As(err, &over) {
		t.Fatalf("want OverInstallError, got %v", err)
	}
	if over.Allocated != 50 || over.Requested != 100 {
		t.Fatalf("allocated=%v requested=%v", over.Allocated, over.Requested)
	}
	if rec, _ := st.Montage(ctx, mat.ID, secA.ID); rec != nil {
		t.Fatal("rejected track must leave no record")
	}
	// ровно в распределение — допустимо
	if err := l.TrackInstalled(ctx, mat.ID, secA.ID, 50); err != nil {
		t.Fatalf("track 50 of 50: %v", err)
	}
}

// Отклонённое распределение проходит после увеличения общего объёма.
func TestSetQuantityRecoversAllocation(t *testing.T) {
	l, st, mat, secA, secB := setup()
	ctx := context.Background()

	_ = l.Allocate(ctx, mat.ID, secA.ID, 80)
	var ins *InsufficientError
	if err := l.Allocate(ctx, mat.ID, secB.ID, 40); !errors.As(err, &ins) {
		t.Fatalf("want InsufficientError, got %v", err)
	}

	if err := l.SetQuantity(ctx, mat.ID, 120); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := l.Allocate(ctx, mat.ID, secB.ID, 40); err != nil {
		t.Fatalf("allocate after raise: %v", err)
	}

	// уменьшение ниже распределённого допускается, это видно в сверке
	if err := l.SetQuantity(ctx, mat.ID, 100); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	rep, _ := l.CheckBalance(ctx, 1)
	if rep.Materials[0].Balanced || rep.Materials[0].Difference != -20 {
		t.Fatalf("want diff -20, got %+v", rep.Materials[0])
	}

	if err := l.SetQuantity(ctx, 9999, 10); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("want ErrMaterialNotFound, got %v", err)
	}
	if err := l.SetQuantity(ctx, mat.ID, -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("want ErrNegativeQuantity, got %v", err)
	}
	m, _ := st.Material(ctx, mat.ID)
	if m.Quantity != 100 {
		t.Fatalf("quantity = %v, want 100", m.Quantity)
	}
}

func TestMontageReportAndStatus(t *testing.T) {
	l, _, mat, secA, secB := setup()
	ctx := context.Background()

	_ = l.Allocate(ctx, mat.ID, secA.ID, 50)
	_ = l.Allocate(ctx, mat.ID, secB.ID, 50)
	_ = l.TrackInstalled(ctx, mat.ID, secA.ID, 50)
	_ = l.TrackInstalled(ctx, mat.ID, secB.ID, 20)

	lines, err := l.MontageReport(ctx, mat.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[0].Status != StatusCompleted {
		t.Errorf("section A status = %s", lines[0].Status)
	}
	if lines[1].Status != StatusInProgress {
		t.Errorf("section B status = %s", lines[1].Status)
	}
}

func TestStatusDerivation(t *testing.T) {
	cases := []struct {
		installed, allocated float64
		want                 MontageStatus
	}{
		{0, 0, StatusNotStarted},
		{0, 10, StatusNotStarted},
		{5, 10, StatusInProgress},
		{10, 10, StatusCompleted},
		{12, 10, StatusCompleted}, // перемонтаж после уменьшения распределения
	}
	for _, c := range cases {
		if got := Status(c.installed, c.allocated); got != c.want {
			t.Errorf("Status(%v, %v) = %s, want %s", c.installed, c.allocated, got, c.want)
		}
	}
	if Progress(5, 0) != 0 {
		t.Error("progress with zero allocation must be 0")
	}
}

// Уменьшение распределения не подрезает уже записанный монтаж —
// известная особенность, сверка остаётся за отчётами.
func TestAllocationDecreaseKeepsInstalled(t *testing.T) {
	l, st, mat, secA, _ := setup()
	ctx := context.Background()

	_ = l.Allocate(ctx, mat.ID, secA.ID, 50)
	_ = l.TrackInstalled(ctx, mat.ID, secA.ID, 40)
	if err := l.Allocate(ctx, mat.ID, secA.ID, 30); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	rec, _ := st.Montage(ctx, mat.ID, secA.ID)
	if rec.Installed != 40 {
		t.Fatalf("installed clamped to %v, must stay 40", rec.Installed)
	}
}

// Параллельные распределения разных участков против одного материала
// не должны пробить суммарный лимит.
func TestConcurrentAllocateKeepsInvariant(t *testing.T) {
	st := NewMemoryStore()
	mat := st.AddMaterial(1, "Провод", "м", 100)
	var sections []Section
	for i := 0; i < 20; i++ {
		sections = append(sections, st.AddSection(1, "Участок"))
	}
	l := NewLedger(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, sec := range sections {
		wg.Add(1)
		go func(sectionID int64) {
			defer wg.Done()
			_ = l.Allocate(ctx, mat.ID, sectionID, 10)
		}(sec.ID)
	}
	wg.Wait()

	allocs, _ := st.AllocationsByMaterial(ctx, mat.ID)
	var sum float64
	for _, a := range allocs {
		sum += a.Quantity
	}
	if sum > 100 {
		t.Fatalf("allocated %v out of 100", sum)
	}
}
