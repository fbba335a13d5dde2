package materials

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Store — хранилище материалов, участков, распределений и монтажа.
type Store interface {
	// Material возвращает nil, nil при отсутствии.
	Material(ctx context.Context, id int64) (*Material, error)
	MaterialsByObject(ctx context.Context, objectID int64) ([]Material, error)
	UpdateMaterialQuantity(ctx context.Context, id int64, quantity float64) error
	Section(ctx context.Context, id int64) (*Section, error)
	SectionsByObject(ctx context.Context, objectID int64) ([]Section, error)

	// Allocation возвращает nil, nil при отсутствии.
	Allocation(ctx context.Context, materialID, sectionID int64) (*Allocation, error)
	AllocationsByMaterial(ctx context.Context, materialID int64) ([]Allocation, error)
	UpsertAllocation(ctx context.Context, a Allocation) error

	// Montage возвращает nil, nil при отсутствии.
	Montage(ctx context.Context, materialID, sectionID int64) (*MontageRecord, error)
	MontageByMaterial(ctx context.Context, materialID int64) ([]MontageRecord, error)
	UpsertMontage(ctx context.Context, m MontageRecord) error
}

// InsufficientError — запрошено больше, чем осталось нераспределённым.
type InsufficientError struct {
	Available float64
	Requested float64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("недостаточно материала: доступно %s, запрошено %s",
		fmtQty(e.Available), fmtQty(e.Requested))
}

// OverInstallError — заявлен монтаж сверх распределённого на участок.
type OverInstallError struct {
	Allocated float64
	Requested float64
}

func (e *OverInstallError) Error() string {
	return fmt.Sprintf("нельзя смонтировать больше распределённого: распределено %s, указано %s",
		fmtQty(e.Allocated), fmtQty(e.Requested))
}

var (
	ErrMaterialNotFound = errors.New("материал не найден")
	ErrSectionNotFound  = errors.New("участок не найден")
	ErrNotAllocated     = errors.New("материал не распределён на этот участок")
	ErrNegativeQuantity = errors.New("количество не может быть отрицательным")
)

func fmtQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Ledger следит, чтобы сумма распределений материала по участкам
// никогда не превышала его общий объём.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, locks: map[int64]*sync.Mutex{}}
}

// materialLock сериализует allocate для одного материала: проверка
// остатка и запись должны быть атомарны между участками.
func (l *Ledger) materialLock(materialID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[materialID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[materialID] = m
	}
	return m
}

// Allocate закрепляет quantity материала за участком. Повторный вызов
// для той же пары заменяет прежнее значение, а не прибавляет к нему.
func (l *Ledger) Allocate(ctx context.Context, materialID, sectionID int64, quantity float64) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}

	lock := l.materialLock(materialID)
	lock.Lock()
	defer lock.Unlock()

	mat, err := l.store.Material(ctx, materialID)
	if err != nil {
		return err
	}
	if mat == nil {
		return ErrMaterialNotFound
	}
	sec, err := l.store.Section(ctx, sectionID)
	if err != nil {
		return err
	}
	if sec == nil {
		return ErrSectionNotFound
	}

	allocs, err := l.store.AllocationsByMaterial(ctx, materialID)
	if err != nil {
		return err
	}
	// сумма по остальным участкам: обновляемая пара замещается
	var others float64
	for _, a := range allocs {
		if a.SectionID != sectionID {
			others += a.Quantity
		}
	}
	available := mat.Quantity - others
	if quantity > available {
		return &InsufficientError{Available: available, Requested: quantity}
	}

	return l.store.UpsertAllocation(ctx, Allocation{
		MaterialID: materialID,
		SectionID:  sectionID,
		Quantity:   quantity,
	})
}

// SetQuantity меняет общий объём материала. Так отклонённое распределение
// «лечится» добавлением материала. Распределения не трогаются: объём
// ниже уже распределённого допускается, расхождение покажет CheckBalance.
func (l *Ledger) SetQuantity(ctx context.Context, materialID int64, quantity float64) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}

	lock := l.materialLock(materialID)
	lock.Lock()
	defer lock.Unlock()

	mat, err := l.store.Material(ctx, materialID)
	if err != nil {
		return err
	}
	if mat == nil {
		return ErrMaterialNotFound
	}
	return l.store.UpdateMaterialQuantity(ctx, materialID, quantity)
}

// TrackInstalled записывает смонтированное количество по паре.
// Замена, не прибавление. Заявить больше распределённого нельзя;
// превышение возможно только если распределение уменьшили уже после
// записи монтажа — тогда расхождение видно в отчёте.
func (l *Ledger) TrackInstalled(ctx context.Context, materialID, sectionID int64, installed float64) error {
	if installed < 0 {
		return ErrNegativeQuantity
	}
	alloc, err := l.store.Allocation(ctx, materialID, sectionID)
	if err != nil {
		return err
	}
	if alloc == nil {
		return ErrNotAllocated
	}
	if installed > alloc.Quantity+balanceTolerance {
		return &OverInstallError{Allocated: alloc.Quantity, Requested: installed}
	}
	return l.store.UpsertMontage(ctx, MontageRecord{
		MaterialID: materialID,
		SectionID:  sectionID,
		Installed:  installed,
	})
}

// CheckBalance сверяет по объекту итоги материалов с суммами распределений
// и собирает раскладку по участкам.
func (l *Ledger) CheckBalance(ctx context.Context, objectID int64) (*BalanceReport, error) {
	mats, err := l.store.MaterialsByObject(ctx, objectID)
	if err != nil {
		return nil, err
	}
	secs, err := l.store.SectionsByObject(ctx, objectID)
	if err != nil {
		return nil, err
	}

	report := &BalanceReport{ObjectID: objectID}
	bySection := map[int64][]AllocationLine{}

	for _, m := range mats {
		allocs, err := l.store.AllocationsByMaterial(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, a := range allocs {
			sum += a.Quantity
			bySection[a.SectionID] = append(bySection[a.SectionID], AllocationLine{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Quantity:     a.Quantity,
			})
		}
		diff := m.Quantity - sum
		report.Materials = append(report.Materials, MaterialBalance{
			Material:   m,
			Allocated:  sum,
			Difference: diff,
			Balanced:   diff <= balanceTolerance && diff >= -balanceTolerance,
		})
	}

	sort.Slice(secs, func(i, j int) bool { return secs[i].Position < secs[j].Position })
	for _, s := range secs {
		report.Sections = append(report.Sections, SectionHolding{
			Section: s,
			Items:   bySection[s.ID],
		})
	}
	return report, nil
}

// MontageLine — строка отчёта монтажа: распределено, смонтировано, статус.
type MontageLine struct {
	SectionID int64
	Allocated float64
	Installed float64
	Status    MontageStatus
}

func (l *Ledger) MontageReport(ctx context.Context, materialID int64) ([]MontageLine, error) {
	allocs, err := l.store.AllocationsByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	recs, err := l.store.MontageByMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	installed := map[int64]float64{}
	for _, r := range recs {
		installed[r.SectionID] = r.Installed
	}

	out := make([]MontageLine, 0, len(allocs))
	for _, a := range allocs {
		in := installed[a.SectionID]
		out = append(out, MontageLine{
			SectionID: a.SectionID,
			Allocated: a.Quantity,
			Installed: in,
			Status:    Status(in, a.Quantity),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionID < out[j].SectionID })
	return out, nil
}
