package materials

import "time"

// Material принадлежит ровно одному объекту. Quantity — общий объём,
// который распределяется по участкам.
type Material struct {
	ID        int64
	ObjectID  int64
	Name      string
	Unit      string
	Quantity  float64
	CreatedAt time.Time
}

// Section — именованный участок объекта.
type Section struct {
	ID       int64
	ObjectID int64
	Name     string
	Position int
}

// Allocation — количество материала, закреплённое за участком.
// Для пары (material, section) хранится не более одной записи.
type Allocation struct {
	MaterialID int64
	SectionID  int64
	Quantity   float64
}

// MontageRecord — смонтированное количество по паре (material, section).
type MontageRecord struct {
	MaterialID int64
	SectionID  int64
	Installed  float64
}

type MontageStatus string

const (
	StatusCompleted  MontageStatus = "completed"
	StatusInProgress MontageStatus = "in_progress"
	StatusNotStarted MontageStatus = "not_started"
)

// Status выводит статус монтажа из смонтированного и распределённого.
func Status(installed, allocated float64) MontageStatus {
	switch {
	case allocated > 0 && installed >= allocated:
		return StatusCompleted
	case installed > 0 && installed < allocated:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// Progress возвращает долю выполнения монтажа, 0 при пустом распределении.
func Progress(installed, allocated float64) float64 {
	if allocated <= 0 {
		return 0
	}
	return installed / allocated
}

// balanceTolerance — числовой допуск сравнения сумм распределений с итогом.
const balanceTolerance = 1e-3

// MaterialBalance — сверка одного материала: итог против суммы по участкам.
type MaterialBalance struct {
	Material   Material
	Allocated  float64
	Difference float64 // Quantity - Allocated
	Balanced   bool
}

// AllocationLine — позиция материала внутри участка (для отчёта).
type AllocationLine struct {
	MaterialID   int64
	MaterialName string
	Quantity     float64
}

// SectionHolding — что и сколько лежит на участке.
type SectionHolding struct {
	Section Section
	Items   []AllocationLine
}

// BalanceReport — диагностика «итог ≠ сумма участков» по объекту.
// Только чтение, ничего не меняет.
type BalanceReport struct {
	ObjectID  int64
	Materials []MaterialBalance
	Sections  []SectionHolding
}
