package scenario

import (
	"time"

	"github.com/Spok95/montage-bot/internal/dialog"
)

type Registry struct {
	m map[string]*Scenario
}

func NewRegistry() *Registry {
	return &Registry{m: map[string]*Scenario{}}
}

func (r *Registry) Register(s *Scenario) {
	r.m[s.ID] = s
}

func (r *Registry) Get(id string) *Scenario {
	return r.m[id]
}

// Default — встроенные сценарии бота. loc задаёт зону, в которой
// проверяются вводимые даты (см. app.timezone в конфиге).
func Default(loc *time.Location) *Registry {
	r := NewRegistry()

	r.Register(&Scenario{
		ID:    "create_region",
		Title: "Новый регион",
		Steps: []Step{
			{ID: "short_name", Prompt: "Введите краткое название региона:", Field: "short_name", Validate: Text(50)},
			{ID: "full_name", Prompt: "Введите полное название региона:", Field: "full_name", Validate: Text(200)},
		},
	})

	r.Register(&Scenario{
		ID:    "create_object",
		Title: "Новый объект",
		Steps: []Step{
			{ID: "region_id", Prompt: "Введите номер региона (0 — монтажный объект без региона):", Field: "region_id", Validate: IntMin(0)},
			{ID: "name", Prompt: "Введите название объекта:", Field: "name", Validate: Text(200)},
			{ID: "addr_count", Prompt: "Сколько адресов у объекта?", Field: "addr_count", Validate: PositiveInt(20)},
			{
				ID:       "address",
				Prompt:   "Введите адрес:",
				Field:    "addresses",
				Validate: Text(200),
				Assign: func(d dialog.Data, v any) {
					list, _ := d["addresses"].([]any)
					d["addresses"] = append(list, v)
				},
				// повторяем шаг, пока адресов меньше заявленного числа
				Next: func(d dialog.Data) string {
					want, _ := dialog.GetFloat(d, "addr_count")
					got, _ := d["addresses"].([]any)
					if float64(len(got)) < want {
						return "address"
					}
					return StepDone
				},
			},
		},
	})

	r.Register(&Scenario{
		ID:    "add_material",
		Title: "Новый материал",
		Steps: []Step{
			{ID: "object_id", Prompt: "Введите номер объекта:", Field: "object_id", Validate: PositiveInt(0)},
			{ID: "name", Prompt: "Введите название материала:", Field: "name", Validate: Text(100)},
			{ID: "unit", Prompt: "Введите единицу измерения (м, шт, кг...):", Field: "unit", Validate: Text(20)},
			{ID: "quantity", Prompt: "Введите общее количество:", Field: "quantity", Validate: Quantity()},
		},
	})

	r.Register(&Scenario{
		ID:    "add_section",
		Title: "Новый участок",
		Steps: []Step{
			{ID: "object_id", Prompt: "Введите номер объекта:", Field: "object_id", Validate: PositiveInt(0)},
			{ID: "name", Prompt: "Введите название участка:", Field: "name", Validate: Text(100)},
		},
	})

	r.Register(&Scenario{
		ID:    "allocate",
		Title: "Распределение материала",
		Steps: []Step{
			{ID: "material_id", Prompt: "Введите номер материала:", Field: "material_id", Validate: PositiveInt(0)},
			{ID: "section_id", Prompt: "Введите номер участка:", Field: "section_id", Validate: PositiveInt(0)},
			{ID: "quantity", Prompt: "Введите количество для участка:", Field: "quantity", Validate: Quantity()},
		},
	})

	r.Register(&Scenario{
		ID:    "install",
		Title: "Монтаж",
		Steps: []Step{
			{ID: "material_id", Prompt: "Введите номер материала:", Field: "material_id", Validate: PositiveInt(0)},
			{ID: "section_id", Prompt: "Введите номер участка:", Field: "section_id", Validate: PositiveInt(0)},
			{ID: "quantity", Prompt: "Введите смонтированное количество:", Field: "quantity", Validate: Quantity()},
		},
	})

	r.Register(&Scenario{
		ID:    "add_problem",
		Title: "Новая проблема",
		Steps: []Step{
			{ID: "object_id", Prompt: "Введите номер объекта:", Field: "object_id", Validate: PositiveInt(0)},
			{ID: "description", Prompt: "Опишите проблему:", Field: "description", Validate: Text(500)},
		},
	})

	r.Register(&Scenario{
		ID:    "add_maintenance",
		Title: "Новое ТО",
		Steps: []Step{
			{ID: "object_id", Prompt: "Введите номер объекта:", Field: "object_id", Validate: PositiveInt(0)},
			{ID: "title", Prompt: "Введите название работ:", Field: "title", Validate: Text(200)},
			{ID: "due_date", Prompt: "Введите дату в формате ДД.ММ.ГГГГ:", Field: "due_date", Validate: Date(true, loc)},
		},
	})

	r.Register(&Scenario{
		ID:    "add_project",
		Title: "Новый проект",
		Steps: []Step{
			{ID: "object_id", Prompt: "Введите номер объекта:", Field: "object_id", Validate: PositiveInt(0)},
			{ID: "name", Prompt: "Введите название проекта:", Field: "name", Validate: Text(200)},
			{ID: "deadline", Prompt: "Введите срок сдачи в формате ДД.ММ.ГГГГ:", Field: "deadline", Validate: Date(true, loc)},
		},
	})

	r.Register(&Scenario{
		ID:    "add_document",
		Title: "Новый документ",
		Steps: []Step{
			{ID: "object_id", Prompt: "Введите номер объекта:", Field: "object_id", Validate: PositiveInt(0)},
			{ID: "name", Prompt: "Введите название документа:", Field: "name", Validate: Text(200)},
			// транспорт подставляет file_id присланного файла как ввод
			{ID: "file", Prompt: "Пришлите файл документа:", Field: "file_id", Validate: Text(200)},
		},
	})

	r.Register(&Scenario{
		ID:    "import_plan",
		Title: "Импорт плана распределения",
		Steps: []Step{
			{ID: "file", Prompt: "Пришлите Excel-файл с планом (material_id, section_id, quantity):", Field: "file_id", Validate: Text(200)},
		},
	})

	return r
}
