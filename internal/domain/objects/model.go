package objects

import "time"

type Kind string

const (
	// KindService — сервисный объект, привязан к региону.
	KindService Kind = "service"
	// KindInstallation — монтажный объект, стоит особняком.
	KindInstallation Kind = "installation"
)

type Object struct {
	ID        int64
	Kind      Kind
	RegionID  *int64 // только для сервисных объектов
	Name      string
	Addresses []string
	CreatedAt time.Time
}

type ProblemStatus string

const (
	ProblemOpen     ProblemStatus = "open"
	ProblemResolved ProblemStatus = "resolved"
)

type Problem struct {
	ID          int64
	ObjectID    int64
	Description string
	Status      ProblemStatus
	CreatedAt   time.Time
}

type Maintenance struct {
	ID        int64
	ObjectID  int64
	Title     string
	DueDate   time.Time
	Done      bool
	CreatedAt time.Time
}

type Project struct {
	ID        int64
	ObjectID  int64
	Name      string
	Deadline  time.Time
	CreatedAt time.Time
}

type Document struct {
	ID        int64
	ObjectID  int64
	Name      string
	FileID    string // идентификатор файла на стороне транспорта
	CreatedAt time.Time
}
