package regions

import "time"

type Region struct {
	ID        int64
	ShortName string
	FullName  string
	CreatedAt time.Time
}
