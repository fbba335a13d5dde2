package scenario

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Text — непустая строка не длиннее max символов (рун, не байт).
func Text(max int) func(string) (any, string) {
	return func(raw string) (any, string) {
		s := strings.TrimSpace(raw)
		if s == "" {
			return nil, "текст не может быть пустым"
		}
		if utf8.RuneCountInString(s) > max {
			return nil, fmt.Sprintf("текст длиннее %d символов", max)
		}
		return s, ""
	}
}

// Quantity — неотрицательное десятичное число. Запятая принимается
// как десятичный разделитель.
func Quantity() func(string) (any, string) {
	return func(raw string) (any, string) {
		s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, "введите число, например 12.5"
		}
		if v < 0 {
			return nil, "количество не может быть отрицательным"
		}
		return v, ""
	}
}

// IntMin — целое ≥ min.
func IntMin(min int64) func(string) (any, string) {
	return func(raw string) (any, string) {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, "введите целое число"
		}
		if v < min {
			return nil, fmt.Sprintf("число должно быть не меньше %d", min)
		}
		return v, ""
	}
}

// PositiveInt — целое ≥ 1; max ≤ 0 отключает верхнюю границу.
func PositiveInt(max int) func(string) (any, string) {
	return func(raw string) (any, string) {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, "введите целое число"
		}
		if v < 1 {
			return nil, "число должно быть не меньше 1"
		}
		if max > 0 && v > int64(max) {
			return nil, fmt.Sprintf("число должно быть не больше %d", max)
		}
		return v, ""
	}
}

const dateLayout = "02.01.2006"

// Date — календарная дата в формате ДД.ММ.ГГГГ. При notPast даты
// раньше сегодняшней отклоняются (напоминания). «Сегодня» считается
// в loc: день пользователя, а не день UTC. nil — локальная зона бота.
func Date(notPast bool, loc *time.Location) func(string) (any, string) {
	if loc == nil {
		loc = time.Local
	}
	return func(raw string) (any, string) {
		t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
		if err != nil {
			return nil, "введите дату в формате ДД.ММ.ГГГГ, например 01.12.2026"
		}
		if notPast {
			y, m, d := time.Now().In(loc).Date()
			today := time.Date(y, m, d, 0, 0, 0, 0, loc)
			if t.Before(today) {
				return nil, "дата не может быть в прошлом"
			}
		}
		return t.Format(dateLayout), ""
	}
}
