// Package schedule генерирует даты занятий по текстовому расписанию
// вида "Вт 20:30, Пт 20:00" и считает интервалы времени.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// dayIndex сопоставляет короткое русское название дня недели с time.Weekday.
var dayIndex = map[string]time.Weekday{
	"Вс": time.Sunday,
	"Пн": time.Monday,
	"Вт": time.Tuesday,
	"Ср": time.Wednesday,
	"Чт": time.Thursday,
	"Пт": time.Friday,
	"Сб": time.Saturday,
}

var dayNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

var timeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// TimeRe проверяет время занятия в формате ЧЧ:ММ.
var TimeRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// DateRe проверяет дату в формате ДД.ММ.ГГ.
var DateRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`)

// Entry одно правило расписания: день недели, время начала и длительность.
type Entry struct {
	Day             string `json:"day"`
	Time            string `json:"time"`
	DurationMinutes int64  `json:"duration"`
}

// Slot сгенерированная дата занятия.
type Slot struct {
	Date            time.Time
	Time            string
	DurationMinutes int64
}

// WeekdayShort возвращает короткое русское название дня недели.
func WeekdayShort(t time.Time) string {
	return dayNames[int(t.Weekday())]
}

// FormatDate форматирует дату как ДД.ММ.ГГГГ.
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// ParseShortDate разбирает дату вида 03.03.26 в полночь локального времени.
func ParseShortDate(s string) (time.Time, error) {
	if !DateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("bad date format: %q", s)
	}
	t, err := time.ParseInLocation("02.01.06", s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// AddDuration превращает время начала в интервал "ЧЧ:ММ–ЧЧ:ММ".
// Уже готовые интервалы и нераспознанные строки возвращаются как есть.
func AddDuration(start string, minutes int64) string {
	if start == "" {
		return ""
	}
	if strings.Contains(start, "–") || strings.Contains(start, "-") {
		return start
	}
	m := timeRe.FindStringSubmatch(start)
	if m == nil {
		return start
	}
	h := atoi(m[1])
	mm := atoi(m[2])
	total := (h*60 + mm + int(minutes)) % (24 * 60)
	return fmt.Sprintf("%02d:%02d–%02d:%02d", h, mm, total/60, total%60)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// ParseRules разбирает строку расписания "Вт 20:30, Пт 20:00" в правила.
// Нераспознанные части пропускаются.
func ParseRules(scheduleText string) []Entry {
	var rules []Entry
	for _, part := range strings.Split(scheduleText, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) < 2 {
			continue
		}
		day, ok := normalizeDay(fields[0])
		if !ok {
			continue
		}
		startTime := strings.SplitN(fields[1], "–", 2)[0]
		if !TimeRe.MatchString(startTime) {
			continue
		}
		rules = append(rules, Entry{Day: day, Time: startTime})
	}
	return rules
}

func normalizeDay(s string) (string, bool) {
	trimmed := strings.Trim(s, ".,")
	for name := range dayIndex {
		if strings.EqualFold(trimmed, name) {
			return name, true
		}
	}
	return "", false
}

// Generate проецирует правила расписания на недели вперёд, начиная
// со startDate. Слоты идут в хронологическом порядке.
func Generate(startDate time.Time, scheduleText string, weeks int) []Slot {
	return generate(startDate, ParseRules(scheduleText), weeks, 0)
}

// GenerateDetailed то же, что Generate, но с индивидуальной
// длительностью каждого правила.
func GenerateDetailed(startDate time.Time, rules []Entry, weeks int) []Slot {
	return generate(startDate, rules, weeks, 0)
}

func generate(startDate time.Time, rules []Entry, weeks int, defaultDuration int64) []Slot {
	if len(rules) == 0 || weeks <= 0 {
		return nil
	}

	byDay := make(map[time.Weekday][]Entry, len(rules))
	for _, r := range rules {
		wd, ok := dayIndex[r.Day]
		if !ok {
			continue
		}
		byDay[wd] = append(byDay[wd], r)
	}

	start := truncateDay(startDate)
	var slots []Slot
	for offset := 0; offset < weeks*7; offset++ {
		day := start.AddDate(0, 0, offset)
		for _, r := range byDay[day.Weekday()] {
			duration := r.DurationMinutes
			if duration == 0 {
				duration = defaultDuration
			}
			slots = append(slots, Slot{Date: day, Time: r.Time, DurationMinutes: duration})
		}
	}
	return slots
}

// NextDateForDay возвращает первую дату с нужным днём недели не раньше
// start + week*7 дней.
func NextDateForDay(start time.Time, day string, week int) (time.Time, error) {
	wd, ok := dayIndex[day]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown weekday: %q", day)
	}
	d := truncateDay(start).AddDate(0, 0, week*7)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
