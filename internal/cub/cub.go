// Package cub looks up the regional construction cost index (CUB) by month and standard.
package cub

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
)

const (
	defaultCity   = "Cuiaba-MT"
	defaultSource = "Base referencial Lokao"
)

type Entry struct {
	Period    string  `json:"competencia"` // YYYY-MM
	Economico float64 `json:"economico"`
	Medio     float64 `json:"medio"`
	Alto      float64 `json:"alto"`
}

func (e Entry) value(standard string) float64 {
	switch standard {
	case "alto":
		return e.Alto
	case "medio":
		return e.Medio
	default:
		return e.Economico
	}
}

type Series struct {
	City    string  `json:"cidade"`
	Source  string  `json:"fonte"`
	Entries []Entry `json:"series"`
}

// Reference is the CUB value picked for a report.
type Reference struct {
	Value    float64 `json:"valor"`
	Standard string  `json:"padrao"`
	Period   string  `json:"competencia"`
	PeriodBR string  `json:"competencia_br"`
	City     string  `json:"cidade"`
	Source   string  `json:"fonte"`
	Method   string  `json:"metodo"`
}

// LoadSeries reads the series file. A missing file yields an empty series.
func LoadSeries(path string) (Series, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Series{City: defaultCity, Source: defaultSource}, nil
	}
	if err != nil {
		return Series{City: defaultCity, Source: defaultSource}, fmt.Errorf("read cub series: %w", err)
	}
	var s Series
	if err := json.Unmarshal(b, &s); err != nil {
		return Series{City: defaultCity, Source: defaultSource}, fmt.Errorf("unmarshal cub series: %w", err)
	}
	if s.City == "" {
		s.City = defaultCity
	}
	if s.Source == "" {
		s.Source = defaultSource
	}
	return s, nil
}

// NormalizeStandard folds standard labels into alto, medio or economico.
func NormalizeStandard(s string) string {
	switch textnorm.Key(s) {
	case "alto", "alto padrao", "premium":
		return "alto"
	case "medio", "intermediario":
		return "medio"
	default:
		return "economico"
	}
}

// ReferencePeriod is the month before now: the CUB published in a month refers to the previous one.
func ReferencePeriod(now time.Time) string {
	return now.AddDate(0, 0, -now.Day()+1).AddDate(0, -1, 0).Format("2006-01")
}

// Lookup picks the latest entry with period <= target, else the latest entry.
// An empty target means ReferencePeriod(now).
func (s Series) Lookup(standard, target string, now time.Time) Reference {
	std := NormalizeStandard(standard)
	if target == "" {
		target = ReferencePeriod(now)
	}
	ref := Reference{Standard: std, City: s.City, Source: s.Source}

	entries := make([]Entry, len(s.Entries))
	copy(entries, s.Entries)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Period < entries[j].Period })
	if len(entries) == 0 {
		ref.Method = "sem_base"
		return ref
	}

	picked := entries[len(entries)-1]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Period <= target {
			picked = entries[i]
			break
		}
	}
	ref.Value = picked.value(std)
	ref.Period = picked.Period
	ref.PeriodBR = PeriodBR(picked.Period)
	ref.Method = "serie_mensal"
	return ref
}

// PeriodBR renders "2024-05" as "05/2024". Other inputs are returned as is.
func PeriodBR(period string) string {
	if len(period) != 7 || !strings.Contains(period, "-") {
		return period
	}
	year, month, _ := strings.Cut(period, "-")
	return month + "/" + year
}

var monthAbbr = map[string]string{
	"01": "jan", "02": "fev", "03": "mar", "04": "abr", "05": "mai", "06": "jun",
	"07": "jul", "08": "ago", "09": "set", "10": "out", "11": "nov", "12": "dez",
}

// PeriodShort renders "2024-05" as "mai/24", or "" for malformed input.
func PeriodShort(period string) string {
	if len(period) != 7 || !strings.Contains(period, "-") {
		return ""
	}
	year, month, _ := strings.Cut(period, "-")
	name, ok := monthAbbr[month]
	if !ok {
		name = month
	}
	return name + "/" + year[len(year)-2:]
}
