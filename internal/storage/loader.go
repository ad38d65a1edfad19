package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
)

// ErrCatalogNotFound is returned when none of the candidate catalog paths exist.
var ErrCatalogNotFound = errors.New("neighborhood catalog not found")

// legacy column names accepted for older spreadsheets.
var columnAliases = map[string]string{
	"padrao_urbano":       "padrao_predominante",
	"uso_solo":            "uso_predominante",
	"sensibilidade_ruido": "nivel_ruido",
}

// FindCatalog returns the first candidate path that exists.
func FindCatalog(candidates []string) (string, error) {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrCatalogNotFound, strings.Join(candidates, ", "))
}

// LoadNeighborhoodsFromFile reads the neighborhood CSV.
func LoadNeighborhoodsFromFile(path string) ([]domain.Neighborhood, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadNeighborhoods(f)
}

// ReadNeighborhoods parses catalog CSV. Headers are trimmed and lowercased, legacy
// aliases fill missing columns and absent columns read as "".
func ReadNeighborhoods(r io.Reader) ([]domain.Neighborhood, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		idx[h] = i
	}
	for legacy, col := range columnAliases {
		if _, ok := idx[col]; ok {
			continue
		}
		if i, ok := idx[legacy]; ok {
			idx[col] = i
		}
	}

	var out []domain.Neighborhood
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		name := get("bairro")
		if name == "" {
			continue
		}
		out = append(out, domain.Neighborhood{
			Name:                 name,
			Region:               get("regiao"),
			UrbanProfile:         get("perfil_urbano"),
			LandUse:              get("uso_predominante"),
			Infrastructure:       get("infraestrutura"),
			NoiseLevel:           get("nivel_ruido"),
			PredominantStandard:  strings.ToLower(get("padrao_predominante")),
			AveragePricePerSqm:   parseNumber(get("valor_m2_medio")),
			SocioeconomicProfile: strings.ToLower(get("perfil_socioeconomico")),
			PriceOrigin:          get("origem_valor"),
		})
	}
	return out, nil
}

// parseNumber accepts plain numerals ("4500.5") and locale money ("R$ 4.500,50").
func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return money.ParseBRL(s)
}
