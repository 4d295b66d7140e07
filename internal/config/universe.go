package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// ResolveSymbols returns the symbol universe for a run: the inline list when
// present, otherwise the first column of the symbols file (header row skipped),
// with the optional suffix applied and the list capped at MaxSymbols.
func (t Trading) ResolveSymbols() ([]string, error) {
	symbols := t.Symbols
	if len(symbols) == 0 {
		loaded, err := loadSymbolsFile(t.SymbolsFile)
		if err != nil {
			return nil, err
		}
		symbols = loaded
	}

	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		if t.SymbolSuffix != "" && !strings.HasSuffix(sym, t.SymbolSuffix) {
			sym += t.SymbolSuffix
		}
		out = append(out, sym)
	}
	if t.MaxSymbols > 0 && len(out) > t.MaxSymbols {
		out = out[:t.MaxSymbols]
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no symbols resolved")
	}
	return out, nil
}

func loadSymbolsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbols file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}

	var symbols []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		value := strings.TrimSpace(row[0])
		if value == "" {
			continue
		}
		if i == 0 && strings.EqualFold(value, "symbol") {
			continue
		}
		symbols = append(symbols, value)
	}
	return symbols, nil
}
