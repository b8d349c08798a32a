package core

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strings"
)

type StoresTable struct {
	Columns       []string            `json:"columns"`
	Rows          []map[string]string `json:"rows"`
	LabelColumns  []string            `json:"labelColumns,omitempty"`
	RegionColumn  string              `json:"regionColumn,omitempty"`
	NameColumn    string              `json:"nameColumn,omitempty"`
	AddressColumn string              `json:"addressColumn,omitempty"`
}

type StoreLabel struct {
	Name  string     `json:"name"`
	Color LabelColor `json:"color"`
}

type StoreRow struct {
	Name    string            `json:"name"`
	Address string            `json:"address,omitempty"`
	Region  string            `json:"region,omitempty"`
	Labels  []string          `json:"labels"`
	Fields  map[string]string `json:"fields"`
}

type NormalizedStores struct {
	Columns       []string     `json:"columns"`
	LabelColumns  []string     `json:"labelColumns"`
	NameColumn    string       `json:"nameColumn"`
	AddressColumn string       `json:"addressColumn,omitempty"`
	RegionColumn  string       `json:"regionColumn,omitempty"`
	Labels        []StoreLabel `json:"labels"`
	Regions       []string     `json:"regions"`
	Rows          []StoreRow   `json:"rows"`
}

var truthy = map[string]bool{
	"1": true, "true": true, "yes": true, "y": true, "x": true, "✓": true, "oui": true, "si": true,
}

var falsy = map[string]bool{
	"": true, "0": true, "false": true, "no": true, "n": true, "non": true,
}

func IsTruthy(v string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(v))]
}

func (t *StoresTable) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Normalize resolves the name, address, region and label columns (inferring
// the ones left empty) and flattens every row.
func (t *StoresTable) Normalize() NormalizedStores {
	n := NormalizedStores{
		Columns:       t.Columns,
		NameColumn:    t.NameColumn,
		AddressColumn: t.AddressColumn,
		RegionColumn:  t.RegionColumn,
		LabelColumns:  t.LabelColumns,
		Labels:        []StoreLabel{},
		Regions:       []string{},
		Rows:          make([]StoreRow, 0, len(t.Rows)),
	}
	if n.NameColumn == "" {
		n.NameColumn = t.findColumn("name")
		if n.NameColumn == "" && len(t.Columns) > 0 {
			n.NameColumn = t.Columns[0]
		}
	}
	if n.AddressColumn == "" {
		n.AddressColumn = t.findColumn("address")
	}
	if n.RegionColumn == "" {
		n.RegionColumn = t.findColumn("region", "state", "province")
	}
	if len(n.LabelColumns) == 0 {
		n.LabelColumns = t.inferLabelColumns(n.NameColumn, n.AddressColumn, n.RegionColumn)
	}

	for _, label := range n.LabelColumns {
		n.Labels = append(n.Labels, StoreLabel{Name: label, Color: ColorForLabel(label)})
	}

	regions := make(map[string]bool)
	for _, row := range t.Rows {
		sr := StoreRow{
			Name:    strings.TrimSpace(row[n.NameColumn]),
			Address: strings.TrimSpace(row[n.AddressColumn]),
			Region:  strings.TrimSpace(row[n.RegionColumn]),
			Labels:  []string{},
			Fields:  make(map[string]string, len(row)),
		}
		for k, v := range row {
			sr.Fields[k] = v
		}
		for _, label := range n.LabelColumns {
			if IsTruthy(row[label]) {
				sr.Labels = append(sr.Labels, label)
			}
		}
		if sr.Region != "" && !regions[sr.Region] {
			regions[sr.Region] = true
			n.Regions = append(n.Regions, sr.Region)
		}
		n.Rows = append(n.Rows, sr)
	}
	sort.Strings(n.Regions)

	return n
}

func (t *StoresTable) findColumn(needles ...string) string {
	for _, needle := range needles {
		for _, col := range t.Columns {
			if strings.Contains(strings.ToLower(col), needle) {
				return col
			}
		}
	}
	return ""
}

func (t *StoresTable) inferLabelColumns(skip ...string) []string {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	var labels []string
	for _, col := range t.Columns {
		if skipped[col] || len(t.Rows) == 0 {
			continue
		}
		boolean, anyTrue := true, false
		for _, row := range t.Rows {
			v := strings.ToLower(strings.TrimSpace(row[col]))
			if truthy[v] {
				anyTrue = true
				continue
			}
			if !falsy[v] {
				boolean = false
				break
			}
		}
		if boolean && anyTrue {
			labels = append(labels, col)
		}
	}
	return labels
}
