package snapshot

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

var ErrMissingColumn = errors.New("missing required column")

// FileProvider serves inventory from a JSON file and vendors from a CSV or
// JSON file.
type FileProvider struct {
	InventoryPath string
	VendorsPath   string
}

func (p FileProvider) ListShipments(_ context.Context) ([]contracts.ShipmentRecord, error) {
	body, err := os.ReadFile(p.InventoryPath)
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", p.InventoryPath, err)
	}
	var items []contracts.ShipmentRecord
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode inventory %s: %w", p.InventoryPath, err)
	}
	return items, nil
}

func (p FileProvider) ListVendors(_ context.Context) ([]contracts.VendorRecord, error) {
	f, err := os.Open(p.VendorsPath)
	if err != nil {
		return nil, fmt.Errorf("open vendors %s: %w", p.VendorsPath, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(p.VendorsPath), ".json") {
		var vendors []contracts.VendorRecord
		if err := json.NewDecoder(f).Decode(&vendors); err != nil {
			return nil, fmt.Errorf("decode vendors %s: %w", p.VendorsPath, err)
		}
		return vendors, nil
	}
	return ReadVendorsCSV(f)
}

// ReadVendorsCSV reads a header row naming vendor_id, status and location in
// any order. Other columns are ignored.
func ReadVendorsCSV(r io.Reader) ([]contracts.VendorRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read vendors header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"vendor_id", "status", "location"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var vendors []contracts.VendorRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read vendors row: %w", err)
		}
		field := func(name string) string {
			i := cols[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		vendors = append(vendors, contracts.VendorRecord{
			VendorID: field("vendor_id"),
			Status:   field("status"),
			Location: field("location"),
		})
	}
	return vendors, nil
}

// ReadDisruptions accepts either a JSON array of events or a single event
// object.
func ReadDisruptions(path string) ([]contracts.DisruptionEvent, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read disruptions %s: %w", path, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var single contracts.DisruptionEvent
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("decode disruption %s: %w", path, err)
		}
		return []contracts.DisruptionEvent{single}, nil
	}
	var events []contracts.DisruptionEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode disruptions %s: %w", path, err)
	}
	return events, nil
}
