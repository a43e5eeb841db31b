package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// ReconValue is one line of ronin-recon's ndjson output
type ReconValue struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Parent   string `json:"parent,omitempty"`
	Address  string `json:"address,omitempty"`
	Port     int    `json:"port,omitempty"`
	Protocol string `json:"protocol,omitempty"`
	Service  string `json:"service,omitempty"`

	raw []byte
}

// ParseReconNDJSON parses ronin-recon ndjson output
func ParseReconNDJSON(r io.Reader) ([]ReconValue, error) {
	var values []ReconValue

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var value ReconValue
		if err := json.Unmarshal([]byte(line), &value); err != nil {
			return nil, fmt.Errorf("invalid recon value on line %d: %w", lineNo, err)
		}
		if value.Type == "open_port" && value.Value == "" && value.Address != "" {
			value.Value = fmt.Sprintf("%s:%d", value.Address, value.Port)
		}
		if value.Type == "" || value.Value == "" {
			return nil, fmt.Errorf("invalid recon value on line %d: missing type or value", lineNo)
		}
		value.raw = []byte(line)
		values = append(values, value)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// ReconImporter imports recon values
type ReconImporter struct {
	store *Store
}

// NewReconImporter creates a ReconImporter
func NewReconImporter(store *Store) *ReconImporter {
	return &ReconImporter{store: store}
}

// ImportFile imports the recon ndjson file at path
func (i *ReconImporter) ImportFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	values, err := ParseReconNDJSON(f)
	if err != nil {
		return err
	}

	return i.store.InTx(ctx, func(w *Writer) error {
		for _, value := range values {
			if err := importReconValue(ctx, w, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func importReconValue(ctx context.Context, w *Writer, v ReconValue) error {
	if err := w.UpsertReconValue(ctx, v.Type, v.Value, v.Parent, v.raw); err != nil {
		return err
	}

	switch v.Type {
	case "ip":
		return w.UpsertHost(ctx, Host{Address: v.Value})
	case "host", "domain", "mailserver", "nameserver":
		return w.UpsertHostName(ctx, v.Value, "")
	case "website", "url":
		if err := w.UpsertURL(ctx, URL{URL: v.Value}); err != nil {
			return err
		}
		if u, err := url.Parse(v.Value); err == nil && u.Hostname() != "" {
			return w.UpsertHostName(ctx, u.Hostname(), "")
		}
	case "open_port":
		if v.Address == "" || v.Port == 0 {
			return nil
		}
		if err := w.UpsertHost(ctx, Host{Address: v.Address, Status: "up"}); err != nil {
			return err
		}
		protocol := v.Protocol
		if protocol == "" {
			protocol = "tcp"
		}
		return w.UpsertPort(ctx, Port{
			Address:  v.Address,
			Protocol: protocol,
			Number:   v.Port,
			State:    "open",
			Service:  v.Service,
		})
	}
	return nil
}
