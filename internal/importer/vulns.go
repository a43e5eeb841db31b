package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// VulnFinding is one line of ronin-vulns ndjson output
type VulnFinding struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Param       string `json:"param,omitempty"`
	QueryParam  string `json:"query_param,omitempty"`
	HeaderName  string `json:"header_name,omitempty"`
	CookieParam string `json:"cookie_param,omitempty"`
	FormParam   string `json:"form_param,omitempty"`
	Payload     string `json:"payload,omitempty"`

	raw []byte
}

// Parameter returns the name of the injected parameter, whichever place it
// was injected in
func (f *VulnFinding) Parameter() string {
	for _, p := range []string{f.Param, f.QueryParam, f.HeaderName, f.CookieParam, f.FormParam} {
		if p != "" {
			return p
		}
	}
	return ""
}

// ParseVulnsNDJSON parses ronin-vulns ndjson output
func ParseVulnsNDJSON(r io.Reader) ([]VulnFinding, error) {
	var findings []VulnFinding

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var finding VulnFinding
		if err := json.Unmarshal([]byte(line), &finding); err != nil {
			return nil, fmt.Errorf("invalid vuln on line %d: %w", lineNo, err)
		}
		if finding.Type == "" || finding.URL == "" {
			return nil, fmt.Errorf("invalid vuln on line %d: missing type or url", lineNo)
		}
		finding.raw = []byte(line)
		findings = append(findings, finding)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return findings, nil
}

// VulnsImporter imports web vulnerability findings
type VulnsImporter struct {
	store *Store
}

// NewVulnsImporter creates a VulnsImporter
func NewVulnsImporter(store *Store) *VulnsImporter {
	return &VulnsImporter{store: store}
}

// ImportFile imports the vulns ndjson file at path
func (i *VulnsImporter) ImportFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	findings, err := ParseVulnsNDJSON(f)
	if err != nil {
		return err
	}

	return i.store.InTx(ctx, func(w *Writer) error {
		for _, finding := range findings {
			if err := w.UpsertURL(ctx, URL{URL: finding.URL}); err != nil {
				return err
			}

			err := w.UpsertVuln(ctx, Vuln{
				Type:    finding.Type,
				URL:     finding.URL,
				Param:   finding.Parameter(),
				Payload: finding.Payload,
				Raw:     finding.raw,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
