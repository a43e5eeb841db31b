package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for output files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported output file format")

	// ErrToolNotInstalled is returned when a file needs an external converter
	// that is not on the PATH
	ErrToolNotInstalled = errors.New("converter is not installed")
)

// MasscanRecord is one line of masscan's -oJ/-oD output
type MasscanRecord struct {
	IP        string        `json:"ip"`
	Timestamp string        `json:"timestamp"`
	Ports     []MasscanPort `json:"ports"`
}

// MasscanPort is a port entry of a MasscanRecord
type MasscanPort struct {
	Port    int    `json:"port"`
	Proto   string `json:"proto"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	TTL     int    `json:"ttl"`
	Service *struct {
		Name   string `json:"name"`
		Banner string `json:"banner"`
	} `json:"service,omitempty"`
}

// ParseMasscanJSON parses masscan JSON (-oJ) or ndjson (-oD) output. -oJ
// writes one record per line inside a bracketed, comma separated list, so
// both formats are handled line by line.
func ParseMasscanJSON(r io.Reader) ([]MasscanRecord, error) {
	var records []MasscanRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "[")
		line = strings.TrimSuffix(line, "]")
		line = strings.Trim(strings.TrimSpace(line), ",")
		if line == "" {
			continue
		}

		var record MasscanRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("invalid masscan JSON on line %d: %w", lineNo, err)
		}
		if record.IP == "" {
			// {"finished": 1} trailer
			continue
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ParseMasscanList parses masscan list (-oL) output:
//
//	open tcp 80 93.184.216.34 1609459200
//	banner tcp 80 93.184.216.34 1609459200 http HTTP/1.1 200 OK
func ParseMasscanList(r io.Reader) ([]MasscanRecord, error) {
	var records []MasscanRecord

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, fmt.Errorf("invalid masscan list entry on line %d: %q", lineNo, line)
		}

		port, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid port on line %d: %q", lineNo, fields[2])
		}

		entry := MasscanPort{Port: port, Proto: fields[1], Status: fields[0]}
		if fields[0] == "banner" {
			entry.Status = "open"
			if len(fields) > 5 {
				entry.Service = &struct {
					Name   string `json:"name"`
					Banner string `json:"banner"`
				}{Name: fields[5], Banner: strings.Join(fields[6:], " ")}
			}
		}

		records = append(records, MasscanRecord{
			IP:        fields[3],
			Timestamp: fields[4],
			Ports:     []MasscanPort{entry},
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// MasscanImporter imports masscan output in any of its file formats. Binary
// (.bin/.dat) files are converted to JSON with `masscan --readscan` first.
type MasscanImporter struct {
	store   *Store
	nmap    *NmapImporter
	masscan string
	tempDir string
}

// NewMasscanImporter creates a MasscanImporter. masscanPath is the binary
// used to convert binary output files.
func NewMasscanImporter(store *Store, masscanPath, tempDir string) *MasscanImporter {
	return &MasscanImporter{
		store:   store,
		nmap:    NewNmapImporter(store),
		masscan: masscanPath,
		tempDir: tempDir,
	}
}

// ImportFile imports the masscan output file at path
func (i *MasscanImporter) ImportFile(ctx context.Context, path string) error {
	var (
		records []MasscanRecord
		err     error
	)

	switch ext := filepath.Ext(path); ext {
	case ".xml":
		return i.nmap.ImportFile(ctx, path)
	case ".json", ".ndjson":
		records, err = parseFile(path, ParseMasscanJSON)
	case ".list":
		records, err = parseFile(path, ParseMasscanList)
	case ".bin", ".dat":
		records, err = i.readBinary(ctx, path)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return err
	}

	return i.store.InTx(ctx, func(w *Writer) error {
		return importMasscanRecords(ctx, w, records)
	})
}

func (i *MasscanImporter) readBinary(ctx context.Context, path string) ([]MasscanRecord, error) {
	bin, err := exec.LookPath(i.masscan)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotInstalled, i.masscan)
	}

	out, err := os.CreateTemp(i.tempDir, "masscan-readscan-*.json")
	if err != nil {
		return nil, err
	}
	out.Close()
	defer os.Remove(out.Name())

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--readscan", path, "-oJ", out.Name())
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("masscan --readscan %s failed: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	return parseFile(out.Name(), ParseMasscanJSON)
}

func parseFile(path string, parse func(io.Reader) ([]MasscanRecord, error)) ([]MasscanRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parse(f)
}

func importMasscanRecords(ctx context.Context, w *Writer, records []MasscanRecord) error {
	for _, record := range records {
		if err := w.UpsertHost(ctx, Host{Address: record.IP, Status: "up"}); err != nil {
			return err
		}

		for _, p := range record.Ports {
			port := Port{
				Address:  record.IP,
				Protocol: p.Proto,
				Number:   p.Port,
				State:    p.Status,
			}
			if p.Service != nil {
				port.Service = p.Service.Name
			}
			if port.State == "" {
				port.State = "open"
			}

			if err := w.UpsertPort(ctx, port); err != nil {
				return err
			}
		}
	}
	return nil
}
