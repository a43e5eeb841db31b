package importer

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scanhub/shared/database"
)

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := database.NewClient(&database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "import.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	_, err = client.Migrate(context.Background())
	require.NoError(t, err)

	return NewStore(client.GetDB()), client.GetDB()
}

func count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

func TestParseNmapXML(t *testing.T) {
	run, err := ParseNmapXML(strings.NewReader(`<nmaprun scanner="nmap"><host><status state="up"/><address addr="::1" addrtype="ipv6"/></host></nmaprun>`))
	require.NoError(t, err)
	require.Len(t, run.Hosts, 1)
	assert.Equal(t, "::1", run.Hosts[0].IPAddress())

	_, err = ParseNmapXML(strings.NewReader("not xml"))
	assert.Error(t, err)
}

func TestNmapImporter_ImportFile(t *testing.T) {
	store, db := newTestStore(t)
	importer := NewNmapImporter(store)
	ctx := context.Background()

	require.NoError(t, importer.ImportFile(ctx, "testdata/nmap.xml"))

	// the MAC-only host has no IP address and is skipped
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM hosts`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM host_names WHERE name = 'scanme.nmap.org'`))
	assert.Equal(t, 3, count(t, db, `SELECT COUNT(*) FROM ports WHERE address = '45.33.32.156'`))

	var port struct {
		State   string `db:"state"`
		Service string `db:"service"`
		Product string `db:"product"`
	}
	require.NoError(t, db.Get(&port, `SELECT state, service, product FROM ports WHERE number = 22`))
	assert.Equal(t, "open", port.State)
	assert.Equal(t, "ssh", port.Service)
	assert.Equal(t, "OpenSSH", port.Product)

	t.Run("re-import is idempotent", func(t *testing.T) {
		require.NoError(t, importer.ImportFile(ctx, "testdata/nmap.xml"))
		assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM hosts`))
		assert.Equal(t, 3, count(t, db, `SELECT COUNT(*) FROM ports`))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, importer.ImportFile(ctx, "testdata/missing.xml"))
	})
}

func TestParseMasscanJSON(t *testing.T) {
	input := "[\n{\"ip\":\"10.0.0.1\",\"ports\":[{\"port\":80,\"proto\":\"tcp\",\"status\":\"open\"}]}\n,\n{\"finished\": 1}\n]\n"

	records, err := ParseMasscanJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10.0.0.1", records[0].IP)
	assert.Equal(t, 80, records[0].Ports[0].Port)

	_, err = ParseMasscanJSON(strings.NewReader("{not json}\n"))
	assert.ErrorContains(t, err, "line 1")
}

func TestParseMasscanList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []MasscanRecord
		wantErr bool
	}{
		{
			name:  "open port",
			input: "open tcp 80 10.0.0.1 1700000000\n",
			want: []MasscanRecord{
				{IP: "10.0.0.1", Timestamp: "1700000000", Ports: []MasscanPort{{Port: 80, Proto: "tcp", Status: "open"}}},
			},
		},
		{
			name:  "comments are skipped",
			input: "#masscan\n# end\n",
		},
		{
			name:    "short line",
			input:   "open tcp 80\n",
			wantErr: true,
		},
		{
			name:    "bad port",
			input:   "open tcp http 10.0.0.1 1700000000\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMasscanList(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMasscanImporter_ImportFile(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantHosts int
		wantPorts int
	}{
		{name: "json", path: "testdata/masscan.json", wantHosts: 2, wantPorts: 3},
		{name: "ndjson", path: "testdata/masscan.ndjson", wantHosts: 1, wantPorts: 1},
		{name: "list", path: "testdata/masscan.list", wantHosts: 1, wantPorts: 1},
		{name: "xml", path: "testdata/nmap.xml", wantHosts: 1, wantPorts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, db := newTestStore(t)
			importer := NewMasscanImporter(store, "masscan", t.TempDir())

			require.NoError(t, importer.ImportFile(context.Background(), tt.path))
			assert.Equal(t, tt.wantHosts, count(t, db, `SELECT COUNT(*) FROM hosts`))
			assert.Equal(t, tt.wantPorts, count(t, db, `SELECT COUNT(*) FROM ports`))
		})
	}

	t.Run("banner keeps the service name", func(t *testing.T) {
		store, db := newTestStore(t)
		importer := NewMasscanImporter(store, "masscan", t.TempDir())

		require.NoError(t, importer.ImportFile(context.Background(), "testdata/masscan.ndjson"))

		var service string
		require.NoError(t, db.Get(&service, `SELECT service FROM ports WHERE address = '10.0.0.3' AND number = 22`))
		assert.Equal(t, "ssh", service)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		store, _ := newTestStore(t)
		importer := NewMasscanImporter(store, "masscan", t.TempDir())

		err := importer.ImportFile(context.Background(), "testdata/masscan.csv")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("binary without masscan installed", func(t *testing.T) {
		store, _ := newTestStore(t)
		importer := NewMasscanImporter(store, "masscan-not-installed", t.TempDir())

		err := importer.ImportFile(context.Background(), "testdata/scan.bin")
		assert.ErrorIs(t, err, ErrToolNotInstalled)
		assert.EqualError(t, err, "converter is not installed: masscan-not-installed")
	})
}

func TestReconImporter_ImportFile(t *testing.T) {
	store, db := newTestStore(t)
	importer := NewReconImporter(store)

	require.NoError(t, importer.ImportFile(context.Background(), "testdata/recon.ndjson"))

	assert.Equal(t, 6, count(t, db, `SELECT COUNT(*) FROM recon_values`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM hosts WHERE address = '93.184.216.34'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM ports WHERE number = 443 AND state = 'open'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM urls WHERE url = 'https://www.example.com'`))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM host_names`))

	var parent string
	require.NoError(t, db.Get(&parent, `SELECT parent FROM recon_values WHERE value = 'www.example.com'`))
	assert.Equal(t, "example.com", parent)
}

func TestParseReconNDJSON_Invalid(t *testing.T) {
	_, err := ParseReconNDJSON(strings.NewReader(`{"type":"domain"}`))
	assert.ErrorContains(t, err, "missing type or value")
}

func TestVulnsImporter_ImportFile(t *testing.T) {
	store, db := newTestStore(t)
	importer := NewVulnsImporter(store)
	ctx := context.Background()

	require.NoError(t, importer.ImportFile(ctx, "testdata/vulns.ndjson"))
	require.NoError(t, importer.ImportFile(ctx, "testdata/vulns.ndjson"))

	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM vulns`))
	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM urls`))

	var param string
	require.NoError(t, db.Get(&param, `SELECT param FROM vulns WHERE type = 'sqli'`))
	assert.Equal(t, "id", param)

	t.Run("invalid finding rolls nothing in", func(t *testing.T) {
		store, db := newTestStore(t)
		err := NewVulnsImporter(store).ImportFile(ctx, "testdata/vulns_invalid.ndjson")
		assert.ErrorContains(t, err, "missing type or url")
		assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM vulns`))
	})
}

func TestURLImporter_ImportURL(t *testing.T) {
	store, db := newTestStore(t)
	importer := NewURLImporter(store)
	ctx := context.Background()

	require.NoError(t, importer.ImportURL(ctx, URL{URL: "https://example.com/about"}))
	require.NoError(t, importer.ImportURL(ctx, URL{URL: "https://example.com/about", StatusCode: 200, ContentType: "text/html"}))

	var row struct {
		StatusCode  int    `db:"status_code"`
		ContentType string `db:"content_type"`
	}
	require.NoError(t, db.Get(&row, `SELECT status_code, content_type FROM urls WHERE url = 'https://example.com/about'`))
	assert.Equal(t, 200, row.StatusCode)
	assert.Equal(t, "text/html", row.ContentType)
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM host_names WHERE name = 'example.com'`))

	assert.Error(t, importer.ImportURL(ctx, URL{URL: "/relative"}))
}
