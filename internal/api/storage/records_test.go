package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/scanhub/internal/api/domain"
	"github.com/cuongbtq/scanhub/internal/importer"
)

func seedRecords(t *testing.T, s *Storage) {
	t.Helper()

	err := importer.NewStore(s.db).InTx(context.Background(), func(w *importer.Writer) error {
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			addr := fmt.Sprintf("10.0.0.%d", i)
			if err := w.UpsertHost(ctx, importer.Host{Address: addr, Status: "up"}); err != nil {
				return err
			}
			state := "open"
			if i == 2 {
				state = "closed"
			}
			if err := w.UpsertPort(ctx, importer.Port{Address: addr, Protocol: "tcp", Number: 22, State: state, Service: "ssh"}); err != nil {
				return err
			}
		}
		if err := w.UpsertHostName(ctx, "scanme.nmap.org", "10.0.0.1"); err != nil {
			return err
		}
		if err := w.UpsertURL(ctx, importer.URL{URL: "http://example.com/", StatusCode: 200, ContentType: "text/html"}); err != nil {
			return err
		}
		if err := w.UpsertReconValue(ctx, "domain", "example.com", "", []byte(`{"type":"domain"}`)); err != nil {
			return err
		}
		return w.UpsertVuln(ctx, importer.Vuln{Type: "sqli", URL: "http://example.com/?id=1", Param: "id", Payload: "'"})
	})
	require.NoError(t, err)
}

func TestStorage_CountRecords(t *testing.T) {
	s := newTestStorage(t)
	seedRecords(t, s)

	counts, err := s.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"hosts":        3,
		"host_names":   1,
		"ports":        3,
		"open_ports":   2,
		"urls":         1,
		"recon_values": 1,
		"vulns":        1,
	}, counts)
}

func TestStorage_ListHosts(t *testing.T) {
	s := newTestStorage(t)
	seedRecords(t, s)
	ctx := context.Background()

	first, err := s.ListHosts(ctx, RecordFilter{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 3, "one extra row signals another page")
	assert.Equal(t, "10.0.0.3", first[0].Address)
	assert.Equal(t, "ipv4", first[0].AddressType)
	assert.Equal(t, "up", first[0].Status.String)

	second, err := s.ListHosts(ctx, RecordFilter{PageSize: 2, BeforeID: first[1].ID})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "10.0.0.1", second[0].Address)
}

func TestStorage_OpenPorts(t *testing.T) {
	s := newTestStorage(t)
	seedRecords(t, s)
	ctx := context.Background()

	open, err := s.ListOpenPorts(ctx, RecordFilter{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, open, 2)
	for _, port := range open {
		assert.Equal(t, "open", port.State)
	}

	all, err := s.ListPorts(ctx, RecordFilter{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)

	var closedID int64
	for _, port := range all {
		if port.State == "closed" {
			closedID = port.ID
		}
	}

	_, err = s.GetOpenPort(ctx, closedID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	port, err := s.GetPort(ctx, closedID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", port.Address)
	assert.Equal(t, "ssh", port.Service.String)
}

func TestStorage_GetRecords(t *testing.T) {
	s := newTestStorage(t)
	seedRecords(t, s)
	ctx := context.Background()

	names, err := s.ListHostNames(ctx, RecordFilter{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, names, 1)
	name, err := s.GetHostName(ctx, names[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "scanme.nmap.org", name.Name)

	urls, err := s.ListURLs(ctx, RecordFilter{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, int64(200), urls[0].StatusCode.Int64)

	values, err := s.ListReconValues(ctx, RecordFilter{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, values, 1)
	value, err := s.GetReconValue(ctx, values[0].ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"domain"}`, value.Raw.String)
	assert.False(t, value.Parent.Valid)

	vulns, err := s.ListVulns(ctx, RecordFilter{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, vulns, 1)
	vuln, err := s.GetVuln(ctx, vulns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "id", vuln.Param)

	_, err = s.GetHost(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	_, err = s.GetURL(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}
