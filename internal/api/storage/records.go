package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/scanhub/internal/api/domain"
	"github.com/cuongbtq/scanhub/internal/api/model"
)

// RecordFilter pages through imported records, newest first
type RecordFilter struct {
	PageSize int
	// BeforeID is the id of the last record of the previous page
	BeforeID int64
}

// recordTable describes one table of imported records. where narrows the
// table to a view, such as open ports.
type recordTable struct {
	name    string
	table   string
	columns string
	where   string
}

var (
	hostsTable = recordTable{
		name:    "hosts",
		table:   "hosts",
		columns: "id, address, address_type, status, created_at, updated_at",
	}
	hostNamesTable = recordTable{
		name:    "host_names",
		table:   "host_names",
		columns: "id, name, address, created_at",
	}
	portsTable = recordTable{
		name:    "ports",
		table:   "ports",
		columns: "id, address, protocol, number, state, service, product, version, created_at, updated_at",
	}
	openPortsTable = recordTable{
		name:    "open_ports",
		table:   "ports",
		columns: portsTable.columns,
		where:   "state = 'open'",
	}
	urlsTable = recordTable{
		name:    "urls",
		table:   "urls",
		columns: "id, url, status_code, content_type, created_at, updated_at",
	}
	reconValuesTable = recordTable{
		name:    "recon_values",
		table:   "recon_values",
		columns: "id, type, value, parent, raw, created_at",
	}
	vulnsTable = recordTable{
		name:    "vulns",
		table:   "vulns",
		columns: "id, type, url, param, payload, raw, created_at",
	}
)

var recordTables = []recordTable{
	hostsTable, hostNamesTable, portsTable, openPortsTable, urlsTable, reconValuesTable, vulnsTable,
}

func (t recordTable) selectFrom() string {
	query := `SELECT ` + t.columns + ` FROM ` + t.table + ` WHERE 1=1`
	if t.where != "" {
		query += " AND " + t.where
	}
	return query
}

// listRecords returns up to PageSize+1 records ordered by id DESC. Ids only
// grow, so the last id of a page is enough to resume from.
func listRecords[T any](ctx context.Context, db *sqlx.DB, t recordTable, filter RecordFilter) ([]T, error) {
	query := t.selectFrom()
	args := []interface{}{}

	if filter.BeforeID > 0 {
		query += " AND id < ?"
		args = append(args, filter.BeforeID)
	}

	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, filter.PageSize+1)

	var records []T
	if err := db.SelectContext(ctx, &records, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, err)
	}
	return records, nil
}

func getRecord[T any](ctx context.Context, db *sqlx.DB, t recordTable, id int64) (*T, error) {
	var record T
	query := db.Rebind(t.selectFrom() + " AND id = ?")

	if err := db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", t.name, err)
	}
	return &record, nil
}

// CountRecords returns the number of records per table, keyed by table name
func (s *Storage) CountRecords(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(recordTables))
	for _, t := range recordTables {
		var count int64
		query := `SELECT COUNT(*) FROM ` + t.table
		if t.where != "" {
			query += " WHERE " + t.where
		}
		if err := s.db.GetContext(ctx, &count, query); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t.name, err)
		}
		counts[t.name] = count
	}
	return counts, nil
}

func (s *Storage) ListHosts(ctx context.Context, filter RecordFilter) ([]model.Host, error) {
	return listRecords[model.Host](ctx, s.db, hostsTable, filter)
}

func (s *Storage) GetHost(ctx context.Context, id int64) (*model.Host, error) {
	return getRecord[model.Host](ctx, s.db, hostsTable, id)
}

func (s *Storage) ListHostNames(ctx context.Context, filter RecordFilter) ([]model.HostName, error) {
	return listRecords[model.HostName](ctx, s.db, hostNamesTable, filter)
}

func (s *Storage) GetHostName(ctx context.Context, id int64) (*model.HostName, error) {
	return getRecord[model.HostName](ctx, s.db, hostNamesTable, id)
}

func (s *Storage) ListPorts(ctx context.Context, filter RecordFilter) ([]model.Port, error) {
	return listRecords[model.Port](ctx, s.db, portsTable, filter)
}

func (s *Storage) GetPort(ctx context.Context, id int64) (*model.Port, error) {
	return getRecord[model.Port](ctx, s.db, portsTable, id)
}

// ListOpenPorts lists ports whose state is open
func (s *Storage) ListOpenPorts(ctx context.Context, filter RecordFilter) ([]model.Port, error) {
	return listRecords[model.Port](ctx, s.db, openPortsTable, filter)
}

func (s *Storage) GetOpenPort(ctx context.Context, id int64) (*model.Port, error) {
	return getRecord[model.Port](ctx, s.db, openPortsTable, id)
}

func (s *Storage) ListURLs(ctx context.Context, filter RecordFilter) ([]model.URL, error) {
	return listRecords[model.URL](ctx, s.db, urlsTable, filter)
}

func (s *Storage) GetURL(ctx context.Context, id int64) (*model.URL, error) {
	return getRecord[model.URL](ctx, s.db, urlsTable, id)
}

func (s *Storage) ListReconValues(ctx context.Context, filter RecordFilter) ([]model.ReconValue, error) {
	return listRecords[model.ReconValue](ctx, s.db, reconValuesTable, filter)
}

func (s *Storage) GetReconValue(ctx context.Context, id int64) (*model.ReconValue, error) {
	return getRecord[model.ReconValue](ctx, s.db, reconValuesTable, id)
}

func (s *Storage) ListVulns(ctx context.Context, filter RecordFilter) ([]model.Vuln, error) {
	return listRecords[model.Vuln](ctx, s.db, vulnsTable, filter)
}

func (s *Storage) GetVuln(ctx context.Context, id int64) (*model.Vuln, error) {
	return getRecord[model.Vuln](ctx, s.db, vulnsTable, id)
}
