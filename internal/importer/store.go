// Package importer parses scanner output files and writes the normalized
// hosts, ports, URLs, recon values and vulnerabilities into the datastore.
// Every write is an upsert on the record's natural key, so importing the same
// output twice converges on the same rows.
package importer

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store owns the datastore handle shared by all importers
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore creates a Store
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// InTx runs fn inside a single transaction
func (s *Store) InTx(ctx context.Context, fn func(w *Writer) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Writer{tx: tx, now: s.now()}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// Writer performs upserts within one import transaction
type Writer struct {
	tx  *sqlx.Tx
	now time.Time
}

func (w *Writer) exec(ctx context.Context, query string, args ...any) error {
	if _, err := w.tx.ExecContext(ctx, w.tx.Rebind(query), args...); err != nil {
		return err
	}
	return nil
}

// Host is an IP address seen by a scanner
type Host struct {
	Address string
	Status  string
}

// AddressType returns "ipv4" or "ipv6"
func (h Host) AddressType() string {
	if ip := net.ParseIP(h.Address); ip != nil && ip.To4() == nil {
		return "ipv6"
	}
	return "ipv4"
}

// UpsertHost records a host address
func (w *Writer) UpsertHost(ctx context.Context, h Host) error {
	err := w.exec(ctx, `
		INSERT INTO hosts (address, address_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE
		SET status = COALESCE(excluded.status, hosts.status),
		    updated_at = excluded.updated_at
	`, h.Address, h.AddressType(), nullString(h.Status), w.now, w.now)
	if err != nil {
		return fmt.Errorf("failed to upsert host %s: %w", h.Address, err)
	}
	return nil
}

// UpsertHostName records a host name, optionally bound to an address
func (w *Writer) UpsertHostName(ctx context.Context, name, address string) error {
	err := w.exec(ctx, `
		INSERT INTO host_names (name, address, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name, address) DO NOTHING
	`, name, address, w.now)
	if err != nil {
		return fmt.Errorf("failed to upsert host name %s: %w", name, err)
	}
	return nil
}

// Port is a port observed on a host
type Port struct {
	Address  string
	Protocol string
	Number   int
	State    string
	Service  string
	Product  string
	Version  string
}

// UpsertPort records a port and its latest state
func (w *Writer) UpsertPort(ctx context.Context, p Port) error {
	err := w.exec(ctx, `
		INSERT INTO ports (address, protocol, number, state, service, product, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (address, protocol, number) DO UPDATE
		SET state = excluded.state,
		    service = COALESCE(excluded.service, ports.service),
		    product = COALESCE(excluded.product, ports.product),
		    version = COALESCE(excluded.version, ports.version),
		    updated_at = excluded.updated_at
	`, p.Address, p.Protocol, p.Number, p.State,
		nullString(p.Service), nullString(p.Product), nullString(p.Version),
		w.now, w.now)
	if err != nil {
		return fmt.Errorf("failed to upsert port %s/%d on %s: %w", p.Protocol, p.Number, p.Address, err)
	}
	return nil
}

// URL is a visited or discovered web URL
type URL struct {
	URL         string
	StatusCode  int
	ContentType string
}

// UpsertURL records a URL and its latest response metadata
func (w *Writer) UpsertURL(ctx context.Context, u URL) error {
	var status any
	if u.StatusCode > 0 {
		status = u.StatusCode
	}

	err := w.exec(ctx, `
		INSERT INTO urls (url, status_code, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE
		SET status_code = COALESCE(excluded.status_code, urls.status_code),
		    content_type = COALESCE(excluded.content_type, urls.content_type),
		    updated_at = excluded.updated_at
	`, u.URL, status, nullString(u.ContentType), w.now, w.now)
	if err != nil {
		return fmt.Errorf("failed to upsert url %s: %w", u.URL, err)
	}
	return nil
}

// UpsertReconValue records one value discovered by a recon sweep
func (w *Writer) UpsertReconValue(ctx context.Context, typ, value, parent string, raw []byte) error {
	err := w.exec(ctx, `
		INSERT INTO recon_values (type, value, parent, raw, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (type, value) DO NOTHING
	`, typ, value, nullString(parent), nullString(string(raw)), w.now)
	if err != nil {
		return fmt.Errorf("failed to upsert %s value %s: %w", typ, value, err)
	}
	return nil
}

// Vuln is a vulnerability finding
type Vuln struct {
	Type    string
	URL     string
	Param   string
	Payload string
	Raw     []byte
}

// UpsertVuln records a vulnerability finding
func (w *Writer) UpsertVuln(ctx context.Context, v Vuln) error {
	err := w.exec(ctx, `
		INSERT INTO vulns (type, url, param, payload, raw, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (type, url, param) DO UPDATE
		SET payload = excluded.payload,
		    raw = excluded.raw
	`, v.Type, v.URL, v.Param, nullString(v.Payload), nullString(string(v.Raw)), w.now)
	if err != nil {
		return fmt.Errorf("failed to upsert %s vuln on %s: %w", v.Type, v.URL, err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
