package model

import (
	"database/sql"
	"time"
)

// Host is an imported IP address
type Host struct {
	ID          int64          `db:"id"`
	Address     string         `db:"address"`
	AddressType string         `db:"address_type"`
	Status      sql.NullString `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// HostName is a host name, optionally resolved to an address
type HostName struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Address   string    `db:"address"`
	CreatedAt time.Time `db:"created_at"`
}

// Port is a scanned port of a host
type Port struct {
	ID        int64          `db:"id"`
	Address   string         `db:"address"`
	Protocol  string         `db:"protocol"`
	Number    int            `db:"number"`
	State     string         `db:"state"`
	Service   sql.NullString `db:"service"`
	Product   sql.NullString `db:"product"`
	Version   sql.NullString `db:"version"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// URL is a spidered URL
type URL struct {
	ID          int64          `db:"id"`
	URL         string         `db:"url"`
	StatusCode  sql.NullInt64  `db:"status_code"`
	ContentType sql.NullString `db:"content_type"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// ReconValue is a value discovered by recon
type ReconValue struct {
	ID        int64          `db:"id"`
	Type      string         `db:"type"`
	Value     string         `db:"value"`
	Parent    sql.NullString `db:"parent"`
	Raw       sql.NullString `db:"raw"`
	CreatedAt time.Time      `db:"created_at"`
}

// Vuln is a web vulnerability finding
type Vuln struct {
	ID        int64          `db:"id"`
	Type      string         `db:"type"`
	URL       string         `db:"url"`
	Param     string         `db:"param"`
	Payload   sql.NullString `db:"payload"`
	Raw       sql.NullString `db:"raw"`
	CreatedAt time.Time      `db:"created_at"`
}
