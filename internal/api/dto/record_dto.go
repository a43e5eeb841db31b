package dto

import (
	"encoding/json"
)

type ListRecordsRequest struct {
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
	Cursor   string `form:"cursor"`
}

// ListRecordsResponse holds one page of any record type
type ListRecordsResponse[T any] struct {
	Records    []T    `json:"records"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// RecordCountsResponse is the number of imported records per type
type RecordCountsResponse struct {
	Counts map[string]int64 `json:"counts"`
}

type HostDTO struct {
	ID          int64  `json:"id"`
	Address     string `json:"address"`
	AddressType string `json:"address_type"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type HostNameDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at"`
}

type PortDTO struct {
	ID        int64  `json:"id"`
	Address   string `json:"address"`
	Protocol  string `json:"protocol"`
	Number    int    `json:"number"`
	State     string `json:"state"`
	Service   string `json:"service,omitempty"`
	Product   string `json:"product,omitempty"`
	Version   string `json:"version,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type URLDTO struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	StatusCode  int64  `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type ReconValueDTO struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Value     string          `json:"value"`
	Parent    string          `json:"parent,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type VulnDTO struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	URL       string          `json:"url"`
	Param     string          `json:"param,omitempty"`
	Payload   string          `json:"payload,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	CreatedAt string          `json:"created_at"`
}
