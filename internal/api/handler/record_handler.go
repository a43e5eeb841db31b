package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/scanhub/internal/api/domain"
	"github.com/cuongbtq/scanhub/internal/api/dto"
	"github.com/cuongbtq/scanhub/internal/api/model"
	"github.com/cuongbtq/scanhub/internal/api/storage"
)

// RecordReader reads imported scan records
type RecordReader interface {
	CountRecords(ctx context.Context) (map[string]int64, error)
	ListHosts(ctx context.Context, filter storage.RecordFilter) ([]model.Host, error)
	GetHost(ctx context.Context, id int64) (*model.Host, error)
	ListHostNames(ctx context.Context, filter storage.RecordFilter) ([]model.HostName, error)
	GetHostName(ctx context.Context, id int64) (*model.HostName, error)
	ListPorts(ctx context.Context, filter storage.RecordFilter) ([]model.Port, error)
	GetPort(ctx context.Context, id int64) (*model.Port, error)
	ListOpenPorts(ctx context.Context, filter storage.RecordFilter) ([]model.Port, error)
	GetOpenPort(ctx context.Context, id int64) (*model.Port, error)
	ListURLs(ctx context.Context, filter storage.RecordFilter) ([]model.URL, error)
	GetURL(ctx context.Context, id int64) (*model.URL, error)
	ListReconValues(ctx context.Context, filter storage.RecordFilter) ([]model.ReconValue, error)
	GetReconValue(ctx context.Context, id int64) (*model.ReconValue, error)
	ListVulns(ctx context.Context, filter storage.RecordFilter) ([]model.Vuln, error)
	GetVuln(ctx context.Context, id int64) (*model.Vuln, error)
}

// RecordHandler serves read-only views over imported records
type RecordHandler struct {
	logger  *slog.Logger
	records RecordReader
}

// NewRecordHandler creates a new RecordHandler instance
func NewRecordHandler(deps *Dependencies) *RecordHandler {
	return &RecordHandler{
		logger:  deps.Logger,
		records: deps.Records,
	}
}

// Counts handles GET /api/v1/db
func (h *RecordHandler) Counts(c *gin.Context) {
	counts, err := h.records.CountRecords(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count records",
		})
		return
	}

	c.JSON(http.StatusOK, dto.RecordCountsResponse{Counts: counts})
}

func (h *RecordHandler) ListHosts() gin.HandlerFunc {
	return listRecords(h, "hosts", h.records.ListHosts, func(r *model.Host) int64 { return r.ID }, toHostDTO)
}

func (h *RecordHandler) GetHost() gin.HandlerFunc {
	return getRecord(h, "host", h.records.GetHost, toHostDTO)
}

func (h *RecordHandler) ListHostNames() gin.HandlerFunc {
	return listRecords(h, "host names", h.records.ListHostNames, func(r *model.HostName) int64 { return r.ID }, toHostNameDTO)
}

func (h *RecordHandler) GetHostName() gin.HandlerFunc {
	return getRecord(h, "host name", h.records.GetHostName, toHostNameDTO)
}

func (h *RecordHandler) ListPorts() gin.HandlerFunc {
	return listRecords(h, "ports", h.records.ListPorts, portID, toPortDTO)
}

func (h *RecordHandler) GetPort() gin.HandlerFunc {
	return getRecord(h, "port", h.records.GetPort, toPortDTO)
}

func (h *RecordHandler) ListOpenPorts() gin.HandlerFunc {
	return listRecords(h, "open ports", h.records.ListOpenPorts, portID, toPortDTO)
}

func (h *RecordHandler) GetOpenPort() gin.HandlerFunc {
	return getRecord(h, "open port", h.records.GetOpenPort, toPortDTO)
}

func (h *RecordHandler) ListURLs() gin.HandlerFunc {
	return listRecords(h, "urls", h.records.ListURLs, func(r *model.URL) int64 { return r.ID }, toURLDTO)
}

func (h *RecordHandler) GetURL() gin.HandlerFunc {
	return getRecord(h, "url", h.records.GetURL, toURLDTO)
}

func (h *RecordHandler) ListReconValues() gin.HandlerFunc {
	return listRecords(h, "recon values", h.records.ListReconValues, func(r *model.ReconValue) int64 { return r.ID }, toReconValueDTO)
}

func (h *RecordHandler) GetReconValue() gin.HandlerFunc {
	return getRecord(h, "recon value", h.records.GetReconValue, toReconValueDTO)
}

func (h *RecordHandler) ListVulns() gin.HandlerFunc {
	return listRecords(h, "vulns", h.records.ListVulns, func(r *model.Vuln) int64 { return r.ID }, toVulnDTO)
}

func (h *RecordHandler) GetVuln() gin.HandlerFunc {
	return getRecord(h, "vuln", h.records.GetVuln, toVulnDTO)
}

// listRecords pages through records the same way ListJobs pages through
// jobs: fetch one extra row and hand out a cursor when it exists.
func listRecords[T, D any](
	h *RecordHandler,
	name string,
	list func(context.Context, storage.RecordFilter) ([]T, error),
	id func(*T) int64,
	toDTO func(*T) D,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ListRecordsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid query parameters",
			})
			return
		}

		if req.PageSize <= 0 {
			req.PageSize = defaultPageSize
		}
		if req.PageSize > maxPageSize {
			req.PageSize = maxPageSize
		}

		beforeID, err := DecodeRecordCursor(req.Cursor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid cursor",
			})
			return
		}

		records, err := list(c.Request.Context(), storage.RecordFilter{
			PageSize: req.PageSize,
			BeforeID: beforeID,
		})
		if err != nil {
			h.logger.Error("Failed to list records",
				slog.String("records", name),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list " + name,
			})
			return
		}

		hasMore := len(records) > req.PageSize
		if hasMore {
			records = records[:req.PageSize]
		}

		out := dto.ListRecordsResponse[D]{Records: make([]D, len(records))}
		for i := range records {
			out.Records[i] = toDTO(&records[i])
		}
		if hasMore {
			out.NextCursor = EncodeRecordCursor(id(&records[len(records)-1]))
		}

		c.JSON(http.StatusOK, out)
	}
}

func getRecord[T, D any](
	h *RecordHandler,
	name string,
	get func(context.Context, int64) (*T, error),
	toDTO func(*T) D,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "id must be a positive integer",
			})
			return
		}

		record, err := get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "Record not found",
				})
				return
			}
			h.logger.Error("Failed to get record",
				slog.String("record", name),
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get " + name,
			})
			return
		}

		c.JSON(http.StatusOK, toDTO(record))
	}
}

func portID(r *model.Port) int64 { return r.ID }

func toHostDTO(r *model.Host) dto.HostDTO {
	return dto.HostDTO{
		ID:          r.ID,
		Address:     r.Address,
		AddressType: r.AddressType,
		Status:      r.Status.String,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
}

func toHostNameDTO(r *model.HostName) dto.HostNameDTO {
	return dto.HostNameDTO{
		ID:        r.ID,
		Name:      r.Name,
		Address:   r.Address,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func toPortDTO(r *model.Port) dto.PortDTO {
	return dto.PortDTO{
		ID:        r.ID,
		Address:   r.Address,
		Protocol:  r.Protocol,
		Number:    r.Number,
		State:     r.State,
		Service:   r.Service.String,
		Product:   r.Product.String,
		Version:   r.Version.String,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

func toURLDTO(r *model.URL) dto.URLDTO {
	return dto.URLDTO{
		ID:          r.ID,
		URL:         r.URL,
		StatusCode:  r.StatusCode.Int64,
		ContentType: r.ContentType.String,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
}

func toReconValueDTO(r *model.ReconValue) dto.ReconValueDTO {
	return dto.ReconValueDTO{
		ID:        r.ID,
		Type:      r.Type,
		Value:     r.Value,
		Parent:    r.Parent.String,
		Raw:       rawJSON(r.Raw.String),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func toVulnDTO(r *model.Vuln) dto.VulnDTO {
	return dto.VulnDTO{
		ID:        r.ID,
		Type:      r.Type,
		URL:       r.URL,
		Param:     r.Param,
		Payload:   r.Payload.String,
		Raw:       rawJSON(r.Raw.String),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// rawJSON drops stored raw output that is not valid JSON
func rawJSON(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return nil
	}
	return json.RawMessage(s)
}
