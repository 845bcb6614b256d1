package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/service"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

// maxImportBodyBytes caps an inline text/csv import.
var maxImportBodyBytes int64 = 10 << 20

type exchangeService interface {
	ImportStudents(ctx context.Context, filename string) (*service.ImportResult, error)
	ImportStudentsFrom(ctx context.Context, r io.Reader) (*service.ImportResult, error)
	ImportCourses(ctx context.Context, filename string) (*service.ImportResult, error)
	ImportCoursesFrom(ctx context.Context, r io.Reader) (*service.ImportResult, error)
	ExportStudents(ctx context.Context, filename string) (*service.ExportFile, error)
	ExportCourses(ctx context.Context, filename string) (*service.ExportFile, error)
}

// ExchangeHandler exposes CSV import and export. Imports read either the
// request body (Content-Type text/csv) or ?file= from the data directory.
type ExchangeHandler struct {
	exchange exchangeService
}

// NewExchangeHandler constructs ExchangeHandler.
func NewExchangeHandler(exchange exchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange}
}

// Import handles POST /exchange/import/:entity.
func (h *ExchangeHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()
	inline := strings.HasPrefix(c.ContentType(), "text/csv")
	file := c.DefaultQuery("file", c.Param("entity")+".csv")
	if inline {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBodyBytes)
	}

	var (
		result *service.ImportResult
		err    error
	)
	switch c.Param("entity") {
	case service.EntityStudents:
		if inline {
			result, err = h.exchange.ImportStudentsFrom(ctx, c.Request.Body)
		} else {
			result, err = h.exchange.ImportStudents(ctx, file)
		}
	case service.EntityCourses:
		if inline {
			result, err = h.exchange.ImportCoursesFrom(ctx, c.Request.Body)
		} else {
			result, err = h.exchange.ImportCourses(ctx, file)
		}
	default:
		err = unknownEntity(c.Param("entity"))
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("csv body exceeds %d bytes", tooLarge.Limit))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export handles POST /exchange/export/:entity?file=.
func (h *ExchangeHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		written *service.ExportFile
		err     error
	)
	switch c.Param("entity") {
	case service.EntityStudents:
		written, err = h.exchange.ExportStudents(ctx, c.Query("file"))
	case service.EntityCourses:
		written, err = h.exchange.ExportCourses(ctx, c.Query("file"))
	default:
		err = unknownEntity(c.Param("entity"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, written)
}

func unknownEntity(entity string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "unknown exchange entity "+entity)
}
