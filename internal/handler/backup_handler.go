package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

type backupService interface {
	Backup(ctx context.Context) (*models.BackupInfo, error)
	ListBackups() ([]models.BackupInfo, error)
}

// BackupHandler exposes directory snapshots.
type BackupHandler struct {
	backups backupService
}

// NewBackupHandler constructs BackupHandler.
func NewBackupHandler(backups backupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

func (h *BackupHandler) Create(c *gin.Context) {
	info, err := h.backups.Backup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, info)
}

func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backups.ListBackups()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, backups, nil)
}
