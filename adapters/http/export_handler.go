package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	"github.com/lareyna/reyna-api/pkg/apperror"
)

type ExportHandler struct {
	requestUseCase *exportUC.RequestExportUseCase
	getUseCase     *exportUC.GetExportJobUseCase
}

func NewExportHandler(requestUC *exportUC.RequestExportUseCase, getUC *exportUC.GetExportJobUseCase) *ExportHandler {
	return &ExportHandler{requestUseCase: requestUC, getUseCase: getUC}
}

func (h *ExportHandler) RequestExport(c *gin.Context) {
	principal, ok := GetPrincipalFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("principal not found", nil))
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput(err.Error(), err))
		return
	}

	job, err := h.requestUseCase.Execute(c.Request.Context(), exportUC.RequestExportInput{
		Kind:        req.Kind,
		RequestedBy: principal.UserID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Location", "/api/admin/exports/"+job.ID.String())
	c.JSON(http.StatusAccepted, ToExportJobDTO(job))
}

func (h *ExportHandler) GetExport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("export id must be a UUID", err))
		return
	}

	job, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToExportJobDTO(job))
}
