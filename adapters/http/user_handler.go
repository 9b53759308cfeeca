package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	userUC "github.com/lareyna/reyna-api/internal/application/usecase/user"
	"github.com/lareyna/reyna-api/pkg/spreadsheet"
)

type UserHandler struct {
	listUseCase *userUC.ListUsersUseCase
	workbook    *exportUC.BuildWorkbookUseCase
}

func NewUserHandler(listUC *userUC.ListUsersUseCase, workbook *exportUC.BuildWorkbookUseCase) *UserHandler {
	return &UserHandler{listUseCase: listUC, workbook: workbook}
}

func (h *UserHandler) ListClients(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	users, err := h.listUseCase.Execute(c.Request.Context(), userUC.ListUsersInput{Page: page, Limit: limit})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToUserDTOs(users))
}

func (h *UserHandler) ExportClients(c *gin.Context) {
	file, err := h.workbook.Users(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Name)
	c.Data(http.StatusOK, spreadsheet.ContentType, file.Data)
}
