package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	productUC "github.com/lareyna/reyna-api/internal/application/usecase/product"
	"github.com/lareyna/reyna-api/pkg/apperror"
	"github.com/lareyna/reyna-api/pkg/logger"
	"github.com/lareyna/reyna-api/pkg/spreadsheet"
)

const maxImageSize = 10 << 20

type ProductHandler struct {
	listUseCase   *productUC.ListProductsUseCase
	getUseCase    *productUC.GetProductUseCase
	manageUseCase *productUC.ManageProductUseCase
	imageUseCase  *productUC.UploadProductImageUseCase
	feedUseCase   *productUC.ProductFeedUseCase
	workbook      *exportUC.BuildWorkbookUseCase
	logger        logger.Logger
}

func NewProductHandler(
	listUC *productUC.ListProductsUseCase,
	getUC *productUC.GetProductUseCase,
	manageUC *productUC.ManageProductUseCase,
	imageUC *productUC.UploadProductImageUseCase,
	feedUC *productUC.ProductFeedUseCase,
	workbook *exportUC.BuildWorkbookUseCase,
	log logger.Logger,
) *ProductHandler {
	return &ProductHandler{
		listUseCase:   listUC,
		getUseCase:    getUC,
		manageUseCase: manageUC,
		imageUseCase:  imageUC,
		feedUseCase:   feedUC,
		workbook:      workbook,
		logger:        log,
	}
}

func parseProductID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.NewInvalidInput("product id must be a positive integer", err))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.Error(apperror.NewInvalidInput(key+" must be an integer", err))
		return 0, false
	}
	return v, true
}

// ListProducts returns every product unless categoria, page or limit narrow it.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	output, err := h.listUseCase.Execute(c.Request.Context(), productUC.ListProductsInput{
		Category: c.Query("categoria"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProductDTOs(output.Products))
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	p, err := h.getUseCase.Execute(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProductDTO(p))
}

func (h *ProductHandler) ExportExcel(c *gin.Context) {
	file, err := h.workbook.Products(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Name)
	c.Data(http.StatusOK, spreadsheet.ContentType, file.Data)
}

func (h *ProductHandler) Feed(c *gin.Context) {
	feed, err := h.feedUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(apperror.NewInternal("failed to generate RSS feed", err))
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	if err := feed.WriteRss(c.Writer); err != nil {
		h.logger.Error("Failed to write RSS feed to response", err)
	}
}

func bindProduct(c *gin.Context) (productUC.ProductInput, bool) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput(err.Error(), err))
		return productUC.ProductInput{}, false
	}
	return productUC.ProductInput{Name: req.Name, Price: req.Price, Category: req.Category}, true
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	input, ok := bindProduct(c)
	if !ok {
		return
	}
	p, err := h.manageUseCase.Create(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToProductDTO(p))
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	input, ok := bindProduct(c)
	if !ok {
		return
	}
	p, err := h.manageUseCase.Update(c.Request.Context(), id, input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProductDTO(p))
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := h.manageUseCase.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	if fileHeader.Size > maxImageSize {
		c.Error(apperror.NewInvalidInput("image must be at most 10MB", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("file cannot open", err))
		return
	}
	defer file.Close()

	p, err := h.imageUseCase.Execute(c.Request.Context(), productUC.UploadProductImageInput{ProductID: id, File: file})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, ToProductDTO(p))
}
