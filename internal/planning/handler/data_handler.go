package handler

import (
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/service"
	"github.com/gin-gonic/gin"
)

// DataHandler 基础数据维护与电子表格导入接口
type DataHandler struct {
	importSvc *service.ImportService
	repos     *repository.Repositories
}

func NewDataHandler(importSvc *service.ImportService, repos *repository.Repositories) *DataHandler {
	return &DataHandler{
		importSvc: importSvc,
		repos:     repos,
	}
}

type importFunc func(c *gin.Context) (int, error)

func (h *DataHandler) handleUpload(c *gin.Context, run importFunc) {
	count, err := run(c)
	if err != nil {
		InternalError(c, "导入失败: "+err.Error())
		return
	}
	Success(c, gin.H{"imported": count})
}

func (h *DataHandler) openUpload(c *gin.Context) (interface {
	Read(p []byte) (int, error)
	Close() error
}, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "缺少上传文件: "+err.Error())
		return nil, "", false
	}
	f, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return nil, "", false
	}
	return f, fileHeader.Filename, true
}

// UploadBOM 导入BOM工作表
// POST /api/v1/upload/bom
func (h *DataHandler) UploadBOM(c *gin.Context) {
	f, name, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()
	h.handleUpload(c, func(c *gin.Context) (int, error) {
		return h.importSvc.ImportBOM(c.Request.Context(), f, name)
	})
}

// UploadForecasts 导入装机预测工作表
// POST /api/v1/upload/forecasts
func (h *DataHandler) UploadForecasts(c *gin.Context) {
	f, name, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()
	h.handleUpload(c, func(c *gin.Context) (int, error) {
		return h.importSvc.ImportForecasts(c.Request.Context(), f, name)
	})
}

// UploadInventory 导入库存工作表
// POST /api/v1/upload/inventory
func (h *DataHandler) UploadInventory(c *gin.Context) {
	f, name, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()
	h.handleUpload(c, func(c *gin.Context) (int, error) {
		return h.importSvc.ImportInventory(c.Request.Context(), f, name)
	})
}

// UploadOrders 导入在途订单工作表
// POST /api/v1/upload/orders
func (h *DataHandler) UploadOrders(c *gin.Context) {
	f, name, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()
	h.handleUpload(c, func(c *gin.Context) (int, error) {
		return h.importSvc.ImportOrders(c.Request.Context(), f, name)
	})
}

// === BOM ===

// ListBOM BOM行项列表
// GET /api/v1/bom?product_id=
func (h *DataHandler) ListBOM(c *gin.Context) {
	var lines []entity.BOMLine
	var err error
	if productID := c.Query("product_id"); productID != "" {
		lines, err = h.repos.BOM.FindByProduct(c.Request.Context(), productID)
	} else {
		lines, err = h.repos.BOM.FindAll(c.Request.Context())
	}
	if err != nil {
		InternalError(c, "获取BOM列表失败: "+err.Error())
		return
	}
	Success(c, lines)
}

// CreateBOM 创建BOM行项
// POST /api/v1/bom
func (h *DataHandler) CreateBOM(c *gin.Context) {
	var line entity.BOMLine
	if err := c.ShouldBindJSON(&line); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	line.CostPerProduct = line.Quantity * line.UnitCost
	if err := h.repos.BOM.Create(c.Request.Context(), &line); err != nil {
		InternalError(c, "创建BOM行项失败: "+err.Error())
		return
	}
	Created(c, line)
}

// UpdateBOM 更新BOM行项
// PUT /api/v1/bom/:id
func (h *DataHandler) UpdateBOM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	line, err := h.repos.BOM.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "BOM行项不存在")
			return
		}
		InternalError(c, "获取BOM行项失败: "+err.Error())
		return
	}
	if err := c.ShouldBindJSON(line); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	line.ID = id
	line.CostPerProduct = line.Quantity * line.UnitCost
	if err := h.repos.BOM.Update(c.Request.Context(), line); err != nil {
		InternalError(c, "更新BOM行项失败: "+err.Error())
		return
	}
	Success(c, line)
}

// DeleteBOM 删除BOM行项
// DELETE /api/v1/bom/:id
func (h *DataHandler) DeleteBOM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repos.BOM.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, "删除BOM行项失败: "+err.Error())
		return
	}
	Success(c, nil)
}

// === 预测 ===

// ListForecasts 预测列表
// GET /api/v1/forecasts
func (h *DataHandler) ListForecasts(c *gin.Context) {
	forecasts, err := h.repos.Forecast.FindAll(c.Request.Context())
	if err != nil {
		InternalError(c, "获取预测列表失败: "+err.Error())
		return
	}
	Success(c, forecasts)
}

// CreateForecast 创建预测
// POST /api/v1/forecasts
func (h *DataHandler) CreateForecast(c *gin.Context) {
	var forecast entity.Forecast
	if err := c.ShouldBindJSON(&forecast); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if err := h.repos.Forecast.Create(c.Request.Context(), &forecast); err != nil {
		InternalError(c, "创建预测失败: "+err.Error())
		return
	}
	Created(c, forecast)
}

// DeleteForecast 删除预测
// DELETE /api/v1/forecasts/:id
func (h *DataHandler) DeleteForecast(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repos.Forecast.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, "删除预测失败: "+err.Error())
		return
	}
	Success(c, nil)
}

// === 零件与供应商 ===

// ListParts 零件主数据列表
// GET /api/v1/parts
func (h *DataHandler) ListParts(c *gin.Context) {
	parts, err := h.repos.Part.FindAll(c.Request.Context())
	if err != nil {
		InternalError(c, "获取零件列表失败: "+err.Error())
		return
	}
	Success(c, parts)
}

// UpsertPart 创建或更新零件主数据
// PUT /api/v1/parts/:part_id
func (h *DataHandler) UpsertPart(c *gin.Context) {
	var part entity.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	part.PartID = c.Param("part_id")
	if err := h.repos.Part.Upsert(c.Request.Context(), &part); err != nil {
		InternalError(c, "保存零件失败: "+err.Error())
		return
	}
	Success(c, part)
}

// ListSuppliers 供应商列表
// GET /api/v1/suppliers
func (h *DataHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.repos.Part.FindSuppliers(c.Request.Context())
	if err != nil {
		InternalError(c, "获取供应商列表失败: "+err.Error())
		return
	}
	Success(c, suppliers)
}

// UpsertSupplier 创建或更新供应商
// PUT /api/v1/suppliers/:supplier_id
func (h *DataHandler) UpsertSupplier(c *gin.Context) {
	var supplier entity.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	supplier.SupplierID = c.Param("supplier_id")
	if err := h.repos.Part.UpsertSupplier(c.Request.Context(), &supplier); err != nil {
		InternalError(c, "保存供应商失败: "+err.Error())
		return
	}
	Success(c, supplier)
}

// === 运输报价 ===

// ListQuotes 运输报价列表
// GET /api/v1/quotes
func (h *DataHandler) ListQuotes(c *gin.Context) {
	quotes, err := h.repos.Quote.FindAll(c.Request.Context())
	if err != nil {
		InternalError(c, "获取运输报价列表失败: "+err.Error())
		return
	}
	Success(c, quotes)
}

// CreateQuote 创建运输报价
// POST /api/v1/quotes
func (h *DataHandler) CreateQuote(c *gin.Context) {
	var quote entity.ShippingQuote
	if err := c.ShouldBindJSON(&quote); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if err := h.repos.Quote.Create(c.Request.Context(), &quote); err != nil {
		InternalError(c, "创建运输报价失败: "+err.Error())
		return
	}
	Created(c, quote)
}

// UpdateQuote 更新运输报价
// PUT /api/v1/quotes/:id
func (h *DataHandler) UpdateQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	quote, err := h.repos.Quote.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "运输报价不存在")
			return
		}
		InternalError(c, "获取运输报价失败: "+err.Error())
		return
	}
	if err := c.ShouldBindJSON(quote); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	quote.ID = id
	if err := h.repos.Quote.Update(c.Request.Context(), quote); err != nil {
		InternalError(c, "更新运输报价失败: "+err.Error())
		return
	}
	Success(c, quote)
}

// DeleteQuote 删除运输报价
// DELETE /api/v1/quotes/:id
func (h *DataHandler) DeleteQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repos.Quote.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, "删除运输报价失败: "+err.Error())
		return
	}
	Success(c, nil)
}
