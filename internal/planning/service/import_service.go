package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// 日期列支持的格式
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// ImportService 电子表格导入服务：BOM、预测、库存、在途订单。
// 原始文件可归档到对象存储后再解析。
type ImportService struct {
	repos   *repository.Repositories
	logger  *zap.Logger
	archive *minio.Client
	bucket  string
}

func NewImportService(repos *repository.Repositories, logger *zap.Logger) *ImportService {
	return &ImportService{
		repos:  repos,
		logger: logger,
	}
}

// SetArchive 注入原始文件归档存储（可选，未配置时跳过归档）
func (s *ImportService) SetArchive(client *minio.Client, bucket string) {
	s.archive = client
	s.bucket = bucket
}

// archiveUpload 归档原始上传文件，失败仅告警不中断导入
func (s *ImportService) archiveUpload(ctx context.Context, filename string, data []byte) {
	if s.archive == nil || s.bucket == "" {
		return
	}
	objectName := fmt.Sprintf("uploads/%s_%s", time.Now().Format("20060102T150405"), filename)
	_, err := s.archive.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		s.logger.Warn("failed to archive upload",
			zap.String("object", objectName),
			zap.Error(err))
		return
	}
	s.logger.Info("upload archived", zap.String("object", objectName))
}

// readSheet 读取第一个工作表，返回表头索引与数据行
func readSheet(data []byte) (map[string]int, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[normHeader(name)] = i
	}
	return header, rows[1:], nil
}

// normHeader 表头归一化：小写，空格折叠为下划线
func normHeader(name string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " "), " ", "_")
}

func cell(row []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellFloat(row []string, header map[string]int, name string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(cell(row, header, name), ",", ""), 64)
	return v
}

func cellInt(row []string, header map[string]int, name string) int {
	return int(cellFloat(row, header, name))
}

func cellIntPtr(row []string, header map[string]int, name string) *int {
	raw := cell(row, header, name)
	if raw == "" {
		return nil
	}
	v := cellInt(row, header, name)
	return &v
}

func cellFloatPtr(row []string, header map[string]int, name string) *float64 {
	raw := cell(row, header, name)
	if raw == "" {
		return nil
	}
	v := cellFloat(row, header, name)
	return &v
}

func cellStrPtr(row []string, header map[string]int, name string) *string {
	raw := cell(row, header, name)
	if raw == "" {
		return nil
	}
	return &raw
}

func cellDate(row []string, header map[string]int, name string) (time.Time, bool) {
	raw := cell(row, header, name)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	// excelize 数值日期序列
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cellBool(row []string, header map[string]int, name string) bool {
	switch strings.ToLower(cell(row, header, name)) {
	case "yes", "true", "1", "y":
		return true
	}
	return false
}

// ImportBOM 导入BOM工作表；同步补建零件主数据
func (s *ImportService) ImportBOM(ctx context.Context, r io.Reader, filename string) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload: %w", err)
	}
	s.archiveUpload(ctx, filename, data)

	header, rows, err := readSheet(data)
	if err != nil {
		return 0, err
	}

	lines := make([]entity.BOMLine, 0, len(rows))
	for _, row := range rows {
		productID := cell(row, header, "product_id")
		partID := cell(row, header, "part_id")
		if productID == "" || partID == "" {
			continue
		}
		qty := cellFloat(row, header, "quantity")
		unitCost := cellFloat(row, header, "unit_cost")
		line := entity.BOMLine{
			ProductID:             productID,
			PartID:                partID,
			PartName:              cell(row, header, "part_name"),
			Quantity:              qty,
			UnitCost:              unitCost,
			CostPerProduct:        qty * unitCost,
			BeginningInventory:    cellInt(row, header, "beginning_inventory"),
			SupplierID:            cellStrPtr(row, header, "supplier_id"),
			SupplierName:          cellStrPtr(row, header, "supplier_name"),
			Manufacturer:          cellStrPtr(row, header, "manufacturer"),
			APTerms:               cellIntPtr(row, header, "ap_terms"),
			ManufacturingLeadTime: cellIntPtr(row, header, "manufacturing_lead_time"),
			ShippingLeadTime:      cellIntPtr(row, header, "shipping_lead_time"),
			ShippingMode:          cellStrPtr(row, header, "shipping_mode"),
			UnitWeightKg:          cellFloatPtr(row, header, "unit_weight_kg"),
			UnitVolumeCBM:         cellFloatPtr(row, header, "unit_volume_cbm"),
			ShippingCost:          cellFloatPtr(row, header, "shipping_cost"),
			CountryOfOrigin:       cellStrPtr(row, header, "country_of_origin"),
			HTSCode:               cellStrPtr(row, header, "hts_code"),
			SubjectToTariffs:      cellBool(row, header, "subject_to_tariffs"),
		}
		lines = append(lines, line)
	}

	if err := s.repos.BOM.BatchCreate(ctx, lines); err != nil {
		return 0, fmt.Errorf("failed to save bom lines: %w", err)
	}

	// 补建零件主数据
	for i := range lines {
		line := &lines[i]
		part := &entity.Part{
			PartID:         line.PartID,
			PartName:       line.PartName,
			SupplierID:     line.SupplierID,
			SupplierName:   line.SupplierName,
			UnitCost:       line.UnitCost,
			SafetyStockPct: 0.1,
		}
		if err := s.repos.Part.Upsert(ctx, part); err != nil {
			return len(lines), fmt.Errorf("failed to upsert part %s: %w", line.PartID, err)
		}
	}

	s.logger.Info("bom import completed",
		zap.String("file", filename),
		zap.Int("rows", len(lines)))
	return len(lines), nil
}

// ImportForecasts 导入装机预测工作表
func (s *ImportService) ImportForecasts(ctx context.Context, r io.Reader, filename string) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload: %w", err)
	}
	s.archiveUpload(ctx, filename, data)

	header, rows, err := readSheet(data)
	if err != nil {
		return 0, err
	}

	forecasts := make([]entity.Forecast, 0, len(rows))
	for _, row := range rows {
		sn := cell(row, header, "system_sn")
		date, ok := cellDate(row, header, "installation_date")
		units := cellInt(row, header, "units")
		if sn == "" || !ok || units <= 0 {
			continue
		}
		forecasts = append(forecasts, entity.Forecast{
			SystemSN:         sn,
			InstallationDate: date,
			Units:            units,
		})
	}

	if err := s.repos.Forecast.BatchCreate(ctx, forecasts); err != nil {
		return 0, fmt.Errorf("failed to save forecasts: %w", err)
	}

	s.logger.Info("forecast import completed",
		zap.String("file", filename),
		zap.Int("rows", len(forecasts)))
	return len(forecasts), nil
}

// ImportInventory 导入库存工作表（按零件号upsert）
func (s *ImportService) ImportInventory(ctx context.Context, r io.Reader, filename string) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload: %w", err)
	}
	s.archiveUpload(ctx, filename, data)

	header, rows, err := readSheet(data)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		partID := cell(row, header, "part_id")
		if partID == "" {
			continue
		}
		stock := cellInt(row, header, "current_stock")
		unitCost := cellFloat(row, header, "unit_cost")
		inv := &entity.Inventory{
			PartID:           partID,
			PartName:         cell(row, header, "part_name"),
			CurrentStock:     stock,
			MinimumStock:     cellInt(row, header, "minimum_stock"),
			MaximumStock:     cellIntPtr(row, header, "maximum_stock"),
			UnitCost:         unitCost,
			TotalValue:       float64(stock) * unitCost,
			SupplierID:       cellStrPtr(row, header, "supplier_id"),
			SupplierName:     cellStrPtr(row, header, "supplier_name"),
			Location:         cellStrPtr(row, header, "location"),
			SubjectToTariffs: cellBool(row, header, "subject_to_tariffs"),
			HTSCode:          cellStrPtr(row, header, "hts_code"),
		}
		if err := s.repos.Inventory.Upsert(ctx, inv); err != nil {
			return count, fmt.Errorf("failed to upsert inventory %s: %w", partID, err)
		}
		count++
	}

	s.logger.Info("inventory import completed",
		zap.String("file", filename),
		zap.Int("rows", count))
	return count, nil
}

// ImportOrders 导入在途订单工作表（发票/报价单行项）
func (s *ImportService) ImportOrders(ctx context.Context, r io.Reader, filename string) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload: %w", err)
	}
	s.archiveUpload(ctx, filename, data)

	header, rows, err := readSheet(data)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		partID := cell(row, header, "part_id")
		qty := cellInt(row, header, "qty")
		if partID == "" || qty <= 0 {
			continue
		}
		orderDate, ok := cellDate(row, header, "order_date")
		if !ok {
			orderDate = time.Now()
		}
		order := &entity.PendingOrder{
			PartID:       partID,
			SupplierID:   cellStrPtr(row, header, "supplier_id"),
			SupplierName: cellStrPtr(row, header, "supplier_name"),
			OrderDate:    orderDate,
			Qty:          qty,
			UnitCost:     cellFloat(row, header, "unit_cost"),
			Status:       entity.OrderStatusPending,
			PONumber:     cellStrPtr(row, header, "po_number"),
			Notes:        cellStrPtr(row, header, "notes"),
		}
		if status := strings.ToLower(cell(row, header, "status")); status != "" {
			order.Status = status
		}
		if eta, ok := cellDate(row, header, "estimated_delivery_date"); ok {
			order.EstimatedDeliveryDate = &eta
		}
		if err := s.repos.Order.Create(ctx, order); err != nil {
			return count, fmt.Errorf("failed to save order: %w", err)
		}
		count++
	}

	s.logger.Info("order import completed",
		zap.String("file", filename),
		zap.Int("rows", count))
	return count, nil
}
