package repository

import (
	"context"
	"fmt"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"gorm.io/gorm"
)

// PORepository 采购订单仓库
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

// FindByProject 查询项目采购订单
func (r *PORepository) FindByProject(ctx context.Context, projectID string) ([]entity.PurchaseOrder, error) {
	var items []entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("po_number ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找采购订单（含发票）
func (r *PORepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_date ASC")
		}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

// FindByIDForUpdate 行锁读取采购订单（不含发票）
func (r *PORepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

// Create 创建采购订单
func (r *PORepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Invoices").Create(po).Error
}

// Update 更新采购订单
func (r *PORepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Invoices").Save(po).Error
}

// CreateInvoice 创建发票
func (r *PORepository) CreateInvoice(ctx context.Context, inv *entity.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// SumInvoices 重新汇总采购订单的全部发票金额
func (r *PORepository) SumInvoices(ctx context.Context, poID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&entity.Invoice{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("po_id = ?", poID).
		Scan(&total).Error
	return total, err
}

// FindInvoices 查询采购订单发票
func (r *PORepository) FindInvoices(ctx context.Context, poID string) ([]entity.Invoice, error) {
	var items []entity.Invoice
	err := r.db.WithContext(ctx).
		Where("po_id = ?", poID).
		Order("invoice_date ASC").
		Find(&items).Error
	return items, err
}

// FindInvoicesByProject 查询项目下全部发票
func (r *PORepository) FindInvoicesByProject(ctx context.Context, projectID string) ([]entity.Invoice, error) {
	var items []entity.Invoice
	err := r.db.WithContext(ctx).
		Joins("JOIN purchase_orders po ON po.id = invoices.po_id").
		Where("po.project_id = ?", projectID).
		Order("invoices.invoice_date ASC").
		Find(&items).Error
	return items, err
}

// GenerateNumber 生成PO编号 {项目编码}-PO-{3位}
func (r *PORepository) GenerateNumber(ctx context.Context, projectID, projectCode string) (string, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-PO-%03d", projectCode, count+1), nil
}
