package goodsreceipt

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procureflow/procureflow-backend/pkg/db"
	"github.com/procureflow/procureflow-backend/pkg/db/models"
	"github.com/procureflow/procureflow-backend/pkg/enums"
	"github.com/procureflow/procureflow-backend/pkg/errors"
)

// Repository manages persistence for the SVC and SRV document chain.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSVC(ctx context.Context, svc *models.StoreVerificationCertificate) error
	GetSVCByID(ctx context.Context, id uuid.UUID) (*models.StoreVerificationCertificate, error)
	ListSVCsByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.StoreVerificationCertificate, error)
	UpdateSVCStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.SVCStatus) error
	CreateSRV(ctx context.Context, srv *models.StoreReceiveVoucher) error
	GetSRVByID(ctx context.Context, id uuid.UUID) (*models.StoreReceiveVoucher, error)
	// GetSRVBySVCID returns the voucher for a certificate, or CodeNotFound
	// when none exists. At most one can exist per certificate.
	GetSRVBySVCID(ctx context.Context, svcID uuid.UUID) (*models.StoreReceiveVoucher, error)
	UpdateSRVStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.SRVStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a goods-receipt repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSVC(ctx context.Context, svc *models.StoreVerificationCertificate) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *repository) GetSVCByID(ctx context.Context, id uuid.UUID) (*models.StoreVerificationCertificate, error) {
	var svc models.StoreVerificationCertificate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "verification certificate not found")
		}
		return nil, err
	}
	return &svc, nil
}

func (r *repository) ListSVCsByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]models.StoreVerificationCertificate, error) {
	var svcs []models.StoreVerificationCertificate
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at ASC").
		Find(&svcs).Error; err != nil {
		return nil, err
	}
	return svcs, nil
}

func (r *repository) UpdateSVCStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.SVCStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.StoreVerificationCertificate{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeConcurrentMod, "verification certificate changed since it was read")
	}
	return nil
}

func (r *repository) CreateSRV(ctx context.Context, srv *models.StoreReceiveVoucher) error {
	if err := r.db.WithContext(ctx).Create(srv).Error; err != nil {
		// The unique index on svc_id backstops the service-level check
		// when two writers race.
		if db.IsUniqueViolation(err, "svc_id") {
			return errors.Wrap(errors.CodePrecursorNotReady, err, "certificate already has a receive voucher")
		}
		return err
	}
	return nil
}

func (r *repository) GetSRVByID(ctx context.Context, id uuid.UUID) (*models.StoreReceiveVoucher, error) {
	var srv models.StoreReceiveVoucher
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&srv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "receive voucher not found")
		}
		return nil, err
	}
	return &srv, nil
}

func (r *repository) GetSRVBySVCID(ctx context.Context, svcID uuid.UUID) (*models.StoreReceiveVoucher, error) {
	var srv models.StoreReceiveVoucher
	err := r.db.WithContext(ctx).Where("svc_id = ?", svcID).First(&srv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.CodeNotFound, "no receive voucher for certificate")
		}
		return nil, err
	}
	return &srv, nil
}

func (r *repository) UpdateSRVStatus(ctx context.Context, id uuid.UUID, expectedVersion int, status enums.SRVStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.StoreReceiveVoucher{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.CodeConcurrentMod, "receive voucher changed since it was read")
	}
	return nil
}
