package persistence

import (
	"context"
	"errors"

	"github.com/kanva/portal/internal/domain/sales"
	"github.com/kanva/portal/internal/domain/shared"
	"github.com/kanva/portal/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements sales.CustomerRepository using GORM
type GormCustomerRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewGormCustomerRepository creates a GormCustomerRepository. A chunk size of
// zero uses the default write limit.
func NewGormCustomerRepository(db *gorm.DB, size int) *GormCustomerRepository {
	return &GormCustomerRepository{db: db, chunkSize: chunkSize(size)}
}

// FindAll loads every customer ordered by id
func (r *GormCustomerRepository) FindAll(ctx context.Context) ([]sales.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	customers := make([]sales.Customer, len(rows))
	for i := range rows {
		customers[i] = rows[i].ToDomain()
	}
	return customers, nil
}

// FindByID finds a customer by its id
func (r *GormCustomerRepository) FindByID(ctx context.Context, id string) (*sales.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	c := model.ToDomain()
	return &c, nil
}

// UpsertBatch writes customers keyed by id
func (r *GormCustomerRepository) UpsertBatch(ctx context.Context, customers []*sales.Customer) error {
	rows := make([]*models.CustomerModel, len(customers))
	for i, c := range customers {
		rows[i] = models.CustomerModelFromDomain(c)
	}
	return upsertInChunks(ctx, r.db, rows, r.chunkSize, upsertOn("id"))
}

var _ sales.CustomerRepository = (*GormCustomerRepository)(nil)
