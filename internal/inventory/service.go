package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"medstore/m/domain"
	"medstore/m/internal/events"
	"medstore/m/internal/store"
)

// Store is the persistence used by Service. *store.Store implements it.
type Store interface {
	BatchStore
	SupplierByID(ctx context.Context, id int64) (*domain.Supplier, error)
	SupplierByName(ctx context.Context, name string) (*domain.Supplier, error)
	MedicineByName(ctx context.Context, name string) (*domain.Medicine, error)
	MedicinesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Medicine, error)
	InsertStock(ctx context.Context, stock *domain.Stock, items []domain.StockItem) error
	StockRows(ctx context.Context, f store.StockFilter) ([]domain.StockRow, error)
	StockLevels(ctx context.Context) ([]store.MedicineLevel, error)
}

type Options struct {
	LowStockThreshold int64
	ExpiryWindowDays  int
	Now               func() time.Time
}

type Service struct {
	store  Store
	events events.Publisher
	log    *zap.Logger
	opts   Options
}

func NewService(st Store, pub events.Publisher, log *zap.Logger, opts Options) *Service {
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = 10
	}
	if opts.ExpiryWindowDays <= 0 {
		opts.ExpiryWindowDays = 30
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{store: st, events: pub, log: log, opts: opts}
}

func (s *Service) now() time.Time { return s.opts.Now().UTC() }

// CheckAvailability runs Check against the service's store.
func (s *Service) CheckAvailability(ctx context.Context, reqs []Request) error {
	return Check(ctx, s.store, reqs)
}

// Deduct runs the FIFO deduction against the service's store.
func (s *Service) Deduct(ctx context.Context, reqs []Request) (DeductResult, error) {
	res, err := Deduct(ctx, s.store, reqs)
	for _, d := range res.Decrements {
		s.log.Debug("batch decremented",
			zap.Int64("stock_item_id", d.StockItemID),
			zap.Int64("medicine_id", d.MedicineID),
			zap.Int64("taken", d.Taken),
			zap.Int64("left", d.Left))
	}
	return res, err
}
