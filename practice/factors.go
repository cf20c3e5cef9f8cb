package practice

import (
	"fmt"

	"github.com/opoquest/opoquest-api/models"
	"gorm.io/gorm"
)

// FactorStore reads named tuning values from the factors table. No caching:
// admins can retune percentages and windows without a restart, and the
// engine reads each factor at most a handful of times per operation.
type FactorStore struct {
	db *gorm.DB
}

func NewFactorStore(db *gorm.DB) *FactorStore {
	return &FactorStore{db: db}
}

// Get returns the value for name. A missing row is a configuration error,
// wrapped around ErrFactorMissing; the engine never falls back to an
// implicit default.
func (s *FactorStore) Get(tx *gorm.DB, name string) (float64, error) {
	if tx == nil {
		tx = s.db
	}
	var factor models.Factor
	if err := tx.Where("name = ?", name).First(&factor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, fmt.Errorf("%w: %s", ErrFactorMissing, name)
		}
		return 0, err
	}
	return factor.Value, nil
}

// GetWindow reads a factor and validates it as a positive integer window.
func (s *FactorStore) GetWindow(tx *gorm.DB, name string) (int, error) {
	v, err := s.Get(tx, name)
	if err != nil {
		return 0, err
	}
	w := int(v)
	if w <= 0 || float64(w) != v {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %v", ErrFactorMissing, name, v)
	}
	return w, nil
}
