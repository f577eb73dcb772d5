package services

import (
	"github.com/genovesjohn191/dealfi/internal/models"
	"github.com/genovesjohn191/dealfi/internal/repositories"
)

// LeadStore is the slice of the lead repository the services depend on.
// Factored out so tests can swap in an in-memory store.
type LeadStore interface {
	Create(lead *models.Lead) error
	CreateWithStake(lead *models.Lead, amount int64) error
	GetByID(id int) (*models.Lead, error)
	UpdateGuarded(lead *models.Lead) error
	SettleStake(lead *models.Lead, unlock, returned int64) error
	Filter(f repositories.LeadFilter) ([]*models.Lead, error)
	CountByStatus(status models.LeadStatus) (int, error)
	CountByType(t models.LeadType) (int, error)
	TotalClosedValue() (float64, error)
}
