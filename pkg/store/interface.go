package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mcclellann/moneyflow/pkg/models"
)

// ErrPlanNotFound is returned when no plan has the requested ID.
var ErrPlanNotFound = errors.New("plan not found")

// Storage defines the interface for database operations on saved plans and their runs.
type Storage interface {
	CreatePlan(plan *models.SavedPlan) error
	GetPlan(id uuid.UUID) (*models.SavedPlan, error)
	UpdatePlan(plan *models.SavedPlan) error
	DeletePlan(id uuid.UUID) error
	GetAllPlans() ([]*models.SavedPlan, error)

	CreateRun(run *models.Run) error
	GetRunsForPlan(planID uuid.UUID) ([]*models.Run, error)

	Close() error
}
