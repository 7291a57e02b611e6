package service

import (
	"github.com/aarnav1729/sample-trials/internal/trial/entity"
	"github.com/aarnav1729/sample-trials/internal/trial/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Actor is the authenticated user performing a command. Identity is threaded
// explicitly into every call; there is no session singleton.
type Actor struct {
	ID   string
	Name string
	Role entity.Role
}

// Services bundles the trial services.
type Services struct {
	Lifecycle *LifecycleService
	Reference *ReferenceService
}

// NewServices creates the trial service bundle.
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, flow entity.FlowConfig) *Services {
	lifecycle := NewLifecycleService(repos.Request, repos.Audit, repos.Reference, db, flow)
	reference := NewReferenceService(repos.Reference, rdb)
	lifecycle.SetReferenceCache(reference)

	return &Services{
		Lifecycle: lifecycle,
		Reference: reference,
	}
}
