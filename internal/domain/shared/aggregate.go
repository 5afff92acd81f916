package shared

import (
	"time"

	"github.com/google/uuid"
)

// TenantAggregateRoot carries the identity, ownership and optimistic-lock
// version shared by every ledger aggregate, plus the events it has raised
// since it was loaded.
type TenantAggregateRoot struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	events []DomainEvent
}

// NewTenantAggregateRoot starts a new aggregate owned by school tenantID at version 1
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now()
	return TenantAggregateRoot{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetCreatedBy records the author; the nil id (system jobs) leaves it unset
func (a *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	if userID != uuid.Nil {
		a.CreatedBy = &userID
	}
}

func (a *TenantAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion is called once by every mutating aggregate method
func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
	a.UpdatedAt = time.Now()
}

func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent { return a.events }

func (a *TenantAggregateRoot) ClearDomainEvents() { a.events = nil }
