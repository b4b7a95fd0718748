package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores appointments.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByReference(ctx context.Context, reference string) (*Appointment, error)
}

// InMemoryRepository keeps appointments in a map.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byRef map[string]*Appointment
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byRef: make(map[string]*Appointment)}
}

// Create stores appt, assigning its ID, status and creation time.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRef[appt.Reference]; exists {
		return ErrDuplicateReference
	}
	appt.ID = uuid.New().String()
	if appt.Status == "" {
		appt.Status = StatusPending
	}
	appt.CreatedAt = time.Now().UTC()
	stored := *appt
	r.byRef[appt.Reference] = &stored
	return nil
}

func (r *InMemoryRepository) GetByReference(ctx context.Context, reference string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.byRef[reference]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}
