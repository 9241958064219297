package store

import (
	"context"
	"fmt"
	"sync"

	"coursebot/internal/course/models"
	"coursebot/pkg/platform/sentinel"
)

// InMemory keeps the registry in process memory. It mirrors the PostgreSQL
// store's semantics, including the four unique indexes, so services and tests
// can run against either.
type InMemory struct {
	mu      sync.RWMutex
	nextID  int64
	records []*models.CourseRecord

	byNumber  map[string]*models.CourseRecord
	byMessage map[string]*models.CourseRecord
	byChannel map[string]*models.CourseRecord
	byRole    map[string]*models.CourseRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID:    1,
		byNumber:  make(map[string]*models.CourseRecord),
		byMessage: make(map[string]*models.CourseRecord),
		byChannel: make(map[string]*models.CourseRecord),
		byRole:    make(map[string]*models.CourseRecord),
	}
}

func (s *InMemory) Insert(_ context.Context, record *models.CourseRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	number := models.NormalizeNumber(record.Number)
	if _, ok := s.byNumber[number]; ok {
		return fmt.Errorf("course number %q: %w", number, sentinel.ErrConflict)
	}
	if _, ok := s.byMessage[record.MessageID]; ok {
		return fmt.Errorf("message id %q: %w", record.MessageID, sentinel.ErrConflict)
	}
	if _, ok := s.byChannel[record.ChannelID]; ok {
		return fmt.Errorf("channel id %q: %w", record.ChannelID, sentinel.ErrConflict)
	}
	if _, ok := s.byRole[record.RoleID]; ok {
		return fmt.Errorf("role id %q: %w", record.RoleID, sentinel.ErrConflict)
	}

	stored := *record
	stored.ID = s.nextID
	stored.Number = number
	s.nextID++

	ref := &stored
	s.records = append(s.records, ref)
	s.byNumber[number] = ref
	s.byMessage[stored.MessageID] = ref
	s.byChannel[stored.ChannelID] = ref
	s.byRole[stored.RoleID] = ref

	record.ID = stored.ID
	record.Number = number
	return nil
}

func (s *InMemory) FindByNumber(_ context.Context, number string) (*models.CourseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ref, ok := s.byNumber[models.NormalizeNumber(number)]; ok {
		copied := *ref
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByExternalID(_ context.Context, kind models.LookupKind, id string) (*models.CourseRecord, error) {
	var index map[string]*models.CourseRecord
	switch kind {
	case models.LookupMessage:
		index = s.byMessage
	case models.LookupChannel:
		index = s.byChannel
	case models.LookupRole:
		index = s.byRole
	default:
		return nil, fmt.Errorf("lookup kind %q: %w", kind, sentinel.ErrInvalidState)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if ref, ok := index[id]; ok {
		copied := *ref
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.CourseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// records is append-only and IDs are assigned monotonically, so insertion
	// order is already surrogate-key order.
	out := make([]*models.CourseRecord, 0, len(s.records))
	for _, ref := range s.records {
		copied := *ref
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byNumber = make(map[string]*models.CourseRecord)
	s.byMessage = make(map[string]*models.CourseRecord)
	s.byChannel = make(map[string]*models.CourseRecord)
	s.byRole = make(map[string]*models.CourseRecord)
	return nil
}
