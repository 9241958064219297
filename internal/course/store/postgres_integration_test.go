//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"coursebot/internal/course/models"
	"coursebot/internal/course/store"
	"coursebot/pkg/platform/sentinel"
	"coursebot/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
	// Re-running schema setup must be a no-op.
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "courses"))
}

func newCourse(number string) *models.CourseRecord {
	return &models.CourseRecord{
		Number:    number,
		MessageID: "msg-" + uuid.NewString(),
		ChannelID: "chan-" + uuid.NewString(),
		RoleID:    "role-" + uuid.NewString(),
		Name:      "Course " + number,
	}
}

func (s *PostgresStoreSuite) TestInsertAndLookups() {
	record := newCourse("cs101")
	s.Require().NoError(s.store.Insert(s.ctx, record))
	s.Equal("CS101", record.Number)
	s.NotZero(record.ID)

	found, err := s.store.FindByNumber(s.ctx, "Cs101")
	s.Require().NoError(err)
	s.Equal(record.MessageID, found.MessageID)

	for kind, id := range map[models.LookupKind]string{
		models.LookupMessage: record.MessageID,
		models.LookupChannel: record.ChannelID,
		models.LookupRole:    record.RoleID,
	} {
		found, err := s.store.FindByExternalID(s.ctx, kind, id)
		s.Require().NoError(err, "kind %s", kind)
		s.Equal("CS101", found.Number)
	}

	_, err = s.store.FindByNumber(s.ctx, "CS999")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUniqueIndexes() {
	base := newCourse("CS101")
	s.Require().NoError(s.store.Insert(s.ctx, base))

	for name, mutate := range map[string]func(*models.CourseRecord){
		"number":  func(r *models.CourseRecord) { r.Number = "cs101" },
		"message": func(r *models.CourseRecord) { r.MessageID = base.MessageID },
		"channel": func(r *models.CourseRecord) { r.ChannelID = base.ChannelID },
		"role":    func(r *models.CourseRecord) { r.RoleID = base.RoleID },
	} {
		dup := newCourse("CS" + uuid.NewString()[:6])
		mutate(dup)
		s.Require().ErrorIs(s.store.Insert(s.ctx, dup), sentinel.ErrConflict, "field %s", name)
	}
}

// TestConcurrentInsertSameNumber verifies the database constraint holds under
// racing inserts: exactly one wins.
func (s *PostgresStoreSuite) TestConcurrentInsertSameNumber() {
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(s.ctx, newCourse("CS500"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestListAllAndDeleteAll() {
	numbers := []string{"CS101", "CS201", "CS301"}
	for _, number := range numbers {
		s.Require().NoError(s.store.Insert(s.ctx, newCourse(number)))
	}

	records, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	for i := 1; i < len(records); i++ {
		s.Less(records[i-1].ID, records[i].ID)
	}

	s.Require().NoError(s.store.DeleteAll(s.ctx))

	records, err = s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(records)
}
