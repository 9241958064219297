package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coursebot/internal/course/cache"
	"coursebot/internal/course/service"
	"coursebot/internal/course/service/mocks"
	"coursebot/internal/course/store"
	"coursebot/pkg/platform/sentinel"
)

func testRuntime() service.Runtime {
	return service.Runtime{
		GuildID:       "guild-1",
		ListChannelID: "list-1",
		CategoryID:    "cat-1",
		ModRoleID:     "mod-1",
		ReactEmoji:    "re:1234",
		BotUserID:     "bot-1",
		AdminUserID:   "admin-1",
	}
}

type ProvisionSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	store   *store.InMemory
	svc     *service.Service
	ctx     context.Context
}

func TestProvisionSuite(t *testing.T) {
	suite.Run(t, new(ProvisionSuite))
}

func (s *ProvisionSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.store = store.NewInMemory()
	s.ctx = context.Background()

	lookup, err := cache.New(s.store, 16)
	s.Require().NoError(err)
	s.svc, err = service.New(s.store, lookup, s.gateway, testRuntime())
	s.Require().NoError(err)
}

// expectProvision sets up the gateway calls for one full provisioning run of
// CS101 and returns the handles it will hand out.
func (s *ProvisionSuite) expectProvision(messageID, channelID, roleID string) {
	gomock.InOrder(
		s.gateway.EXPECT().SendMessage(gomock.Any(), "list-1", "CS101 - Intro to CS").Return(messageID, nil),
		s.gateway.EXPECT().CreateChannel(gomock.Any(), "cs101").Return(channelID, nil),
		s.gateway.EXPECT().MoveChannelToCategory(gomock.Any(), channelID, "cat-1").Return(nil),
		s.gateway.EXPECT().CreateRole(gomock.Any(), "cs101").Return(roleID, nil),
		s.gateway.EXPECT().AddReaction(gomock.Any(), "list-1", messageID, "re:1234").Return(nil),
		s.gateway.EXPECT().SetChannelReadAccess(gomock.Any(), channelID, "guild-1", false).Return(nil),
		s.gateway.EXPECT().SetChannelReadAccess(gomock.Any(), channelID, roleID, true).Return(nil),
		s.gateway.EXPECT().SetChannelReadAccess(gomock.Any(), channelID, "mod-1", true).Return(nil),
		s.gateway.EXPECT().SetChannelTopic(gomock.Any(), channelID, "Intro to CS").Return(nil),
	)
}

func (s *ProvisionSuite) TestHappyPath() {
	s.expectProvision("m1", "c1", "r1")

	record, err := s.svc.Provision(s.ctx, "cs101", "Intro to CS")
	s.Require().NoError(err)
	s.Equal("CS101", record.Number)
	s.Equal("m1", record.MessageID)
	s.Equal("c1", record.ChannelID)
	s.Equal("r1", record.RoleID)

	stored, err := s.store.FindByNumber(s.ctx, "CS101")
	s.Require().NoError(err)
	s.Equal(record.ID, stored.ID)
}

// TestDuplicateRejectedWithoutSideEffects: the second run for the same number
// must fail before any external call. The gateway mock has no expectations
// registered for it, so any call would fail the test.
func (s *ProvisionSuite) TestDuplicateRejectedWithoutSideEffects() {
	s.expectProvision("m1", "c1", "r1")
	_, err := s.svc.Provision(s.ctx, "CS101", "Intro to CS")
	s.Require().NoError(err)

	_, err = s.svc.Provision(s.ctx, "cs101", "Intro to CS")
	s.Require().ErrorIs(err, service.ErrDuplicateCourse)
}

func (s *ProvisionSuite) TestInputValidation() {
	_, err := s.svc.Provision(s.ctx, "   ", "Intro to CS")
	s.Require().Error(err)

	_, err = s.svc.Provision(s.ctx, "CS101", "")
	s.Require().Error(err)
}

// TestPartialFailureLeavesOrphans pins the known idempotency gap: a failure
// after some resources exist inserts no record, and a retry does not detect
// the orphaned message and channel, it creates fresh ones.
func (s *ProvisionSuite) TestPartialFailureLeavesOrphans() {
	boom := errors.New("permission denied")
	gomock.InOrder(
		s.gateway.EXPECT().SendMessage(gomock.Any(), "list-1", "CS101 - Intro to CS").Return("m1", nil),
		s.gateway.EXPECT().CreateChannel(gomock.Any(), "cs101").Return("c1", nil),
		s.gateway.EXPECT().MoveChannelToCategory(gomock.Any(), "c1", "cat-1").Return(nil),
		s.gateway.EXPECT().CreateRole(gomock.Any(), "cs101").Return("", boom),
	)

	_, err := s.svc.Provision(s.ctx, "CS101", "Intro to CS")
	s.Require().ErrorIs(err, boom)

	_, err = s.store.FindByNumber(s.ctx, "CS101")
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "no record may exist after a partial failure")

	// Retry starts over from the top: a second message and channel are
	// created, the first pair stays orphaned on the platform.
	s.expectProvision("m2", "c2", "r2")
	record, err := s.svc.Provision(s.ctx, "CS101", "Intro to CS")
	s.Require().NoError(err)
	s.Equal("m2", record.MessageID)
	s.Equal("c2", record.ChannelID)
}

func (s *ProvisionSuite) TestExternalFailureAtFirstStep() {
	boom := errors.New("rate limited")
	s.gateway.EXPECT().SendMessage(gomock.Any(), "list-1", "CS101 - Intro to CS").Return("", boom)

	_, err := s.svc.Provision(s.ctx, "CS101", "Intro to CS")
	s.Require().ErrorIs(err, boom)

	records, listErr := s.store.ListAll(s.ctx)
	s.Require().NoError(listErr)
	s.Empty(records)
}
