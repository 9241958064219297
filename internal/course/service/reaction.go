package service

import (
	"context"
	"errors"

	"coursebot/internal/course/models"
	"coursebot/pkg/platform/sentinel"
)

// ReactionAdd grants the course role to a user who reacted on that course's
// announcement message. Events for untracked messages are no-ops, as are
// events from the bot's own identity (it seeds the marker reaction itself).
// A user who left the guild between reacting and handling is also a no-op.
func (s *Service) ReactionAdd(ctx context.Context, messageID, userID string) error {
	if userID == s.runtime.BotUserID {
		s.metrics.RecordReaction("add", "self")
		return nil
	}
	return s.syncReaction(ctx, "add", messageID, userID)
}

// ReactionRemove revokes the course role from a user who removed their
// reaction. Unlike ReactionAdd there is no self-identity check: the bot adds
// its seed reaction exactly once and never removes it, so this path has only
// ever seen user events. Kept as-is until product intent says otherwise.
func (s *Service) ReactionRemove(ctx context.Context, messageID, userID string) error {
	return s.syncReaction(ctx, "remove", messageID, userID)
}

func (s *Service) syncReaction(ctx context.Context, action, messageID, userID string) error {
	record, err := s.resolver.FindByExternalID(ctx, models.LookupMessage, messageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordReaction(action, "untracked")
			return nil
		}
		s.metrics.RecordReaction(action, "error")
		return err
	}

	// Membership can lapse between the event firing and us handling it;
	// that is a fact about the user, not a fault, so it is swallowed.
	if err := s.gateway.GuildMember(ctx, userID); err != nil {
		s.metrics.RecordReaction(action, "no_member")
		s.logger.WarnContext(ctx, "reacting user is not a guild member",
			"action", action,
			"user_id", userID,
			"course", record.Number,
			"error", err,
		)
		return nil
	}

	var outcome string
	switch action {
	case "add":
		err = s.gateway.GrantRole(ctx, userID, record.RoleID)
		outcome = "granted"
	default:
		err = s.gateway.RevokeRole(ctx, userID, record.RoleID)
		outcome = "revoked"
	}
	if err != nil {
		s.metrics.RecordReaction(action, "error")
		return err
	}

	s.metrics.RecordReaction(action, outcome)
	s.logger.InfoContext(ctx, "role membership synced",
		"action", action,
		"user_id", userID,
		"course", record.Number,
		"role_id", record.RoleID,
	)
	return nil
}
