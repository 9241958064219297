package service

import (
	"context"
	"fmt"
)

// Teardown deletes every provisioned course: per record the announcement
// message, the channel, and the role, each a separate external call, then the
// registry rows in one sweep. Only the configured admin identity may invoke
// it.
//
// Under the default PolicyAbort, the first external failure stops the loop
// and the store keeps all rows, including those whose resources were already
// deleted; the registry stays the inventory of what to reconcile. Under
// PolicyContinue, failures are logged, the loop finishes, and the store is
// cleared regardless.
func (s *Service) Teardown(ctx context.Context, callerID string) error {
	if callerID != s.runtime.AdminUserID {
		return fmt.Errorf("caller %q: %w", callerID, ErrNotAuthorized)
	}

	records, err := s.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}

	for _, record := range records {
		if err := s.teardownRecord(ctx, record.MessageID, record.ChannelID, record.RoleID); err != nil {
			s.logger.ErrorContext(ctx, "could not delete course resources",
				"course", record.Number,
				"error", err,
			)
			if s.teardownPolicy == PolicyAbort {
				return fmt.Errorf("tear down %q: %w", record.Number, err)
			}
			continue
		}
		s.metrics.IncrementTornDown()
	}

	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	s.resolver.Purge()

	s.logger.InfoContext(ctx, "registry torn down", "courses", len(records))
	return nil
}

func (s *Service) teardownRecord(ctx context.Context, messageID, channelID, roleID string) error {
	if err := s.gateway.DeleteMessage(ctx, s.runtime.ListChannelID, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if err := s.gateway.DeleteChannel(ctx, channelID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if err := s.gateway.DeleteRole(ctx, roleID); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
