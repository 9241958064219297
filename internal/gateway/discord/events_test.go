package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records which course operations the event router invoked.
type fakeService struct {
	adds, removes, teardowns int
}

func (f *fakeService) ReactionAdd(context.Context, string, string) error {
	f.adds++
	return nil
}

func (f *fakeService) ReactionRemove(context.Context, string, string) error {
	f.removes++
	return nil
}

func (f *fakeService) Teardown(context.Context, string) error {
	f.teardowns++
	return nil
}

func newTestEvents(t *testing.T, svc CourseService) *Events {
	t.Helper()
	events, err := NewEvents(svc, "guild-1", nil)
	require.NoError(t, err)
	return events
}

func reaction(guildID, messageID, userID string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{GuildID: guildID, MessageID: messageID, UserID: userID}
}

func TestReactionEventsRouteToService(t *testing.T) {
	svc := &fakeService{}
	events := newTestEvents(t, svc)

	events.onReactionAdd(nil, &discordgo.MessageReactionAdd{MessageReaction: reaction("guild-1", "m1", "u1")})
	events.onReactionRemove(nil, &discordgo.MessageReactionRemove{MessageReaction: reaction("guild-1", "m1", "u1")})

	assert.Equal(t, 1, svc.adds)
	assert.Equal(t, 1, svc.removes)
}

func TestEventsFromOtherGuildsAreIgnored(t *testing.T) {
	svc := &fakeService{}
	events := newTestEvents(t, svc)

	events.onReactionAdd(nil, &discordgo.MessageReactionAdd{MessageReaction: reaction("guild-2", "m1", "u1")})
	events.onReactionRemove(nil, &discordgo.MessageReactionRemove{MessageReaction: reaction("guild-2", "m1", "u1")})

	assert.Zero(t, svc.adds)
	assert.Zero(t, svc.removes)
}

func TestNonCommandMessagesAreIgnored(t *testing.T) {
	svc := &fakeService{}
	events := newTestEvents(t, svc)

	for _, content := range []string{
		"hello there",
		"$coursebot_delete", // missing the space-terminated prefix
		"delete_all_yespleaseactually",
		"$coursebot unknown_command",
	} {
		events.onMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
			GuildID: "guild-1",
			Content: content,
			Author:  &discordgo.User{ID: "u1"},
		}})
	}

	assert.Zero(t, svc.teardowns)
}

func TestBotMessagesAreIgnored(t *testing.T) {
	svc := &fakeService{}
	events := newTestEvents(t, svc)

	events.onMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID: "guild-1",
		Content: CommandPrefix + "delete_all_yespleaseactually",
		Author:  &discordgo.User{ID: "bot-1", Bot: true},
	}})

	assert.Zero(t, svc.teardowns)
}
