package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"coursebot/internal/course/cache"
	"coursebot/internal/course/service"
	"coursebot/internal/course/service/mocks"
	"coursebot/internal/course/store"
)

func TestNewRequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	st := store.NewInMemory()
	lookup, err := cache.New(st, 16)
	require.NoError(t, err)

	_, err = service.New(nil, lookup, gateway, testRuntime())
	assert.Error(t, err)

	_, err = service.New(st, nil, gateway, testRuntime())
	assert.Error(t, err)

	_, err = service.New(st, lookup, nil, testRuntime())
	assert.Error(t, err)
}

// TestNewRejectsIncompleteRuntime: a runtime with any unresolved handle is
// refused up front instead of failing on first use.
func TestNewRejectsIncompleteRuntime(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	st := store.NewInMemory()
	lookup, err := cache.New(st, 16)
	require.NoError(t, err)

	for name, mutate := range map[string]func(*service.Runtime){
		"guild":    func(r *service.Runtime) { r.GuildID = "" },
		"list":     func(r *service.Runtime) { r.ListChannelID = "" },
		"category": func(r *service.Runtime) { r.CategoryID = "" },
		"mod role": func(r *service.Runtime) { r.ModRoleID = "" },
		"emoji":    func(r *service.Runtime) { r.ReactEmoji = "" },
		"bot user": func(r *service.Runtime) { r.BotUserID = "" },
		"admin":    func(r *service.Runtime) { r.AdminUserID = "" },
	} {
		t.Run(name, func(t *testing.T) {
			runtime := testRuntime()
			mutate(&runtime)
			_, err := service.New(st, lookup, gateway, runtime)
			assert.Error(t, err)
		})
	}
}
