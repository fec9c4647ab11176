package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingingSite struct {
	*fakeSite
	err error
}

func (p pingingSite) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	t.Run("site up", func(t *testing.T) {
		u := New(newFakeRepo(), pingingSite{fakeSite: newFakeSite()}, newFakeCache(), nil, nil, nil, Options{})
		stats := u.Health()
		assert.Equal(t, "up", stats["status"])
		assert.Equal(t, "up", stats["site"])
		assert.NotContains(t, stats, "cache")
	})

	t.Run("site down", func(t *testing.T) {
		u := New(newFakeRepo(), pingingSite{fakeSite: newFakeSite(), err: errors.New("refused")}, newFakeCache(), nil, nil, nil, Options{})
		stats := u.Health()
		assert.Equal(t, "down", stats["status"])
		assert.Equal(t, "down: refused", stats["site"])
	})
}
