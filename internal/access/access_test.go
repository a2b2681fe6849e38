package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLister struct {
	listed map[string]bool
	err    error
	calls  int
}

func (f *fakeLister) IsListed(_ context.Context, email string) (bool, error) {
	f.calls++
	return f.listed[email], f.err
}

func TestGate_AdminsAlwaysPass(t *testing.T) {
	l := &fakeLister{err: errors.New("db down")}
	g := NewGate(l, []string{" Boss@Clinic.in "})

	assert.True(t, g.IsAdmin("boss@clinic.in"))
	assert.True(t, g.IsWhitelisted(context.Background(), "BOSS@clinic.in"))
	assert.Zero(t, l.calls, "admins must not hit the allow-list")
}

func TestGate_ListedUsers(t *testing.T) {
	g := NewGate(&fakeLister{listed: map[string]bool{"dr@clinic.in": true}}, nil)
	assert.True(t, g.IsWhitelisted(context.Background(), "dr@clinic.in"))
	assert.False(t, g.IsWhitelisted(context.Background(), "other@clinic.in"))
	assert.False(t, g.IsWhitelisted(context.Background(), ""))
}

func TestGate_LookupErrorDenies(t *testing.T) {
	g := NewGate(&fakeLister{listed: map[string]bool{"dr@clinic.in": true}, err: errors.New("timeout")}, nil)
	assert.False(t, g.IsWhitelisted(context.Background(), "dr@clinic.in"))
}

func TestGate_NilLister(t *testing.T) {
	g := NewGate(nil, []string{"admin@x.in"})
	assert.True(t, g.IsWhitelisted(context.Background(), "admin@x.in"))
	assert.False(t, g.IsWhitelisted(context.Background(), "user@x.in"))
}
