package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-directory-api/internal/models"
)

type fakeUserStore struct {
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
	err        error
}

func (f *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type fakeProfileLookup struct {
	profiles []models.StudentProfile
	err      error
}

func (f *fakeProfileLookup) FindByEmailOrPhone(ctx context.Context, identifier string) (*models.StudentProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.profiles {
		p := f.profiles[i]
		if p.Email == identifier || (p.Phone != nil && *p.Phone == identifier) {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func resolverFixture() (*fakeUserStore, *fakeProfileLookup) {
	alice := &models.User{ID: "u1", Username: "1810001", Email: "alice@mail.com", Active: true}
	bob := &models.User{ID: "u2", Username: "1810002", Email: "bob@mail.com", Active: true}
	users := &fakeUserStore{
		byUsername: map[string]*models.User{alice.Username: alice, bob.Username: bob},
		byEmail:    map[string]*models.User{alice.Email: alice, bob.Email: bob},
	}
	profiles := &fakeProfileLookup{profiles: []models.StudentProfile{
		newProfile("p1", "Alice", "A", "1810001", withEmail("alice.profile@mail.com"), withPhone("01700000001")),
		// Bob's phone collides with Alice's username.
		newProfile("p2", "Bob", "B", "1810002", withPhone("1810001")),
		newProfile("p3", "Ghost", "G", "1899999", withPhone("01799999999")),
	}}
	return users, profiles
}

func TestResolveByEachIdentifierKind(t *testing.T) {
	users, profiles := resolverFixture()
	r := NewCredentialResolver(users, profiles, nil)

	cases := map[string]string{
		"1810001":                "u1",
		"bob@mail.com":           "u2",
		"alice.profile@mail.com": "u1",
		"01700000001":            "u1",
	}
	for identifier, want := range cases {
		user, err := r.Resolve(context.Background(), identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, want, user.ID, identifier)
	}
}

func TestResolveUsernameWinsOverProfilePhone(t *testing.T) {
	users, profiles := resolverFixture()
	r := NewCredentialResolver(users, profiles, nil)

	user, err := r.Resolve(context.Background(), "1810001")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestResolveUnknownIdentifier(t *testing.T) {
	users, profiles := resolverFixture()
	r := NewCredentialResolver(users, profiles, nil)

	for _, identifier := range []string{"", "  ", "nobody@mail.com"} {
		_, err := r.Resolve(context.Background(), identifier)
		assert.ErrorIs(t, err, ErrCredentialUnresolved)
		assert.NotErrorIs(t, err, errIntegrityFault)
	}
}

func TestResolveProfileWithoutAccountIsIntegrityFault(t *testing.T) {
	users, profiles := resolverFixture()
	r := NewCredentialResolver(users, profiles, nil)

	_, err := r.Resolve(context.Background(), "01799999999")
	assert.ErrorIs(t, err, ErrCredentialUnresolved)
	assert.ErrorIs(t, err, errIntegrityFault)
}

func TestResolveFailsClosedOnRepositoryErrors(t *testing.T) {
	users, profiles := resolverFixture()
	users.err = errors.New("connection reset")
	r := NewCredentialResolver(users, profiles, nil)
	_, err := r.Resolve(context.Background(), "1810001")
	assert.ErrorIs(t, err, ErrCredentialUnresolved)

	users, profiles = resolverFixture()
	profiles.err = errors.New("timeout")
	r = NewCredentialResolver(users, profiles, nil)
	_, err = r.Resolve(context.Background(), "01700000001")
	assert.ErrorIs(t, err, ErrCredentialUnresolved)
	assert.NotErrorIs(t, err, errIntegrityFault)
}
