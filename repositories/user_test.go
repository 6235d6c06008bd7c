package repositories

import (
	"room-lab/errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	repository := NewUserRepository(db)

	// When an account is created
	id, err := repository.CreateUser("alice@example.com", "Alice", "hash")
	req.NoError(err)
	req.NotEmpty(id)

	// Then it is reachable by email and by id
	byEmail, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, byEmail.ID)
	req.Equal("Alice", byEmail.Name)
	req.Equal([]string{"user"}, byEmail.Roles)

	byID, err := repository.GetUserByID(id)
	req.NoError(err)
	req.Equal(byEmail, byID)
}

func TestUserRepository_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	repository := NewUserRepository(db)

	_, err = repository.CreateUser("alice@example.com", "Alice", "hash")
	req.NoError(err)
	_, err = repository.CreateUser("alice@example.com", "Other", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_User(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	repository := NewUserRepository(db)

	_, err = repository.GetUserByEmail("nobody@example.com")
	req.ErrorIs(err, badger.ErrKeyNotFound)
	_, err = repository.GetUserByID("nope")
	req.ErrorIs(err, badger.ErrKeyNotFound)
}
