package favorite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libris/cmd/internal/pgtest"
)

type fixture struct {
	db     pgtest.DB
	store  *PostgresStore
	userID int64
	books  []int64
}

func newFixture(t *testing.T, nBooks int) fixture {
	t.Helper()

	db := pgtest.Open(t)
	s, err := NewPostgresStore(db.Pool, WithSchema(db.Schema))
	require.NoError(t, err)

	ctx := context.Background()
	f := fixture{db: db, store: s}

	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ('fan', 'fan@example.com', 'h') RETURNING id`,
	).Scan(&f.userID))

	for i := range nBooks {
		var id int64
		require.NoError(t, db.Pool.QueryRow(ctx,
			`INSERT INTO books (title, author) VALUES ($1, 'Anon') RETURNING id`,
			string(rune('A'+i)),
		).Scan(&id))
		f.books = append(f.books, id)
	}
	return f
}

func TestPostgresStore_Add_ConflictAndMissingBook(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	ctx := context.Background()

	fav, err := f.store.Add(ctx, f.userID, f.books[0])
	require.NoError(t, err)
	assert.Equal(t, f.books[0], fav.BookID)
	assert.False(t, fav.CreatedAt.IsZero())

	_, err = f.store.Add(ctx, f.userID, f.books[0])
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, f.db.Count(t, "favorites"))

	_, err = f.store.Add(ctx, f.userID, f.books[0]+1000)
	res, ok := MissingResource(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "book", res)
}

func TestPostgresStore_ListExistsRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.store.Add(ctx, f.userID, f.books[0])
	require.NoError(t, err)
	pgtest.MustExec(t, f.db.Pool,
		`UPDATE favorites SET created_at = now() - interval '1 minute' WHERE book_id = $1`, f.books[0])
	_, err = f.store.Add(ctx, f.userID, f.books[1])
	require.NoError(t, err)

	list, err := f.store.List(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, f.books[1], list[0].BookID)
	assert.Equal(t, "B", list[0].Title)

	ok, err := f.store.Exists(ctx, f.userID, f.books[0])
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.store.Remove(ctx, f.userID, f.books[0]))
	ok, err = f.store.Exists(ctx, f.userID, f.books[0])
	require.NoError(t, err)
	assert.False(t, ok)

	err = f.store.Remove(ctx, f.userID, f.books[0])
	res, found := MissingResource(err)
	require.True(t, found)
	assert.Equal(t, "favorite", res)
}

func TestPostgresStore_BookDeletionCascades(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.store.Add(ctx, f.userID, f.books[0])
	require.NoError(t, err)

	pgtest.MustExec(t, f.db.Pool, `DELETE FROM books WHERE id = $1`, f.books[0])

	list, err := f.store.List(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
