package service

import (
	"context"
	"strings"
	"testing"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBook(t *testing.T) {
	ctx := context.Background()

	t.Run("sobe a imagem e persiste o livro com a URL", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		uploader := &fakeUploader{}
		svc := NewBookService(store, uploader)

		alice := seedUser(t, store, "alice")
		image := strings.NewReader("bytes-da-capa")

		book, err := svc.ListBook(ctx, alice.ID, "Duna", "Herbert", "Ficção Científica", image, "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, 1, uploader.calls)
		assert.Contains(t, book.ImageURL, "covers/"+alice.ID.String())
		assert.Equal(t, alice.ID, book.OwnerID)

		owned, err := store.GetBooksByOwner(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, owned, 1)
	})

	t.Run("campos obrigatórios ausentes são InvalidInput", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := NewBookService(store, &fakeUploader{})
		alice := seedUser(t, store, "alice")

		_, err := svc.ListBook(ctx, alice.ID, "Duna", "", "Ficção Científica", strings.NewReader("x"), "image/jpeg")
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("listagem repetida do mesmo livro é Conflict", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		uploader := &fakeUploader{}
		svc := NewBookService(store, uploader)
		alice := seedUser(t, store, "alice")

		_, err := svc.ListBook(ctx, alice.ID, "Duna", "Herbert", "Ficção Científica", strings.NewReader("x"), "image/jpeg")
		require.NoError(t, err)

		_, err = svc.ListBook(ctx, alice.ID, "Duna", "Herbert", "Ficção Científica", strings.NewReader("x"), "image/jpeg")
		assert.ErrorIs(t, err, apperr.ErrConflict)
		// O upload nem chega a acontecer na listagem duplicada
		assert.Equal(t, 1, uploader.calls)
	})

	t.Run("falha de upload não persiste o livro", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := NewBookService(store, &fakeUploader{fail: true})
		alice := seedUser(t, store, "alice")

		_, err := svc.ListBook(ctx, alice.ID, "Duna", "Herbert", "Ficção Científica", strings.NewReader("x"), "image/jpeg")
		require.Error(t, err)

		owned, err := store.GetBooksByOwner(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, owned)
	})
}

func TestEditBook(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	svc := NewBookService(store, &fakeUploader{})

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	book := seedBook(t, store, alice, "Duna", "Herbert", "Ficção")

	strPtr := func(s string) *string { return &s }

	t.Run("atualização parcial mantém os campos omitidos", func(t *testing.T) {
		updated, err := svc.EditBook(ctx, alice.ID, book.ID, BookUpdate{Genre: strPtr("Ficção Científica")})
		require.NoError(t, err)
		assert.Equal(t, "Duna", updated.Title)
		assert.Equal(t, "Ficção Científica", updated.Genre)
	})

	t.Run("sem campos para atualizar é InvalidInput", func(t *testing.T) {
		_, err := svc.EditBook(ctx, alice.ID, book.ID, BookUpdate{})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("editar livro de outro usuário é Forbidden", func(t *testing.T) {
		_, err := svc.EditBook(ctx, bob.ID, book.ID, BookUpdate{Title: strPtr("Roubado")})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("livro inexistente é NotFound", func(t *testing.T) {
		_, err := svc.EditBook(ctx, alice.ID, uuid.New(), BookUpdate{Title: strPtr("x")})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestDeleteBook(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	svc := NewBookService(store, &fakeUploader{})

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	book := seedBook(t, store, alice, "Duna", "Herbert", "Ficção Científica")

	// Bob deseja o livro de Alice; a remoção precisa limpar a referência
	seedWanted(t, store, bob, book)

	t.Run("remover livro de outro usuário é Forbidden", func(t *testing.T) {
		err := svc.DeleteBook(ctx, bob.ID, book.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("remoção apaga o livro e a referência na lista de desejos", func(t *testing.T) {
		require.NoError(t, svc.DeleteBook(ctx, alice.ID, book.ID))

		_, err := store.GetBookByID(ctx, book.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		wanted, err := store.GetWantedBooks(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, wanted)
	})

	t.Run("remoção repetida é NotFound", func(t *testing.T) {
		err := svc.DeleteBook(ctx, alice.ID, book.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestWishlist(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	svc := NewBookService(store, &fakeUploader{})

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

	t.Run("adiciona livro existente do catálogo", func(t *testing.T) {
		added, err := svc.AddWantedBook(ctx, alice.ID, book.ID)
		require.NoError(t, err)
		assert.Equal(t, book.ID, added.ID)

		wishlist, err := svc.Wishlist(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, wishlist, 1)
		assert.Equal(t, book.ID, wishlist[0].ID)
	})

	t.Run("livro já desejado é Conflict", func(t *testing.T) {
		_, err := svc.AddWantedBook(ctx, alice.ID, book.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("livro inexistente é NotFound", func(t *testing.T) {
		_, err := svc.AddWantedBook(ctx, alice.ID, uuid.New())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("remove da lista de desejos", func(t *testing.T) {
		require.NoError(t, svc.RemoveWantedBook(ctx, alice.ID, book.ID))

		wishlist, err := svc.Wishlist(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, wishlist)

		// Remoção repetida
		err = svc.RemoveWantedBook(ctx, alice.ID, book.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
