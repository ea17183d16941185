package service

import (
	"context"
	"testing"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/mail"
	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExchangeService(store *repository.InMemoryStore) *ExchangeService {
	return NewExchangeService(store, mail.LogMailer{})
}

func TestSendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("cria solicitação pendente quando o dono confere", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := newExchangeService(store)

		alice := seedUser(t, store, "alice")
		bob := seedUser(t, store, "bob")
		book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

		req, err := svc.SendRequest(ctx, alice.ID, book.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, req.Status)
		assert.Equal(t, alice.ID, req.FromUserID)
		assert.Equal(t, bob.ID, req.ToUserID)

		stored, err := store.GetRequestByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("dono divergente é InvalidInput, nada é persistido", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := newExchangeService(store)

		alice := seedUser(t, store, "alice")
		bob := seedUser(t, store, "bob")
		carol := seedUser(t, store, "carol")
		book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

		// O livro existe, mas pertence a Bob, não a Carol
		_, err := svc.SendRequest(ctx, alice.ID, book.ID, carol.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)

		outgoing, err := svc.OutgoingRequests(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, outgoing)
	})

	t.Run("livro inexistente é InvalidInput", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := newExchangeService(store)

		alice := seedUser(t, store, "alice")
		bob := seedUser(t, store, "bob")

		_, err := svc.SendRequest(ctx, alice.ID, uuid.New(), bob.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("solicitações pendentes duplicadas são permitidas", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := newExchangeService(store)

		alice := seedUser(t, store, "alice")
		bob := seedUser(t, store, "bob")
		book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

		_, err := svc.SendRequest(ctx, alice.ID, book.ID, bob.ID)
		require.NoError(t, err)
		_, err = svc.SendRequest(ctx, alice.ID, book.ID, bob.ID)
		require.NoError(t, err)

		outgoing, err := svc.OutgoingRequests(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, outgoing, 2)
	})
}

func TestRespondRequest(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*repository.InMemoryStore, *ExchangeService, *models.User, *models.User, *models.Book, *models.ExchangeRequest) {
		store := repository.NewInMemoryStore()
		svc := newExchangeService(store)

		alice := seedUser(t, store, "alice")
		bob := seedUser(t, store, "bob")
		book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

		req, err := svc.SendRequest(ctx, alice.ID, book.ID, bob.ID)
		require.NoError(t, err)
		return store, svc, alice, bob, book, req
	}

	t.Run("aceitação transfere a posse por completo", func(t *testing.T) {
		store, svc, alice, bob, book, req := setup(t)

		require.NoError(t, svc.RespondRequest(ctx, bob.ID, req.ID, models.StatusAccepted))

		// As três pós-condições valem simultaneamente
		transferred, err := store.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, transferred.OwnerID)

		aliceBooks, err := store.GetBooksByOwner(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, aliceBooks, 1)
		assert.Equal(t, book.ID, aliceBooks[0].ID)

		bobBooks, err := store.GetBooksByOwner(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, bobBooks)

		resolved, err := store.GetRequestByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, resolved.Status)
	})

	t.Run("rejeição só muda o status", func(t *testing.T) {
		store, svc, _, bob, book, req := setup(t)

		require.NoError(t, svc.RespondRequest(ctx, bob.ID, req.ID, models.StatusRejected))

		unchanged, err := store.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, unchanged.OwnerID)

		resolved, err := store.GetRequestByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, resolved.Status)
	})

	t.Run("segunda resposta à mesma solicitação é InvalidInput", func(t *testing.T) {
		_, svc, _, bob, _, req := setup(t)

		require.NoError(t, svc.RespondRequest(ctx, bob.ID, req.ID, models.StatusRejected))
		err := svc.RespondRequest(ctx, bob.ID, req.ID, models.StatusRejected)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("qualquer chamador que não seja o destinatário é Forbidden", func(t *testing.T) {
		store, svc, alice, _, _, req := setup(t)
		carol := seedUser(t, store, "carol")

		// Nem o solicitante nem terceiros podem responder
		err := svc.RespondRequest(ctx, alice.ID, req.ID, models.StatusAccepted)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		err = svc.RespondRequest(ctx, carol.ID, req.ID, models.StatusAccepted)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("status desconhecido é InvalidInput sem mudança de estado", func(t *testing.T) {
		store, svc, _, bob, book, req := setup(t)

		err := svc.RespondRequest(ctx, bob.ID, req.ID, "maybe")
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)

		unchanged, err := store.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, unchanged.OwnerID)

		stillPending, err := store.GetRequestByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stillPending.Status)
	})

	t.Run("solicitação inexistente é InvalidInput", func(t *testing.T) {
		_, svc, _, bob, _, _ := setup(t)

		err := svc.RespondRequest(ctx, bob.ID, uuid.New(), models.StatusAccepted)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})

	t.Run("duas aceitações sobre o mesmo livro: a segunda conflita", func(t *testing.T) {
		store := repository.NewInMemoryStore()
		svc := newExchangeService(store)

		alice := seedUser(t, store, "alice")
		carol := seedUser(t, store, "carol")
		bob := seedUser(t, store, "bob")
		book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

		reqAlice, err := svc.SendRequest(ctx, alice.ID, book.ID, bob.ID)
		require.NoError(t, err)
		reqCarol, err := svc.SendRequest(ctx, carol.ID, book.ID, bob.ID)
		require.NoError(t, err)

		require.NoError(t, svc.RespondRequest(ctx, bob.ID, reqAlice.ID, models.StatusAccepted))

		// Bob já não é o dono: a transferência condicional não encontra
		// o dono esperado e nada é sobrescrito
		err = svc.RespondRequest(ctx, bob.ID, reqCarol.ID, models.StatusAccepted)
		assert.ErrorIs(t, err, apperr.ErrConflict)

		final, err := store.GetBookByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, final.OwnerID)

		// A solicitação de Carol continua pendente, não corrompida
		pending, err := store.GetRequestByID(ctx, reqCarol.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, pending.Status)
	})
}

func TestRequestListings(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	svc := newExchangeService(store)

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	book := seedBook(t, store, bob, "Duna", "Herbert", "Ficção Científica")

	req, err := svc.SendRequest(ctx, alice.ID, book.ID, bob.ID)
	require.NoError(t, err)

	t.Run("saída popula livro e destinatário", func(t *testing.T) {
		outgoing, err := svc.OutgoingRequests(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, outgoing, 1)
		assert.Equal(t, req.ID, outgoing[0].ID)
		assert.Equal(t, book.Title, outgoing[0].Book.Title)
		require.NotNil(t, outgoing[0].ToUser)
		assert.Equal(t, "bob", outgoing[0].ToUser.Username)
		assert.Nil(t, outgoing[0].FromUser)
	})

	t.Run("entrada popula livro e solicitante", func(t *testing.T) {
		incoming, err := svc.IncomingRequests(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, incoming, 1)
		require.NotNil(t, incoming[0].FromUser)
		assert.Equal(t, "alice", incoming[0].FromUser.Username)
	})

	t.Run("listas de quem não participa ficam vazias", func(t *testing.T) {
		outgoing, err := svc.OutgoingRequests(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, outgoing)
	})
}
