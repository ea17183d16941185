package repository

import (
	"context"

	"bookswap-backend/internal/models"

	"github.com/google/uuid"
)

// UserStore define a interface para operações de usuário no DB
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	// MarkUserVerified liga a flag verified e invalida o token (uso único)
	MarkUserVerified(ctx context.Context, id uuid.UUID) error
	CountOtherUsers(ctx context.Context, excludeID uuid.UUID) (int, error)
}

// BookStore define a interface para operações de catálogo no DB
type BookStore interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Book, error)
	UpdateBook(ctx context.Context, book *models.Book) error
	// DeleteBook remove o livro e, em cascata, as referências em listas
	// de desejos e solicitações de troca
	DeleteBook(ctx context.Context, id uuid.UUID) error
	// BookExists verifica listagem duplicada (título+autor+gênero+dono)
	BookExists(ctx context.Context, ownerID uuid.UUID, title, author, genre string) (bool, error)
	// SearchBooks busca por substring case-insensitive (AND entre filtros
	// presentes) excluindo os livros do próprio chamador
	SearchBooks(ctx context.Context, excludeOwner uuid.UUID, filters models.SearchFilters) ([]*models.BookWithOwner, error)
	// GetBooksNotOwnedBy retorna todos os livros de outros usuários
	GetBooksNotOwnedBy(ctx context.Context, userID uuid.UUID) ([]*models.BookWithOwner, error)
	// FindMatches cruza a lista de desejos do usuário com os livros dos
	// demais usuários: um par casa quando título, autor OU gênero são
	// iguais (comparação case-insensitive); os filtros opcionais são
	// aplicados por substring sobre o livro possuído. Sem deduplicação.
	FindMatches(ctx context.Context, userID uuid.UUID, filters models.MatchFilters) ([]*models.Match, error)
}

// WishlistStore define a interface da lista de desejos
type WishlistStore interface {
	AddWantedBook(ctx context.Context, userID, bookID uuid.UUID) error
	RemoveWantedBook(ctx context.Context, userID, bookID uuid.UUID) error
	GetWantedBooks(ctx context.Context, userID uuid.UUID) ([]*models.Book, error)
}

// ExchangeStore define a interface das solicitações de troca
type ExchangeStore interface {
	CreateRequest(ctx context.Context, req *models.ExchangeRequest) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.ExchangeRequest, error)
	ListRequestsFromUser(ctx context.Context, fromUserID uuid.UUID) ([]*models.ExchangeRequestDetail, error)
	ListRequestsToUser(ctx context.Context, toUserID uuid.UUID) ([]*models.ExchangeRequestDetail, error)
	// RejectRequest muda pending→rejected; falha se já resolvida
	RejectRequest(ctx context.Context, requestID uuid.UUID) error
	// AcceptRequest executa a transferência de posse em uma única
	// transação: troca o dono do livro condicionada ao dono esperado
	// (ErrConflict se mudou) e muda pending→accepted. Nunca deixa
	// estado parcial visível.
	AcceptRequest(ctx context.Context, requestID, bookID, fromUserID, toUserID uuid.UUID) error
}

// Store é uma interface agregada para todas as operações de store.
// Facilita a injeção de dependência.
type Store interface {
	UserStore
	BookStore
	WishlistStore
	ExchangeStore
}
