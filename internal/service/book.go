package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
)

// BookService lida com a lógica de negócios do catálogo
type BookService struct {
	store  repository.Store
	images ImageUploader
}

// NewBookService cria um novo serviço de catálogo
func NewBookService(store repository.Store, images ImageUploader) *BookService {
	return &BookService{
		store:  store,
		images: images,
	}
}

// ListBook cadastra um livro do usuário: a capa sobe para o image store
// primeiro e o livro só é persistido com a URL resultante
func (s *BookService) ListBook(ctx context.Context, ownerID uuid.UUID, title, author, genre string, image io.Reader, contentType string) (*models.Book, error) {
	if title == "" || author == "" || genre == "" {
		return nil, fmt.Errorf("title, author e genre são obrigatórios: %w", apperr.ErrInvalidInput)
	}
	if image == nil {
		return nil, fmt.Errorf("nenhuma imagem enviada: %w", apperr.ErrInvalidInput)
	}

	// O mesmo usuário não pode listar duas vezes o mesmo livro
	exists, err := s.store.BookExists(ctx, ownerID, title, author, genre)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("você já listou este livro: %w", apperr.ErrConflict)
	}

	objectKey := fmt.Sprintf("covers/%s/%s", ownerID, uuid.New())
	imageURL, err := s.images.Upload(ctx, objectKey, image, contentType)
	if err != nil {
		return nil, err
	}

	book := &models.Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		Genre:     genre,
		ImageURL:  imageURL,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// BookUpdate são os campos editáveis de um livro; nil significa "manter"
type BookUpdate struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Genre  *string `json:"genre"`
}

// EditBook aplica uma atualização parcial a um livro do chamador
func (s *BookService) EditBook(ctx context.Context, callerID, bookID uuid.UUID, updates BookUpdate) (*models.Book, error) {
	if updates.Title == nil && updates.Author == nil && updates.Genre == nil {
		return nil, fmt.Errorf("nenhum campo para atualizar: %w", apperr.ErrInvalidInput)
	}

	book, err := s.store.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != callerID {
		return nil, fmt.Errorf("o livro pertence a outro usuário: %w", apperr.ErrForbidden)
	}

	if updates.Title != nil {
		book.Title = *updates.Title
	}
	if updates.Author != nil {
		book.Author = *updates.Author
	}
	if updates.Genre != nil {
		book.Genre = *updates.Genre
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook remove um livro do chamador; as referências dele em listas
// de desejos e solicitações caem junto
func (s *BookService) DeleteBook(ctx context.Context, callerID, bookID uuid.UUID) error {
	book, err := s.store.GetBookByID(ctx, bookID)
	if err != nil {
		return err
	}
	if book.OwnerID != callerID {
		return fmt.Errorf("o livro pertence a outro usuário: %w", apperr.ErrForbidden)
	}
	return s.store.DeleteBook(ctx, bookID)
}

// OwnedBooks lista os livros do usuário
func (s *BookService) OwnedBooks(ctx context.Context, userID uuid.UUID) ([]*models.Book, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.GetBooksByOwner(ctx, userID)
}

// AddWantedBook adiciona um livro existente do catálogo à lista de desejos
func (s *BookService) AddWantedBook(ctx context.Context, userID, bookID uuid.UUID) (*models.Book, error) {
	book, err := s.store.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddWantedBook(ctx, userID, bookID); err != nil {
		return nil, err
	}
	return book, nil
}

// RemoveWantedBook tira um livro da lista de desejos
func (s *BookService) RemoveWantedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	return s.store.RemoveWantedBook(ctx, userID, bookID)
}

// Wishlist lista os livros desejados do usuário
func (s *BookService) Wishlist(ctx context.Context, userID uuid.UUID) ([]*models.Book, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.GetWantedBooks(ctx, userID)
}
