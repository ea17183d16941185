package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/models"

	"github.com/google/uuid"
)

// InMemoryStore é uma implementação em-memória da interface Store.
// O mutex único serializa as mutações multi-entidade (transferência de
// posse), cumprindo o mesmo papel da transação no PostgresStore.
type InMemoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*models.User
	usersByEmail map[string]*models.User
	books        map[uuid.UUID]*models.Book
	wanted       map[uuid.UUID][]uuid.UUID
	requests     map[uuid.UUID]*models.ExchangeRequest
}

// NewInMemoryStore cria uma nova instância do store em memória
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]*models.User),
		books:        make(map[uuid.UUID]*models.Book),
		wanted:       make(map[uuid.UUID][]uuid.UUID),
		requests:     make(map[uuid.UUID]*models.ExchangeRequest),
	}
}

// --- UserStore ---

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[user.Email]; exists {
		return fmt.Errorf("e-mail '%s' já registrado: %w", user.Email, apperr.ErrConflict)
	}

	u := *user
	s.users[u.ID] = &u
	s.usersByEmail[u.Email] = &u
	return nil
}

func (s *InMemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, fmt.Errorf("usuário não encontrado: %w", apperr.ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (s *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByEmail[email]
	if !exists {
		return nil, fmt.Errorf("usuário não encontrado: %w", apperr.ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (s *InMemoryStore) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token != "" {
		for _, user := range s.users {
			if user.VerificationToken == token {
				u := *user
				return &u, nil
			}
		}
	}
	return nil, fmt.Errorf("usuário não encontrado: %w", apperr.ErrNotFound)
}

func (s *InMemoryStore) MarkUserVerified(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return fmt.Errorf("usuário não encontrado: %w", apperr.ErrNotFound)
	}
	user.Verified = true
	user.VerificationToken = ""
	return nil
}

func (s *InMemoryStore) CountOtherUsers(ctx context.Context, excludeID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for id := range s.users {
		if id != excludeID {
			count++
		}
	}
	return count, nil
}

// --- BookStore ---

func (s *InMemoryStore) CreateBook(ctx context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := *book
	s.books[b.ID] = &b
	return nil
}

func (s *InMemoryStore) GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, exists := s.books[id]
	if !exists {
		return nil, fmt.Errorf("livro não encontrado: %w", apperr.ErrNotFound)
	}
	b := *book
	return &b, nil
}

// sortedBooks devolve cópias em ordem de criação, para resultados
// determinísticos apesar da iteração aleatória do map
func sortedBooks(in []*models.Book) []*models.Book {
	sort.Slice(in, func(i, j int) bool {
		if in[i].CreatedAt.Equal(in[j].CreatedAt) {
			return in[i].ID.String() < in[j].ID.String()
		}
		return in[i].CreatedAt.Before(in[j].CreatedAt)
	})
	return in
}

func (s *InMemoryStore) GetBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := []*models.Book{}
	for _, book := range s.books {
		if book.OwnerID == ownerID {
			b := *book
			books = append(books, &b)
		}
	}
	return sortedBooks(books), nil
}

func (s *InMemoryStore) UpdateBook(ctx context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.books[book.ID]
	if !exists {
		return fmt.Errorf("livro não encontrado: %w", apperr.ErrNotFound)
	}
	stored.Title = book.Title
	stored.Author = book.Author
	stored.Genre = book.Genre
	stored.ImageURL = book.ImageURL
	return nil
}

func (s *InMemoryStore) DeleteBook(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[id]; !exists {
		return fmt.Errorf("livro não encontrado: %w", apperr.ErrNotFound)
	}
	delete(s.books, id)

	// Cascata: remove das listas de desejos e das solicitações
	for userID, ids := range s.wanted {
		kept := ids[:0]
		for _, bookID := range ids {
			if bookID != id {
				kept = append(kept, bookID)
			}
		}
		s.wanted[userID] = kept
	}
	for reqID, req := range s.requests {
		if req.BookID == id {
			delete(s.requests, reqID)
		}
	}
	return nil
}

func (s *InMemoryStore) BookExists(ctx context.Context, ownerID uuid.UUID, title, author, genre string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, book := range s.books {
		if book.OwnerID == ownerID && book.Title == title && book.Author == author && book.Genre == genre {
			return true, nil
		}
	}
	return false, nil
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (s *InMemoryStore) withOwner(book *models.Book) *models.BookWithOwner {
	b := &models.BookWithOwner{Book: *book}
	if owner, ok := s.users[book.OwnerID]; ok {
		b.OwnerUsername = owner.Username
	}
	return b
}

func (s *InMemoryStore) SearchBooks(ctx context.Context, excludeOwner uuid.UUID, filters models.SearchFilters) ([]*models.BookWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := []*models.Book{}
	for _, book := range s.books {
		if book.OwnerID == excludeOwner {
			continue
		}
		// AND entre os filtros presentes, substring case-insensitive
		if containsFold(book.Title, filters.Name) &&
			containsFold(book.Author, filters.Author) &&
			containsFold(book.Genre, filters.Genre) {
			candidates = append(candidates, book)
		}
	}

	books := []*models.BookWithOwner{}
	for _, book := range sortedBooks(candidates) {
		books = append(books, s.withOwner(book))
	}
	return books, nil
}

func (s *InMemoryStore) GetBooksNotOwnedBy(ctx context.Context, userID uuid.UUID) ([]*models.BookWithOwner, error) {
	return s.SearchBooks(ctx, userID, models.SearchFilters{})
}

func (s *InMemoryStore) FindMatches(ctx context.Context, userID uuid.UUID, filters models.MatchFilters) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wantedBooks := []*models.Book{}
	for _, bookID := range s.wanted[userID] {
		if book, ok := s.books[bookID]; ok {
			wantedBooks = append(wantedBooks, book)
		}
	}

	otherBooks := []*models.Book{}
	for _, book := range s.books {
		if book.OwnerID != userID {
			otherBooks = append(otherBooks, book)
		}
	}
	sortedBooks(otherBooks)

	matches := []*models.Match{}

	for _, wanted := range wantedBooks {
		for _, owned := range otherBooks {
			// OR entre os três atributos, igualdade sem diferenciar caixa
			isMatch := strings.EqualFold(wanted.Title, owned.Title) ||
				strings.EqualFold(wanted.Author, owned.Author) ||
				strings.EqualFold(wanted.Genre, owned.Genre)
			if !isMatch {
				continue
			}

			if !containsFold(owned.Title, filters.Title) ||
				!containsFold(owned.Author, filters.Author) ||
				!containsFold(owned.Genre, filters.Genre) {
				continue
			}

			ownerName := ""
			if owner, ok := s.users[owned.OwnerID]; ok {
				ownerName = owner.Username
			}
			matches = append(matches, &models.Match{
				MatchedUser: ownerName,
				MatchedBook: models.MatchedBook{
					Title:    owned.Title,
					Author:   owned.Author,
					Genre:    owned.Genre,
					ImageURL: owned.ImageURL,
					ID:       owned.ID,
				},
			})
		}
	}

	return matches, nil
}

// --- WishlistStore ---

func (s *InMemoryStore) AddWantedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.wanted[userID] {
		if id == bookID {
			return fmt.Errorf("livro já está na lista de desejos: %w", apperr.ErrConflict)
		}
	}
	s.wanted[userID] = append(s.wanted[userID], bookID)
	return nil
}

func (s *InMemoryStore) RemoveWantedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.wanted[userID]
	for i, id := range ids {
		if id == bookID {
			s.wanted[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("livro não está na lista de desejos: %w", apperr.ErrNotFound)
}

func (s *InMemoryStore) GetWantedBooks(ctx context.Context, userID uuid.UUID) ([]*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := []*models.Book{}
	for _, bookID := range s.wanted[userID] {
		if book, ok := s.books[bookID]; ok {
			b := *book
			books = append(books, &b)
		}
	}
	return books, nil
}

// --- ExchangeStore ---

func (s *InMemoryStore) CreateRequest(ctx context.Context, req *models.ExchangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *req
	s.requests[r.ID] = &r
	return nil
}

func (s *InMemoryStore) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.ExchangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, exists := s.requests[id]
	if !exists {
		return nil, fmt.Errorf("solicitação não encontrada: %w", apperr.ErrNotFound)
	}
	r := *req
	return &r, nil
}

func (s *InMemoryStore) listRequests(match func(*models.ExchangeRequest) bool, populateTo bool) []*models.ExchangeRequestDetail {
	reqs := []*models.ExchangeRequest{}
	for _, req := range s.requests {
		if match(req) {
			reqs = append(reqs, req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].ID.String() < reqs[j].ID.String()
		}
		return reqs[j].CreatedAt.Before(reqs[i].CreatedAt)
	})

	details := []*models.ExchangeRequestDetail{}
	for _, req := range reqs {
		book, ok := s.books[req.BookID]
		if !ok {
			continue
		}
		d := &models.ExchangeRequestDetail{
			ID:        req.ID,
			Book:      *book,
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
		}
		otherID := req.FromUserID
		if populateTo {
			otherID = req.ToUserID
		}
		if other, ok := s.users[otherID]; ok {
			summary := &models.UserSummary{ID: other.ID, Username: other.Username}
			if populateTo {
				d.ToUser = summary
			} else {
				d.FromUser = summary
			}
		}
		details = append(details, d)
	}
	return details
}

func (s *InMemoryStore) ListRequestsFromUser(ctx context.Context, fromUserID uuid.UUID) ([]*models.ExchangeRequestDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listRequests(func(r *models.ExchangeRequest) bool {
		return r.FromUserID == fromUserID
	}, true), nil
}

func (s *InMemoryStore) ListRequestsToUser(ctx context.Context, toUserID uuid.UUID) ([]*models.ExchangeRequestDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listRequests(func(r *models.ExchangeRequest) bool {
		return r.ToUserID == toUserID
	}, false), nil
}

func (s *InMemoryStore) RejectRequest(ctx context.Context, requestID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, exists := s.requests[requestID]
	if !exists || req.Status != models.StatusPending {
		return fmt.Errorf("solicitação inexistente ou já processada: %w", apperr.ErrInvalidInput)
	}
	req.Status = models.StatusRejected
	return nil
}

// AcceptRequest espelha a transação do PostgresStore: sob o mesmo lock,
// o dono só é trocado se ainda for o esperado, e o status só muda se a
// solicitação ainda estiver pendente. Nada é aplicado pela metade.
func (s *InMemoryStore) AcceptRequest(ctx context.Context, requestID, bookID, fromUserID, toUserID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, exists := s.books[bookID]
	if !exists || book.OwnerID != toUserID {
		return fmt.Errorf("o livro não pertence mais ao usuário esperado: %w", apperr.ErrConflict)
	}

	req, exists := s.requests[requestID]
	if !exists || req.Status != models.StatusPending {
		return fmt.Errorf("solicitação inexistente ou já processada: %w", apperr.ErrInvalidInput)
	}

	book.OwnerID = fromUserID
	req.Status = models.StatusAccepted
	return nil
}
