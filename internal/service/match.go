package service

import (
	"context"
	"fmt"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
)

// MatchService implementa o motor de correspondências e recomendações
type MatchService struct {
	store repository.Store
}

// NewMatchService cria um novo serviço de correspondências
func NewMatchService(store repository.Store) *MatchService {
	return &MatchService{store: store}
}

// FindPotentialMatches cruza a lista de desejos do usuário com os livros
// dos demais usuários. Um resultado vazio não é erro: a ausência de
// correspondências é um estado normal (a API responde 200 com mensagem).
// Usuário inexistente ou catálogo sem outros usuários são erros distintos.
func (s *MatchService) FindPotentialMatches(ctx context.Context, userID uuid.UUID, filters models.MatchFilters) ([]*models.Match, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	others, err := s.store.CountOtherUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if others == 0 {
		return nil, fmt.Errorf("nenhum outro usuário encontrado: %w", apperr.ErrNotFound)
	}

	return s.store.FindMatches(ctx, userID, filters)
}

// GetBookRecommendations particiona os livros que não pertencem ao usuário
// em três baldes disjuntos, concatenados nesta ordem de prioridade:
//  1. livros que casam com algum título/autor/gênero desejado;
//  2. livros que casam com algum título/autor/gênero possuído, excluindo
//     os que já entraram no balde 1;
//  3. todos os demais.
//
// Aqui a comparação é igualdade exata de string, diferente do substring
// case-insensitive de FindPotentialMatches.
func (s *MatchService) GetBookRecommendations(ctx context.Context, userID uuid.UUID) ([]*models.BookWithOwner, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	wanted, err := s.store.GetWantedBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned, err := s.store.GetBooksByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	otherBooks, err := s.store.GetBooksNotOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	wantedAttrs := attributeSet(wanted)
	ownedAttrs := attributeSet(owned)

	wantedMatches := []*models.BookWithOwner{}
	ownedMatches := []*models.BookWithOwner{}
	remaining := []*models.BookWithOwner{}

	for _, book := range otherBooks {
		switch {
		case wantedAttrs.matches(&book.Book):
			wantedMatches = append(wantedMatches, book)
		case ownedAttrs.matches(&book.Book):
			ownedMatches = append(ownedMatches, book)
		default:
			remaining = append(remaining, book)
		}
	}

	recommended := append(wantedMatches, ownedMatches...)
	return append(recommended, remaining...), nil
}

// SearchBooks busca livros de outros usuários por substring
// case-insensitive, com AND entre os filtros presentes
func (s *MatchService) SearchBooks(ctx context.Context, userID uuid.UUID, filters models.SearchFilters) ([]*models.BookWithOwner, error) {
	return s.store.SearchBooks(ctx, userID, filters)
}

// attrSet guarda títulos, autores e gêneros para casamento por igualdade
type attrSet struct {
	titles  map[string]struct{}
	authors map[string]struct{}
	genres  map[string]struct{}
}

func attributeSet(books []*models.Book) attrSet {
	set := attrSet{
		titles:  make(map[string]struct{}),
		authors: make(map[string]struct{}),
		genres:  make(map[string]struct{}),
	}
	for _, book := range books {
		set.titles[book.Title] = struct{}{}
		set.authors[book.Author] = struct{}{}
		set.genres[book.Genre] = struct{}{}
	}
	return set
}

func (a attrSet) matches(book *models.Book) bool {
	if _, ok := a.titles[book.Title]; ok {
		return true
	}
	if _, ok := a.authors[book.Author]; ok {
		return true
	}
	_, ok := a.genres[book.Genre]
	return ok
}
