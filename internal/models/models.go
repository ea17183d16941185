package models

import (
	"time"

	"github.com/google/uuid"
)

// User representa um usuário no sistema
type User struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"` // Nunca expor em JSON
	Verified          bool      `json:"verified"`
	VerificationToken string    `json:"-"` // Vazio após a verificação do e-mail
	CreatedAt         time.Time `json:"createdAt"`
}

// Book representa um livro no catálogo.
// A posse é estrutural: os "ownedBooks" de um usuário são os livros
// cujo OwnerID aponta para ele, então um livro nunca pode pertencer
// a dois usuários ao mesmo tempo.
type Book struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre"`
	ImageURL  string    `json:"imageUrl"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookWithOwner é um livro com o username do dono (join somente-leitura)
type BookWithOwner struct {
	Book
	OwnerUsername string `json:"ownerUsername"`
}

// Status possíveis de uma solicitação de troca
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ExchangeRequest representa uma proposta de transferência de um livro
// do dono atual (ToUser) para o solicitante (FromUser).
// Transições permitidas: pending→accepted e pending→rejected, nada mais.
type ExchangeRequest struct {
	ID         uuid.UUID `json:"id"`
	BookID     uuid.UUID `json:"bookId"`
	FromUserID uuid.UUID `json:"fromUserId"`
	ToUserID   uuid.UUID `json:"toUserId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserSummary é a visão mínima de um usuário para respostas da API
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// ExchangeRequestDetail é uma solicitação com livro e partes populados
type ExchangeRequestDetail struct {
	ID        uuid.UUID    `json:"id"`
	Book      Book         `json:"book"`
	FromUser  *UserSummary `json:"fromUser,omitempty"`
	ToUser    *UserSummary `json:"toUser,omitempty"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// MatchedBook é o livro de outro usuário que satisfez um desejo do chamador
type MatchedBook struct {
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Genre    string    `json:"genre"`
	ImageURL string    `json:"imageUrl"`
	ID       uuid.UUID `json:"id"`
}

// Match é uma entrada do resultado de findPotentialMatches.
// O mesmo livro pode aparecer mais de uma vez, uma por livro desejado
// que ele satisfaz; não há deduplicação.
type Match struct {
	MatchedUser string      `json:"matchedUser"`
	MatchedBook MatchedBook `json:"matchedBook"`
}

// MatchFilters são os filtros opcionais de findPotentialMatches,
// aplicados por substring case-insensitive sobre o livro possuído
type MatchFilters struct {
	Title  string
	Author string
	Genre  string
}

// SearchFilters são os filtros da busca de livros (AND entre os presentes)
type SearchFilters struct {
	Name   string
	Author string
	Genre  string
}
