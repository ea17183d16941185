package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/auth"
	"bookswap-backend/internal/mail"
	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService lida com a lógica de negócios de usuários
type UserService struct {
	store        repository.Store
	tokenService *auth.TokenService
	mailer       mail.Mailer
	baseURL      string
}

// NewUserService cria um novo serviço de usuário
func NewUserService(store repository.Store, tokenService *auth.TokenService, mailer mail.Mailer, baseURL string) *UserService {
	return &UserService{
		store:        store,
		tokenService: tokenService,
		mailer:       mailer,
		baseURL:      baseURL,
	}
}

// Profile é a visão do próprio usuário com as duas coleções populadas
type Profile struct {
	User        *models.User   `json:"user"`
	OwnedBooks  []*models.Book `json:"ownedBooks"`
	WantedBooks []*models.Book `json:"wantedBooks"`
}

func newVerificationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("falha ao gerar token de verificação: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register cria um novo usuário não-verificado e dispara o e-mail de
// verificação em background
func (s *UserService) Register(ctx context.Context, username, email, password, confirmPassword string) (*models.User, error) {
	if password != confirmPassword {
		return nil, fmt.Errorf("as senhas não conferem: %w", apperr.ErrInvalidInput)
	}

	// Verificar se o e-mail já está registrado
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("e-mail já registrado: %w", apperr.ErrConflict)
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, err
	}

	// Gerar hash da senha (nunca armazene senha em texto plano)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Erro ao gerar hash bcrypt: %v", err)
		return nil, fmt.Errorf("erro interno ao processar senha")
	}

	user := &models.User{
		ID:                uuid.New(),
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		Verified:          false,
		VerificationToken: token,
		CreatedAt:         time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	// Fire-and-forget: falha de envio não bloqueia o registro
	go s.sendVerificationMail(user.Email, token)

	return user, nil
}

func (s *UserService) sendVerificationMail(email, token string) {
	link := fmt.Sprintf("%s/api/auth/verify/%s", s.baseURL, token)
	body := fmt.Sprintf("Clique no link a seguir para verificar seu e-mail: %s", link)
	if err := s.mailer.Send(email, "Verifique seu e-mail", body); err != nil {
		log.Printf("Erro ao enviar e-mail de verificação para %s: %v", email, err)
	}
}

// VerifyEmail confirma o e-mail via token de uso único
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.store.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return fmt.Errorf("token de verificação inválido: %w", apperr.ErrInvalidInput)
	}
	return s.store.MarkUserVerified(ctx, user.ID)
}

// Login autentica um usuário verificado e retorna um token JWT
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		// Resposta genérica para evitar enumeração de usuários
		return "", fmt.Errorf("credenciais inválidas: %w", apperr.ErrUnauthorized)
	}

	if !user.Verified {
		return "", fmt.Errorf("e-mail não verificado: %w", apperr.ErrUnauthorized)
	}

	// Comparar a senha fornecida com o hash armazenado
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("credenciais inválidas: %w", apperr.ErrUnauthorized)
	}

	token, err := s.tokenService.NewToken(user.ID)
	if err != nil {
		log.Printf("Erro ao gerar token JWT: %v", err)
		return "", fmt.Errorf("erro interno ao gerar token")
	}

	return token, nil
}

// GetProfile busca o usuário com livros possuídos e desejados populados
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.store.GetBooksByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted, err := s.store.GetWantedBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, OwnedBooks: owned, WantedBooks: wanted}, nil
}
