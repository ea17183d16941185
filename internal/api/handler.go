package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/auth"
	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"
	"bookswap-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Handler gerencia as dependências para os handlers HTTP
type Handler struct {
	userService     *service.UserService
	bookService     *service.BookService
	matchService    *service.MatchService
	exchangeService *service.ExchangeService
	tokenService    *auth.TokenService
	userStore       repository.UserStore // Necessário para o middleware de autenticação
	validate        *validator.Validate
}

// NewHandler cria uma nova instância do Handler
func NewHandler(
	userSvc *service.UserService,
	bookSvc *service.BookService,
	matchSvc *service.MatchService,
	exchangeSvc *service.ExchangeService,
	tokenSvc *auth.TokenService,
	userStore repository.UserStore,
) *Handler {
	return &Handler{
		userService:     userSvc,
		bookService:     bookSvc,
		matchService:    matchSvc,
		exchangeService: exchangeSvc,
		tokenService:    tokenSvc,
		userStore:       userStore,
		validate:        validator.New(),
	}
}

// === Funções Auxiliares de Resposta ===

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Erro ao serializar JSON: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"Erro interno ao serializar resposta"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondDomainError mapeia a taxonomia de erros de domínio para códigos
// HTTP. Erros fora da taxonomia viram um 500 genérico; a causa fica
// apenas no log.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrInvalidInput):
		h.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		h.respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		h.respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		h.respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("Erro interno: %v", err)
		h.respondWithError(w, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Payload JSON inválido")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Dados inválidos: "+err.Error())
		return false
	}
	return true
}

// === Handlers de Autenticação ===

// handleRegister (POST /api/auth/register)
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string `json:"username" validate:"required"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" validate:"required"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Usuário registrado. Verifique seu e-mail para confirmar a conta.",
	})
}

// handleVerifyEmail (GET /api/auth/verify/{token})
func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		h.respondWithError(w, http.StatusBadRequest, "Token de verificação não fornecido")
		return
	}

	if err := h.userService.VerifyEmail(r.Context(), token); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "E-mail verificado com sucesso."})
}

// handleLogin (POST /api/auth/login)
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleLogout (POST /api/auth/logout) — sessão é stateless, nada a invalidar
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Sessão encerrada."})
}

// handleMe (GET /api/auth/me)
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, profile)
}

// === Handlers de Catálogo ===

// handleListBook (POST /api/books) — multipart: title, author, genre, image
func (h *Handler) handleListBook(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Formulário multipart inválido")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Nenhuma imagem enviada")
		return
	}
	defer file.Close()

	book, err := h.bookService.ListBook(
		r.Context(),
		user.ID,
		r.FormValue("title"),
		r.FormValue("author"),
		r.FormValue("genre"),
		file,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, book)
}

func (h *Handler) urlParamUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Parâmetro '"+name+"' não é um UUID válido")
		return uuid.Nil, false
	}
	return id, true
}

// handleEditBook (PUT /api/books/{id})
func (h *Handler) handleEditBook(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	bookID, ok := h.urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	var updates service.BookUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Payload JSON inválido")
		return
	}

	book, err := h.bookService.EditBook(r.Context(), user.ID, bookID, updates)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, book)
}

// handleDeleteBook (DELETE /api/books/{id})
func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	bookID, ok := h.urlParamUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(r.Context(), user.ID, bookID); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Livro removido do catálogo."})
}

// handleOwnedBooks (GET /api/books/owned)
func (h *Handler) handleOwnedBooks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	books, err := h.bookService.OwnedBooks(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, books)
}

// handleAddWantedBook (POST /api/books/wantedBooks)
func (h *Handler) handleAddWantedBook(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	var req struct {
		BookID uuid.UUID `json:"bookId" validate:"required"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	book, err := h.bookService.AddWantedBook(r.Context(), user.ID, req.BookID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Livro adicionado à lista de desejos.",
		"book":    book,
	})
}

// handleRemoveWantedBook (DELETE /api/books/wantedBooks/{bookId})
func (h *Handler) handleRemoveWantedBook(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	bookID, ok := h.urlParamUUID(w, r, "bookId")
	if !ok {
		return
	}

	if err := h.bookService.RemoveWantedBook(r.Context(), user.ID, bookID); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Livro removido da lista de desejos."})
}

// handleWishlist (GET /api/books/wishlist)
func (h *Handler) handleWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	books, err := h.bookService.Wishlist(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"wishlist": books})
}

// === Handlers do Motor de Correspondências ===

// handleMatches (GET /api/books/matches[/{id}]?title=&author=&genre=)
func (h *Handler) handleMatches(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	// O id no path é opcional; sem ele, usa o usuário autenticado
	userID := user.ID
	if raw := chi.URLParam(r, "id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Parâmetro 'id' não é um UUID válido")
			return
		}
		userID = parsed
	}

	filters := models.MatchFilters{
		Title:  r.URL.Query().Get("title"),
		Author: r.URL.Query().Get("author"),
		Genre:  r.URL.Query().Get("genre"),
	}

	matches, err := h.matchService.FindPotentialMatches(r.Context(), userID, filters)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	// Catálogo sem correspondências não é erro
	if len(matches) == 0 {
		h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Nenhuma correspondência encontrada"})
		return
	}

	h.respondWithJSON(w, http.StatusOK, matches)
}

// handleRecommendations (GET /api/books/recommandations)
func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	recommended, err := h.matchService.GetBookRecommendations(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"recommendedBooks": recommended})
}

// handleSearch (GET /api/books/search?name=&author=&genre=)
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	filters := models.SearchFilters{
		Name:   r.URL.Query().Get("name"),
		Author: r.URL.Query().Get("author"),
		Genre:  r.URL.Query().Get("genre"),
	}

	books, err := h.matchService.SearchBooks(r.Context(), user.ID, filters)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"books": books})
}

// === Handlers de Troca ===

// handleSendRequest (POST /api/exchange/request)
func (h *Handler) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	var req struct {
		BookID   uuid.UUID `json:"bookId" validate:"required"`
		ToUserID uuid.UUID `json:"toUserId" validate:"required"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.exchangeService.SendRequest(r.Context(), user.ID, req.BookID, req.ToUserID); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Solicitação de troca enviada com sucesso."})
}

// handleRespondRequest (POST /api/exchange/response)
func (h *Handler) handleRespondRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	var req struct {
		RequestID uuid.UUID `json:"requestId" validate:"required"`
		Status    string    `json:"status" validate:"required"`
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.exchangeService.RespondRequest(r.Context(), user.ID, req.RequestID, req.Status); err != nil {
		h.respondDomainError(w, err)
		return
	}

	message := "Solicitação de troca rejeitada."
	if req.Status == models.StatusAccepted {
		message = "Troca de livro concluída com sucesso."
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

// handleOutgoingRequests (GET /api/exchange/outgoing)
func (h *Handler) handleOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	requests, err := h.exchangeService.OutgoingRequests(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, requests)
}

// handleIncomingRequests (GET /api/exchange/incoming)
func (h *Handler) handleIncomingRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "Contexto de usuário inválido")
		return
	}

	requests, err := h.exchangeService.IncomingRequests(r.Context(), user.ID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, requests)
}
