package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/mail"
	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
)

// ExchangeService implementa o ciclo de vida das solicitações de troca
type ExchangeService struct {
	store  repository.Store
	mailer mail.Mailer
}

// NewExchangeService cria um novo serviço de trocas
func NewExchangeService(store repository.Store, mailer mail.Mailer) *ExchangeService {
	return &ExchangeService{
		store:  store,
		mailer: mailer,
	}
}

// SendRequest cria uma solicitação pendente de troca. O livro precisa
// existir e pertencer exatamente a toUserID; um dono divergente é
// rejeitado, nunca corrigido em silêncio. Solicitações pendentes
// duplicadas para a mesma tripla (livro, de, para) são permitidas.
func (s *ExchangeService) SendRequest(ctx context.Context, fromUserID, bookID, toUserID uuid.UUID) (*models.ExchangeRequest, error) {
	book, err := s.store.GetBookByID(ctx, bookID)
	if err != nil || book.OwnerID != toUserID {
		return nil, fmt.Errorf("livro ou dono inválido: %w", apperr.ErrInvalidInput)
	}

	req := &models.ExchangeRequest{
		ID:         uuid.New(),
		BookID:     bookID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// RespondRequest resolve uma solicitação pendente. A checagem de
// existência/pendência vem antes da de autorização, preservando a
// distinção 400 vs 403 da API. A aceitação delega ao store a
// transferência atômica de posse.
func (s *ExchangeService) RespondRequest(ctx context.Context, responderID, requestID uuid.UUID, status string) error {
	req, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil || req.Status != models.StatusPending {
		return fmt.Errorf("solicitação inválida ou já processada: %w", apperr.ErrInvalidInput)
	}

	// Só o destinatário da solicitação pode respondê-la
	if req.ToUserID != responderID {
		return fmt.Errorf("você não pode responder a esta solicitação: %w", apperr.ErrForbidden)
	}

	switch status {
	case models.StatusAccepted:
		if err := s.store.AcceptRequest(ctx, req.ID, req.BookID, req.FromUserID, req.ToUserID); err != nil {
			return err
		}
	case models.StatusRejected:
		if err := s.store.RejectRequest(ctx, req.ID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("status '%s' inválido: %w", status, apperr.ErrInvalidInput)
	}

	// Notificação best-effort ao solicitante após a transição
	go s.notifyRequester(req, status)

	return nil
}

func (s *ExchangeService) notifyRequester(req *models.ExchangeRequest, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requester, err := s.store.GetUserByID(ctx, req.FromUserID)
	if err != nil {
		log.Printf("Erro ao buscar solicitante %s para notificação: %v", req.FromUserID, err)
		return
	}
	book, err := s.store.GetBookByID(ctx, req.BookID)
	if err != nil {
		log.Printf("Erro ao buscar livro %s para notificação: %v", req.BookID, err)
		return
	}

	subject := "Sua solicitação de troca foi respondida"
	body := fmt.Sprintf("Sua solicitação pelo livro '%s' foi %s.", book.Title, translateStatus(status))
	if err := s.mailer.Send(requester.Email, subject, body); err != nil {
		log.Printf("Erro ao enviar notificação de troca para %s: %v", requester.Email, err)
	}
}

func translateStatus(status string) string {
	switch status {
	case models.StatusAccepted:
		return "aceita"
	case models.StatusRejected:
		return "rejeitada"
	}
	return status
}

// OutgoingRequests lista as solicitações enviadas pelo usuário,
// com livro e destinatário populados
func (s *ExchangeService) OutgoingRequests(ctx context.Context, userID uuid.UUID) ([]*models.ExchangeRequestDetail, error) {
	return s.store.ListRequestsFromUser(ctx, userID)
}

// IncomingRequests lista as solicitações recebidas pelo usuário,
// com livro e solicitante populados
func (s *ExchangeService) IncomingRequests(ctx context.Context, userID uuid.UUID) ([]*models.ExchangeRequestDetail, error) {
	return s.store.ListRequestsToUser(ctx, userID)
}
