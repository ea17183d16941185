// Package apperr define as categorias de erro de domínio compartilhadas
// entre as camadas de repositório, serviço e API.
package apperr

import "errors"

// Erros-sentinela de domínio. As camadas embrulham com fmt.Errorf("...: %w")
// para preservar a mensagem específica e a API mapeia via errors.Is.
var (
	// ErrNotFound indica usuário, livro ou solicitação inexistente
	ErrNotFound = errors.New("recurso não encontrado")

	// ErrInvalidInput indica entrada malformada ou violação de pré-condição
	// (status desconhecido, dono não confere, campos obrigatórios ausentes)
	ErrInvalidInput = errors.New("entrada inválida")

	// ErrUnauthorized indica credenciais ou token inválidos
	ErrUnauthorized = errors.New("não autenticado")

	// ErrForbidden indica um chamador autenticado sem permissão
	// (ex: responder a uma solicitação destinada a outro usuário)
	ErrForbidden = errors.New("não autorizado")

	// ErrConflict indica violação de unicidade ou estado concorrente
	// (e-mail já registrado, livro já listado, dono mudou durante a troca)
	ErrConflict = errors.New("conflito")
)
