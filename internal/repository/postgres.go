package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bookswap-backend/internal/apperr"
	"bookswap-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore é a implementação da interface Store para o PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore cria uma nova instância do PostgresStore e pool de conexões
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("não foi possível criar pool de conexão: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("não foi possível pingar o banco de dados: %w", err)
	}

	log.Println("Pool de conexão com PostgreSQL estabelecido.")
	return &PostgresStore{db: pool}, nil
}

// Close fecha o pool de conexões
func (s *PostgresStore) Close() {
	s.db.Close()
}

// RunMigrations executa o script SQL de migração
func (s *PostgresStore) RunMigrations(ctx context.Context, migrationSQL string) error {
	_, err := s.db.Exec(ctx, migrationSQL)
	if err != nil {
		return fmt.Errorf("falha ao executar migração: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- UserStore ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	sql := `
        INSERT INTO users (id, username, email, password_hash, verified, verification_token, created_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`

	_, err := s.db.Exec(ctx, sql,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Verified,
		user.VerificationToken,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("e-mail '%s' já registrado: %w", user.Email, apperr.ErrConflict)
		}
		return fmt.Errorf("falha ao criar usuário: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, verified, COALESCE(verification_token, ''), created_at`

func (s *PostgresStore) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Verified,
		&user.VerificationToken,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("usuário não encontrado: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("falha ao buscar usuário: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRow(ctx, sql, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRow(ctx, sql, email))
}

func (s *PostgresStore) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	return s.scanUser(s.db.QueryRow(ctx, sql, token))
}

func (s *PostgresStore) MarkUserVerified(ctx context.Context, id uuid.UUID) error {
	sql := `UPDATE users SET verified = TRUE, verification_token = NULL WHERE id = $1`

	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("falha ao marcar usuário como verificado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("usuário não encontrado: %w", apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CountOtherUsers(ctx context.Context, excludeID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE id <> $1`, excludeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("falha ao contar usuários: %w", err)
	}
	return count, nil
}

// --- BookStore ---

func (s *PostgresStore) CreateBook(ctx context.Context, book *models.Book) error {
	sql := `
        INSERT INTO books (id, title, author, genre, image_url, owner_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, sql,
		book.ID,
		book.Title,
		book.Author,
		book.Genre,
		book.ImageURL,
		book.OwnerID,
		book.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("falha ao criar livro: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	sql := `
        SELECT id, title, author, genre, image_url, owner_id, created_at
        FROM books
        WHERE id = $1`

	book := &models.Book{}
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.ImageURL,
		&book.OwnerID,
		&book.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("livro não encontrado: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("falha ao buscar livro: %w", err)
	}
	return book, nil
}

func (s *PostgresStore) collectBooks(rows pgx.Rows) ([]*models.Book, error) {
	defer rows.Close()

	// Importante: inicializa como slice vazio, não nil, para consistência de JSON
	books := []*models.Book{}

	for rows.Next() {
		book := &models.Book{}
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Genre,
			&book.ImageURL,
			&book.OwnerID,
			&book.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("falha ao escanear linha de livro: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os livros: %w", err)
	}
	return books, nil
}

func (s *PostgresStore) GetBooksByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Book, error) {
	sql := `
        SELECT id, title, author, genre, image_url, owner_id, created_at
        FROM books
        WHERE owner_id = $1
        ORDER BY created_at`

	rows, err := s.db.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar livros do dono: %w", err)
	}
	return s.collectBooks(rows)
}

func (s *PostgresStore) UpdateBook(ctx context.Context, book *models.Book) error {
	sql := `
        UPDATE books
        SET title = $2, author = $3, genre = $4, image_url = $5
        WHERE id = $1`

	tag, err := s.db.Exec(ctx, sql, book.ID, book.Title, book.Author, book.Genre, book.ImageURL)
	if err != nil {
		return fmt.Errorf("falha ao atualizar livro: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("livro não encontrado: %w", apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id uuid.UUID) error {
	// As referências em wanted_books e exchange_requests caem em cascata
	// (ON DELETE CASCADE na migração)
	tag, err := s.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("falha ao deletar livro: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("livro não encontrado: %w", apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) BookExists(ctx context.Context, ownerID uuid.UUID, title, author, genre string) (bool, error) {
	sql := `
        SELECT EXISTS (
            SELECT 1 FROM books
            WHERE owner_id = $1 AND title = $2 AND author = $3 AND genre = $4
        )`

	var exists bool
	if err := s.db.QueryRow(ctx, sql, ownerID, title, author, genre).Scan(&exists); err != nil {
		return false, fmt.Errorf("falha ao verificar listagem duplicada: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) collectBooksWithOwner(rows pgx.Rows) ([]*models.BookWithOwner, error) {
	defer rows.Close()

	books := []*models.BookWithOwner{}

	for rows.Next() {
		book := &models.BookWithOwner{}
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Genre,
			&book.ImageURL,
			&book.OwnerID,
			&book.CreatedAt,
			&book.OwnerUsername,
		)
		if err != nil {
			return nil, fmt.Errorf("falha ao escanear linha de livro: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os livros: %w", err)
	}
	return books, nil
}

func (s *PostgresStore) SearchBooks(ctx context.Context, excludeOwner uuid.UUID, filters models.SearchFilters) ([]*models.BookWithOwner, error) {
	sql := `
        SELECT b.id, b.title, b.author, b.genre, b.image_url, b.owner_id, b.created_at, u.username
        FROM books b
        JOIN users u ON u.id = b.owner_id
        WHERE b.owner_id <> $1
          AND ($2 = '' OR b.title ILIKE '%' || $2 || '%')
          AND ($3 = '' OR b.author ILIKE '%' || $3 || '%')
          AND ($4 = '' OR b.genre ILIKE '%' || $4 || '%')
        ORDER BY b.created_at`

	rows, err := s.db.Query(ctx, sql, excludeOwner, filters.Name, filters.Author, filters.Genre)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar livros: %w", err)
	}
	return s.collectBooksWithOwner(rows)
}

func (s *PostgresStore) GetBooksNotOwnedBy(ctx context.Context, userID uuid.UUID) ([]*models.BookWithOwner, error) {
	sql := `
        SELECT b.id, b.title, b.author, b.genre, b.image_url, b.owner_id, b.created_at, u.username
        FROM books b
        JOIN users u ON u.id = b.owner_id
        WHERE b.owner_id <> $1
        ORDER BY b.created_at`

	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar livros de outros usuários: %w", err)
	}
	return s.collectBooksWithOwner(rows)
}

// FindMatches expressa o cruzamento desejo×posse como um join indexável
// em vez de um laço triplo em memória. A semântica é OR entre os três
// atributos e a comparação de igualdade ignora caixa; os filtros opcionais
// são substring case-insensitive sobre o livro possuído.
func (s *PostgresStore) FindMatches(ctx context.Context, userID uuid.UUID, filters models.MatchFilters) ([]*models.Match, error) {
	sql := `
        SELECT u.username, b.title, b.author, b.genre, b.image_url, b.id
        FROM wanted_books w
        JOIN books wb ON wb.id = w.book_id
        JOIN books b ON b.owner_id <> w.user_id
            AND (lower(b.title) = lower(wb.title)
              OR lower(b.author) = lower(wb.author)
              OR lower(b.genre) = lower(wb.genre))
        JOIN users u ON u.id = b.owner_id
        WHERE w.user_id = $1
          AND ($2 = '' OR b.title ILIKE '%' || $2 || '%')
          AND ($3 = '' OR b.author ILIKE '%' || $3 || '%')
          AND ($4 = '' OR b.genre ILIKE '%' || $4 || '%')
        ORDER BY w.added_at, b.created_at`

	rows, err := s.db.Query(ctx, sql, userID, filters.Title, filters.Author, filters.Genre)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar correspondências: %w", err)
	}
	defer rows.Close()

	matches := []*models.Match{}

	for rows.Next() {
		match := &models.Match{}
		err := rows.Scan(
			&match.MatchedUser,
			&match.MatchedBook.Title,
			&match.MatchedBook.Author,
			&match.MatchedBook.Genre,
			&match.MatchedBook.ImageURL,
			&match.MatchedBook.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("falha ao escanear correspondência: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre as correspondências: %w", err)
	}
	return matches, nil
}

// --- WishlistStore ---

func (s *PostgresStore) AddWantedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	sql := `INSERT INTO wanted_books (user_id, book_id, added_at) VALUES ($1, $2, now())`

	_, err := s.db.Exec(ctx, sql, userID, bookID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("livro já está na lista de desejos: %w", apperr.ErrConflict)
		}
		return fmt.Errorf("falha ao adicionar à lista de desejos: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveWantedBook(ctx context.Context, userID, bookID uuid.UUID) error {
	sql := `DELETE FROM wanted_books WHERE user_id = $1 AND book_id = $2`

	tag, err := s.db.Exec(ctx, sql, userID, bookID)
	if err != nil {
		return fmt.Errorf("falha ao remover da lista de desejos: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("livro não está na lista de desejos: %w", apperr.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) GetWantedBooks(ctx context.Context, userID uuid.UUID) ([]*models.Book, error) {
	sql := `
        SELECT b.id, b.title, b.author, b.genre, b.image_url, b.owner_id, b.created_at
        FROM wanted_books w
        JOIN books b ON b.id = w.book_id
        WHERE w.user_id = $1
        ORDER BY w.added_at`

	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar lista de desejos: %w", err)
	}
	return s.collectBooks(rows)
}

// --- ExchangeStore ---

func (s *PostgresStore) CreateRequest(ctx context.Context, req *models.ExchangeRequest) error {
	sql := `
        INSERT INTO exchange_requests (id, book_id, from_user_id, to_user_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, sql,
		req.ID,
		req.BookID,
		req.FromUserID,
		req.ToUserID,
		req.Status,
		req.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("falha ao criar solicitação de troca: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.ExchangeRequest, error) {
	sql := `
        SELECT id, book_id, from_user_id, to_user_id, status, created_at
        FROM exchange_requests
        WHERE id = $1`

	req := &models.ExchangeRequest{}
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&req.ID,
		&req.BookID,
		&req.FromUserID,
		&req.ToUserID,
		&req.Status,
		&req.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("solicitação não encontrada: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("falha ao buscar solicitação: %w", err)
	}
	return req, nil
}

const requestDetailSQL = `
        SELECT r.id, r.status, r.created_at,
               b.id, b.title, b.author, b.genre, b.image_url, b.owner_id, b.created_at,
               o.id, o.username
        FROM exchange_requests r
        JOIN books b ON b.id = r.book_id
        JOIN users o ON o.id = %s
        WHERE %s = $1
        ORDER BY r.created_at DESC`

func (s *PostgresStore) collectRequestDetails(rows pgx.Rows, counterpartIsTo bool) ([]*models.ExchangeRequestDetail, error) {
	defer rows.Close()

	details := []*models.ExchangeRequestDetail{}

	for rows.Next() {
		d := &models.ExchangeRequestDetail{}
		other := &models.UserSummary{}
		err := rows.Scan(
			&d.ID,
			&d.Status,
			&d.CreatedAt,
			&d.Book.ID,
			&d.Book.Title,
			&d.Book.Author,
			&d.Book.Genre,
			&d.Book.ImageURL,
			&d.Book.OwnerID,
			&d.Book.CreatedAt,
			&other.ID,
			&other.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("falha ao escanear solicitação: %w", err)
		}
		if counterpartIsTo {
			d.ToUser = other
		} else {
			d.FromUser = other
		}
		details = append(details, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre as solicitações: %w", err)
	}
	return details, nil
}

func (s *PostgresStore) ListRequestsFromUser(ctx context.Context, fromUserID uuid.UUID) ([]*models.ExchangeRequestDetail, error) {
	// Saída: popula o destinatário (toUser)
	sql := fmt.Sprintf(requestDetailSQL, "r.to_user_id", "r.from_user_id")
	rows, err := s.db.Query(ctx, sql, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar solicitações enviadas: %w", err)
	}
	return s.collectRequestDetails(rows, true)
}

func (s *PostgresStore) ListRequestsToUser(ctx context.Context, toUserID uuid.UUID) ([]*models.ExchangeRequestDetail, error) {
	// Entrada: popula o solicitante (fromUser)
	sql := fmt.Sprintf(requestDetailSQL, "r.from_user_id", "r.to_user_id")
	rows, err := s.db.Query(ctx, sql, toUserID)
	if err != nil {
		return nil, fmt.Errorf("falha ao buscar solicitações recebidas: %w", err)
	}
	return s.collectRequestDetails(rows, false)
}

func (s *PostgresStore) RejectRequest(ctx context.Context, requestID uuid.UUID) error {
	sql := `UPDATE exchange_requests SET status = $2 WHERE id = $1 AND status = $3`

	tag, err := s.db.Exec(ctx, sql, requestID, models.StatusRejected, models.StatusPending)
	if err != nil {
		return fmt.Errorf("falha ao rejeitar solicitação: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("solicitação inexistente ou já processada: %w", apperr.ErrInvalidInput)
	}
	return nil
}

// AcceptRequest transfere a posse do livro dentro de uma única transação.
// O UPDATE do dono é condicionado ao dono esperado (to_user_id), então duas
// aceitações concorrentes sobre o mesmo livro não podem ambas vencer: a
// segunda não afeta nenhuma linha e a transação é desfeita com ErrConflict.
func (s *PostgresStore) AcceptRequest(ctx context.Context, requestID, bookID, fromUserID, toUserID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("falha ao abrir transação: %w", err)
	}
	defer tx.Rollback(ctx)

	// detach do dono anterior + attach ao novo dono em um único UPDATE
	// condicional, já que a posse é o próprio owner_id
	tag, err := tx.Exec(ctx,
		`UPDATE books SET owner_id = $1 WHERE id = $2 AND owner_id = $3`,
		fromUserID, bookID, toUserID,
	)
	if err != nil {
		return fmt.Errorf("falha ao transferir posse do livro: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("o livro não pertence mais ao usuário esperado: %w", apperr.ErrConflict)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE exchange_requests SET status = $2 WHERE id = $1 AND status = $3`,
		requestID, models.StatusAccepted, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("falha ao atualizar status da solicitação: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("solicitação inexistente ou já processada: %w", apperr.ErrInvalidInput)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("falha ao confirmar transação de troca: %w", err)
	}
	return nil
}
