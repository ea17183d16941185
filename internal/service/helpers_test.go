package service

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"bookswap-backend/internal/models"
	"bookswap-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var seedBase = time.Now()
var seedSeq int64

// nextTime gera timestamps estritamente crescentes para que a ordenação
// por created_at do store seja determinística nos testes
func nextTime() time.Time {
	n := atomic.AddInt64(&seedSeq, 1)
	return seedBase.Add(time.Duration(n) * time.Millisecond)
}

func seedUser(t *testing.T, store *repository.InMemoryStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "x",
		Verified:     true,
		CreatedAt:    nextTime(),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func seedBook(t *testing.T, store *repository.InMemoryStore, owner *models.User, title, author, genre string) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		Genre:     genre,
		ImageURL:  "https://img.example.com/" + uuid.NewString(),
		OwnerID:   owner.ID,
		CreatedAt: nextTime(),
	}
	require.NoError(t, store.CreateBook(context.Background(), book))
	return book
}

func seedWanted(t *testing.T, store *repository.InMemoryStore, user *models.User, book *models.Book) {
	t.Helper()
	require.NoError(t, store.AddWantedBook(context.Background(), user.ID, book.ID))
}

// fakeUploader é o dublê do image store: devolve uma URL estável sem I/O
type fakeUploader struct {
	calls int
	fail  bool
}

func (f *fakeUploader) Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) (string, error) {
	f.calls++
	if f.fail {
		return "", fmt.Errorf("falha no upload da imagem")
	}
	return "https://img.example.com/" + objectKey, nil
}
