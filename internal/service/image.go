package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ImageUploader é o colaborador de armazenamento de imagens: recebe um
// blob e devolve uma URL durável ou falha
type ImageUploader interface {
	Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) (string, error)
}

// ImageService encapsula o cliente S3 para upload de capas de livros
type ImageService struct {
	s3Client   *s3.Client
	bucketName string
	region     string
}

// NewImageService cria um novo serviço de imagens
func NewImageService(s3Client *s3.Client, bucketName, region string) *ImageService {
	return &ImageService{
		s3Client:   s3Client,
		bucketName: bucketName,
		region:     region,
	}
}

// Upload envia a imagem para o bucket e retorna a URL pública do objeto
func (s *ImageService) Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("objectKey não pode ser vazio")
	}

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Erro ao enviar imagem %s para o S3: %v", objectKey, err)
		return "", fmt.Errorf("falha no upload da imagem")
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, objectKey), nil
}
