package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookswap-backend/internal/api"
	"bookswap-backend/internal/auth"
	"bookswap-backend/internal/config"
	"bookswap-backend/internal/mail"
	"bookswap-backend/internal/repository"
	"bookswap-backend/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
)

// Validade do token de sessão
const tokenTTL = 21 * 24 * time.Hour

func main() {
	// Carregar o .env antes da configuração. Em produção o app pode rodar
	// sem .env, desde que as variáveis estejam no ambiente (Docker/K8s).
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: Não foi possível carregar o arquivo .env: %v. (Usando variáveis de ambiente existentes)", err)
	}

	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		log.Fatalf("Falha ao carregar configuração: %v", err)
	}

	// Inicializar Camada de Repositório (PostgreSQL)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	store, err := repository.NewPostgresStore(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Falha ao conectar ao banco de dados: %v", err)
	}
	defer store.Close()
	log.Println("Conectado ao PostgreSQL!")

	// Rodar Migrations
	migrationSQL, err := os.ReadFile("./migrations/001_init.sql")
	if err != nil {
		log.Fatalf("Falha ao ler arquivo de migração: %v", err)
	}

	if err := store.RunMigrations(initCtx, string(migrationSQL)); err != nil {
		log.Printf("Aviso ao rodar migrações: %v. (Continuando...)", err)
	} else {
		log.Println("Migrações do banco de dados aplicadas com sucesso.")
	}

	// Inicializar Camada de Autenticação
	tokenService, err := auth.NewTokenService(cfg.JWTSecret, tokenTTL)
	if err != nil {
		log.Fatalf("Falha ao iniciar TokenService: %v", err)
	}

	// Cliente S3 para as capas dos livros
	awsCfg, err := awsconfig.LoadDefaultConfig(initCtx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Falha ao carregar configuração AWS: %v", err)
	}
	imageService := service.NewImageService(s3.NewFromConfig(awsCfg), cfg.AWSBucketName, cfg.AWSRegion)

	// Mailer best-effort; sem SMTP configurado, apenas loga
	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}

	// Inicializar Camada de Serviço
	userService := service.NewUserService(store, tokenService, mailer, cfg.BaseURL)
	bookService := service.NewBookService(store, imageService)
	matchService := service.NewMatchService(store)
	exchangeService := service.NewExchangeService(store, mailer)

	// Inicializar Camada de API
	handler := api.NewHandler(userService, bookService, matchService, exchangeService, tokenService, store)

	// Configurar Servidor HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Iniciar Servidor
	go func() {
		log.Printf("Servidor iniciado em http://localhost:%d/api", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Erro ao iniciar servidor: %v", err)
		}
	}()

	// Aguardar sinal de interrupção
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Recebido sinal de desligamento, encerrando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Erro no graceful shutdown: %v", err)
	}
	log.Println("Servidor encerrado.")
}
