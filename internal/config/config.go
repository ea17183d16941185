package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config armazena a configuração da aplicação
type Config struct {
	ServerPort    int    `envconfig:"SERVER_PORT" default:"8080"`
	BaseURL       string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	AWSBucketName string `envconfig:"AWS_BUCKET_NAME" required:"true"`
	AWSRegion     string `envconfig:"AWS_REGION" required:"true"`

	// SMTP para e-mails de verificação e notificação de troca.
	// Com SMTP_HOST vazio, os e-mails são apenas logados.
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM"`
}

// Load carrega a configuração das variáveis de ambiente
func Load(cfg *Config) error {
	return envconfig.Process("", cfg)
}
