package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/config"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
)

// Security limits
const (
	DefaultMaxMessageSize = 10 * 1024 * 1024 // 10 MB
	DefaultMaxRecipients  = 20
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// Processor runs one inbound payload through the ingestion pipeline.
type Processor interface {
	Process(ctx context.Context, payload inbound.Payload) pipeline.Result
}

// Backend implements the go-smtp Backend interface
type Backend struct {
	processor Processor
	domains   map[string]bool
	logger    *slog.Logger
}

// BackendConfig holds configuration for the SMTP backend
type BackendConfig struct {
	Processor Processor
	// Domains limits which recipient domains are accepted. Empty accepts
	// any domain; routing is by local-part either way.
	Domains []string
	Logger  *slog.Logger
}

// NewBackend creates a new SMTP backend
func NewBackend(cfg *BackendConfig) *Backend {
	domains := make(map[string]bool, len(cfg.Domains))
	for _, d := range cfg.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains[d] = true
		}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		processor: cfg.Processor,
		domains:   domains,
		logger:    log.With(slog.String("component", "smtp")),
	}
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	b.logger.Debug("new SMTP connection", slog.String("remote_addr", c.Conn().RemoteAddr().String()))
	return NewSession(b), nil
}

func (b *Backend) accepts(domain string) bool {
	return len(b.domains) == 0 || b.domains[domain]
}

// ServerConfig holds security configuration for the SMTP server
type ServerConfig struct {
	Addr           string
	Domain         string
	MaxMessageSize int64
	MaxRecipients  int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowInsecure  bool
	TLSConfig      *tls.Config
}

// NewSecureServer creates a new SMTP server with security settings
func NewSecureServer(backend *Backend, cfg *ServerConfig) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = cfg.Addr
	s.Domain = cfg.Domain

	s.MaxMessageBytes = cfg.MaxMessageSize
	if s.MaxMessageBytes <= 0 {
		s.MaxMessageBytes = DefaultMaxMessageSize
	}
	s.MaxRecipients = cfg.MaxRecipients
	if s.MaxRecipients <= 0 {
		s.MaxRecipients = DefaultMaxRecipients
	}
	s.ReadTimeout = cfg.ReadTimeout
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	s.WriteTimeout = cfg.WriteTimeout
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}

	s.AllowInsecureAuth = cfg.AllowInsecure
	if cfg.TLSConfig != nil {
		s.TLSConfig = cfg.TLSConfig
	}

	// Set max line length to prevent buffer overflow attacks
	s.MaxLineLength = DefaultMaxLineLength

	return s
}

// ServerConfigFrom derives the server settings from the application config.
// Transport limits and TLS files are read from SMTP_* environment variables.
func ServerConfigFrom(cfg *config.Config) *ServerConfig {
	sc := &ServerConfig{
		Addr:          fmt.Sprintf(":%d", cfg.SMTPPort),
		Domain:        "localhost",
		AllowInsecure: getEnvBool("SMTP_ALLOW_INSECURE", false),
	}
	if len(cfg.SMTPDomains) > 0 {
		sc.Domain = cfg.SMTPDomains[0]
	}
	sc.Domain = getEnvOrDefault("SMTP_DOMAIN", sc.Domain)

	if maxSize := os.Getenv("SMTP_MAX_MESSAGE_SIZE"); maxSize != "" {
		if size, err := strconv.ParseInt(maxSize, 10, 64); err == nil {
			sc.MaxMessageSize = size
		}
	}
	if maxRecip := os.Getenv("SMTP_MAX_RECIPIENTS"); maxRecip != "" {
		if recip, err := strconv.Atoi(maxRecip); err == nil {
			sc.MaxRecipients = recip
		}
	}
	if readTimeout := os.Getenv("SMTP_READ_TIMEOUT"); readTimeout != "" {
		if timeout, err := time.ParseDuration(readTimeout); err == nil {
			sc.ReadTimeout = timeout
		}
	}
	if writeTimeout := os.Getenv("SMTP_WRITE_TIMEOUT"); writeTimeout != "" {
		if timeout, err := time.ParseDuration(writeTimeout); err == nil {
			sc.WriteTimeout = timeout
		}
	}

	certFile := os.Getenv("SMTP_TLS_CERT")
	keyFile := os.Getenv("SMTP_TLS_KEY")
	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err == nil {
			sc.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}
	}

	return sc
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
