package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/crmapi/internal/adapters/events"
	"github.com/atvirokodosprendimai/crmapi/internal/adapters/httpapi"
	sqliteadapter "github.com/atvirokodosprendimai/crmapi/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/crmapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/crmapi/internal/core/domain"
	"github.com/atvirokodosprendimai/crmapi/internal/core/ports"
	"github.com/atvirokodosprendimai/crmapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/crmapi/migrations"
)

type Config struct {
	Addr               string
	DBPath             string
	BootstrapAdminName string
	BootstrapEmail     string
	BootstrapPassword  string
	WebhookURL         string
	WebhookSecret      string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer wires the whole application. The returned closer owns the
// database and dispatcher lifecycles; the core components never manage
// their own.
func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	db, err := gormsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	auditStore := sqliteadapter.NewAuditStore(db)
	entityStore := sqliteadapter.NewEntityStore(db)
	userRepo := sqliteadapter.NewUserRepository(db)
	sessionRepo := sqliteadapter.NewSessionRepository(db)
	outboxRepo := sqliteadapter.NewOutboxRepository(db)

	recorder := usecase.NewRecorder(auditStore, usecase.ContextActorResolver{}, outboxRepo)
	entityService := usecase.NewEntityService(entityStore, usecase.NewSchemaService(), recorder)
	historyService := usecase.NewHistoryService(auditStore, userRepo)
	authService := usecase.NewAuthService(userRepo, sessionRepo)

	var publisher ports.EventPublisher = events.NewLogPublisher()
	if cfg.WebhookURL != "" {
		publisher = events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, 0)
	}
	dispatcher := usecase.NewOutboxDispatcher(outboxRepo, publisher, 2*time.Second, 100)
	dispatcher.Start(context.Background())

	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		name := cfg.BootstrapAdminName
		if name == "" {
			name = "admin"
		}

		bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := bootstrapAdmin(bootstrapCtx, userRepo, name, cfg.BootstrapEmail, cfg.BootstrapPassword)
		bootstrapCancel()
		if err != nil {
			_ = dispatcher.Close()
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap admin user: %w", err)
		}
	}

	handler := httpapi.NewHandler(entityService, historyService, authService)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, db}}, nil
}

func bootstrapAdmin(ctx context.Context, users ports.UserRepository, name, email, password string) error {
	user, err := users.FindByEmail(ctx, email)
	if err == nil {
		user.Name = name
		user.PasswordHash = usecase.HashToken(password)
		return users.Upsert(ctx, user)
	}

	return users.Upsert(ctx, domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: usecase.HashToken(password),
		CreatedAt:    time.Now().UTC(),
	})
}
