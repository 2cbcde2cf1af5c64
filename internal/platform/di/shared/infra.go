// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	appcfg "storefront/internal/infra/config"
	"storefront/internal/infra/database"
)

// Infra is shared runtime infrastructure for DI.
//
//   - owns external clients (Firestore/FirebaseAuth/GCS/SecretManager/Postgres)
//   - never depends on handlers or usecases
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	GCS           *storage.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	Postgres      *sql.DB

	log *zap.Logger
}

// NewInfra initializes the cloud clients.
// Firestore is strict (return error). Postgres is strict when selected.
// Firebase/Auth, GCS and SecretManager are best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("shared.infra")

	projectID := strings.TrimSpace(cfg.FirestoreProjectID)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	inf := &Infra{Config: cfg, ProjectID: projectID, log: log}

	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Info("using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	} else {
		log.Info("using Application Default Credentials")
	}

	// 1) Firestore (strict)
	fsClient, err := firestore.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", projectID, err)
	}
	inf.Firestore = fsClient
	log.Info("firestore connected", zap.String("project", projectID))

	// 2) Firebase App/Auth (best-effort)
	fbProject := strings.TrimSpace(cfg.FirebaseProjectID)
	if fbProject == "" {
		fbProject = projectID
	}
	if app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: fbProject}, clientOpts...); err != nil {
		log.Warn("firebase app init failed", zap.Error(err))
	} else {
		inf.FirebaseApp = app
		if authClient, err := app.Auth(ctx); err != nil {
			log.Warn("firebase auth init failed", zap.Error(err))
		} else {
			inf.FirebaseAuth = authClient
			log.Info("firebase auth initialized", zap.String("project", fbProject))
		}
	}

	// 3) GCS (best-effort; only the receipt archive uses it)
	if strings.TrimSpace(cfg.ReceiptBucket) != "" {
		if gcsClient, err := storage.NewClient(ctx, clientOpts...); err != nil {
			log.Warn("storage.NewClient failed; receipts disabled", zap.Error(err))
		} else {
			inf.GCS = gcsClient
			log.Info("gcs storage client initialized", zap.String("bucket", cfg.ReceiptBucket))
		}
	}

	// 4) Secret Manager (best-effort; only when a secret name is configured)
	if strings.TrimSpace(cfg.SendGridAPIKeyName) != "" {
		if sm, err := secretmanager.NewClient(ctx, clientOpts...); err != nil {
			log.Warn("secretmanager.NewClient failed", zap.Error(err))
		} else {
			inf.SecretManager = sm
		}
	}

	// 5) Postgres (strict when selected)
	if cfg.OrderBackend == appcfg.OrderBackendPostgres {
		db, err := database.NewConnection(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.Postgres = db
	}

	return inf, nil
}

// SendGridAPIKey returns the configured key, falling back to Secret Manager.
func (i *Infra) SendGridAPIKey(ctx context.Context) string {
	if i == nil || i.Config == nil {
		return ""
	}
	if k := strings.TrimSpace(i.Config.SendGridAPIKey); k != "" {
		return k
	}
	name := strings.TrimSpace(i.Config.SendGridAPIKeyName)
	if name == "" || i.SecretManager == nil {
		return ""
	}
	key, err := NewSecretProviderSM(i.SecretManager, i.ProjectID).Get(ctx, name)
	if err != nil {
		i.log.Warn("sendgrid api key lookup failed", zap.String("secret", name), zap.Error(err))
		return ""
	}
	return key
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
	}
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
	}
	if i.Postgres != nil {
		errs = append(errs, i.Postgres.Close())
	}
	return errors.Join(errs...)
}

func redactPath(p string) string {
	// Do not log full path (Windows/Unix compatible light masking)
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***" + "/" + last
}
