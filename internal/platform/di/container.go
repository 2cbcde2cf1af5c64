// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/adapters/out/db"
	fs "storefront/internal/adapters/out/firestore"
	"storefront/internal/adapters/out/gcs"
	httpout "storefront/internal/adapters/out/http"
	"storefront/internal/adapters/out/mail"
	"storefront/internal/adapters/out/memory"
	"storefront/internal/adapters/out/sqlite"
	"storefront/internal/application/cartsync"
	appsession "storefront/internal/application/session"
	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	contactdom "storefront/internal/domain/contact"
	orderdom "storefront/internal/domain/order"
	sessiondom "storefront/internal/domain/session"
	appcfg "storefront/internal/infra/config"
	"storefront/internal/platform/di/shared"
)

const catalogCacheTTL = 5 * time.Minute

// Container is the wired storefront. main and the CLI use only this.
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger

	Infra *shared.Infra // nil in offline mode
	Local *sqlite.KVStore

	Session *appsession.Manager
	Engine  *cartsync.Engine

	CartUC    *usecase.CartUsecase
	OrderUC   *usecase.OrderUsecase
	ProductUC *usecase.ProductUsecase
	ContactUC *usecase.ContactUsecase

	unsubscribe func()
}

// Build wires every adapter and usecase. In offline mode the remote stores
// are in-memory and sign-in accepts unsigned dev tokens.
func Build(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("di")

	c := &Container{Config: cfg, Logger: logger}

	local, err := sqlite.Open(cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("di: local store: %w", err)
	}
	c.Local = local

	var (
		remote   cartdom.RemoteStore
		orders   orderdom.Repository
		contacts contactdom.Repository
		verifier sessiondom.TokenVerifier
	)

	if cfg.Offline {
		log.Info("offline mode: in-memory remote stores, dev sign-in tokens")
		remote = memory.NewCartStore()
		orders = memory.NewOrderRepository()
		contacts = memory.NewContactRepository()
		verifier = shared.DevVerifier{}
	} else {
		inf, err := shared.NewInfra(ctx, cfg, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.Infra = inf

		remote = fs.NewCartStoreFS(inf.Firestore, logger)
		contacts = fs.NewContactRepositoryFS(inf.Firestore)
		verifier = &shared.FirebaseVerifier{Auth: inf.FirebaseAuth}

		orders, err = buildOrderRepository(ctx, inf, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	engine, err := cartsync.New(ctx, cartsync.Options{
		Local:         sqlite.NewCartStore(local),
		Remote:        remote,
		Logger:        logger,
		ClearOnLogout: cfg.ClearCartOnLogout,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Engine = engine

	c.Session = appsession.NewManager(verifier, sqlite.NewSessionStore(local), logger)
	c.unsubscribe = c.Session.Subscribe(engine.HandleSession)

	c.ProductUC = usecase.NewProductUsecase(httpout.NewCatalogClient(cfg.CatalogBaseURL, logger), catalogCacheTTL, logger)
	c.CartUC = usecase.NewCartUsecase(engine, c.ProductUC)
	c.ContactUC = usecase.NewContactUsecase(contacts, c.Session, logger)
	c.OrderUC = usecase.NewOrderUsecase(orders, engine, c.Session, cfg.CouponBook(), cfg.ShippingFee, logger)
	c.wireOrderSideEffects(ctx)

	return c, nil
}

// Restore re-signs the identity remembered from the previous run.
// A failed merge is logged; the session stays signed in.
func (c *Container) Restore(ctx context.Context) sessiondom.State {
	st, err := c.Session.Restore(ctx)
	if err != nil {
		c.Logger.Warn("restore session", zap.Error(err))
	}
	return st
}

// Close flushes pending remote cart writes and releases every client.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	if c.Engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.Engine.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush cart writes: %w", err))
		}
		cancel()
		c.Engine.Close()
	}
	if c.Local != nil {
		errs = append(errs, c.Local.Close())
	}
	if c.Infra != nil {
		errs = append(errs, c.Infra.Close())
	}
	return errors.Join(errs...)
}

func buildOrderRepository(ctx context.Context, inf *shared.Infra, logger *zap.Logger) (orderdom.Repository, error) {
	if inf.Config.OrderBackend != appcfg.OrderBackendPostgres {
		return fs.NewOrderRepositoryFS(inf.Firestore, logger), nil
	}
	repo := db.NewOrderRepositoryPG(inf.Postgres)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("di: orders schema: %w", err)
	}
	return repo, nil
}

func (c *Container) wireOrderSideEffects(ctx context.Context) {
	if c.Infra == nil {
		return
	}
	log := c.Logger.Named("di")

	mailer := mail.NewOrderMailerWithSendGrid(mail.SendGridConfig{
		APIKey:    c.Infra.SendGridAPIKey(ctx),
		From:      c.Config.SendGridFrom,
		StoreName: c.Config.StoreName,
	}, c.Logger)
	if mailer != nil {
		c.OrderUC.WithNotifier(mailer)
	}

	if c.Infra.GCS != nil {
		c.OrderUC.WithReceiptArchive(gcs.NewReceiptArchiveGCS(c.Infra.GCS, c.Config.ReceiptBucket))
	} else {
		log.Info("receipt archive disabled (RECEIPT_BUCKET empty)")
	}
}
