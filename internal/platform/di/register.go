// internal/platform/di/register.go
package di

import (
	"net/http"

	httpin "storefront/internal/adapters/in/http"
)

// Handler builds the local HTTP API over the container.
func (c *Container) Handler() http.Handler {
	return httpin.NewRouter(httpin.RouterDeps{
		Session:     c.Session,
		Cart:        c.CartUC,
		CartWatcher: c.Engine,
		Orders:      c.OrderUC,
		Products:    c.ProductUC,
		Contact:     c.ContactUC,
		AllowOrigin: c.Config.AllowOrigin,
		Logger:      c.Logger,
	})
}
