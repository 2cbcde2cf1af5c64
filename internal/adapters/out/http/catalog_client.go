// internal/adapters/out/http/catalog_client.go
package httpout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	productdom "storefront/internal/domain/product"
)

// DefaultCatalogBaseURL is the public Fake Store API.
const DefaultCatalogBaseURL = "https://fakestoreapi.com"

// CatalogClient reads products from a Fake-Store-compatible HTTP API.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// baseURL example:
//
//   - https://fakestoreapi.com
//   - local: http://localhost:3000
func NewCatalogClient(baseURL string, logger *zap.Logger) *CatalogClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultCatalogBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     logger.Named("catalog"),
	}
}

// flexID accepts numeric or string ids.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("catalog: id %s: %w", string(b), err)
	}
	*f = flexID(n.String())
	return nil
}

type productDTO struct {
	ID          flexID  `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	} `json:"rating"`
}

func (d productDTO) toDomain() productdom.Product {
	return productdom.Product{
		ID:          strings.TrimSpace(string(d.ID)),
		Title:       d.Title,
		Price:       d.Price,
		Description: d.Description,
		Category:    d.Category,
		Image:       d.Image,
		Rating:      productdom.Rating{Rate: d.Rating.Rate, Count: d.Rating.Count},
	}
}

func (c *CatalogClient) List(ctx context.Context) ([]productdom.Product, error) {
	var dtos []productDTO
	if err := c.getJSON(ctx, "/products", &dtos); err != nil {
		return nil, err
	}

	out := make([]productdom.Product, 0, len(dtos))
	for _, d := range dtos {
		p := d.toDomain()
		if err := p.Validate(); err != nil {
			c.log.Warn("skip product without id", zap.String("title", d.Title))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *CatalogClient) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	var d productDTO
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(id), &d); err != nil {
		return productdom.Product{}, err
	}
	p := d.toDomain()
	// The public API answers unknown ids with 200 and an empty body.
	if p.Validate() != nil {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return p, nil
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", path, err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return productdom.ErrNotFound
	case res.StatusCode >= 400:
		return fmt.Errorf("catalog: %s status=%d body=%s", path, res.StatusCode, strings.TrimSpace(string(body)))
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return nil
}
