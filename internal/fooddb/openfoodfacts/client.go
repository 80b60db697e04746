package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/nutrition-hub/internal/fooddb"
)

const (
	defaultBaseURL   = "https://world.openfoodfacts.org"
	defaultUserAgent = "nutrition-hub/1.0"
)

// Client talks to the public Open Food Facts API. All fields are read-only
// after construction; no tokens are cached between calls.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

var _ fooddb.Database = (*Client)(nil)

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (fooddb.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return fooddb.Product{}, fmt.Errorf("barcode is empty")
	}

	u := fmt.Sprintf("%s/api/v2/product/%s.json", c.base(), url.PathEscape(barcode))
	body, err := c.get(ctx, u, "product")
	if err != nil {
		return fooddb.Product{}, err
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fooddb.Product{}, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return fooddb.Product{}, fmt.Errorf("openfoodfacts barcode %q: %w", barcode, fooddb.ErrNoMatch)
	}
	if parsed.Product.Code == "" {
		parsed.Product.Code = barcode
	}

	return toProduct(parsed.Product), nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]fooddb.Product, error) {
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		c.base(),
		url.QueryEscape(strings.TrimSpace(query)),
		limit,
	)
	body, err := c.get(ctx, u, "search")
	if err != nil {
		return nil, err
	}

	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode openfoodfacts search response: %w", err)
	}

	out := make([]fooddb.Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" || strings.TrimSpace(p.Code) == "" {
			continue
		}
		out = append(out, toProduct(p))
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("openfoodfacts query %q: %w", query, fooddb.ErrNoMatch)
	}
	return out, nil
}

func (c *Client) base() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	return base
}

func (c *Client) get(ctx context.Context, u string, op string) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts %s request: %w", op, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts %s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts %s response: %w", op, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("openfoodfacts %s: %w", op, fooddb.ErrNoMatch)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openfoodfacts %s request failed with status %d", op, resp.StatusCode)
	}
	return body, nil
}

func toProduct(p offProduct) fooddb.Product {
	sodium := per100g(p.Nutriments, "sodium")
	if sodium != nil {
		mg := *sodium * 1000
		sodium = &mg
	}

	return fooddb.Product{
		ExternalID:         "off:" + strings.TrimSpace(p.Code),
		Name:               strings.TrimSpace(p.ProductName),
		Brand:              firstCSV(p.Brands),
		Category:           firstCSV(p.Categories),
		Calories:           per100g(p.Nutriments, "energy-kcal"),
		ProteinG:           per100g(p.Nutriments, "proteins"),
		CarbsG:             per100g(p.Nutriments, "carbohydrates"),
		FatG:               per100g(p.Nutriments, "fat"),
		FiberG:             per100g(p.Nutriments, "fiber"),
		SugarG:             per100g(p.Nutriments, "sugars"),
		SodiumMg:           sodium,
		ServingSize:        strings.TrimSpace(p.ServingSize),
		ServingWeightGrams: servingGrams(p),
	}
}

// per100g reads "<base>_100g"; the catalog stores per-100g values only.
func per100g(n map[string]any, base string) *float64 {
	if v, ok := parseFloatAny(n[base+"_100g"]); ok {
		return &v
	}
	return nil
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func servingGrams(p offProduct) *float64 {
	if p.ServingQuantity > 0 {
		unit := strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit))
		if unit == "" || unit == "g" || unit == "ml" {
			v := p.ServingQuantity
			return &v
		}
	}
	return nil
}

func firstCSV(s string) string {
	first, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(first)
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	Categories          string         `json:"categories"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
