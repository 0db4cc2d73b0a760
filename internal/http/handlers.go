package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/order-fulfillment-service/internal/config"
	"github.com/fairyhunter13/order-fulfillment-service/internal/fulfill"
	"github.com/fairyhunter13/order-fulfillment-service/internal/http/openapi"
	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

// App carries the handler dependencies.
type App struct {
	Cfg     config.Config
	Service *fulfill.Service
	started time.Time

	ordersPlaced   atomic.Uint64
	ordersRejected atomic.Uint64
}

// NewApp constructs the HTTP application around the fulfillment service.
func NewApp(cfg config.Config, svc *fulfill.Service) *App {
	return &App{Cfg: cfg, Service: svc, started: time.Now()}
}

type addProductRequest struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int64           `json:"stock"`
	Category  string          `json:"category"`
}

type placeOrderRequest struct {
	Items []model.OrderItem `json:"items"`
}

func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Service.ListProducts())
	case http.MethodPost:
		a.addProduct(w, r)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) addProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := a.Service.AddProduct(req.Name, req.UnitPrice, req.Stock, req.Category)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) ordersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Service.ListOrders())
	case http.MethodPost:
		a.placeOrder(w, r)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := a.Service.PlaceOrder(req.Items)
	if err != nil {
		a.ordersRejected.Add(1)
		WriteDomainError(w, err)
		return
	}
	a.ordersPlaced.Add(1)
	writeJSON(w, http.StatusCreated, o)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"products_total":  len(a.Service.ListProducts()),
		"orders_total":    len(a.Service.ListOrders()),
		"orders_placed":   a.ordersPlaced.Load(),
		"orders_rejected": a.ordersRejected.Load(),
		"uptime_sec":      time.Since(a.started).Seconds(),
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON enforces the JSON content type and strict field checking for
// POST bodies. It writes the error response itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}
