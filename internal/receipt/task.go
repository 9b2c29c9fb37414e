package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/repo"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// TypeRender is the asynq task type for background receipt rendering.
const TypeRender = "receipt:render"

type renderPayload struct {
	SaleID int64 `json:"sale_id"`
}

// Enqueuer schedules receipt render tasks on the configured queue.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// EnqueueReceipt queues a render task for the sale.
func (e *Enqueuer) EnqueueReceipt(saleID int64) error {
	if e == nil || e.Client == nil {
		return nil
	}
	payload, err := json.Marshal(renderPayload{SaleID: saleID})
	if err != nil {
		return err
	}
	queue := e.Queue
	if queue == "" {
		queue = "default"
	}
	_, err = e.Client.Enqueue(asynq.NewTask(TypeRender, payload),
		asynq.Queue(queue), asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
	return err
}

// SaleSource loads the entities a receipt is rendered from.
type SaleSource interface {
	Sale(ctx context.Context, id int64) (sale.Record, []sale.Item, error)
	Customer(ctx context.Context, id int64) (sale.Customer, error)
	Method(ctx context.Context, id int64) (sale.Method, error)
}

// Worker renders receipts in the background and caches the text so the
// register can reprint without touching the database.
type Worker struct {
	Source SaleSource
	Store  StoreInfo
	Redis  *redis.Client
	TTL    time.Duration
	Log    zerolog.Logger
}

func cacheKey(saleID int64) string {
	return fmt.Sprintf("receipt:%d", saleID)
}

// HandleRender processes one render task.
func (w *Worker) HandleRender(ctx context.Context, t *asynq.Task) error {
	var payload renderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.count("error")
		return fmt.Errorf("decode payload: %w", err)
	}
	text, err := w.build(ctx, payload.SaleID)
	if err != nil {
		w.count("error")
		return err
	}
	if w.Redis != nil {
		ttl := w.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		if err := w.Redis.Set(ctx, cacheKey(payload.SaleID), text, ttl).Err(); err != nil {
			w.count("error")
			return err
		}
	}
	w.count("ok")
	w.Log.Info().Int64("sale_id", payload.SaleID).Msg("receipt rendered")
	return nil
}

// Cached returns the pre-rendered receipt text when present.
func (w *Worker) Cached(ctx context.Context, saleID int64) (string, bool) {
	if w.Redis == nil {
		return "", false
	}
	text, err := w.Redis.Get(ctx, cacheKey(saleID)).Result()
	if err != nil {
		return "", false
	}
	return text, true
}

// Build renders a sale's receipt from live data.
func (w *Worker) Build(ctx context.Context, saleID int64) (string, error) {
	return w.build(ctx, saleID)
}

func (w *Worker) build(ctx context.Context, saleID int64) (string, error) {
	rec, items, err := w.Source.Sale(ctx, saleID)
	if err != nil {
		return "", fmt.Errorf("load sale %d: %w", saleID, err)
	}
	customer, err := w.Source.Customer(ctx, rec.CustomerID)
	if err != nil {
		return "", fmt.Errorf("load customer %d: %w", rec.CustomerID, err)
	}
	method, err := w.Source.Method(ctx, rec.PaymentMethodID)
	if err != nil {
		return "", fmt.Errorf("load method %d: %w", rec.PaymentMethodID, err)
	}
	return Render(Data{
		Store:    w.Store,
		Sale:     rec,
		Items:    items,
		Customer: customer,
		Method:   method,
		WalkIn:   rec.CustomerID == repo.WalkInCustomerID,
	}), nil
}

func (w *Worker) count(result string) {
	if obs.ReceiptJobsTotal != nil {
		obs.ReceiptJobsTotal.WithLabelValues(result).Inc()
	}
}

// Mux returns an asynq mux with the receipt handlers registered.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRender, w.HandleRender)
	return mux
}
