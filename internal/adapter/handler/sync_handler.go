package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bn-mk/fanwave-crypto/internal/application/service"
)

// syncRunTimeout bounds a manually triggered run the same way the scheduler
// interval bounds a periodic one.
const syncRunTimeout = 5 * time.Minute

type SyncHandler struct {
	sync   *service.SyncService
	logger *slog.Logger
}

func NewSyncHandler(sync *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

// Trigger serves POST /api/crypto/sync. The run happens in the background so
// a slow upstream cannot hold the request open; progress lands in the logs.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncRunTimeout)
		defer cancel()

		if _, err := h.sync.RunOnce(ctx); err != nil {
			h.logger.Error("manual sync failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, envelope{
		Success: true,
		Message: "Market sync started",
	})
}
