package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/splitbooks-dev/splitbooks/internal/engine"
	"github.com/splitbooks-dev/splitbooks/internal/httpapi"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/store"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [directory]",
		Short: "Process the workspace and serve the review API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspaceDir(args))
			if err != nil {
				return err
			}
			return runServe(cmd, ws)
		},
	}
}

func runServe(cmd *cobra.Command, ws *workspace) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := ws.env.Logger()

	eng, st, err := ws.runBatch(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer st.Close()

	rec := &persistingReconciler{eng: eng, st: st}
	srv := &http.Server{
		Addr:              ws.env.ListenAddr,
		Handler:           httpapi.New(rec, ws.cfg.Roster(), logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("review API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// persistingReconciler is the engine plus write-through persistence:
// decisions taken over the API survive a restart.
type persistingReconciler struct {
	eng *engine.Engine
	st  *store.Store
}

func (p *persistingReconciler) FinalBalance() model.BalanceReport { return p.eng.FinalBalance() }
func (p *persistingReconciler) AuditTrail() []model.AuditEntry    { return p.eng.AuditTrail() }
func (p *persistingReconciler) PendingReview() []model.ReviewItem { return p.eng.PendingReview() }

func (p *persistingReconciler) ResolveReview(id uuid.UUID, d model.ReviewDecision) (model.AuditEntry, error) {
	entry, err := p.eng.ResolveReview(id, d)
	if err != nil {
		return model.AuditEntry{}, err
	}
	if err := persistResolution(p.st, p.eng, id, entry); err != nil {
		return model.AuditEntry{}, fmt.Errorf("decision posted but not persisted: %w", err)
	}
	return entry, nil
}
