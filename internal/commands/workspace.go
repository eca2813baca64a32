package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/splitbooks-dev/splitbooks/internal/config"
	"github.com/splitbooks-dev/splitbooks/internal/engine"
	"github.com/splitbooks-dev/splitbooks/internal/importer"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/quality"
	"github.com/splitbooks-dev/splitbooks/internal/store"
)

// configFile is the policy file at the workspace root.
const configFile = "splitbooks.yaml"

// workspace is a loaded splitbooks directory: the policy, the runtime
// environment and the paths everything else hangs off.
type workspace struct {
	dir string
	cfg *config.Config
	env config.Env
}

func loadWorkspace(dir string) (*workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(abs, configFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	envPath := filepath.Join(abs, ".env")
	var env config.Env
	if _, statErr := os.Stat(envPath); statErr == nil {
		env, err = config.LoadEnv(envPath)
	} else {
		env, err = config.LoadEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	return &workspace{dir: abs, cfg: cfg, env: env}, nil
}

// storePath resolves the database location relative to the workspace
// unless the environment gave an absolute path.
func (ws *workspace) storePath() string {
	if filepath.IsAbs(ws.env.StorePath) {
		return ws.env.StorePath
	}
	return filepath.Join(ws.dir, ws.env.StorePath)
}

func (ws *workspace) openStore() (*store.Store, error) {
	return store.Open(ws.storePath())
}

// resumeEngine rebuilds an engine from the stored snapshot and the
// open review items, so decisions post on top of everything already
// booked.
func (ws *workspace) resumeEngine(st *store.Store) (*engine.Engine, error) {
	classifier, err := ws.cfg.BuildClassifier()
	if err != nil {
		return nil, err
	}
	calc, err := ws.cfg.BuildCalculator()
	if err != nil {
		return nil, err
	}

	snap, lastSeq, err := st.LatestSnapshot()
	if err != nil {
		return nil, err
	}
	items, err := st.PendingReviews()
	if err != nil {
		return nil, err
	}
	return engine.Resume(classifier, calc, snap, items, lastSeq)
}

// ingest reads every configured source and returns the merged batch
// plus the data-quality notes for skipped rows.
func (ws *workspace) ingest() ([]model.Transaction, []quality.Note, error) {
	roster := ws.cfg.Roster()
	registry := importer.DefaultRegistry(roster)

	sources := make([]importer.Source, 0, len(ws.cfg.Sources))
	for _, s := range ws.cfg.Sources {
		src := importer.Source{Path: s.Path, Format: s.Format}
		if s.Payer != "" {
			// Validated against the roster when the config loaded.
			src.Payer, _ = roster.Resolve(s.Payer)
		}
		sources = append(sources, src)
	}
	return importer.LoadSources(ws.dir, registry, sources)
}

// runBatch is the shared body of process and serve: continue the book
// from the store, ingest whatever the sources added since the last
// run, log quality notes, persist the session. The engine always ends
// up agreeing with the store, so neither surface can report a balance
// the other contradicts. The caller owns the returned store handle.
func (ws *workspace) runBatch(out io.Writer) (*engine.Engine, *store.Store, error) {
	st, err := ws.openStore()
	if err != nil {
		return nil, nil, err
	}

	eng, err := ws.sessionBatch(st, out)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return eng, st, nil
}

func (ws *workspace) sessionBatch(st *store.Store, out io.Writer) (*engine.Engine, error) {
	eng, err := ws.resumeEngine(st)
	if err != nil {
		return nil, err
	}

	batch, notes, err := ws.ingest()
	if err != nil {
		return nil, err
	}
	if err := quality.Append(ws.dir, notes); err != nil {
		return nil, err
	}
	eng.NoteSkipped(len(notes))

	// Rows booked by an earlier run are already in the snapshot or the
	// restored review queue; only the remainder gets processed.
	known, err := st.KnownIDs()
	if err != nil {
		return nil, err
	}
	var fresh []model.Transaction
	for _, tx := range batch {
		if !known[tx.ID] {
			fresh = append(fresh, tx)
		}
	}

	if err := eng.Process(fresh); err != nil {
		return nil, err
	}
	if err := st.SaveRun(eng.AuditTrail(), eng.PendingReview()); err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Processed %d transactions from %d sources\n",
		len(batch), len(ws.cfg.Sources))
	return eng, nil
}
