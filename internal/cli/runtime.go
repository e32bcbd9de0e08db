package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kingrea/groupassess/internal/config"
	"github.com/kingrea/groupassess/internal/group"
	"github.com/kingrea/groupassess/internal/i18n"
	"github.com/kingrea/groupassess/internal/logbook"
	"github.com/kingrea/groupassess/internal/logging"
	"github.com/kingrea/groupassess/internal/transport"
)

// runtime is everything a command needs to talk to the course.
type runtime struct {
	cfg     *config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
	lookup  i18n.Lookup
	client  *transport.HTTPClient
}

func openRuntime(workspace string) (*runtime, error) {
	if err := config.InitDir(workspace); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", config.Dir, err)
	}
	cfg, err := config.NewConfig(workspace)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(workspace)
	if err != nil {
		return nil, err
	}
	journal, err := logbook.New(filepath.Join(cfg.LogsDir(), "journey.log"))
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("open journey log: %w", err)
	}
	lookup, err := i18n.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		logger.Printf("cli: %v; falling back to untranslated text", err)
		lookup = i18n.Identity
	}
	client := transport.NewHTTPClient(transport.SettingsFromConfig(cfg),
		transport.WithLogger(logger),
		transport.WithLookup(lookup),
	)
	return &runtime{cfg: cfg, logger: logger, journal: journal, lookup: lookup, client: client}, nil
}

func (r *runtime) Close() error {
	return r.logger.Close()
}

func (r *runtime) groupOptions(ctx context.Context) []group.Option {
	return []group.Option{
		group.WithContext(ctx),
		group.WithJournal(r.journal),
		group.WithLookup(r.lookup),
		group.WithMinimumAssessments(r.cfg.MinimumAssessments()),
		group.WithReenableOnDecline(r.cfg.ReenableOnDecline()),
	}
}

// session loads every section headlessly before a command acts on it.
func (r *runtime) session(ctx context.Context, confirmer group.Confirmer) (*group.Session, error) {
	s := group.NewSession(r.client, confirmer, r.groupOptions(ctx)...)
	if err := group.Drive(ctx, s, s.Init()); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *runtime) loadError(region group.Region) error {
	return fmt.Errorf("%s: %s", region, r.lookup("This section could not be loaded."))
}
