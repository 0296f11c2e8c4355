package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/accounts"
	"github.com/tradelog-dev/tradelog/internal/config"
	"github.com/tradelog-dev/tradelog/internal/importer"
	"github.com/tradelog-dev/tradelog/internal/logging"
	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/session"
	"github.com/tradelog-dev/tradelog/internal/store"
)

// project is a loaded tradelog.yaml plus everything derived from it.
// Relative paths in the config resolve against dir.
type project struct {
	dir      string
	cfg      *config.Config
	log      zerolog.Logger
	accounts *accounts.Service
}

// loadProject reads .env and the config next to opts.configPath. When
// optional is set a missing config yields the defaults instead of an error.
func loadProject(cmd *cobra.Command, opts *rootOptions, optional bool) (*project, error) {
	path, err := filepath.Abs(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	dir := filepath.Dir(path)

	if err := config.LoadDotEnv(dir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && optional:
		cfg = config.Default("")
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("no %s at %s (run tradelog init first): %w", config.FileName, dir, err)
	default:
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log, ok := logging.New(level, cmd.ErrOrStderr())
	if !ok {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
	}

	return &project{
		dir:      dir,
		cfg:      cfg,
		log:      log,
		accounts: accounts.NewService(cfg.Accounts),
	}, nil
}

// path resolves a config-relative path.
func (p *project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

func (p *project) inboxDir() string {
	return p.path(p.cfg.Import.InboxDir)
}

// openStore opens the migrated trade database.
func (p *project) openStore() (*sql.DB, *store.SQLiteTrades, error) {
	db, err := store.OpenMigrated(p.path(p.cfg.Database.Path))
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewSQLiteTrades(db, p.log), nil
}

// dialect looks up name (or the configured dialect) and layers the config's
// synonyms, notes and tags over it.
func (p *project) dialect(name string) (importer.Dialect, error) {
	if name == "" {
		name = p.cfg.Import.Dialect
	}
	reg := importer.DefaultRegistry()
	d, ok := reg.Get(name)
	if !ok {
		return importer.Dialect{}, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(reg.Names(), ", "))
	}

	table := d.Synonyms.Clone()
	if err := table.Extend(p.cfg.Mapping.HeaderSynonyms); err != nil {
		return importer.Dialect{}, fmt.Errorf("mapping.header_synonyms: %w", err)
	}
	d.Synonyms = table
	if p.cfg.Import.Notes != "" {
		d.Notes = p.cfg.Import.Notes
	}
	if len(p.cfg.Import.Tags) > 0 {
		d.Tags = append([]string(nil), p.cfg.Import.Tags...)
	}
	return d, nil
}

func (p *project) sessionOptions(d importer.Dialect) (session.Options, error) {
	delim, err := p.cfg.DelimiterRune()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Synonyms:  d.Synonyms,
		Delimiter: delim,
		Notes:     d.Notes,
		Tags:      d.Tags,
	}, nil
}

// displayAccount is the account used to format money. Preview works without
// one, so unresolvable accounts fall back to an unnamed USD account.
func (p *project) displayAccount(id string) model.Account {
	a, err := p.accounts.Resolve(id)
	if err != nil {
		return model.Account{Currency: "USD"}
	}
	return a
}

// parseMappings turns repeated --map field=header flags into overrides.
// An empty header unmaps the field.
func parseMappings(flags []string) (map[model.Field]string, error) {
	out := make(map[model.Field]string, len(flags))
	for _, m := range flags {
		name, header, ok := strings.Cut(m, "=")
		if !ok {
			return nil, fmt.Errorf("--map %q: expected field=header", m)
		}
		f, err := model.ParseField(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("--map %q: %w", m, err)
		}
		out[f] = strings.TrimSpace(header)
	}
	return out, nil
}

// applyMappings assigns overrides in canonical field order.
func applyMappings(s *session.Session, overrides map[model.Field]string) error {
	for _, f := range model.Fields {
		h, ok := overrides[f]
		if !ok {
			continue
		}
		if err := s.Assign(f, h); err != nil {
			return err
		}
	}
	return nil
}
