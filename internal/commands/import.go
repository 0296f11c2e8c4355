package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradelog-dev/tradelog/internal/gitops"
	"github.com/tradelog-dev/tradelog/internal/importer"
	"github.com/tradelog-dev/tradelog/internal/importlog"
	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/session"
	"github.com/tradelog-dev/tradelog/internal/store"
)

type importFlags struct {
	account   string
	mappings  []string
	dialect   string
	dryRun    bool
	chunkSize int
	inbox     bool
}

func newImportCommand(root *rootOptions) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import trade-history CSV files into the journal",
		Long: `Import reads each CSV file, maps its columns onto trade fields, validates
every row and commits the valid rows in chunks. Trades that were already
imported are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !flags.inbox {
				return errors.New("no files given (pass paths or --inbox)")
			}
			p, err := loadProject(cmd, root, false)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), p, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.account, "account", "a", "", "account to attribute trades to (default: the only configured account)")
	cmd.Flags().StringArrayVarP(&flags.mappings, "map", "m", nil, "override a column mapping as field=header (repeatable, empty header unmaps)")
	cmd.Flags().StringVar(&flags.dialect, "dialect", "", "broker dialect (default: import.dialect)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate and commit to memory only")
	cmd.Flags().IntVar(&flags.chunkSize, "chunk-size", 0, "records per commit (default: import.chunk_size)")
	cmd.Flags().BoolVar(&flags.inbox, "inbox", false, "also import every CSV in import.inbox_dir and move it to processed/")

	return cmd
}

// importTarget is one file to import. Inbox files are moved once imported.
type importTarget struct {
	path      string
	fromInbox bool
}

func runImport(ctx context.Context, out io.Writer, p *project, flags importFlags, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	acct, err := p.accounts.Resolve(flags.account)
	if err != nil {
		return err
	}
	d, err := p.dialect(flags.dialect)
	if err != nil {
		return err
	}
	opts, err := p.sessionOptions(d)
	if err != nil {
		return err
	}
	overrides, err := parseMappings(flags.mappings)
	if err != nil {
		return err
	}

	targets := make([]importTarget, 0, len(paths))
	for _, path := range paths {
		targets = append(targets, importTarget{path: path})
	}
	if flags.inbox {
		files, err := importer.Scan(p.inboxDir())
		if err != nil {
			return err
		}
		for _, f := range files {
			targets = append(targets, importTarget{path: f.Path, fromInbox: true})
		}
	}
	if len(targets) == 0 {
		fmt.Fprintf(out, "Nothing to import in %s\n", p.inboxDir())
		return nil
	}

	var repo store.TradeRepository
	if flags.dryRun {
		repo = store.NewMemoryTrades()
	} else {
		db, trades, err := p.openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		repo = trades
	}

	chunk := p.cfg.Import.ChunkSize
	if flags.chunkSize > 0 {
		chunk = flags.chunkSize
	}
	imp := session.NewImporter(repo, chunk, p.log)

	var entries []importlog.Entry
	failed := 0
	for _, t := range targets {
		entry, err := importFile(ctx, out, p, imp, opts, overrides, acct, t.path, flags.dryRun)
		entries = append(entries, entry)
		if err != nil {
			failed++
			p.log.Error().Err(err).Str("file", t.path).Msg("import failed")
			continue
		}
		if t.fromInbox && !flags.dryRun {
			if err := importer.MarkProcessed(filepath.Dir(t.path), filepath.Base(t.path)); err != nil {
				failed++
				last := &entries[len(entries)-1]
				last.Detail += "; " + err.Error()
				p.log.Error().Err(err).Str("file", t.path).Msg("moving imported file failed")
			}
		}
	}

	if err := importlog.Append(p.dir, entries); err != nil {
		return err
	}
	if !flags.dryRun && gitops.IsRepo(p.dir) {
		if err := commitImportLog(out, p, entries); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(targets))
	}
	return nil
}

// commitImportLog records the attempts in the project's git history.
func commitImportLog(out io.Writer, p *project, entries []importlog.Entry) error {
	rel, err := filepath.Rel(p.dir, importlog.Path(p.dir))
	if err != nil {
		return fmt.Errorf("locating import log: %w", err)
	}
	msg := fmt.Sprintf("import: %s", entries[0].File)
	if len(entries) > 1 {
		msg = fmt.Sprintf("import: %d files", len(entries))
	}
	hash, err := gitops.Commit(p.dir, msg, p.cfg.Git.AuthorName, p.cfg.Git.AuthorEmail, rel)
	if err != nil {
		return err
	}
	if hash != "" {
		fmt.Fprintf(out, "Recorded in git as %s\n", hash)
	}
	return nil
}

// importFile drives one session through the whole workflow and returns
// the log entry describing how it ended.
func importFile(ctx context.Context, out io.Writer, p *project, imp *session.Importer, opts session.Options,
	overrides map[model.Field]string, acct model.Account, path string, dryRun bool) (importlog.Entry, error) {
	name := filepath.Base(path)
	entry := importlog.Entry{
		Timestamp: time.Now().UTC(),
		File:      name,
		Account:   acct.ID,
		Outcome:   importlog.OutcomeRejected,
	}
	reject := func(err error) (importlog.Entry, error) {
		entry.Detail = err.Error()
		fmt.Fprintf(out, "Rejected %s: %s\n", name, err)
		return entry, err
	}

	s := session.New(imp, opts, p.log)
	defer s.Close()

	f, err := os.Open(path)
	if err != nil {
		return reject(fmt.Errorf("opening %s: %w", path, err))
	}
	err = s.Load(name, f)
	f.Close()
	if err != nil {
		return reject(err)
	}
	if err := applyMappings(s, overrides); err != nil {
		return reject(err)
	}

	fmt.Fprintln(out, title(name))
	fmt.Fprintln(out, renderMapping(s.Headers(), s.Columns()))
	if err := s.ConfirmMapping(); err != nil {
		return reject(err)
	}

	summary, err := s.Preview()
	if err != nil {
		return reject(err)
	}
	entry.Valid, entry.Total = summary.Valid, summary.Total
	printValidation(out, summary, acct)

	if err := s.SelectAccount(acct.ID); err != nil {
		return reject(err)
	}

	start := time.Now()
	res, err := s.Import(ctx, func(pct float64) {
		fmt.Fprintf(out, "  progress %3.0f%%\n", pct)
	})
	entry.Committed = res.Committed
	if err != nil {
		if errors.Is(err, session.ErrNoValidRows) {
			return reject(err)
		}
		entry.Outcome = importlog.OutcomeFailed
		entry.Detail = err.Error()
		fmt.Fprintf(out, "Import of %s failed after %d of %d records: %s\n", name, res.Committed, res.Total, err)
		return entry, err
	}

	entry.Outcome = importlog.OutcomeImported
	verb := "Imported"
	if dryRun {
		entry.Outcome = importlog.OutcomeDryRun
		verb = "Dry run: would import"
	}
	entry.Detail = fmt.Sprintf("%d new, %d duplicates", res.Inserted, res.Duplicates())
	fmt.Fprintf(out, "%s %d trades into %s (%s) in %s\n", verb, res.Committed, acct.ID, entry.Detail, durationString(time.Since(start)))
	return entry, nil
}
