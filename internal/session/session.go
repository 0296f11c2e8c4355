package session

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/tradelog-dev/tradelog/internal/importer"
	"github.com/tradelog-dev/tradelog/internal/mapping"
	"github.com/tradelog-dev/tradelog/internal/model"
	"github.com/tradelog-dev/tradelog/internal/trade"
	"github.com/tradelog-dev/tradelog/internal/validate"
)

// Options configure a Session.
type Options struct {
	Synonyms  mapping.Table // nil means mapping.DefaultTable
	Delimiter rune          // 0 sniffs the delimiter
	Notes     string
	Tags      []string
}

// Session holds one import from file selection to completion. It is not
// safe for concurrent use; callers drive it from a single goroutine.
type Session struct {
	opts     Options
	mapper   *mapping.Mapper
	importer *Importer
	log      zerolog.Logger

	state    State
	file     string
	table    *importer.Table
	columns  mapping.ColumnMap
	summary  validate.Summary
	account  string
	progress float64
	result   Result
	err      error
}

// New creates an idle session that commits through imp.
func New(imp *Importer, opts Options, log zerolog.Logger) *Session {
	table := opts.Synonyms
	if table == nil {
		table = mapping.DefaultTable()
	}
	return &Session{
		opts:     opts,
		mapper:   mapping.NewMapper(table),
		importer: imp,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// Load parses a file and guesses its column map. A file that cannot be
// parsed leaves the session idle with nothing retained.
func (s *Session) Load(name string, r io.Reader) error {
	next, err := Transition(s.state, Event{Kind: EventLoad})
	if err != nil {
		return err
	}

	tbl, err := importer.ReadTable(r, s.opts.Delimiter)
	if err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("file rejected")
		return fmt.Errorf("loading %s: %w", name, err)
	}

	s.state = next
	s.file = name
	s.table = tbl
	s.columns = s.mapper.Guess(tbl.Headers)
	s.log.Debug().
		Str("file", name).
		Int("headers", len(tbl.Headers)).
		Int("rows", len(tbl.Rows)).
		Int("mapped", len(s.columns)).
		Msg("file loaded")
	return nil
}

// Assign maps f to header, or unmaps f when header is empty. Editing the
// mapping returns the session to Loaded.
func (s *Session) Assign(f model.Field, header string) error {
	next, err := Transition(s.state, Event{Kind: EventEditMapping})
	if err != nil {
		return err
	}
	if header != "" && !s.hasHeader(header) {
		return fmt.Errorf("assigning %s: no column named %q", f, header)
	}
	if err := s.columns.Assign(f, header); err != nil {
		return err
	}
	s.state = next
	return nil
}

// ConfirmMapping accepts the column map. It fails with a
// *mapping.FieldMappingError while a required field is unmapped.
func (s *Session) ConfirmMapping() error {
	if s.state == Loaded {
		if err := s.columns.Check(s.table.Headers); err != nil {
			return err
		}
	}
	next, err := Transition(s.state, Event{Kind: EventConfirmMapping, Ready: s.ready()})
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Preview validates every row against the confirmed map.
func (s *Session) Preview() (validate.Summary, error) {
	next, err := Transition(s.state, Event{Kind: EventPreview})
	if err != nil {
		return validate.Summary{}, err
	}
	s.summary = validate.Rows(s.table.Rows, s.columns)
	s.state = next
	s.log.Debug().Int("valid", s.summary.Valid).Int("total", s.summary.Total).Msg("rows validated")
	return s.summary, nil
}

// SelectAccount sets the account the records are imported into.
func (s *Session) SelectAccount(accountID string) error {
	if s.state != Mapped && s.state != Previewed {
		return fmt.Errorf("%w: select-account while %s", ErrInvalidTransition, s.state)
	}
	s.account = accountID
	return nil
}

// Import commits the valid rows. On failure the session moves to Failed and
// the error is kept for Err.
func (s *Session) Import(ctx context.Context, progress ProgressFunc) (Result, error) {
	next, err := Transition(s.state, Event{
		Kind:      EventStartImport,
		AccountID: s.account,
		ValidRows: s.summary.Valid,
	})
	if err != nil {
		return Result{}, err
	}
	s.state = next
	s.progress = 0

	recs := trade.BuildRecords(s.summary, trade.Defaults{
		AccountID: s.account,
		Notes:     s.opts.Notes,
		Tags:      s.opts.Tags,
	})
	res, err := s.importer.Import(ctx, recs, func(p float64) {
		s.progress = p
		if progress != nil {
			progress(p)
		}
	})
	s.result = res
	if err != nil {
		s.state, _ = Transition(s.state, Event{Kind: EventImportFailed})
		s.err = err
		return res, err
	}
	s.state, _ = Transition(s.state, Event{Kind: EventImportSucceeded})
	return res, nil
}

// Close discards everything held in memory. Committed records are not
// affected.
func (s *Session) Close() {
	s.state, _ = Transition(s.state, Event{Kind: EventClose})
	s.file = ""
	s.table = nil
	s.columns = nil
	s.summary = validate.Summary{}
	s.account = ""
	s.progress = 0
	s.result = Result{}
	s.err = nil
}

// State returns the current workflow state.
func (s *Session) State() State { return s.state }

// Progress returns the last reported import progress.
func (s *Session) Progress() float64 { return s.progress }

func (s *Session) File() string { return s.file }

func (s *Session) AccountID() string { return s.account }

func (s *Session) Result() Result { return s.result }

// Err returns the failure that moved the session to Failed.
func (s *Session) Err() error { return s.err }

func (s *Session) Summary() validate.Summary { return s.summary }

// Outcomes returns the per-row results of the last preview.
func (s *Session) Outcomes() []validate.Outcome { return s.summary.Outcomes }

// Headers returns the headers of the loaded file.
func (s *Session) Headers() []string {
	if s.table == nil {
		return nil
	}
	return s.table.Headers
}

// Columns returns a copy of the current column map.
func (s *Session) Columns() mapping.ColumnMap {
	if s.columns == nil {
		return nil
	}
	return s.columns.Clone()
}

// Missing returns the required fields still without a usable header.
func (s *Session) Missing() []model.Field {
	if s.table == nil {
		return model.RequiredFields
	}
	return s.columns.Missing(s.table.Headers)
}

func (s *Session) ready() bool {
	return s.table != nil && s.columns.Ready(s.table.Headers)
}

func (s *Session) hasHeader(h string) bool {
	for _, existing := range s.table.Headers {
		if existing == h {
			return true
		}
	}
	return false
}
