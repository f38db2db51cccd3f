package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mrsarthi/MBM-recommender/models"
	"github.com/mrsarthi/MBM-recommender/utils/normalize"

	"github.com/spf13/afero"
)

var (
	ErrImportPathRequired = errors.New("import file path not provided")
	ErrLogPathRequired    = errors.New("log file path not provided")
	ErrMovieIDRequired    = errors.New("movie id is required")

	// ErrImportMissing is a hard failure: an empty history would
	// silently disable deduplication, so the caller must surface it.
	ErrImportMissing    = errors.New("import file not found")
	ErrImportUnreadable = errors.New("import file unreadable")
	ErrSchemaInvalid    = errors.New("import file has no Name or Title column")

	ErrWriteFailed = errors.New("watched log append failed")
)

// logHeader is the fixed first line of the app-owned watched log.
const logHeader = "movie_id,title"

// dislikeThreshold flags imported titles rated at or below this value
// (0-5 scale) as actively disliked rather than merely seen.
const dislikeThreshold = 2.5

// Service owns the merged watch history: normalized titles from a
// user-supplied ratings export plus TMDB ids from the append-only log
// the app itself writes. The two sets are independent identity spaces
// and are checked separately; they are never cross-reconciled.
type Service struct {
	mu         sync.RWMutex
	fs         afero.Fs
	importPath string
	logPath    string

	titlesSeen map[string]struct{}
	disliked   map[string]struct{}
	idsSeen    map[int64]struct{}
	entries    []models.WatchedEntry
	skipped    int
}

// NewService loads both history sources. A missing or malformed import
// file fails the whole load; a missing log file is created with just
// its header as a side effect.
func NewService(fs afero.Fs, importPath, logPath string) (*Service, error) {
	if strings.TrimSpace(importPath) == "" {
		return nil, ErrImportPathRequired
	}
	if strings.TrimSpace(logPath) == "" {
		return nil, ErrLogPathRequired
	}

	svc := &Service{
		fs:         fs,
		importPath: importPath,
		logPath:    logPath,
	}

	if err := svc.Reload(importPath); err != nil {
		return nil, err
	}

	return svc, nil
}

// IsSeen reports whether the candidate's normalized title is in the
// imported set or its TMDB id is in the logged set.
func (s *Service) IsSeen(c models.Candidate) bool {
	key := normalize.Normalize(c.Title)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if key != "" {
		if _, ok := s.titlesSeen[key]; ok {
			return true
		}
	}
	if c.TMDBID > 0 {
		if _, ok := s.idsSeen[c.TMDBID]; ok {
			return true
		}
	}
	return false
}

// IsDisliked reports whether the title was imported with a rating at or
// below the dislike threshold.
func (s *Service) IsDisliked(title string) bool {
	key := normalize.Normalize(title)
	if key == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.disliked[key]
	return ok
}

// MarkSeen appends the candidate to the watched log and then commits it
// to the in-memory id set. Idempotent: a candidate already seen by
// either criterion is a no-op. The append is confirmed (flushed and
// synced) before memory is touched, so a failed write leaves the store
// exactly as it was.
func (s *Service) MarkSeen(c models.Candidate) error {
	if c.TMDBID <= 0 {
		return ErrMovieIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isSeenLocked(c) {
		return nil
	}

	if err := s.appendLocked(c.TMDBID, c.Title); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	s.idsSeen[c.TMDBID] = struct{}{}
	s.entries = append(s.entries, models.WatchedEntry{MovieID: c.TMDBID, Title: c.Title})
	return nil
}

// Reload replaces both membership sets wholesale: the title set from
// the given import path (the current one when empty) and the id set
// from a fresh read of the log file. Prior in-memory state is not
// merged in. The write lock is held across the whole operation so a
// MarkSeen can never land between the log read and the swap and have
// its id dropped from the new snapshot.
func (s *Service) Reload(importPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(importPath) == "" {
		importPath = s.importPath
	}
	return s.reloadLocked(importPath)
}

// Entries returns the logged watched entries in append order.
func (s *Service) Entries() []models.WatchedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WatchedEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Stats reports the sizes of the two membership sets and how many log
// rows were skipped as unparseable on the last load.
func (s *Service) Stats() models.HistoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.HistoryStats{
		ImportedTitles: len(s.titlesSeen),
		DislikedTitles: len(s.disliked),
		LoggedIDs:      len(s.idsSeen),
		SkippedLogRows: s.skipped,
	}
}

func (s *Service) isSeenLocked(c models.Candidate) bool {
	if key := normalize.Normalize(c.Title); key != "" {
		if _, ok := s.titlesSeen[key]; ok {
			return true
		}
	}
	_, ok := s.idsSeen[c.TMDBID]
	return ok
}

// appendLocked writes one log record using an append-only open mode so
// prior marks can never be rewritten. The title is always quoted.
func (s *Service) appendLocked(id int64, title string) error {
	f, err := s.fs.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open watched log: %w", err)
	}

	line := strconv.FormatInt(id, 10) + "," + quoteTitle(title) + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("write watched log: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync watched log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close watched log: %w", err)
	}
	return nil
}

// reloadLocked builds fresh sets and swaps them in. Both files are
// fully read before anything is replaced, so a failed load leaves the
// prior snapshot intact. Caller holds s.mu.
func (s *Service) reloadLocked(importPath string) error {
	titles, disliked, err := loadImport(s.fs, importPath)
	if err != nil {
		return err
	}

	ids, entries, skipped, err := loadLog(s.fs, s.logPath)
	if err != nil {
		return err
	}
	if skipped > 0 {
		log.Printf("[history] skipped %d unparseable row(s) in %s", skipped, s.logPath)
	}

	s.importPath = importPath
	s.titlesSeen = titles
	s.disliked = disliked
	s.idsSeen = ids
	s.entries = entries
	s.skipped = skipped
	return nil
}

// loadImport reads the ratings export: a CSV with a header row that
// must contain a Name or Title column. An optional Rating column feeds
// the dislike set.
func loadImport(fs afero.Fs, path string) (map[string]struct{}, map[string]struct{}, error) {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrImportMissing, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}

	titleCol := -1
	ratingCol := -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "title":
			if titleCol < 0 {
				titleCol = i
			}
		case "rating":
			ratingCol = i
		}
	}
	if titleCol < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrSchemaInvalid, path)
	}

	titles := make(map[string]struct{})
	disliked := make(map[string]struct{})
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
		}
		if titleCol >= len(row) {
			continue
		}

		key := normalize.Normalize(row[titleCol])
		if key == "" {
			continue
		}
		titles[key] = struct{}{}

		if ratingCol >= 0 && ratingCol < len(row) {
			if rating, err := strconv.ParseFloat(strings.TrimSpace(row[ratingCol]), 64); err == nil && rating <= dislikeThreshold {
				disliked[key] = struct{}{}
			}
		}
	}

	return titles, disliked, nil
}

// loadLog reads the append-only watched log, creating it with just the
// header when absent. Rows whose id does not parse as an integer are
// skipped and counted, never fatal.
func loadLog(fs afero.Fs, path string) (map[int64]struct{}, []models.WatchedEntry, int, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("stat watched log: %w", err)
	}
	if !exists {
		if err := afero.WriteFile(fs, path, []byte(logHeader+"\n"), 0o644); err != nil {
			return nil, nil, 0, fmt.Errorf("create watched log: %w", err)
		}
		return make(map[int64]struct{}), nil, 0, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open watched log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	ids := make(map[int64]struct{})
	var entries []models.WatchedEntry
	skipped := 0
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(row) == 0 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "movie_id") {
				continue
			}
		}

		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			skipped++
			continue
		}

		title := ""
		if len(row) > 1 {
			title = row[1]
		}

		ids[id] = struct{}{}
		entries = append(entries, models.WatchedEntry{MovieID: id, Title: title})
	}

	return ids, entries, skipped, nil
}

// quoteTitle CSV-quotes a display title, doubling embedded quotes.
func quoteTitle(title string) string {
	return `"` + strings.ReplaceAll(title, `"`, `""`) + `"`
}
