// Package repository implements file-backed persistence for audit ledger
// segments: one newline-delimited JSON file per calendar day, rotated to a
// timestamped name when the size ceiling is exceeded, and archived to a
// gocloud blob bucket when retention says so.
package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gocloud.dev/blob"

	apperrors "github.com/allisson/compliance-vault/internal/errors"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"

	// Register blob drivers usable without extra cloud SDK modules. Cloud
	// object stores (s3, gcs, azure) are linked in by the deploying binary.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

const segmentDateLayout = "2006-01-02"

// Segment describes one ledger segment file.
type Segment struct {
	Name string    // file name, e.g. "audit-2026-08-30.log"
	Date time.Time // calendar day the segment belongs to (UTC midnight)
	Size int64
}

// SegmentStore persists audit events to per-day segment files under a single
// directory. Appends to the same day are serialized with a per-day lock;
// appends to different days proceed independently.
type SegmentStore struct {
	dir      string
	prefix   string
	maxBytes int64
	archive  *blob.Bucket

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-day append locks
}

// NewSegmentStore creates the store and ensures the segment directory exists.
// The archive bucket may be nil if archival is not configured.
func NewSegmentStore(dir, prefix string, maxBytes int64, archive *blob.Bucket) (*SegmentStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &SegmentStore{
		dir:      dir,
		prefix:   prefix,
		maxBytes: maxBytes,
		archive:  archive,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// OpenArchiveBucket opens the gocloud blob bucket receiving archived segments.
func OpenArchiveBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive bucket: %w", err)
	}
	return bucket, nil
}

// dayLock returns the append lock for one calendar day.
func (s *SegmentStore) dayLock(day string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[day]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[day] = lock
	}
	return lock
}

// canonicalName returns the canonical segment file name for a day.
func (s *SegmentStore) canonicalName(day string) string {
	return fmt.Sprintf("%s-%s.log", s.prefix, day)
}

// Append encodes the event as one JSON line and appends it to the day's
// canonical segment, rotating the segment first if it exceeds the size
// ceiling. Rotation renames the full file to a timestamped name and lets a
// fresh canonical file take over; the hash chain is a property of event
// order, so the rename does not break it.
//
// The segment day comes from the chain stamp (Metadata.EncryptedAt), not
// the caller-supplied event timestamp: segments read in date order must
// replay the chain in append order, and a backdated timestamp would file
// the event ahead of its predecessors.
func (s *SegmentStore) Append(ctx context.Context, event *ledgerDomain.AuditEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	day := event.Metadata.EncryptedAt.UTC().Format(segmentDateLayout)
	lock := s.dayLock(day)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(s.dir, s.canonicalName(day))
	if err := s.rotateIfOversized(path, day); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to open segment: %v", err))
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to append event: %v", err))
	}
	return file.Sync()
}

// rotateIfOversized renames the canonical segment to a timestamped name when
// it has reached the size ceiling. A missing segment file is not an error.
func (s *SegmentStore) rotateIfOversized(path, day string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to stat segment: %v", err))
	}
	if s.maxBytes <= 0 || info.Size() < s.maxBytes {
		return nil
	}

	millis := time.Now().UnixMilli()
	rotated := filepath.Join(s.dir, fmt.Sprintf("%s-%s-%d.log", s.prefix, day, millis))
	for {
		if _, err := os.Stat(rotated); os.IsNotExist(err) {
			break
		}
		// Two rotations inside one millisecond must not collide
		millis++
		rotated = filepath.Join(s.dir, fmt.Sprintf("%s-%s-%d.log", s.prefix, day, millis))
	}
	if err := os.Rename(path, rotated); err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to rotate segment: %v", err))
	}
	return nil
}

// ListSegments returns segments whose day intersects [from, to], sorted in
// append order (rotated predecessors before the canonical file of each day).
func (s *SegmentStore) ListSegments(ctx context.Context, from, to time.Time) ([]Segment, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to list segments: %v", err))
	}

	fromDay := from.UTC().Truncate(24 * time.Hour)
	toDay := to.UTC().Truncate(24 * time.Hour)

	var segments []Segment
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := s.segmentDate(entry.Name())
		if !ok {
			continue
		}
		if date.Before(fromDay) || date.After(toDay) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Vanished between listing and stat: transient, skip
			continue
		}
		segments = append(segments, Segment{Name: entry.Name(), Date: date, Size: info.Size()})
	}

	// Lexical order gives append order: "-<millis>.log" sorts before ".log"
	// within one day, and the date prefix orders days.
	sort.Slice(segments, func(i, j int) bool { return segments[i].Name < segments[j].Name })
	return segments, nil
}

// segmentDateRegex extracts the ISO date from canonical and rotated names.
var segmentDateRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:-\d+)?\.log$`)

// segmentDate parses the calendar day out of a segment file name.
func (s *SegmentStore) segmentDate(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, s.prefix+"-")
	if !ok {
		return time.Time{}, false
	}
	match := segmentDateRegex.FindStringSubmatch(rest)
	if match == nil {
		return time.Time{}, false
	}
	date, err := time.Parse(segmentDateLayout, match[1])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// ReadSegment decodes all events of one segment in file order. A segment that
// vanished since listing yields ErrSegmentNotFound, which callers treat as a
// retryable fault rather than a chain violation.
func (s *SegmentStore) ReadSegment(ctx context.Context, name string) ([]*ledgerDomain.AuditEvent, error) {
	file, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, ledgerDomain.ErrSegmentNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to open segment: %v", err))
	}
	defer file.Close()

	var events []*ledgerDomain.AuditEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event := &ledgerDomain.AuditEvent{}
		if err := json.Unmarshal(line, event); err != nil {
			return nil, fmt.Errorf("segment %s contains an undecodable record: %w", name, ledgerDomain.ErrChainIntegrity)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to read segment: %v", err))
	}
	return events, nil
}

// TailEvent returns the last event in append order across all segments, or
// nil if the ledger is empty. Used to recover the chain tail on startup.
func (s *SegmentStore) TailEvent(ctx context.Context) (*ledgerDomain.AuditEvent, error) {
	segments, err := s.ListSegments(ctx, time.Unix(0, 0), time.Now().UTC().Add(48*time.Hour))
	if err != nil {
		return nil, err
	}
	for i := len(segments) - 1; i >= 0; i-- {
		events, err := s.ReadSegment(ctx, segments[i].Name)
		if err != nil {
			return nil, err
		}
		if len(events) > 0 {
			return events[len(events)-1], nil
		}
	}
	return nil, nil
}

// MoveToArchive moves (not copies) a segment into the archive bucket: the
// blob write must succeed before the active copy is removed.
func (s *SegmentStore) MoveToArchive(ctx context.Context, name string) error {
	if s.archive == nil {
		return apperrors.Wrap(apperrors.ErrConfiguration, "archive bucket not configured")
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ledgerDomain.ErrSegmentNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to read segment: %v", err))
	}

	if err := s.archive.WriteAll(ctx, name, data, nil); err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to write archive blob: %v", err))
	}
	if err := os.Remove(path); err != nil {
		return apperrors.Wrap(apperrors.ErrTransient, fmt.Sprintf("failed to remove archived segment: %v", err))
	}
	return nil
}
