// Package gitstore persists whole collections as pretty-printed JSON arrays
// at data/<Entity>.json in a GitHub repository. Writes compare-and-swap on
// the file SHA; a stale SHA surfaces as STALE_WRITE instead of silently
// falling back. When the remote is unreachable, reads and writes degrade to
// a Redis-held copy of the collection and the write receipt says so.
package gitstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
	"github.com/pricepilot/pricepilot-backend/pkg/metrics"
	redispkg "github.com/pricepilot/pricepilot-backend/pkg/redis"
)

const backendName = "gitstore"

// Store is the git-repository storage strategy.
type Store struct {
	gh      *github.Client
	owner   string
	repo    string
	branch  string
	cache   *redispkg.Client
	log     *logger.Logger
	metrics *metrics.StorageMetrics
}

// New builds a git store against the configured repository.
func New(cfg config.GitHubConfig, cache *redispkg.Client, logg *logger.Logger, m *metrics.StorageMetrics) *Store {
	gh := github.NewClient(&http.Client{Timeout: cfg.Timeout})
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	return NewWithClient(gh, cfg.Owner, cfg.Repo, cfg.Branch, cache, logg, m)
}

// NewWithClient builds a git store on a prepared GitHub client. Tests point
// the client at a fake API server.
func NewWithClient(gh *github.Client, owner, repo, branch string, cache *redispkg.Client, logg *logger.Logger, m *metrics.StorageMetrics) *Store {
	return &Store{
		gh:      gh,
		owner:   owner,
		repo:    repo,
		branch:  branch,
		cache:   cache,
		log:     logg,
		metrics: m,
	}
}

// Name identifies the backend in logs and metrics.
func (s *Store) Name() string {
	return backendName
}

func collectionPath(entity enums.Entity) string {
	return fmt.Sprintf("data/%s.json", entity)
}

// List returns every record of the collection.
func (s *Store) List(ctx context.Context, entity enums.Entity) ([]record.Record, error) {
	defer s.observe("list")()
	records, _, _, err := s.load(ctx, entity)
	return records, err
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, entity enums.Entity, id string) (record.Record, error) {
	defer s.observe("get")()
	records, _, _, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, storage.NotFound(entity, id)
}

// Insert appends a record and rewrites the collection blob.
func (s *Store) Insert(ctx context.Context, entity enums.Entity, rec record.Record) (*storage.WriteResult, error) {
	defer s.observe("insert")()
	records, sha, degraded, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	records = append(records, rec)
	return s.persist(ctx, entity, records, sha, degraded)
}

// Mutate applies fn to one record and rewrites the collection blob under the
// compare-and-swap revision loaded alongside it.
func (s *Store) Mutate(ctx context.Context, entity enums.Entity, id string, fn storage.MutateFunc) (record.Record, *storage.WriteResult, error) {
	defer s.observe("mutate")()
	records, sha, degraded, err := s.load(ctx, entity)
	if err != nil {
		return nil, nil, err
	}

	idx := -1
	for i, rec := range records {
		if rec.ID() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, storage.NotFound(entity, id)
	}

	updated, err := fn(records[idx].Clone())
	if err != nil {
		return nil, nil, err
	}
	records[idx] = updated

	result, err := s.persist(ctx, entity, records, sha, degraded)
	if err != nil {
		return nil, nil, err
	}
	return updated, result, nil
}

// Delete removes a record and rewrites the collection blob. Deleting an
// absent id is accepted without a write.
func (s *Store) Delete(ctx context.Context, entity enums.Entity, id string) (*storage.WriteResult, error) {
	defer s.observe("delete")()
	records, sha, degraded, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}

	kept := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if rec.ID() != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return storage.Durable(), nil
	}
	return s.persist(ctx, entity, kept, sha, degraded)
}

// Ping verifies the repository is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, _, err := s.gh.Repositories.Get(ctx, s.owner, s.repo)
	return err
}

// load fetches and decodes the collection blob, remembering its SHA for the
// compare-and-swap write. A missing file is an empty collection. A remote
// failure falls back to the Redis copy and flags the read as degraded.
func (s *Store) load(ctx context.Context, entity enums.Entity) ([]record.Record, string, bool, error) {
	file, _, resp, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, collectionPath(entity), &github.RepositoryContentGetOptions{Ref: s.branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return []record.Record{}, "", false, nil
		}
		records, ferr := s.loadFromCache(ctx, entity, err)
		return records, "", true, ferr
	}
	if file == nil {
		return nil, "", false, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s is a directory, not a collection blob", collectionPath(entity)))
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode collection blob")
	}
	var records []record.Record
	if err := json.Unmarshal([]byte(content), &records); err != nil {
		return nil, "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("stored collection %s is malformed", collectionPath(entity)))
	}
	if records == nil {
		records = []record.Record{}
	}

	return records, file.GetSHA(), false, nil
}

func (s *Store) loadFromCache(ctx context.Context, entity enums.Entity, remoteErr error) ([]record.Record, error) {
	blob, err := s.cache.Get(ctx, s.cache.CollectionCacheKey(entity.String()))
	if errors.Is(err, redispkg.Nil) {
		s.metrics.IncDegradedRead(entity.String())
		s.warn(ctx, entity, "remote store unreachable, serving empty collection", remoteErr)
		return []record.Record{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, remoteErr, "remote store and local cache both unavailable")
	}

	var records []record.Record
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("cached collection %s is malformed", entity))
	}
	s.metrics.IncDegradedRead(entity.String())
	s.warn(ctx, entity, "remote store unreachable, serving cached collection", remoteErr)
	return records, nil
}

// persist writes the collection back. When the load already ran degraded the
// remote is known unavailable and the write goes straight to the cache.
func (s *Store) persist(ctx context.Context, entity enums.Entity, records []record.Record, sha string, degraded bool) (*storage.WriteResult, error) {
	raw, err := encodeCollection(records)
	if err != nil {
		return nil, err
	}
	if degraded {
		return s.persistLocal(ctx, entity, raw, nil)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(fmt.Sprintf("update %s", collectionPath(entity))),
		Content: raw,
		Branch:  github.Ptr(s.branch),
	}

	var resp *github.Response
	if sha == "" {
		_, resp, err = s.gh.Repositories.CreateFile(ctx, s.owner, s.repo, collectionPath(entity), opts)
	} else {
		opts.SHA = github.Ptr(sha)
		_, resp, err = s.gh.Repositories.UpdateFile(ctx, s.owner, s.repo, collectionPath(entity), opts)
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity) {
			s.metrics.IncStaleWrite(entity.String())
			return nil, pkgerrors.Wrap(pkgerrors.CodeStaleWrite, err,
				fmt.Sprintf("collection %s changed since it was read", entity))
		}
		return s.persistLocal(ctx, entity, raw, err)
	}

	// Keep the fallback copy fresh; a failure here only costs degraded-read
	// staleness later.
	if cerr := s.cache.Set(ctx, s.cache.CollectionCacheKey(entity.String()), string(raw), 0); cerr != nil {
		s.warn(ctx, entity, "failed to refresh cached collection", cerr)
	}
	return storage.Durable(), nil
}

func (s *Store) persistLocal(ctx context.Context, entity enums.Entity, raw []byte, remoteErr error) (*storage.WriteResult, error) {
	if err := s.cache.Set(ctx, s.cache.CollectionCacheKey(entity.String()), string(raw), 0); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote store and local cache both unavailable")
	}
	s.metrics.IncDegradedWrite(entity.String())
	s.warn(ctx, entity, "remote store unreachable, write persisted locally only", remoteErr)
	return storage.LocalOnly(), nil
}

func (s *Store) observe(op string) func() {
	start := time.Now()
	return func() {
		s.metrics.ObserveOp(backendName, op, time.Since(start))
	}
}

func (s *Store) warn(ctx context.Context, entity enums.Entity, msg string, err error) {
	if s.log == nil {
		return
	}
	ctx = s.log.WithBackend(ctx, backendName)
	ctx = s.log.WithEntity(ctx, entity.String())
	if err != nil {
		ctx = s.log.WithField(ctx, "error", err.Error())
	}
	s.log.Warn(ctx, msg)
}

func encodeCollection(records []record.Record) ([]byte, error) {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode collection blob")
	}
	return append(raw, '\n'), nil
}
