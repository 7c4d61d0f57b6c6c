package gitstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pricepilot/pricepilot-backend/internal/record"
	"github.com/pricepilot/pricepilot-backend/internal/storage"
	"github.com/pricepilot/pricepilot-backend/pkg/enums"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	redispkg "github.com/pricepilot/pricepilot-backend/pkg/redis"
)

var _ storage.Backend = (*Store)(nil)

type fakeRedis struct {
	data   map[string]string
	broken bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if f.broken {
		cmd.SetErr(fmt.Errorf("redis down"))
		return cmd
	}
	f.data[key] = fmt.Sprint(value)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx)
	if f.broken {
		cmd.SetErr(fmt.Errorf("redis down"))
		return cmd
	}
	value, ok := f.data[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(value)
	return cmd
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	cmd := goredis.NewBoolCmd(ctx)
	if _, ok := f.data[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	f.data[key] = fmt.Sprint(value)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func newTestStore(t *testing.T, handler http.Handler) (*Store, *fakeRedis) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gh := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	gh.BaseURL = base

	fake := newFakeRedis()
	cache := redispkg.NewWithStore(fake)
	return NewWithClient(gh, "acme", "pricebook", "main", cache, nil, nil), fake
}

func contentsResponse(t *testing.T, records []record.Record, sha string) []byte {
	t.Helper()
	blob, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	payload := map[string]any{
		"type":     "file",
		"encoding": "base64",
		"content":  base64.StdEncoding.EncodeToString(blob),
		"sha":      sha,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

const productPath = "/repos/acme/pricebook/contents/data/Product.json"

func TestListDecodesRemoteCollection(t *testing.T) {
	records := []record.Record{{record.FieldID: "p1", "name": "Milk"}}
	s, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != productPath {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write(contentsResponse(t, records, "sha-1"))
	}))

	got, err := s.List(context.Background(), enums.EntityProduct)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "p1" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestListMissingFileIsEmptyCollection(t *testing.T) {
	s, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))

	got, err := s.List(context.Background(), enums.EntityProduct)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %+v", got)
	}
}

func TestMalformedBlobSurfaces(t *testing.T) {
	s, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(`{"not":"an array"}`)),
			"sha":      "sha-1",
		}
		json.NewEncoder(w).Encode(payload)
	}))

	_, err := s.List(context.Background(), enums.EntityProduct)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestInsertCreatesMissingFile(t *testing.T) {
	var putBody map[string]any
	s, fake := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
				t.Fatalf("decode put body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"content":{"sha":"sha-new"}}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	result, err := s.Insert(context.Background(), enums.EntityProduct, record.Record{record.FieldID: "p1", "name": "Milk"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.Durability != enums.DurabilityDurable {
		t.Fatalf("unexpected durability %s", result.Durability)
	}
	if _, hasSHA := putBody["sha"]; hasSHA {
		t.Fatalf("create should not carry a sha: %v", putBody)
	}
	if putBody["branch"] != "main" {
		t.Fatalf("expected branch main, got %v", putBody["branch"])
	}

	cached, ok := fake.data["pricepilot:db_data:Product.json"]
	if !ok {
		t.Fatal("expected cache refresh after durable write")
	}
	var cachedRecords []record.Record
	if err := json.Unmarshal([]byte(cached), &cachedRecords); err != nil || len(cachedRecords) != 1 {
		t.Fatalf("unexpected cached blob %q: %v", cached, err)
	}
}

func TestMutateSendsCompareAndSwapSHA(t *testing.T) {
	existing := []record.Record{{record.FieldID: "p1", "name": "Milk"}}
	var putBody map[string]any
	s, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write(contentsResponse(t, existing, "sha-old"))
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
				t.Fatalf("decode put body: %v", err)
			}
			w.Write([]byte(`{"content":{"sha":"sha-new"}}`))
		}
	}))

	updated, result, err := s.Mutate(context.Background(), enums.EntityProduct, "p1", func(rec record.Record) (record.Record, error) {
		rec["name"] = "Whole Milk"
		return rec, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if updated["name"] != "Whole Milk" || result.Durability != enums.DurabilityDurable {
		t.Fatalf("unexpected result %+v %+v", updated, result)
	}
	if putBody["sha"] != "sha-old" {
		t.Fatalf("expected compare-and-swap sha, got %v", putBody["sha"])
	}
}

func TestStaleWriteSurfaces(t *testing.T) {
	existing := []record.Record{{record.FieldID: "p1", "name": "Milk"}}
	s, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write(contentsResponse(t, existing, "sha-stale"))
		case http.MethodPut:
			http.Error(w, `{"message":"is at sha-other but expected sha-stale"}`, http.StatusConflict)
		}
	}))

	_, _, err := s.Mutate(context.Background(), enums.EntityProduct, "p1", func(rec record.Record) (record.Record, error) {
		rec["name"] = "Whole Milk"
		return rec, nil
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStaleWrite) {
		t.Fatalf("expected stale write, got %v", err)
	}
}

func TestRemoteFailureDegradesReadToCache(t *testing.T) {
	s, fake := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	blob, _ := json.Marshal([]record.Record{{record.FieldID: "p1", "name": "Milk"}})
	fake.data["pricepilot:db_data:Product.json"] = string(blob)

	got, err := s.List(context.Background(), enums.EntityProduct)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "p1" {
		t.Fatalf("unexpected cached records %+v", got)
	}
}

func TestRemoteFailureDegradesWriteToLocalOnly(t *testing.T) {
	s, fake := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))

	result, err := s.Insert(context.Background(), enums.EntityProduct, record.Record{record.FieldID: "p1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if result.Durability != enums.DurabilityLocalOnly {
		t.Fatalf("expected local_only durability, got %s", result.Durability)
	}
	if _, ok := fake.data["pricepilot:db_data:Product.json"]; !ok {
		t.Fatal("expected write persisted to cache")
	}
}

func TestRemoteAndCacheFailureSurfaces(t *testing.T) {
	s, fake := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	fake.broken = true

	_, err := s.List(context.Background(), enums.EntityProduct)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDeleteAbsentSkipsWrite(t *testing.T) {
	existing := []record.Record{{record.FieldID: "p1"}}
	s, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected %s request", r.Method)
		}
		w.Write(contentsResponse(t, existing, "sha-1"))
	}))

	result, err := s.Delete(context.Background(), enums.EntityProduct, "nope")
	if err != nil || result.Durability != enums.DurabilityDurable {
		t.Fatalf("unexpected result %+v %v", result, err)
	}
}
