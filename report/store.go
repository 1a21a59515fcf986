package report

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/gosimple/slug"
	"github.com/hashicorp/go-memdb"
	"golang.org/x/crypto/sha3"

	"m3u-curator/prober"
)

const variantsTable = "variants"

// Variant is the outcome for one channel that took part in a quality merge.
// URL stays in memory for lookups; dumps identify streams by URLHash only.
type Variant struct {
	ID        string               `json:"id"`
	Group     string               `json:"group"`
	GroupSlug string               `json:"group_slug"`
	Name      string               `json:"name"`
	URL       string               `json:"-"`
	URLHash   string               `json:"url_hash,omitempty"`
	Rank      int                  `json:"priority_rank"`
	Winner    bool                 `json:"winner"`
	Failed    bool                 `json:"failed"`
	Metrics   prober.StreamMetrics `json:"metrics"`
}

// Store keeps variants of one run in memory, indexed by group, URL and
// failure.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Int64
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			variantsTable: {
				Name: variantsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"group": {
						Name:    "group",
						Indexer: &memdb.StringFieldIndex{Field: "GroupSlug"},
					},
					"url": {
						Name:         "url",
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "URLHash"},
					},
					"failed": {
						Name:    "failed",
						Indexer: &memdb.BoolFieldIndex{Field: "Failed"},
					},
				},
			},
		},
	}
}

func NewStore() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("error creating report store: %w", err)
	}
	return &Store{db: db}, nil
}

// GroupSlug is the key used to look a group up.
func GroupSlug(group string) string {
	s := slug.Make(group)
	if s == "" {
		return "_"
	}
	return s
}

// URLHash identifies a stream URL without exposing it.
func URLHash(url string) string {
	if url == "" {
		return ""
	}
	h := sha3.Sum224([]byte(url))
	return hex.EncodeToString(h[:])
}

// Record stores v, filling ID, GroupSlug, URLHash and Failed.
func (s *Store) Record(v Variant) error {
	v.GroupSlug = GroupSlug(v.Group)
	v.URLHash = URLHash(v.URL)
	v.Failed = v.Metrics.Failed()
	v.ID = fmt.Sprintf("%s|%06d", v.GroupSlug, s.seq.Add(1))

	txn := s.db.Txn(true)
	if err := txn.Insert(variantsTable, &v); err != nil {
		txn.Abort()
		return fmt.Errorf("error recording variant %s: %w", v.Name, err)
	}
	txn.Commit()
	return nil
}

func (s *Store) Group(group string) ([]Variant, error) {
	return s.query("group", GroupSlug(group))
}

func (s *Store) URL(url string) ([]Variant, error) {
	return s.query("url", URLHash(url))
}

func (s *Store) Failed() ([]Variant, error) {
	return s.query("failed", true)
}

// All returns every variant ordered by ID.
func (s *Store) All() ([]Variant, error) {
	return s.query("id")
}

func (s *Store) Len() int {
	all, err := s.All()
	if err != nil {
		return 0
	}
	return len(all)
}

func (s *Store) query(index string, args ...any) ([]Variant, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(variantsTable, index, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying report by %s: %w", index, err)
	}

	var out []Variant
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*Variant))
	}
	return out, nil
}
