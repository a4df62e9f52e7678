// Package cbstore is the Couchbase backing store. All entities live in the
// default collection of one bucket under ids of the form "<kind>/<id>", with
// a "type" attribute used by N1QL listings.
package cbstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchbase/gocb/v2"

	"github.com/hms/hms/internal/platform/db"
)

const DefaultBucket = "hms"

// ErrNotFound is returned by Get and Remove when the document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrExists is returned by Insert when the document id is taken.
var ErrExists = errors.New("document already exists")

type Options struct {
	URL      string
	Username string
	Password string
	Bucket   string
	// ReadyTimeout bounds the wait for the bucket to come online.
	ReadyTimeout time.Duration
}

// Store wraps a cluster handle and the default collection of its bucket.
type Store struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	collection *gocb.Collection
	bucketName string
}

// ConnectionString normalises a configured URL into a gocb connection
// string. http(s) schemes are rewritten, bare hosts get couchbase://.
func ConnectionString(url string) string {
	switch {
	case strings.HasPrefix(url, "couchbase://"), strings.HasPrefix(url, "couchbases://"):
		return url
	case strings.HasPrefix(url, "http://"):
		return "couchbase://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "https://"):
		return "couchbases://" + strings.TrimPrefix(url, "https://")
	default:
		return "couchbase://" + url
	}
}

func Connect(opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("couchbase url is required")
	}
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 30 * time.Second
	}

	cluster, err := gocb.Connect(ConnectionString(opts.URL), gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to couchbase cluster: %w", err)
	}

	bucket := cluster.Bucket(opts.Bucket)
	if err := bucket.WaitUntilReady(opts.ReadyTimeout, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
	}); err != nil {
		_ = cluster.Close(nil)
		return nil, fmt.Errorf("bucket %q is not accessible: %w", opts.Bucket, err)
	}

	return &Store{
		cluster:    cluster,
		bucket:     bucket,
		collection: bucket.DefaultCollection(),
		bucketName: opts.Bucket,
	}, nil
}

func (s *Store) Close() error {
	return s.cluster.Close(nil)
}

// Keyspace returns the escaped bucket name for use in N1QL statements.
func (s *Store) Keyspace() string {
	return Keyspace(s.bucketName)
}

func Keyspace(bucket string) string {
	return "`" + strings.ReplaceAll(bucket, "`", "``") + "`"
}

// DocID builds the document key for an entity.
func DocID(kind, id string) string {
	return kind + "/" + id
}

// Ping checks the key-value and query services.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.bucket.Ping(&gocb.PingOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
		Context:      ctx,
	})
	if err != nil {
		return fmt.Errorf("ping couchbase: %w", err)
	}
	for svc, reports := range res.Services {
		for _, r := range reports {
			if r.State != gocb.PingStateOk {
				return fmt.Errorf("couchbase service %d at %s: %s", svc, r.Remote, r.Error)
			}
		}
	}
	return nil
}

// Probe describes the store for the /health/db endpoint.
func (s *Store) Probe() db.Probe {
	return db.Probe{
		Driver: "couchbase",
		Ping:   s.Ping,
		Stats:  func() any { return map[string]string{"bucket": s.bucketName} },
	}
}

// Get loads document id into out, reading through the ambient transaction
// when there is one.
func (s *Store) Get(ctx context.Context, id string, out interface{}) error {
	if tac := AttemptFromContext(ctx); tac != nil {
		doc, err := tac.Get(s.collection, id)
		if err != nil {
			return mapErr(err)
		}
		return doc.Content(out)
	}

	res, err := s.collection.Get(id, &gocb.GetOptions{Context: ctx})
	if err != nil {
		return mapErr(err)
	}
	return res.Content(out)
}

func (s *Store) Insert(ctx context.Context, id string, v interface{}) error {
	if tac := AttemptFromContext(ctx); tac != nil {
		_, err := tac.Insert(s.collection, id, v)
		return mapErr(err)
	}
	_, err := s.collection.Insert(id, v, &gocb.InsertOptions{Context: ctx})
	return mapErr(err)
}

func (s *Store) Replace(ctx context.Context, id string, v interface{}) error {
	if tac := AttemptFromContext(ctx); tac != nil {
		doc, err := tac.Get(s.collection, id)
		if err != nil {
			return mapErr(err)
		}
		_, err = tac.Replace(doc, v)
		return mapErr(err)
	}
	_, err := s.collection.Replace(id, v, &gocb.ReplaceOptions{Context: ctx})
	return mapErr(err)
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if tac := AttemptFromContext(ctx); tac != nil {
		doc, err := tac.Get(s.collection, id)
		if err != nil {
			return mapErr(err)
		}
		return mapErr(tac.Remove(doc))
	}
	_, err := s.collection.Remove(id, &gocb.RemoveOptions{Context: ctx})
	return mapErr(err)
}

// Rows is the common cursor over cluster and transaction query results.
type Rows interface {
	Next() bool
	Row(valuePtr interface{}) error
	Err() error
	Close() error
}

type txRows struct{ *gocb.TransactionQueryResult }

func (txRows) Close() error { return nil }

// Err is always nil: transactional query failures surface from Query and Row.
func (txRows) Err() error { return nil }

// Query runs a N1QL statement with request-plus consistency so that writes
// made just before are visible. Inside a transaction it runs through the
// attempt context.
func (s *Store) Query(ctx context.Context, stmt string, args ...interface{}) (Rows, error) {
	if tac := AttemptFromContext(ctx); tac != nil {
		res, err := tac.Query(stmt, &gocb.TransactionQueryOptions{
			PositionalParameters: args,
		})
		if err != nil {
			return nil, fmt.Errorf("transactional query: %w", err)
		}
		return txRows{res}, nil
	}

	res, err := s.cluster.Query(stmt, &gocb.QueryOptions{
		PositionalParameters: args,
		ScanConsistency:      gocb.QueryScanConsistencyRequestPlus,
		Context:              ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return res, nil
}

// Exec runs a N1QL statement whose rows are not needed.
func (s *Store) Exec(ctx context.Context, stmt string, args ...interface{}) error {
	rows, err := s.Query(ctx, stmt, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// Count runs a statement selecting a single "n" column.
func (s *Store) Count(ctx context.Context, stmt string, args ...interface{}) (int, error) {
	rows, err := s.Query(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var row struct {
		N int `json:"n"`
	}
	if rows.Next() {
		if err := rows.Row(&row); err != nil {
			return 0, fmt.Errorf("read count: %w", err)
		}
	}
	return row.N, rows.Err()
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gocb.ErrDocumentExists):
		return fmt.Errorf("%w: %v", ErrExists, err)
	}
	return err
}

// Collect drains rows into a slice of T and closes them.
func Collect[T any](rows Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var v T
		if err := rows.Row(&v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
