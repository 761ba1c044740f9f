package vector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hoangv97/memorychat/internal/models"
)

// pineconeConn is the data-plane subset of *pinecone.IndexConnection the store uses.
type pineconeConn interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// PineconeStore talks to Pinecone through the official client. Each index's data-plane
// host is looked up once through the control plane and its connection cached by name.
type PineconeStore struct {
	client *pinecone.Client
	dial   func(host string) (pineconeConn, error)

	mu    sync.Mutex
	hosts map[string]string
	conns map[string]pineconeConn
}

// NewPineconeStore creates a store. An empty controllerURL uses the client's default.
func NewPineconeStore(apiKey, controllerURL string) (*PineconeStore, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: pinecone api_key", models.ErrConfigurationMissing)
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
		Host:   controllerURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}
	s := &PineconeStore{
		client: client,
		hosts:  make(map[string]string),
		conns:  make(map[string]pineconeConn),
	}
	s.dial = func(host string) (pineconeConn, error) {
		conn, err := client.Index(pinecone.NewIndexConnParams{Host: host})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return s, nil
}

// Index resolves the host for name and returns a handle on it.
func (s *PineconeStore) Index(ctx context.Context, name string) (Index, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: vector index name", models.ErrConfigurationMissing)
	}
	conn, err := s.conn(ctx, name)
	if err != nil {
		return nil, err
	}
	return &pineconeIndex{name: name, conn: conn}, nil
}

// Close closes every cached data-plane connection.
func (s *PineconeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for name, conn := range s.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(s.conns, name)
	}
	return errors.Join(errs...)
}

func (s *PineconeStore) conn(ctx context.Context, name string) (pineconeConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conns[name]; ok {
		return c, nil
	}

	host, ok := s.hosts[name]
	if !ok {
		desc, err := s.client.DescribeIndex(ctx, name)
		if err != nil {
			return nil, describeError(name, err)
		}
		if desc == nil || desc.Host == "" {
			return nil, fmt.Errorf("%w: index %s has no host", models.ErrExternalService, name)
		}
		host = desc.Host
		s.hosts[name] = host
	}

	c, err := s.dial(host)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to index %s: %w", models.ErrExternalService, name, err)
	}
	s.conns[name] = c
	return c, nil
}

// describeError classifies a control-plane failure. A missing index is a deployment
// problem, never a client-visible not found.
func describeError(name string, err error) error {
	var perr *pinecone.PineconeError
	if errors.As(err, &perr) && perr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: pinecone index %s does not exist", models.ErrConfigurationMissing, name)
	}
	return fmt.Errorf("%w: describe index %s: %w", models.ErrExternalService, name, err)
}

type pineconeIndex struct {
	name string
	conn pineconeConn
}

func (i *pineconeIndex) Upsert(ctx context.Context, records []*models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, rec := range records {
		meta, err := toStruct(rec.Metadata.Map())
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", rec.ID, err)
		}
		vectors = append(vectors, &pinecone.Vector{Id: rec.ID, Values: rec.Vector, Metadata: meta})
	}
	if _, err := i.conn.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("%w: upsert into %s: %w", models.ErrExternalService, i.name, err)
	}
	return nil
}

func (i *pineconeIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]*models.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	req := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	}
	if len(filter) > 0 {
		clauses := make(map[string]any, len(filter))
		for k, v := range filter {
			clauses[k] = map[string]any{"$eq": v}
		}
		f, err := structpb.NewStruct(clauses)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		req.MetadataFilter = f
	}

	resp, err := i.conn.QueryByVectorValues(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", models.ErrExternalService, i.name, err)
	}
	matches := make([]*models.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		matches = append(matches, &models.Match{
			ID:       m.Vector.Id,
			Score:    float64(m.Score),
			Metadata: models.RecordMetadataFromMap(fromStruct(m.Vector.Metadata)),
		})
	}
	return matches, nil
}

func toStruct(m map[string]string) (*structpb.Struct, error) {
	fields := make(map[string]any, len(m))
	for k, v := range m {
		fields[k] = v
	}
	return structpb.NewStruct(fields)
}

func fromStruct(s *structpb.Struct) map[string]string {
	out := make(map[string]string, len(s.GetFields()))
	for k, v := range s.GetFields() {
		out[k] = v.GetStringValue()
	}
	return out
}
