package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Passage is a retrieved policy document chunk.
type Passage struct {
	Text   string
	Source string
	Score  float32
}

// VectorStoreService stores and retrieves planning policy passages in Qdrant.
type VectorStoreService struct {
	conn              *grpc.ClientConn
	pointsClient      qdrant.PointsClient
	collectionsClient qdrant.CollectionsClient
	embedder          Embedder
	collection        string
	vectorSize        uint64
}

// VectorStoreOptions configures the Qdrant connection.
type VectorStoreOptions struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
	MaxRetries int
	RetryDelay time.Duration
}

// NewVectorStoreService connects to Qdrant and creates the collection when it is missing.
// An API key switches the connection to TLS (Qdrant Cloud).
func NewVectorStoreService(embedder Embedder, opts VectorStoreOptions) (*VectorStoreService, error) {
	if opts.VectorSize == 0 {
		opts.VectorSize = 768 // nomic-embed-text
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var dialOpts []grpc.DialOption
	if opts.APIKey != "" {
		log.Println("[qdrant] connecting with TLS")
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))

		apiKey := opts.APIKey
		authInterceptor := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
			ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
			return invoker(ctx, method, req, reply, cc, callOpts...)
		}
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(authInterceptor))
	} else {
		log.Println("[qdrant] connecting without TLS")
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(opts.URL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &VectorStoreService{
		conn:              conn,
		pointsClient:      qdrant.NewPointsClient(conn),
		collectionsClient: qdrant.NewCollectionsClient(conn),
		embedder:          embedder,
		collection:        opts.Collection,
		vectorSize:        opts.VectorSize,
	}
	if err := s.ensureCollection(opts); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *VectorStoreService) ensureCollection(opts VectorStoreOptions) error {
	var (
		exists  bool
		listErr error
	)
	for i := 0; i < opts.MaxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		res, err := s.collectionsClient.List(ctx, &qdrant.ListCollectionsRequest{})
		cancel()
		listErr = err
		if err == nil {
			for _, c := range res.GetCollections() {
				if c.GetName() == s.collection {
					exists = true
					break
				}
			}
			break
		}
		log.Printf("[qdrant] not ready (attempt %d/%d), retrying in %v", i+1, opts.MaxRetries, opts.RetryDelay)
		time.Sleep(opts.RetryDelay)
	}
	if listErr != nil {
		return fmt.Errorf("failed to list qdrant collections: %w", listErr)
	}
	if exists {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.createCollection(ctx)
}

func (s *VectorStoreService) createCollection(ctx context.Context) error {
	_, err := s.collectionsClient.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     s.vectorSize,
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection %q: %w", s.collection, err)
	}
	log.Printf("[qdrant] created collection %s", s.collection)
	return nil
}

// Reset drops every stored passage by recreating the collection.
func (s *VectorStoreService) Reset(ctx context.Context) error {
	if _, err := s.collectionsClient.Delete(ctx, &qdrant.DeleteCollection{CollectionName: s.collection}); err != nil {
		return fmt.Errorf("failed to delete qdrant collection %q: %w", s.collection, err)
	}
	return s.createCollection(ctx)
}

// Save embeds text and upserts it with metadata as payload under a new id.
func (s *VectorStoreService) Save(ctx context.Context, text string, metadata map[string]interface{}) error {
	return s.SaveWithID(ctx, uuid.New().String(), text, metadata)
}

// SaveWithID is Save with a caller-chosen point id, so re-ingesting a document overwrites it.
func (s *VectorStoreService) SaveWithID(ctx context.Context, id, text string, metadata map[string]interface{}) error {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed passage: %w", err)
	}

	_, err = s.pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{newPassagePoint(id, text, vector, metadata)},
		Wait:           boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert passage: %w", err)
	}
	return nil
}

// Search returns the topK passages closest to query.
func (s *VectorStoreService) Search(ctx context.Context, query string, topK uint64) ([]Passage, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	res, err := s.pointsClient.Search(ctx, &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          topK,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	return passagesFromPoints(res.GetResult()), nil
}

// Close releases the gRPC connection.
func (s *VectorStoreService) Close() error {
	return s.conn.Close()
}

func newPassagePoint(id, text string, vector []float32, metadata map[string]interface{}) *qdrant.PointStruct {
	payload := make(map[string]*qdrant.Value, len(metadata)+1)
	for key, value := range metadata {
		switch v := value.(type) {
		case string:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		case int:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
		case float64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
		case bool:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
		}
	}
	payload["text"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: text}}

	return &qdrant.PointStruct{
		Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vector}},
		},
		Payload: payload,
	}
}

func passagesFromPoints(points []*qdrant.ScoredPoint) []Passage {
	out := make([]Passage, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		text := payload["text"].GetStringValue()
		if text == "" {
			continue
		}
		out = append(out, Passage{
			Text:   text,
			Source: payload["source"].GetStringValue(),
			Score:  p.GetScore(),
		})
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
