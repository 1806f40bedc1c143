package ann

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/sevakavakians/kato/internal/katoerr"
)

// QdrantStore is the production Store backed by Qdrant (spec §6
// Collaborator C). Collection names follow "vectors_<kb_id>" exactly as
// spec.md's bulk_delete (§4.8) and persisted-state-layout (§6) sections
// require.
type QdrantStore struct {
	client *qdrant.Client
	logger *slog.Logger
}

// QdrantConfig holds Qdrant connection parameters (spec SPEC_FULL.md
// ambient config section). Addr is "host:port"; an empty APIKey dials
// without authentication (local/dev Qdrant).
type QdrantConfig struct {
	Addr   string
	APIKey string
}

// NewQdrantStore dials a Qdrant instance.
func NewQdrantStore(cfg QdrantConfig, logger *slog.Logger) (*QdrantStore, error) {
	host, port, err := splitAddr(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", katoerr.ErrStorageUnavailable, err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant dial: %v", katoerr.ErrStorageUnavailable, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QdrantStore{client: client, logger: logger}, nil
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("parse qdrant addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parse qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

func collectionName(kbID string) string {
	return "vectors_" + kbID
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, kbID string, dim int) error {
	name := collectionName(kbID)
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: collection exists %q: %v", katoerr.ErrStorageUnavailable, name, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection %q: %v", katoerr.ErrStorageUnavailable, name, err)
	}
	s.logger.Info("ann collection created", "kb_id", kbID, "dim", dim)
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, kbID string, point Point) error {
	name := collectionName(kbID)
	id := point.ID
	if id == "" {
		id = uuid.New().String()
	}

	payload := map[string]*qdrant.Value{
		"symbol": qdrant.NewValueString(point.Symbol),
	}
	if point.PatternName != "" {
		payload["pattern_name"] = qdrant.NewValueString(point.PatternName)
	}
	if point.EventIndex != 0 {
		payload["event_index"] = qdrant.NewValueInt(int64(point.EventIndex))
	}

	vec := make([]float32, len(point.Vector))
	for i, f := range point.Vector {
		vec[i] = float32(f)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(id),
				Vectors: qdrant.NewVectors(vec...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: upsert into %q: %v", katoerr.ErrStorageUnavailable, name, err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, kbID string, query []float64, topK int) ([]Match, error) {
	name := collectionName(kbID)
	vec := make([]float32, len(query))
	for i, f := range query {
		vec[i] = float32(f)
	}

	limit := uint64(topK)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", katoerr.ErrStorageUnavailable, name, err)
	}

	out := make([]Match, 0, len(points))
	for _, p := range points {
		out = append(out, Match{
			Point: Point{
				ID:     p.GetId().GetUuid(),
				Symbol: p.GetPayload()["symbol"].GetStringValue(),
			},
			Distance: float64(p.GetScore()),
		})
	}
	return out, nil
}

func (s *QdrantStore) DropCollection(ctx context.Context, kbID string) error {
	name := collectionName(kbID)
	err := s.client.DeleteCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: drop collection %q: %v", katoerr.ErrStorageUnavailable, name, err)
	}
	s.logger.Info("ann collection dropped", "kb_id", kbID)
	return nil
}
