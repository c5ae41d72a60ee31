package vectorindex

import (
	"context"
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize keeps writes within backend request limits.
const upsertBatchSize = 100

// VectorRecord is the pgvector-backed storage row. Position is assigned on
// first insert and never updated, which gives deterministic tie-breaks for
// equal-similarity matches.
type VectorRecord struct {
	VectorId  string          `gorm:"type:varchar(255);primaryKey"`
	Namespace string          `gorm:"type:varchar(255);not null;index"`
	Embedding pgvector.Vector `gorm:"type:vector(1024)"`
	Metadata  datatypes.JSON  `gorm:"type:jsonb"`
	Position  int64           `gorm:"autoIncrement;uniqueIndex"`
}

func (VectorRecord) TableName() string {
	return "vector_records"
}

// PgvectorIndex stores vectors in Postgres and ranks queries with the
// pgvector cosine distance operator.
type PgvectorIndex struct {
	db *gorm.DB
}

var _ Index = &PgvectorIndex{}

func NewPgvectorIndex(db *gorm.DB) *PgvectorIndex {
	return &PgvectorIndex{db: db}
}

func (x *PgvectorIndex) Upsert(ctx context.Context, namespace string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	records := make([]VectorRecord, 0, len(entries))
	for _, e := range entries {
		metaJson, err := json.Marshal(e.Metadata)
		if err != nil {
			return &IndexError{Op: OpWrite, Namespace: namespace, Err: err}
		}
		records = append(records, VectorRecord{
			VectorId:  e.ID,
			Namespace: namespace,
			Embedding: pgvector.NewVector(e.Vector),
			Metadata:  metaJson,
		})
	}

	batches := 0
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}

		err := x.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "vector_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"namespace", "embedding", "metadata"}),
			}).
			Create(records[start:end]).Error
		if err != nil {
			return &IndexError{Op: OpWrite, Namespace: namespace, BatchesWritten: batches, Err: err}
		}
		batches++
	}

	return nil
}

func (x *PgvectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}

	type row struct {
		VectorId string
		Metadata datatypes.JSON
		Score    float64
	}
	var rows []row

	queryVector := pgvector.NewVector(vector)

	// Cosine distance is 1 - cosine_similarity, so ascending distance is
	// descending similarity.
	err := x.db.WithContext(ctx).
		Table("vector_records").
		Select("vector_id, metadata, 1 - (embedding <=> ?) AS score", queryVector).
		Where("namespace = ?", namespace).
		Order(gorm.Expr("embedding <=> ?, position ASC", queryVector)).
		Limit(topK).
		Scan(&rows).Error
	if err != nil {
		return nil, &IndexError{Op: OpQuery, Namespace: namespace, Err: err}
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		var meta map[string]interface{}
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &meta); err != nil {
				return nil, &IndexError{Op: OpQuery, Namespace: namespace, Err: err}
			}
		}
		matches = append(matches, Match{ID: r.VectorId, Score: r.Score, Metadata: meta})
	}

	return matches, nil
}

func (x *PgvectorIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	err := x.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Delete(&VectorRecord{}).Error
	if err != nil {
		return &IndexError{Op: OpDeleteNamespace, Namespace: namespace, Err: err}
	}
	return nil
}
