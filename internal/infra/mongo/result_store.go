package mongo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"assessment-service/internal/domain"
)

// ResultStore writes one document per submitted attempt to the results collection.
type ResultStore struct {
	collection *mongo.Collection
}

func NewResultStore(db *mongo.Database) *ResultStore {
	return &ResultStore{collection: db.Collection("results")}
}

type resultDocument struct {
	AttemptID    string    `bson:"_id"`
	ResultID     string    `bson:"resultId"`
	AssessmentID string    `bson:"assessmentId"`
	Score        float64   `bson:"score"`
	Band         string    `bson:"band"`
	Flagged      bool      `bson:"flagged"`
	Data         bson.Raw  `bson:"data"`
	CompletedAt  time.Time `bson:"completedAt"`
}

// SaveResult inserts the result unless one already exists for the attempt.
func (s *ResultStore) SaveResult(ctx context.Context, r domain.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return eris.Wrapf(err, "mongo: encode result %s", r.ID)
	}
	var raw bson.Raw
	if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
		return eris.Wrapf(err, "mongo: convert result %s", r.ID)
	}
	doc := resultDocument{
		AttemptID:    r.AttemptID,
		ResultID:     r.ID,
		AssessmentID: r.AssessmentID,
		Score:        r.Score,
		Band:         r.Band,
		Flagged:      len(r.RiskFlags) > 0,
		Data:         raw,
		CompletedAt:  r.CompletedAt,
	}
	_, err = s.collection.InsertOne(ctx, doc)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return eris.Wrapf(err, "mongo: store result for attempt %s", r.AttemptID)
	}
	return nil
}
