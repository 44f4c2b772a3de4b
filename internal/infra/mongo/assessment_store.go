package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assessment-service/internal/domain"
)

// AssessmentStore keeps one document per assessment in the assessments
// collection. Questions and rules are stored as a nested document converted
// through extended JSON, so conditions keep their JSON shape.
type AssessmentStore struct {
	collection *mongo.Collection
}

func NewAssessmentStore(db *mongo.Database) *AssessmentStore {
	return &AssessmentStore{collection: db.Collection("assessments")}
}

type assessmentDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Data      bson.Raw  `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (s *AssessmentStore) LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	var doc assessmentDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": assessmentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, eris.Wrapf(err, "mongo: load assessment %s", assessmentID)
	}
	return fromDocument(doc)
}

func (s *AssessmentStore) StoreAssessment(ctx context.Context, a domain.Assessment) error {
	doc, err := toDocument(a)
	if err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": a.ID}, doc, opts); err != nil {
		return eris.Wrapf(err, "mongo: store assessment %s", a.ID)
	}
	return nil
}

func toDocument(a domain.Assessment) (assessmentDocument, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return assessmentDocument{}, eris.Wrapf(err, "mongo: encode assessment %s", a.ID)
	}
	var raw bson.Raw
	if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
		return assessmentDocument{}, eris.Wrapf(err, "mongo: convert assessment %s", a.ID)
	}
	return assessmentDocument{
		ID:        a.ID,
		Title:     a.Title,
		Data:      raw,
		UpdatedAt: a.UpdatedAt,
	}, nil
}

func fromDocument(doc assessmentDocument) (domain.Assessment, error) {
	data, err := bson.MarshalExtJSON(doc.Data, false, false)
	if err != nil {
		return domain.Assessment{}, eris.Wrapf(err, "mongo: convert assessment %s", doc.ID)
	}
	var a domain.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Assessment{}, eris.Wrapf(err, "mongo: decode assessment %s", doc.ID)
	}
	a.ID = doc.ID
	return a, nil
}

// Connect dials and pings MongoDB.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, eris.Wrap(err, "mongo: connect")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, eris.Wrap(err, "mongo: ping")
	}
	return client, nil
}
