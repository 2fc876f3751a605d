package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository/models"
)

// feedbackDocument is the stored shape of a record. Ratings and answers are
// ordered sub-documents so the submitted key order survives a round trip.
type feedbackDocument struct {
	TrainingID  string    `bson:"training_id"`
	TrainerName string    `bson:"trainer_name"`
	StudentName string    `bson:"student_name,omitempty"`
	SubjectName string    `bson:"subject_name"`
	Ratings     bson.D    `bson:"ratings"`
	Answers     bson.D    `bson:"answers"`
	CreatedAt   time.Time `bson:"created_at"`
}

// MongoFeedbackRepository is the document-store alternative to FeedbackRepository.
type MongoFeedbackRepository struct {
	coll *mongo.Collection
}

func NewMongoFeedbackRepository(db *mongo.Database, collection string) *MongoFeedbackRepository {
	return &MongoFeedbackRepository{coll: db.Collection(collection)}
}

// EnsureIndexes creates the unique (training_id, student_name) index used for
// duplicate detection. Anonymous submissions are excluded from it.
func (r *MongoFeedbackRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "training_id", Value: 1}, {Key: "student_name", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"student_name": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "trainer_name", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().
				SetCollation(caseInsensitive()),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create feedback indexes: %w", err)
	}
	return nil
}

func (r *MongoFeedbackRepository) GetByTraining(ctx context.Context, trainingID string) ([]analytics.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"training_id": trainingID}, opts, "GetByTraining")
}

func (r *MongoFeedbackRepository) GetByTrainer(ctx context.Context, trainerName string, from, to time.Time) ([]analytics.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(caseInsensitive())
	return r.find(ctx, trainerFilter(trainerName, from, to), opts, "GetByTrainer")
}

func (r *MongoFeedbackRepository) Insert(ctx context.Context, rec analytics.Record) error {
	if _, err := r.coll.InsertOne(ctx, toDocument(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *MongoFeedbackRepository) ListTrainers(ctx context.Context) ([]models.TrainerSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toLower", Value: "$trainer_name"}}},
			{Key: "name", Value: bson.D{{Key: "$min", Value: "$trainer_name"}}},
			{Key: "sessions", Value: bson.D{{Key: "$addToSet", Value: "$training_id"}}},
			{Key: "participants", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$created_at"}}},
			{Key: "last", Value: bson.D{{Key: "$max", Value: "$created_at"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate ListTrainers: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Name         string    `bson:"name"`
		Sessions     []string  `bson:"sessions"`
		Participants int       `bson:"participants"`
		First        time.Time `bson:"first"`
		Last         time.Time `bson:"last"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode ListTrainers: %w", err)
	}

	out := make([]models.TrainerSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.TrainerSummary{
			TrainerName:     row.Name,
			Sessions:        len(row.Sessions),
			Participants:    row.Participants,
			FirstSubmission: row.First.UTC(),
			LastSubmission:  row.Last.UTC(),
		})
	}
	return out, nil
}

func (r *MongoFeedbackRepository) Stats(ctx context.Context) (models.FeedbackStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "trainings", Value: bson.D{{Key: "$addToSet", Value: "$training_id"}}},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$created_at"}}},
			{Key: "last", Value: bson.D{{Key: "$max", Value: "$created_at"}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.FeedbackStats{}, fmt.Errorf("aggregate Stats: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total     int       `bson:"total"`
		Trainings []string  `bson:"trainings"`
		First     time.Time `bson:"first"`
		Last      time.Time `bson:"last"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.FeedbackStats{}, fmt.Errorf("decode Stats: %w", err)
	}

	stats := models.FeedbackStats{TrainingIDs: []string{}}
	if len(rows) == 0 {
		return stats, nil
	}
	row := rows[0]
	first, last := row.First.UTC(), row.Last.UTC()
	stats.TotalFeedback = row.Total
	stats.TrainingIDs = append(stats.TrainingIDs, row.Trainings...)
	sort.Strings(stats.TrainingIDs)
	stats.UniqueTrainings = len(stats.TrainingIDs)
	stats.EarliestFeedback = &first
	stats.LatestFeedback = &last
	return stats, nil
}

func (r *MongoFeedbackRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions, op string) ([]analytics.Record, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	defer cur.Close(ctx)

	var docs []feedbackDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}

	out := make([]analytics.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	return out, nil
}

func trainerFilter(trainerName string, from, to time.Time) bson.M {
	filter := bson.M{"trainer_name": trainerName}
	rng := bson.M{}
	if !from.IsZero() {
		rng["$gte"] = from.UTC()
	}
	if !to.IsZero() {
		rng["$lte"] = to.UTC()
	}
	if len(rng) > 0 {
		filter["created_at"] = rng
	}
	return filter
}

func caseInsensitive() *options.Collation {
	return &options.Collation{Locale: "en", Strength: 2}
}

func toDocument(rec analytics.Record) feedbackDocument {
	ratings := make(bson.D, 0, len(rec.Quantitative))
	for _, rt := range rec.Quantitative {
		ratings = append(ratings, bson.E{Key: rt.Metric, Value: int32(rt.Value)})
	}
	answers := make(bson.D, 0, len(rec.Qualitative))
	for _, a := range rec.Qualitative {
		answers = append(answers, bson.E{Key: a.Question, Value: a.Text})
	}
	return feedbackDocument{
		TrainingID:  rec.TrainingID,
		TrainerName: rec.TrainerName,
		StudentName: rec.StudentName,
		SubjectName: rec.SubjectName,
		Ratings:     ratings,
		Answers:     answers,
		CreatedAt:   rec.Timestamp.UTC(),
	}
}

// fromDocument converts a stored document back to a record. Rating values of
// any numeric BSON type are accepted; anything else becomes 0 and is later
// discarded as out of range.
func fromDocument(d feedbackDocument) analytics.Record {
	ratings := make(analytics.Ratings, 0, len(d.Ratings))
	for _, e := range d.Ratings {
		ratings = append(ratings, analytics.Rating{Metric: e.Key, Value: intValue(e.Value)})
	}
	answers := make(analytics.Answers, 0, len(d.Answers))
	for _, e := range d.Answers {
		text, _ := e.Value.(string)
		answers = append(answers, analytics.Answer{Question: e.Key, Text: text})
	}
	return analytics.Record{
		TrainingID:   d.TrainingID,
		TrainerName:  d.TrainerName,
		StudentName:  d.StudentName,
		SubjectName:  d.SubjectName,
		Quantitative: ratings,
		Qualitative:  answers,
		Timestamp:    d.CreatedAt.UTC(),
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}
