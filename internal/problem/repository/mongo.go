package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/db"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultProblemCollection = "problems"
	DefaultCounterCollection = "counters"
	problemCounterKey        = "problems"
)

type testCaseDocument struct {
	Input       string `bson:"input"`
	Output      string `bson:"output"`
	Description string `bson:"description,omitempty"`
}

// problemDocument is the stored shape. IsActive is a pointer because
// documents written before soft delete existed have no isActive field.
type problemDocument struct {
	ID                  int64              `bson:"_id"`
	Title               string             `bson:"title"`
	Description         string             `bson:"description"`
	Difficulty          string             `bson:"difficulty"`
	Category            string             `bson:"category"`
	TestCases           []testCaseDocument `bson:"testCases"`
	Constraints         []string           `bson:"constraints"`
	Tags                []string           `bson:"tags"`
	TimeLimit           int                `bson:"timeLimit"`
	MemoryLimit         int                `bson:"memoryLimit"`
	Submissions         int64              `bson:"submissions"`
	AcceptedSubmissions int64              `bson:"acceptedSubmissions"`
	AcceptanceRate      int                `bson:"acceptanceRate"`
	IsActive            *bool              `bson:"isActive,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

type counterDocument struct {
	Seq int64 `bson:"seq"`
}

type statisticsDocument struct {
	TotalProblems            int64 `bson:"totalProblems"`
	EasyProblems             int64 `bson:"easyProblems"`
	MediumProblems           int64 `bson:"mediumProblems"`
	HardProblems             int64 `bson:"hardProblems"`
	TotalSubmissions         int64 `bson:"totalSubmissions"`
	TotalAcceptedSubmissions int64 `bson:"totalAcceptedSubmissions"`
}

// MongoProblemRepository stores problems in MongoDB with sequential ids from a counters collection.
type MongoProblemRepository struct {
	problems *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// NewMongoProblemRepository uses the default collection names.
func NewMongoProblemRepository(database *mongo.Database) *MongoProblemRepository {
	return NewMongoProblemRepositoryWithCollections(database, DefaultProblemCollection, DefaultCounterCollection)
}

func NewMongoProblemRepositoryWithCollections(database *mongo.Database, problems, counters string) *MongoProblemRepository {
	if problems == "" {
		problems = DefaultProblemCollection
	}
	if counters == "" {
		counters = DefaultCounterCollection
	}
	return &MongoProblemRepository{
		problems: database.Collection(problems),
		counters: database.Collection(counters),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the catalog indexes. Existing indexes are left as they are.
func (r *MongoProblemRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.problems.Indexes().CreateMany(ctx, problemIndexModels()); err != nil {
		return fmt.Errorf("create problem indexes failed: %w", err)
	}
	return nil
}

func problemIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true).SetName("title_unique")},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "category", Value: "text"},
			},
			Options: options.Index().SetName("problem_text"),
		},
		{Keys: bson.D{{Key: "difficulty", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}
}

func (r *MongoProblemRepository) FindAll(ctx context.Context, filter model.ListFilter) (model.ProblemPage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))
	return r.findPage(ctx, listFilter(filter), opts, filter)
}

func (r *MongoProblemRepository) Search(ctx context.Context, filter model.SearchFilter) (model.ProblemPage, error) {
	query := searchFilter(filter)
	opts := options.Find().
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))
	if _, ok := query["$text"]; ok {
		score := bson.D{{Key: "$meta", Value: "textScore"}}
		opts.SetProjection(bson.D{{Key: "score", Value: score}})
		opts.SetSort(bson.D{{Key: "score", Value: score}, {Key: "createdAt", Value: -1}})
	} else {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}
	return r.findPage(ctx, query, opts, filter.ListFilter)
}

func (r *MongoProblemRepository) findPage(ctx context.Context, query bson.M, opts *options.FindOptions, filter model.ListFilter) (model.ProblemPage, error) {
	cursor, err := r.problems.Find(ctx, query, opts)
	if err != nil {
		return model.ProblemPage{}, fmt.Errorf("find problems failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []problemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return model.ProblemPage{}, fmt.Errorf("decode problems failed: %w", err)
	}
	total, err := r.problems.CountDocuments(ctx, query)
	if err != nil {
		return model.ProblemPage{}, fmt.Errorf("count problems failed: %w", err)
	}

	items := make([]model.Problem, 0, len(docs))
	for i := range docs {
		items = append(items, *docs[i].toModel())
	}
	return model.NewProblemPage(items, total, filter.Page, filter.Limit), nil
}

func (r *MongoProblemRepository) FindByID(ctx context.Context, id int64) (*model.Problem, error) {
	var doc problemDocument
	err := r.problems.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find problem failed: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProblemRepository) Create(ctx context.Context, input model.CreateInput) (*model.Problem, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}
	problem := model.NewProblem(input, r.now())
	problem.ID = id

	if _, err := r.problems.InsertOne(ctx, fromModel(problem)); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, ErrProblemAlreadyExists
		}
		return nil, fmt.Errorf("insert problem failed: %w", err)
	}
	return problem, nil
}

func (r *MongoProblemRepository) nextID(ctx context.Context) (int64, error) {
	var counter counterDocument
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": problemCounterKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate problem id failed: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoProblemRepository) Update(ctx context.Context, id int64, update model.UpdateInput) (*model.Problem, error) {
	var doc problemDocument
	err := r.problems.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updateSet(update, r.now())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case db.IsNoDocuments(err):
			return nil, ErrProblemNotFound
		case db.IsDuplicateKey(err):
			return nil, ErrProblemAlreadyExists
		}
		return nil, fmt.Errorf("update problem failed: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProblemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.problems.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"isActive":  false,
		"updatedAt": r.now(),
	}})
	if err != nil {
		return fmt.Errorf("delete problem failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProblemNotFound
	}
	return nil
}

func (r *MongoProblemRepository) IncrementSubmissions(ctx context.Context, id int64, accepted bool) (*model.Problem, error) {
	var doc problemDocument
	err := r.problems.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		submissionPipeline(accepted, r.now()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if db.IsNoDocuments(err) {
			return nil, ErrProblemNotFound
		}
		return nil, fmt.Errorf("increment submissions failed: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoProblemRepository) GetStatistics(ctx context.Context) (model.Statistics, error) {
	cursor, err := r.problems.Aggregate(ctx, statisticsPipeline())
	if err != nil {
		return model.Statistics{}, fmt.Errorf("aggregate statistics failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []statisticsDocument
	if err := cursor.All(ctx, &results); err != nil {
		return model.Statistics{}, fmt.Errorf("decode statistics failed: %w", err)
	}
	if len(results) == 0 {
		return model.Statistics{}, nil
	}
	s := results[0]
	return model.Statistics{
		TotalProblems:            s.TotalProblems,
		EasyProblems:             s.EasyProblems,
		MediumProblems:           s.MediumProblems,
		HardProblems:             s.HardProblems,
		TotalSubmissions:         s.TotalSubmissions,
		TotalAcceptedSubmissions: s.TotalAcceptedSubmissions,
	}, nil
}

// activeFilter matches problems that were never soft deleted. Every catalog read starts from it.
func activeFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"isActive": bson.M{"$exists": false}},
		bson.M{"isActive": true},
	}}
}

func listFilter(filter model.ListFilter) bson.M {
	query := activeFilter()
	if filter.Difficulty != "" {
		query["difficulty"] = strings.ToLower(string(filter.Difficulty))
	}
	if filter.Category != "" {
		query["category"] = bson.M{"$regex": regexp.QuoteMeta(filter.Category), "$options": "i"}
	}
	return query
}

func searchFilter(filter model.SearchFilter) bson.M {
	query := listFilter(filter.ListFilter)
	if q := strings.TrimSpace(filter.Query); q != "" {
		query["$text"] = bson.M{"$search": q}
	}
	return query
}

func updateSet(update model.UpdateInput, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Difficulty != nil {
		set["difficulty"] = string(*update.Difficulty)
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.TestCases != nil {
		set["testCases"] = toTestCaseDocuments(*update.TestCases)
	}
	if update.Constraints != nil {
		set["constraints"] = nonNilStrings(*update.Constraints)
	}
	if update.Tags != nil {
		set["tags"] = nonNilStrings(*update.Tags)
	}
	if update.TimeLimit != nil {
		set["timeLimit"] = *update.TimeLimit
	}
	if update.MemoryLimit != nil {
		set["memoryLimit"] = *update.MemoryLimit
	}
	return set
}

// submissionPipeline bumps the counters and recomputes the acceptance rate in one
// atomic update. The rate is floor((accepted*200 + submissions) / (2*submissions)),
// which rounds halves up without going through a fractional percentage.
func submissionPipeline(accepted bool, now time.Time) mongo.Pipeline {
	acceptedInc := 0
	if accepted {
		acceptedInc = 1
	}
	orZero := func(field string) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{field, 0}}}
	}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "submissions", Value: bson.D{{Key: "$add", Value: bson.A{orZero("$submissions"), 1}}}},
			{Key: "acceptedSubmissions", Value: bson.D{{Key: "$add", Value: bson.A{orZero("$acceptedSubmissions"), acceptedInc}}}},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "acceptanceRate", Value: bson.D{{Key: "$toInt", Value: bson.D{{Key: "$floor", Value: bson.D{{Key: "$divide", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$multiply", Value: bson.A{"$acceptedSubmissions", 200}}},
					"$submissions",
				}}},
				bson.D{{Key: "$multiply", Value: bson.A{"$submissions", 2}}},
			}}}}}}}},
		}}},
	}
}

func statisticsPipeline() mongo.Pipeline {
	countDifficulty := func(d model.Difficulty) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$difficulty", string(d)}}}, 1, 0,
		}}}}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: activeFilter()}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalProblems", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "easyProblems", Value: countDifficulty(model.DifficultyEasy)},
			{Key: "mediumProblems", Value: countDifficulty(model.DifficultyMedium)},
			{Key: "hardProblems", Value: countDifficulty(model.DifficultyHard)},
			{Key: "totalSubmissions", Value: bson.D{{Key: "$sum", Value: "$submissions"}}},
			{Key: "totalAcceptedSubmissions", Value: bson.D{{Key: "$sum", Value: "$acceptedSubmissions"}}},
		}}},
	}
}

func fromModel(p *model.Problem) problemDocument {
	active := p.IsActive
	return problemDocument{
		ID:                  p.ID,
		Title:               p.Title,
		Description:         p.Description,
		Difficulty:          string(p.Difficulty),
		Category:            p.Category,
		TestCases:           toTestCaseDocuments(p.TestCases),
		Constraints:         nonNilStrings(p.Constraints),
		Tags:                nonNilStrings(p.Tags),
		TimeLimit:           p.TimeLimit,
		MemoryLimit:         p.MemoryLimit,
		Submissions:         p.Submissions,
		AcceptedSubmissions: p.AcceptedSubmissions,
		AcceptanceRate:      p.AcceptanceRate,
		IsActive:            &active,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func (d *problemDocument) toModel() *model.Problem {
	testCases := make([]model.TestCase, 0, len(d.TestCases))
	for _, tc := range d.TestCases {
		testCases = append(testCases, model.TestCase{Input: tc.Input, Output: tc.Output, Description: tc.Description})
	}
	return &model.Problem{
		ID:                  d.ID,
		Title:               d.Title,
		Description:         d.Description,
		Difficulty:          model.Difficulty(d.Difficulty),
		Category:            d.Category,
		TestCases:           testCases,
		Constraints:         nonNilStrings(d.Constraints),
		Tags:                nonNilStrings(d.Tags),
		TimeLimit:           d.TimeLimit,
		MemoryLimit:         d.MemoryLimit,
		Submissions:         d.Submissions,
		AcceptedSubmissions: d.AcceptedSubmissions,
		AcceptanceRate:      d.AcceptanceRate,
		IsActive:            d.IsActive == nil || *d.IsActive,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func toTestCaseDocuments(testCases []model.TestCase) []testCaseDocument {
	docs := make([]testCaseDocument, 0, len(testCases))
	for _, tc := range testCases {
		docs = append(docs, testCaseDocument{Input: tc.Input, Output: tc.Output, Description: tc.Description})
	}
	return docs
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var _ ProblemRepository = (*MongoProblemRepository)(nil)
