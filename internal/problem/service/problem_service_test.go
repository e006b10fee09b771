package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/mq"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/repository"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ProblemEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.ProblemEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type failingRepo struct {
	repository.ProblemRepository
	err error
}

func (r failingRepo) FindByID(context.Context, int64) (*model.Problem, error) { return nil, r.err }

func (r failingRepo) FindAll(context.Context, model.ListFilter) (model.ProblemPage, error) {
	return model.ProblemPage{}, r.err
}

func newService(t *testing.T) (*service.ProblemService, *recordingPublisher) {
	t.Helper()
	events := &recordingPublisher{}
	return service.NewProblemService(repository.NewMemoryProblemRepository(), events, logger.Nop()), events
}

func validInput(title string) model.CreateInput {
	return model.CreateInput{
		Title:       title,
		Description: "A sufficiently long description.",
		Difficulty:  model.DifficultyMedium,
		Category:    "Graph",
		TestCases:   []model.TestCase{{Input: "1", Output: "2"}},
	}
}

func TestCreateAndGetProblem(t *testing.T) {
	svc, events := newService(t)
	created, err := svc.CreateProblem(context.Background(), validInput("Dijkstra"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	got, err := svc.GetProblem(context.Background(), created.ID)
	if err != nil || got == nil || got.Title != "Dijkstra" {
		t.Fatalf("unexpected get result: %+v %v", got, err)
	}
	if types := events.types(); len(types) != 1 || types[0] != model.ProblemEventCreated {
		t.Fatalf("unexpected events: %v", types)
	}
	if events.events[0].ProblemID != created.ID || events.events[0].OccurredAt.IsZero() {
		t.Fatalf("unexpected event: %+v", events.events[0])
	}

	missing, err := svc.GetProblem(context.Background(), 999999)
	if err != nil || missing != nil {
		t.Fatalf("expected absent problem, got %+v %v", missing, err)
	}
}

func TestCreateDuplicateTitleIsConflict(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.CreateProblem(context.Background(), validInput("Dup")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := svc.CreateProblem(context.Background(), validInput("Dup"))
	if !pkgerrors.Is(err, pkgerrors.ProblemAlreadyExists) {
		t.Fatalf("expected ProblemAlreadyExists, got %v", err)
	}
	if pkgerrors.GetCode(err).HTTPStatus() != 409 {
		t.Fatalf("expected 409 mapping")
	}
}

func TestUpdateAndDeleteRequireExistingProblem(t *testing.T) {
	svc, events := newService(t)
	title := "Renamed"
	if _, err := svc.UpdateProblem(context.Background(), 42, model.UpdateInput{Title: &title}); !pkgerrors.Is(err, pkgerrors.ProblemNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := svc.DeleteProblem(context.Background(), 42); !pkgerrors.Is(err, pkgerrors.ProblemNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	if len(events.types()) != 0 {
		t.Fatalf("no events expected for failed writes")
	}
}

func TestUpdateProblem(t *testing.T) {
	svc, events := newService(t)
	created, _ := svc.CreateProblem(context.Background(), validInput("Original"))
	_, _ = svc.CreateProblem(context.Background(), validInput("Taken"))

	title := "Renamed"
	updated, err := svc.UpdateProblem(context.Background(), created.ID, model.UpdateInput{Title: &title})
	if err != nil || updated.Title != "Renamed" || updated.Category != "Graph" {
		t.Fatalf("unexpected update result: %+v %v", updated, err)
	}

	taken := "Taken"
	if _, err := svc.UpdateProblem(context.Background(), created.ID, model.UpdateInput{Title: &taken}); !pkgerrors.Is(err, pkgerrors.ProblemAlreadyExists) {
		t.Fatalf("expected conflict on taken title, got %v", err)
	}
	types := events.types()
	if types[len(types)-1] != model.ProblemEventUpdated {
		t.Fatalf("expected updated event, got %v", types)
	}
}

func TestDeleteProblemIsSoft(t *testing.T) {
	svc, events := newService(t)
	created, _ := svc.CreateProblem(context.Background(), validInput("Soft"))
	if err := svc.DeleteProblem(context.Background(), created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	page, err := svc.ListProblems(context.Background(), model.ListFilter{Page: 1, Limit: 10})
	if err != nil || page.Total != 0 {
		t.Fatalf("deleted problem still listed: %+v %v", page, err)
	}
	got, _ := svc.GetProblem(context.Background(), created.ID)
	if got == nil || got.IsActive {
		t.Fatalf("expected inactive problem to remain readable, got %+v", got)
	}
	types := events.types()
	if types[len(types)-1] != model.ProblemEventDeleted {
		t.Fatalf("expected deleted event, got %v", types)
	}
}

func TestRecordSubmission(t *testing.T) {
	svc, events := newService(t)
	created, _ := svc.CreateProblem(context.Background(), validInput("Counter"))
	for _, accepted := range []bool{true, false, true, false} {
		if _, err := svc.RecordSubmission(context.Background(), created.ID, accepted); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}
	got, _ := svc.GetProblem(context.Background(), created.ID)
	if got.Submissions != 4 || got.AcceptedSubmissions != 2 || got.AcceptanceRate != 50 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	last := events.events[len(events.events)-1]
	if last.EventType != model.ProblemEventSubmissionRecorded || last.Accepted == nil || *last.Accepted {
		t.Fatalf("unexpected event: %+v", last)
	}

	if _, err := svc.RecordSubmission(context.Background(), 999, true); !pkgerrors.Is(err, pkgerrors.ProblemNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetStatistics(t *testing.T) {
	svc, _ := newService(t)
	easy := validInput("Easy one")
	easy.Difficulty = model.DifficultyEasy
	_, _ = svc.CreateProblem(context.Background(), easy)
	_, _ = svc.CreateProblem(context.Background(), validInput("Medium one"))

	stats, err := svc.GetStatistics(context.Background())
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.TotalProblems != 2 || stats.EasyProblems != 1 || stats.MediumProblems != 1 || stats.HardProblems != 0 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	events := &recordingPublisher{err: errors.New("broker down")}
	svc := service.NewProblemService(repository.NewMemoryProblemRepository(), events, logger.Nop())
	if _, err := svc.CreateProblem(context.Background(), validInput("Resilient")); err != nil {
		t.Fatalf("create must succeed when publishing fails: %v", err)
	}
	if len(events.types()) != 1 {
		t.Fatalf("expected one publish attempt")
	}
}

func TestStoreFailureIsDatabaseError(t *testing.T) {
	svc := service.NewProblemService(failingRepo{err: errors.New("connection refused")}, nil, nil)
	_, err := svc.ListProblems(context.Background(), model.ListFilter{Page: 1, Limit: 10})
	if !pkgerrors.Is(err, pkgerrors.DatabaseError) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
	if err := svc.DeleteProblem(context.Background(), 1); !pkgerrors.Is(err, pkgerrors.DatabaseError) {
		t.Fatalf("expected DatabaseError from existence check, got %v", err)
	}
}

type capturingProducer struct {
	topic    string
	messages []*mq.Message
	err      error
}

func (p *capturingProducer) Publish(_ context.Context, topic string, message *mq.Message) error {
	p.topic = topic
	p.messages = append(p.messages, message)
	return p.err
}

func (p *capturingProducer) Ping(context.Context) error { return nil }
func (p *capturingProducer) Close() error               { return nil }

func TestKafkaEventPublisher(t *testing.T) {
	producer := &capturingProducer{}
	publisher := service.NewKafkaEventPublisher(producer, "")
	accepted := true
	err := publisher.Publish(context.Background(), model.ProblemEvent{
		EventType: model.ProblemEventSubmissionRecorded,
		ProblemID: 7,
		Accepted:  &accepted,
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if producer.topic != service.DefaultEventTopic || len(producer.messages) != 1 {
		t.Fatalf("unexpected publish: %s %d", producer.topic, len(producer.messages))
	}
	msg := producer.messages[0]
	if msg.Key != "problem-7" {
		t.Fatalf("unexpected key: %s", msg.Key)
	}
	if v := msg.Header("event_type"); v != model.ProblemEventSubmissionRecorded {
		t.Fatalf("unexpected event_type header: %s", v)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if decoded["problem_id"] != float64(7) || decoded["accepted"] != true {
		t.Fatalf("unexpected body: %v", decoded)
	}

	if err := publisher.Publish(context.Background(), model.ProblemEvent{EventType: model.ProblemEventDeleted}); err == nil {
		t.Fatalf("expected error without problem id")
	}
	producer.err = errors.New("down")
	if err := publisher.Publish(context.Background(), model.ProblemEvent{EventType: model.ProblemEventDeleted, ProblemID: 1}); err == nil {
		t.Fatalf("expected producer error to surface")
	}
}
