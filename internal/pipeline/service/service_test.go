package service

import (
	"context"
	"testing"
	"time"

	"staffhub_backend/internal/events"
	"staffhub_backend/internal/pipeline/domain"
	"staffhub_backend/internal/pipeline/repository"
	"staffhub_backend/internal/pipeline/transport"
	rosterrepo "staffhub_backend/internal/roster/repository"
	"staffhub_backend/platform/apperr"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads         map[uuid.UUID]domain.Lead
	cards         map[uuid.UUID]domain.Card
	attempts      []domain.ContactAttempt
	distributions []repository.Distribution
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads: make(map[uuid.UUID]domain.Lead),
		cards: make(map[uuid.UUID]domain.Card),
	}
}

func (f *fakeStore) CreateLead(_ context.Context, lead domain.Lead) error {
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeStore) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (f *fakeStore) UpdateLead(_ context.Context, lead domain.Lead) error {
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeStore) CreateCard(_ context.Context, card domain.Card) error {
	f.cards[card.ID] = card
	return nil
}

func (f *fakeStore) GetCard(_ context.Context, id uuid.UUID) (domain.Card, error) {
	card, ok := f.cards[id]
	if !ok {
		return domain.Card{}, repository.ErrCardNotFound
	}
	return card, nil
}

func (f *fakeStore) SaveCard(_ context.Context, card domain.Card) error {
	f.cards[card.ID] = card
	return nil
}

func (f *fakeStore) ListCardsByAgent(_ context.Context, agentID uuid.UUID) ([]domain.Card, error) {
	var out []domain.Card
	for _, c := range f.cards {
		if c.CurrentAgentID == agentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendAttempt(_ context.Context, attempt domain.ContactAttempt) error {
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeStore) ListAttempts(_ context.Context, cardID uuid.UUID) ([]domain.ContactAttempt, error) {
	var out []domain.ContactAttempt
	for _, a := range f.attempts {
		if a.CardID == cardID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAttemptsByAgent(_ context.Context, agentID uuid.UUID) ([]domain.ContactAttempt, error) {
	var out []domain.ContactAttempt
	for _, a := range f.attempts {
		if a.AgentID == agentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendDistribution(_ context.Context, d repository.Distribution) error {
	f.distributions = append(f.distributions, d)
	return nil
}

func (f *fakeStore) ListDistributions(_ context.Context, cardID uuid.UUID) ([]repository.Distribution, error) {
	var out []repository.Distribution
	for _, d := range f.distributions {
		if d.CardID == cardID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeRoster struct {
	members  map[uuid.UUID]*rosterrepo.Member
	order    []uuid.UUID
	acquired []uuid.UUID
	released []uuid.UUID
}

func newFakeRoster(members ...rosterrepo.Member) *fakeRoster {
	f := &fakeRoster{members: make(map[uuid.UUID]*rosterrepo.Member)}
	for i := range members {
		m := members[i]
		f.members[m.ID] = &m
		f.order = append(f.order, m.ID)
	}
	return f
}

func (f *fakeRoster) ListActive(_ context.Context) ([]rosterrepo.Member, error) {
	var out []rosterrepo.Member
	for _, id := range f.order {
		if m := f.members[id]; m.Active {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRoster) TryAcquire(_ context.Context, id uuid.UUID) (bool, error) {
	m, ok := f.members[id]
	if !ok || m.ActiveLeadCount >= m.MaxConcurrentLeads {
		return false, nil
	}
	m.ActiveLeadCount++
	f.acquired = append(f.acquired, id)
	return true, nil
}

func (f *fakeRoster) Release(_ context.Context, id uuid.UUID) error {
	if m, ok := f.members[id]; ok && m.ActiveLeadCount > 0 {
		m.ActiveLeadCount--
	}
	f.released = append(f.released, id)
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func (f *fakeBus) Publish(_ context.Context, e events.Event) {
	f.published = append(f.published, e)
}

func (f *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

func (f *fakeBus) has(name string) bool {
	for _, e := range f.published {
		if e.EventName() == name {
			return true
		}
	}
	return false
}

type fakePlanner struct {
	planned   []domain.Card
	cancelled []uuid.UUID
}

func (f *fakePlanner) PlanForStage(_ context.Context, card domain.Card) error {
	f.planned = append(f.planned, card)
	return nil
}

func (f *fakePlanner) CancelOpen(_ context.Context, cardID uuid.UUID) error {
	f.cancelled = append(f.cancelled, cardID)
	return nil
}

type fakeScheduler struct {
	retries    []time.Time
	recontacts []time.Time
}

func (f *fakeScheduler) ScheduleDistributionRetry(_ context.Context, _ uuid.UUID, runAt time.Time) error {
	f.retries = append(f.retries, runAt)
	return nil
}

func (f *fakeScheduler) ScheduleRecontact(_ context.Context, _ uuid.UUID, runAt time.Time) error {
	f.recontacts = append(f.recontacts, runAt)
	return nil
}

type fixture struct {
	svc     *Service
	store   *fakeStore
	roster  *fakeRoster
	bus     *fakeBus
	planner *fakePlanner
	sched   *fakeScheduler
	clk     *clock.Fake
}

func newFixture(t *testing.T, members ...rosterrepo.Member) *fixture {
	t.Helper()
	f := &fixture{
		store:   newFakeStore(),
		roster:  newFakeRoster(members...),
		bus:     &fakeBus{},
		planner: &fakePlanner{},
		sched:   &fakeScheduler{},
		clk:     clock.NewFake(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)),
	}
	f.svc = New(f.store, f.roster, f.bus, f.clk, config.DefaultWorkflow(), logger.New("test"))
	f.svc.SetTaskPlanner(f.planner)
	f.svc.SetRetryScheduler(f.sched)
	return f
}

func member(rank, load, capacity int, specs ...string) rosterrepo.Member {
	return rosterrepo.Member{
		ID:                 uuid.New(),
		Active:             true,
		MaxConcurrentLeads: capacity,
		ActiveLeadCount:    load,
		PriorityRank:       rank,
		Specializations:    specs,
	}
}

func createRequest() transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		FirstName: "Marina",
		LastName:  "Souza",
		Phone:     "+5511998765432",
	}
}

func TestCreateLeadSkipsFullAgent(t *testing.T) {
	full := member(1, 5, 5)
	spare := member(2, 0, 5)
	f := newFixture(t, full, spare)

	card, err := f.svc.CreateLead(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	if card.CurrentAgentID == nil || *card.CurrentAgentID != spare.ID {
		t.Fatalf("currentAgentID = %v, want spare agent %v", card.CurrentAgentID, spare.ID)
	}
	if card.Stage != string(domain.StageNewLead) {
		t.Errorf("stage = %q, want new_lead", card.Stage)
	}
	if got := f.roster.members[spare.ID].ActiveLeadCount; got != 1 {
		t.Errorf("spare agent load = %d, want 1", got)
	}
	if len(f.store.distributions) != 1 || f.store.distributions[0].Reason != repository.ReasonInitial {
		t.Errorf("distributions = %+v, want one initial record", f.store.distributions)
	}
	if len(f.planner.planned) != 1 {
		t.Errorf("planned tasks = %d, want 1", len(f.planner.planned))
	}
	if !f.bus.has((events.LeadCreated{}).EventName()) || !f.bus.has((events.LeadDistributed{}).EventName()) {
		t.Error("expected lead.created and lead.distributed events")
	}
}

func TestCreateLeadPrefersSpecializationMatch(t *testing.T) {
	generalist := member(1, 0, 5)
	specialist := member(3, 2, 5, "warehouse")
	f := newFixture(t, generalist, specialist)

	req := createRequest()
	req.ProductInterests = []string{"warehouse"}

	card, err := f.svc.CreateLead(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if card.CurrentAgentID == nil || *card.CurrentAgentID != specialist.ID {
		t.Fatalf("currentAgentID = %v, want specialist %v despite lower rank", card.CurrentAgentID, specialist.ID)
	}
}

func TestCreateLeadSaturatedQueuesRetry(t *testing.T) {
	f := newFixture(t, member(1, 3, 3), member(2, 2, 2))

	card, err := f.svc.CreateLead(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	if card.CurrentAgentID != nil {
		t.Fatalf("currentAgentID = %v, want unassigned", card.CurrentAgentID)
	}
	if len(f.store.distributions) != 0 {
		t.Errorf("distributions = %d, want none", len(f.store.distributions))
	}
	if len(f.planner.planned) != 0 {
		t.Errorf("planned tasks = %d, want none for unassigned card", len(f.planner.planned))
	}
	if len(f.sched.retries) != 1 {
		t.Fatalf("scheduled retries = %d, want 1", len(f.sched.retries))
	}
	wantRunAt := f.clk.Now().Add(distributionRetryDelay)
	if !f.sched.retries[0].Equal(wantRunAt) {
		t.Errorf("retry at %v, want %v", f.sched.retries[0], wantRunAt)
	}
}

func TestDistributeUnassigned(t *testing.T) {
	agent := member(1, 1, 1)
	f := newFixture(t, agent)
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if card.CurrentAgentID != nil {
		t.Fatal("expected card to start unassigned")
	}

	// capacity frees up before the retry fires
	f.roster.members[agent.ID].ActiveLeadCount = 0

	if err := f.svc.DistributeUnassigned(ctx, card.ID); err != nil {
		t.Fatalf("DistributeUnassigned: %v", err)
	}

	stored := f.store.cards[card.ID]
	if stored.CurrentAgentID != agent.ID {
		t.Fatalf("owner = %v, want %v", stored.CurrentAgentID, agent.ID)
	}
	if len(f.planner.planned) != 1 {
		t.Errorf("planned tasks = %d, want 1", len(f.planner.planned))
	}

	// already assigned: a duplicate retry delivery is a no-op
	acquires := len(f.roster.acquired)
	if err := f.svc.DistributeUnassigned(ctx, card.ID); err != nil {
		t.Fatalf("DistributeUnassigned replay: %v", err)
	}
	if len(f.roster.acquired) != acquires {
		t.Error("replay acquired capacity again")
	}
}

func TestDistributeUnassignedStillSaturated(t *testing.T) {
	f := newFixture(t, member(1, 1, 1))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if err := f.svc.DistributeUnassigned(ctx, card.ID); err != nil {
		t.Fatalf("DistributeUnassigned: %v", err)
	}
	if len(f.sched.retries) != 2 {
		t.Fatalf("scheduled retries = %d, want requeue while saturated", len(f.sched.retries))
	}
}

func TestTransitionTracksDwell(t *testing.T) {
	agent := member(1, 0, 5)
	f := newFixture(t, agent)
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	f.clk.Advance(2 * time.Hour)

	updated, err := f.svc.Transition(ctx, card.ID, transport.TransitionRequest{NextStage: "call_1"})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if updated.Stage != "call_1" {
		t.Errorf("stage = %q, want call_1", updated.Stage)
	}
	if len(updated.StageHistory) != 2 {
		t.Fatalf("history entries = %d, want 2", len(updated.StageHistory))
	}
	closed := updated.StageHistory[0]
	if closed.ExitedAt == nil || closed.DwellSeconds != 7200 {
		t.Errorf("closed entry = %+v, want 7200s dwell", closed)
	}
	if updated.TimeInStageSeconds != 0 {
		t.Errorf("timeInStage = %d, want 0 after entering new stage", updated.TimeInStageSeconds)
	}
	if updated.TotalPipelineSeconds != 7200 {
		t.Errorf("totalPipeline = %d, want 7200", updated.TotalPipelineSeconds)
	}
	if len(f.planner.cancelled) != 1 || f.planner.cancelled[0] != card.ID {
		t.Errorf("cancelled = %v, want old tasks cancelled", f.planner.cancelled)
	}
	last := f.planner.planned[len(f.planner.planned)-1]
	if last.Stage != domain.StageCall1 {
		t.Errorf("planned stage = %s, want call_1", last.Stage)
	}
	if !f.bus.has((events.StageChanged{}).EventName()) {
		t.Error("expected stage.changed event")
	}
}

func TestTransitionRejectsInvalidMoves(t *testing.T) {
	f := newFixture(t, member(1, 0, 5))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	cases := []struct {
		name string
		req  transport.TransitionRequest
		kind apperr.Kind
	}{
		{"unknown stage", transport.TransitionRequest{NextStage: "cold_call"}, apperr.KindValidation},
		{"skip ahead", transport.TransitionRequest{NextStage: "message"}, apperr.KindConflict},
		{"replay current", transport.TransitionRequest{NextStage: "new_lead"}, apperr.KindConflict},
		{"outcome without payload", transport.TransitionRequest{NextStage: "outcome"}, apperr.KindValidation},
	}
	for _, tc := range cases {
		if _, err := f.svc.Transition(ctx, card.ID, tc.req); apperr.GetKind(err) != tc.kind {
			t.Errorf("%s: kind = %v, want %v", tc.name, apperr.GetKind(err), tc.kind)
		}
	}

	stored := f.store.cards[card.ID]
	if stored.Stage != domain.StageNewLead {
		t.Errorf("stage = %s, rejected moves must not persist", stored.Stage)
	}
}

func TestTransitionOutcomeReleasesCapacity(t *testing.T) {
	agent := member(1, 0, 5)
	f := newFixture(t, agent)
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	updated, err := f.svc.Transition(ctx, card.ID, transport.TransitionRequest{
		NextStage: "outcome",
		Outcome:   &transport.OutcomePayload{Qualification: "qualified", Reason: "placed at client"},
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if updated.Qualification != "qualified" {
		t.Errorf("qualification = %q, want qualified", updated.Qualification)
	}
	if updated.Outcome == nil || updated.Outcome.AgentID != agent.ID {
		t.Errorf("outcome = %+v, want closing agent recorded", updated.Outcome)
	}
	if got := f.roster.members[agent.ID].ActiveLeadCount; got != 0 {
		t.Errorf("agent load = %d, want capacity released", got)
	}
	// closing plans no follow-up task
	if len(f.planner.planned) != 1 {
		t.Errorf("planned tasks = %d, want only the intake task", len(f.planner.planned))
	}

	if _, err := f.svc.Transition(ctx, card.ID, transport.TransitionRequest{NextStage: "call_1"}); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("move after close kind = %v, want conflict", apperr.GetKind(err))
	}
}

func TestTransitionRecontactSchedules(t *testing.T) {
	f := newFixture(t, member(1, 0, 5))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	recontactAt := f.clk.Now().Add(48 * time.Hour)
	updated, err := f.svc.Transition(ctx, card.ID, transport.TransitionRequest{
		NextStage:   "recontact",
		RecontactAt: &recontactAt,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if updated.RecontactLoops != 1 {
		t.Errorf("recontactLoops = %d, want 1", updated.RecontactLoops)
	}
	if updated.ScheduledRecontact == nil || !updated.ScheduledRecontact.ScheduledFor.Equal(recontactAt) {
		t.Errorf("scheduledRecontact = %+v, want %v", updated.ScheduledRecontact, recontactAt)
	}
	if len(f.sched.recontacts) != 1 || !f.sched.recontacts[0].Equal(recontactAt) {
		t.Errorf("scheduled recontacts = %v, want one at %v", f.sched.recontacts, recontactAt)
	}
}

func TestTransitionRecontactLoopBound(t *testing.T) {
	f := newFixture(t, member(1, 0, 5))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	stored := f.store.cards[card.ID]
	stored.RecontactLoops = config.DefaultWorkflow().MaxRecontactLoops
	f.store.cards[card.ID] = stored

	if _, err := f.svc.Transition(ctx, card.ID, transport.TransitionRequest{NextStage: "recontact"}); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("kind = %v, want conflict at loop bound", apperr.GetKind(err))
	}
}

func TestRecordAttempt(t *testing.T) {
	agent := member(1, 0, 5)
	f := newFixture(t, agent)
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	duration := int64(90)
	attempt, err := f.svc.RecordAttempt(ctx, card.ID, transport.RecordAttemptRequest{
		Channel:             "call",
		Result:              "no_answer",
		CallDurationSeconds: &duration,
	})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if attempt.AgentID != agent.ID {
		t.Errorf("agentID = %v, want current owner %v", attempt.AgentID, agent.ID)
	}
	if attempt.CallDurationSeconds == nil || *attempt.CallDurationSeconds != 90 {
		t.Errorf("callDuration = %v, want 90", attempt.CallDurationSeconds)
	}
	if !attempt.Timestamp.Equal(f.clk.Now()) {
		t.Errorf("timestamp = %v, want server clock %v", attempt.Timestamp, f.clk.Now())
	}
	if !f.bus.has((events.AttemptRecorded{}).EventName()) {
		t.Error("expected attempt.recorded event")
	}

	// recording never advances the stage
	if f.store.cards[card.ID].Stage != domain.StageNewLead {
		t.Errorf("stage = %s, want unchanged", f.store.cards[card.ID].Stage)
	}
}

func TestRecordAttemptClockSkew(t *testing.T) {
	f := newFixture(t, member(1, 0, 5))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	within := f.clk.Now().Add(4 * time.Minute)
	if _, err := f.svc.RecordAttempt(ctx, card.ID, transport.RecordAttemptRequest{
		Channel: "whatsapp", Result: "success", Timestamp: &within,
	}); err != nil {
		t.Fatalf("timestamp within tolerance rejected: %v", err)
	}

	beyond := f.clk.Now().Add(6 * time.Minute)
	if _, err := f.svc.RecordAttempt(ctx, card.ID, transport.RecordAttemptRequest{
		Channel: "whatsapp", Result: "success", Timestamp: &beyond,
	}); apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation for future timestamp", apperr.GetKind(err))
	}
}

func TestRedistributeExcludesPreviousOwner(t *testing.T) {
	first := member(1, 0, 5)
	second := member(2, 0, 5)
	f := newFixture(t, first, second)
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if *card.CurrentAgentID != first.ID {
		t.Fatalf("initial owner = %v, want %v", card.CurrentAgentID, first.ID)
	}

	newOwner, err := f.svc.RedistributeForTimeout(ctx, card.ID)
	if err != nil {
		t.Fatalf("RedistributeForTimeout: %v", err)
	}

	if newOwner != second.ID {
		t.Fatalf("new owner = %v, want %v (previous owner excluded)", newOwner, second.ID)
	}
	if got := f.roster.members[first.ID].ActiveLeadCount; got != 0 {
		t.Errorf("previous owner load = %d, want released", got)
	}
	stored := f.store.cards[card.ID]
	if stored.PreviousAgentID == nil || *stored.PreviousAgentID != first.ID {
		t.Errorf("previousAgentID = %v, want %v", stored.PreviousAgentID, first.ID)
	}

	last := f.store.distributions[len(f.store.distributions)-1]
	if last.Reason != repository.ReasonTimeoutRedistribution {
		t.Errorf("reason = %q, want timeout_redistribution", last.Reason)
	}
	if last.PreviousAgent == nil || *last.PreviousAgent != first.ID {
		t.Errorf("audit previous agent = %v, want %v", last.PreviousAgent, first.ID)
	}
}

func TestRedistributeSaturatedIsUnprocessable(t *testing.T) {
	// the only agent with spare capacity is the current owner
	f := newFixture(t, member(1, 0, 5))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	if _, err := f.svc.RedistributeForTimeout(ctx, card.ID); apperr.GetKind(err) != apperr.KindUnprocessable {
		t.Errorf("kind = %v, want unprocessable while saturated", apperr.GetKind(err))
	}
	if f.store.cards[card.ID].CurrentAgentID == uuid.Nil {
		t.Error("card must keep its owner when no replacement exists")
	}
}

func TestManualRedistribute(t *testing.T) {
	first := member(1, 0, 5)
	second := member(2, 0, 5)
	f := newFixture(t, first, second)
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	updated, err := f.svc.ManualRedistribute(ctx, card.ID, "agent on leave")
	if err != nil {
		t.Fatalf("ManualRedistribute: %v", err)
	}
	if updated.CurrentAgentID == nil || *updated.CurrentAgentID != second.ID {
		t.Fatalf("owner = %v, want %v", updated.CurrentAgentID, second.ID)
	}

	last := f.store.distributions[len(f.store.distributions)-1]
	if last.Reason != repository.ReasonManualRedistribution || last.Notes != "agent on leave" {
		t.Errorf("audit record = %+v", last)
	}
}

func TestRankCandidates(t *testing.T) {
	full := member(1, 3, 3)
	inactive := member(1, 0, 3)
	inactive.Active = false
	lowRank := member(1, 2, 3)
	highRankLightLoad := member(2, 0, 3)
	highRankHeavyLoad := member(2, 2, 3)

	ranked := rankCandidates(
		[]rosterrepo.Member{full, inactive, highRankHeavyLoad, highRankLightLoad, lowRank},
		nil, nil,
	)

	want := []uuid.UUID{lowRank.ID, highRankLightLoad.ID, highRankHeavyLoad.ID}
	if len(ranked) != len(want) {
		t.Fatalf("ranked %d candidates, want %d", len(ranked), len(want))
	}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("ranked[%d] = %v, want %v", i, ranked[i].ID, id)
		}
	}

	excluded := rankCandidates([]rosterrepo.Member{lowRank, highRankLightLoad}, nil, &lowRank.ID)
	if len(excluded) != 1 || excluded[0].ID != highRankLightLoad.ID {
		t.Errorf("exclusion not applied: %v", excluded)
	}
}

func TestUpdateLead(t *testing.T) {
	f := newFixture(t, member(1, 0, 5))
	ctx := context.Background()

	card, err := f.svc.CreateLead(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	notes := "prefers evening calls"
	updated, err := f.svc.UpdateLead(ctx, card.LeadID, transport.UpdateLeadRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	if updated.Notes != notes {
		t.Errorf("notes = %q, want %q", updated.Notes, notes)
	}
	if updated.FirstName != "Marina" {
		t.Errorf("firstName = %q, untouched fields must survive", updated.FirstName)
	}

	if _, err := f.svc.UpdateLead(ctx, uuid.New(), transport.UpdateLeadRequest{}); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, want not found", apperr.GetKind(err))
	}
}
