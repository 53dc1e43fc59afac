package commands_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/delivery"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/core/saga"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory DeliveryRepository backing the workflow tests,
// shared across unit-of-work instances the way a database would be.
type fakeStore struct {
	mu             sync.Mutex
	deliveries     map[kernel.UUID]*delivery.Delivery
	softDeleted    map[kernel.UUID]bool
	pendingDrivers map[kernel.UUID][]kernel.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		deliveries:     make(map[kernel.UUID]*delivery.Delivery),
		softDeleted:    make(map[kernel.UUID]bool),
		pendingDrivers: make(map[kernel.UUID][]kernel.UUID),
	}
}

func (s *fakeStore) Add(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[d.ID()] = d
	return nil
}

func (s *fakeStore) Update(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[d.ID()]; !ok {
		return errs.NewObjectNotFoundError("deliveryId", d.ID().String())
	}
	s.deliveries[d.ID()] = d
	return nil
}

func (s *fakeStore) Get(_ context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("deliveryId", id.String())
	}
	return d, nil
}

func (s *fakeStore) ClaimForDriver(
	_ context.Context, id, driverID kernel.UUID, eta time.Time,
) (*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok || s.softDeleted[id] {
		return nil, errs.NewObjectNotFoundError("deliveryId", id.String())
	}
	if err := d.Claim(driverID, eta); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *fakeStore) SoftDelete(_ context.Context, id kernel.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[id]; !ok {
		return errs.NewObjectNotFoundError("deliveryId", id.String())
	}
	s.softDeleted[id] = true
	return nil
}

func (s *fakeStore) AddPendingDriver(_ context.Context, deliveryID, driverID kernel.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingDrivers[deliveryID] = append(s.pendingDrivers[deliveryID], driverID)
	return nil
}

func (s *fakeStore) RemovePendingDrivers(_ context.Context, deliveryID kernel.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingDrivers, deliveryID)
	return nil
}

type fakeUoW struct{ store *fakeStore }

func (u fakeUoW) Begin(context.Context) error                  { return nil }
func (u fakeUoW) Commit(context.Context) error                 { return nil }
func (u fakeUoW) Rollback(context.Context) error               { return nil }
func (u fakeUoW) DeliveryRepository() ports.DeliveryRepository { return u.store }

type fakeUoWFactory struct{ store *fakeStore }

func (f fakeUoWFactory) Create() commands.DeliveryUoW { return fakeUoW{store: f.store} }

// recordingPublisher captures published events; err, when set, fails every publish.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventName string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, eventName)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type workflowFixture struct {
	store     *fakeStore
	publisher *recordingPublisher
	registry  *saga.AsyncStepRegistry
	engine    *saga.Engine
	workflow  saga.Workflow
	handler   commands.StartDeliveryCommandHandler
}

func newWorkflowFixture(t *testing.T, publishErr error) *workflowFixture {
	t.Helper()

	store := newFakeStore()
	publisher := &recordingPublisher{err: publishErr}
	registry := saga.NewAsyncStepRegistry()
	engine := saga.NewEngine(registry, discardLogger())

	workflow, err := commands.NewCreateDeliveryWorkflow(
		fakeUoWFactory{store: store}, publisher, discardLogger())
	require.NoError(t, err)

	return &workflowFixture{
		store:     store,
		publisher: publisher,
		registry:  registry,
		engine:    engine,
		workflow:  workflow,
		handler:   commands.NewStartDeliveryCommandHandler(engine, workflow),
	}
}

func (f *workflowFixture) startDelivery(t *testing.T) commands.StartDeliveryResult {
	t.Helper()
	cmd, err := commands.NewStartDeliveryCommand("order_01", kernel.NewUUID(), testItems(t))
	require.NoError(t, err)
	result, err := f.handler.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return result
}

func TestStartDelivery_SuspendsAwaitingDriver(t *testing.T) {
	f := newWorkflowFixture(t, nil)

	result := f.startDelivery(t)

	exec, err := f.engine.Execution(result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateSuspended, exec.State())
	assert.True(t, f.registry.IsPending(commands.AwaitDriverStepID(result.DeliveryID)))
	assert.Equal(t, []string{commands.NotifyRestaurantEvent}, f.publisher.published())

	stored, err := f.store.Get(t.Context(), result.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, delivery.AwaitingDriver, stored.Status())
}

func TestStartDelivery_ClaimResumesAndCompletes(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	result := f.startDelivery(t)

	driverID := kernel.NewUUID()
	claimCmd, err := commands.NewClaimDeliveryCommand(result.DeliveryID, driverID)
	require.NoError(t, err)

	claimHandler := commands.NewClaimDeliveryCommandHandler(
		fakeUoWFactory{store: f.store}, f.engine, discardLogger())
	snapshot, err := claimHandler.Handle(t.Context(), claimCmd)
	require.NoError(t, err)
	assert.Equal(t, delivery.PickupClaimed, snapshot.Status)

	exec, err := f.engine.Execution(result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCompleted, exec.State())
	assert.False(t, f.registry.IsPending(commands.AwaitDriverStepID(result.DeliveryID)))
}

func TestStartDelivery_OnlyOneOfConcurrentClaimsWins(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	result := f.startDelivery(t)

	const drivers = 8
	claimHandler := commands.NewClaimDeliveryCommandHandler(
		fakeUoWFactory{store: f.store}, f.engine, discardLogger())

	var wg sync.WaitGroup
	outcomes := make(chan error, drivers)
	for range drivers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := commands.NewClaimDeliveryCommand(result.DeliveryID, kernel.NewUUID())
			if err != nil {
				outcomes <- err
				return
			}
			_, err = claimHandler.Handle(t.Context(), cmd)
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	var wins, rejections int
	for err := range outcomes {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, delivery.ErrAlreadyClaimed):
			rejections++
		default:
			t.Fatalf("unexpected claim outcome: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, drivers-1, rejections)

	stored, err := f.store.Get(t.Context(), result.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, delivery.PickupClaimed, stored.Status())
	require.NotNil(t, stored.Driver())
}

func TestStartDelivery_PublishFailureCompensates(t *testing.T) {
	f := newWorkflowFixture(t, errors.New("broker unavailable"))

	cmd, err := commands.NewStartDeliveryCommand("order_01", kernel.NewUUID(), testItems(t))
	require.NoError(t, err)
	_, err = f.handler.Handle(t.Context(), cmd)
	require.Error(t, err)

	// The create-delivery compensation cancelled and soft-deleted the record.
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	require.Len(t, f.store.deliveries, 1)
	for id, stored := range f.store.deliveries {
		assert.Equal(t, delivery.Cancelled, stored.Status())
		assert.True(t, stored.IsDeleted())
		assert.True(t, f.store.softDeleted[id])
	}
}

func TestStartDelivery_TimeoutExhaustsRetriesThenCancels(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	result := f.startDelivery(t)
	stepID := commands.AwaitDriverStepID(result.DeliveryID)

	// Each sweep past the deadline consumes one retry: the notification is
	// republished and the step re-registered until the budget runs out.
	farFuture := time.Now().Add(time.Hour)
	for i := range commands.NotifyRestaurantMaxRetries {
		f.engine.ExpireDueSteps(t.Context(), farFuture)
		require.True(t, f.registry.IsPending(stepID), "retry %d should re-register", i+1)
	}
	assert.Len(t, f.publisher.published(), 1+commands.NotifyRestaurantMaxRetries)

	f.engine.ExpireDueSteps(t.Context(), farFuture)
	assert.False(t, f.registry.IsPending(stepID))

	exec, err := f.engine.Execution(result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCompensated, exec.State())
	require.ErrorIs(t, exec.Failure(), saga.ErrStepTimedOut)

	stored, err := f.store.Get(t.Context(), result.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, delivery.Cancelled, stored.Status())
	assert.True(t, stored.IsDeleted())
}

// gatePublisher blocks one selected publish until released so a test can
// interleave other work with an in-flight step retry.
type gatePublisher struct {
	mu      sync.Mutex
	calls   int
	gateOn  int
	entered chan struct{}
	release chan struct{}
}

func newGatePublisher(gateOn int) *gatePublisher {
	return &gatePublisher{
		gateOn:  gateOn,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *gatePublisher) Publish(context.Context, string, any) error {
	p.mu.Lock()
	p.calls++
	gated := p.calls == p.gateOn
	p.mu.Unlock()

	if gated {
		close(p.entered)
		<-p.release
	}
	return nil
}

// A claim that lands while the timeout sweeper is mid-retry loses its
// resolution signal: the sweeper has already taken the registry entry, so the
// claim's resolve is a no-op. The retry must then observe the claimed status
// and complete the saga instead of re-parking it into eventual cancellation.
func TestStartDelivery_ClaimDuringSweeperRetryCompletes(t *testing.T) {
	store := newFakeStore()
	publisher := newGatePublisher(2) // gate the first retry's publish
	registry := saga.NewAsyncStepRegistry()
	engine := saga.NewEngine(registry, discardLogger())

	workflow, err := commands.NewCreateDeliveryWorkflow(
		fakeUoWFactory{store: store}, publisher, discardLogger())
	require.NoError(t, err)
	handler := commands.NewStartDeliveryCommandHandler(engine, workflow)

	cmd, err := commands.NewStartDeliveryCommand("order_01", kernel.NewUUID(), testItems(t))
	require.NoError(t, err)
	result, err := handler.Handle(t.Context(), cmd)
	require.NoError(t, err)

	farFuture := time.Now().Add(time.Hour)
	swept := make(chan struct{})
	go func() {
		defer close(swept)
		engine.ExpireDueSteps(t.Context(), farFuture)
	}()
	<-publisher.entered

	// The sweeper holds the registry entry, so the claim's resolve no-ops,
	// but the claim itself sticks in the store.
	driverID := kernel.NewUUID()
	claimCmd, err := commands.NewClaimDeliveryCommand(result.DeliveryID, driverID)
	require.NoError(t, err)
	claimHandler := commands.NewClaimDeliveryCommandHandler(
		fakeUoWFactory{store: store}, engine, discardLogger())
	snapshot, err := claimHandler.Handle(t.Context(), claimCmd)
	require.NoError(t, err)
	assert.Equal(t, delivery.PickupClaimed, snapshot.Status)

	close(publisher.release)
	<-swept

	// The next sweep re-runs the forward action, which finds the delivery
	// claimed and completes the saga.
	engine.ExpireDueSteps(t.Context(), farFuture)

	exec, err := engine.Execution(result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCompleted, exec.State())
	assert.False(t, registry.IsPending(commands.AwaitDriverStepID(result.DeliveryID)))

	// Further sweeps must not cancel the delivery the driver won.
	for range 3 {
		engine.ExpireDueSteps(t.Context(), farFuture)
	}
	stored, err := store.Get(t.Context(), result.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, delivery.PickupClaimed, stored.Status())
	require.NotNil(t, stored.Driver())
	assert.Equal(t, driverID, *stored.Driver())
	assert.False(t, stored.IsDeleted())
}

// Cancelling a suspended delivery through the failure directive runs the
// cascade against a record that is already cancelled; the compensation must
// treat that as done rather than reporting a failed cascade.
func TestStartDelivery_CancelDirectiveCompensatesQuietly(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	store := newFakeStore()
	publisher := &recordingPublisher{}
	registry := saga.NewAsyncStepRegistry()
	engine := saga.NewEngine(registry, logger)

	workflow, err := commands.NewCreateDeliveryWorkflow(
		fakeUoWFactory{store: store}, publisher, logger)
	require.NoError(t, err)
	handler := commands.NewStartDeliveryCommandHandler(engine, workflow)

	cmd, err := commands.NewStartDeliveryCommand("order_01", kernel.NewUUID(), testItems(t))
	require.NoError(t, err)
	result, err := handler.Handle(t.Context(), cmd)
	require.NoError(t, err)

	updateCmd, err := commands.NewUpdateDeliveryCommand(
		result.DeliveryID, commands.ActionCancel, "", commands.AwaitDriverStepID(result.DeliveryID))
	require.NoError(t, err)
	updateHandler := commands.NewUpdateDeliveryCommandHandler(
		fakeUoWFactory{store: store}, engine, logger)
	_, err = updateHandler.Handle(t.Context(), updateCmd)
	require.NoError(t, err)

	exec, err := engine.Execution(result.ExecutionID)
	require.NoError(t, err)
	require.Equal(t, saga.StateCompensated, exec.State())
	assert.NotContains(t, logs.String(), "compensation failed")
}

func TestStartDelivery_CancelDirectiveFailsSuspendedSaga(t *testing.T) {
	f := newWorkflowFixture(t, nil)
	result := f.startDelivery(t)
	stepID := commands.AwaitDriverStepID(result.DeliveryID)

	updateCmd, err := commands.NewUpdateDeliveryCommand(
		result.DeliveryID, commands.ActionCancel, "", stepID)
	require.NoError(t, err)

	updateHandler := commands.NewUpdateDeliveryCommandHandler(
		fakeUoWFactory{store: f.store}, f.engine, discardLogger())
	snapshot, err := updateHandler.Handle(t.Context(), updateCmd)
	require.NoError(t, err)
	assert.Equal(t, delivery.Cancelled, snapshot.Status)

	exec, err := f.engine.Execution(result.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCompensated, exec.State())
	assert.False(t, f.registry.IsPending(stepID))
}
