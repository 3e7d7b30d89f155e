package lead

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/internal/service/fanout"
	apperrors "github.com/leadrail/lead-api/pkg/errors"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("lead_test")

type fakeLeadRepo struct {
	repository.LeadRepository
	leads        map[uuid.UUID]*model.Lead
	emailsTaken  map[string]bool
	mobilesTaken map[string]bool
	inserted     []*model.Lead
	statusSet    *model.LeadStatus
	assignee     **uuid.UUID
	followUpSet  *time.Time
	listFilters  *model.LeadFilters
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{
		leads:        map[uuid.UUID]*model.Lead{},
		emailsTaken:  map[string]bool{},
		mobilesTaken: map[string]bool{},
	}
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	lead.ID = uuid.New()
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeLeadRepo) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperrors.NotFound("lead", nil)
	}
	return lead, nil
}

func (f *fakeLeadRepo) ExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	return f.emailsTaken[email], nil
}

func (f *fakeLeadRepo) ExistsByMobile(ctx context.Context, mobile string, exclude uuid.UUID) (bool, error) {
	return f.mobilesTaken[mobile], nil
}

func (f *fakeLeadRepo) Update(ctx context.Context, lead *model.Lead) error {
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeLeadRepo) UpdateAssignment(ctx context.Context, leadID uuid.UUID, assignee *uuid.UUID, updatedBy uuid.UUID) error {
	f.assignee = &assignee
	return nil
}

func (f *fakeLeadRepo) UpdateStatus(ctx context.Context, leadID uuid.UUID, status model.LeadStatus, updatedBy uuid.UUID) error {
	f.statusSet = &status
	return nil
}

func (f *fakeLeadRepo) SetNextFollowUp(ctx context.Context, leadID uuid.UUID, at time.Time, setBy uuid.UUID) error {
	f.followUpSet = &at
	return nil
}

func (f *fakeLeadRepo) List(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error) {
	f.listFilters = filters
	return &model.LeadPage{}, nil
}

func (f *fakeLeadRepo) InsertMany(ctx context.Context, leads []*model.Lead) error {
	f.inserted = append(f.inserted, leads...)
	return nil
}

type fakeUserRepo struct {
	repository.UserRepository
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

type fakeCustomerRepo struct {
	created []*model.Customer
	deleted []uuid.UUID
	byLead  map[uuid.UUID]*model.Customer
}

func (f *fakeCustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	f.created = append(f.created, c)
	return nil
}

func (f *fakeCustomerRepo) GetByLeadID(ctx context.Context, leadID uuid.UUID) (*model.Customer, error) {
	return f.byLead[leadID], nil
}

func (f *fakeCustomerRepo) DeleteByLeadID(ctx context.Context, leadID uuid.UUID) error {
	f.deleted = append(f.deleted, leadID)
	return nil
}

type fakeSettingRepo struct {
	settings map[string]*model.Setting
}

func (f *fakeSettingRepo) FindByTitleAndType(ctx context.Context, title, settingType string) (*model.Setting, error) {
	return f.settings[settingType+"/"+title], nil
}

type fakeEmitter struct {
	events []fanout.Event
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	f.events = append(f.events, payload.(fanout.Event))
	return nil
}

type fixture struct {
	svc       *Service
	leads     *fakeLeadRepo
	users     *fakeUserRepo
	customers *fakeCustomerRepo
	settings  *fakeSettingRepo
	emitter   *fakeEmitter
}

func newFixture() *fixture {
	f := &fixture{
		leads:     newFakeLeadRepo(),
		users:     &fakeUserRepo{users: map[uuid.UUID]*model.User{}},
		customers: &fakeCustomerRepo{},
		settings:  &fakeSettingRepo{settings: map[string]*model.Setting{}},
		emitter:   &fakeEmitter{},
	}
	f.svc = NewService(f.leads, f.users, f.customers, f.settings, f.emitter, logger.NewLogger(nil), testMetrics)
	return f
}

func strptr(s string) *string { return &s }

type failingEmitter struct{}

func (failingEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return errors.New("outbox unavailable")
}

func TestCreate_EmitFailureLoggedNotReturned(t *testing.T) {
	var logBuf bytes.Buffer
	leads := newFakeLeadRepo()
	svc := NewService(
		leads,
		&fakeUserRepo{users: map[uuid.UUID]*model.User{}},
		&fakeCustomerRepo{},
		&fakeSettingRepo{settings: map[string]*model.Setting{}},
		failingEmitter{},
		logger.NewLogger(&logger.Config{Output: &logBuf}),
		testMetrics,
	)

	lead, err := svc.Create(context.Background(), uuid.New(), &model.CreateLeadRequest{
		Name:   "Acme Corp",
		Mobile: "9876543210",
	})

	// The mutation committed; the lost event is a log line, not an error.
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Len(t, leads.leads, 1)
	assert.Contains(t, logBuf.String(), "failed to record lead event")
	assert.Contains(t, logBuf.String(), "outbox unavailable")
}

func TestListOpen_ForcesOpenStatusFilter(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListOpen(context.Background(), model.RoleAgent, uuid.New(), &model.LeadFilters{Status: "converted"})
	require.NoError(t, err)

	require.NotNil(t, f.leads.listFilters)
	assert.True(t, f.leads.listFilters.OpenOnly)
	assert.Empty(t, f.leads.listFilters.Status)
}

func TestCreate_ResolvesSourceAndEmits(t *testing.T) {
	f := newFixture()
	source := &model.Setting{Title: "Facebook", Type: model.SettingTypeLeadSource}
	source.ID = uuid.New()
	f.settings.settings[model.SettingTypeLeadSource+"/Facebook"] = source
	actor := uuid.New()

	lead, err := f.svc.Create(context.Background(), actor, &model.CreateLeadRequest{
		Name:   "Acme Corp",
		Mobile: "9876543210",
		Source: "Facebook",
	})
	require.NoError(t, err)

	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.Equal(t, model.LeadPriorityNotAssigned, lead.Priority)
	assert.Equal(t, actor, lead.CreatedBy)
	require.NotNil(t, lead.SourceID)
	assert.Equal(t, source.ID, *lead.SourceID)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, fanout.EventLeadCreated, f.emitter.events[0].Kind)
	assert.Equal(t, lead.ID, f.emitter.events[0].LeadID)
}

func TestCreate_UnknownSourceTolerated(t *testing.T) {
	f := newFixture()
	lead, err := f.svc.Create(context.Background(), uuid.New(), &model.CreateLeadRequest{
		Name:   "Acme Corp",
		Mobile: "9876543210",
		Source: "Carrier Pigeon",
	})
	require.NoError(t, err)
	assert.Nil(t, lead.SourceID)
}

func TestCreate_DuplicateMobileConflicts(t *testing.T) {
	f := newFixture()
	f.leads.mobilesTaken["9876543210"] = true

	_, err := f.svc.Create(context.Background(), uuid.New(), &model.CreateLeadRequest{
		Name:   "Acme Corp",
		Mobile: "9876543210",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
	assert.Empty(t, f.emitter.events)
}

func TestUpdateDetails_MergesFormValuesPerKey(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210", FormValues: model.JSONMap{
		"budget": "5L", "city": "Pune",
	}}
	require.NoError(t, f.leads.Create(context.Background(), lead))

	updated, err := f.svc.UpdateDetails(context.Background(), actor, lead.ID, &model.UpdateLeadRequest{
		FormValues: map[string]interface{}{"budget": "8L", "floor": "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, "8L", updated.FormValues["budget"])
	assert.Equal(t, "Pune", updated.FormValues["city"])
	assert.Equal(t, "3", updated.FormValues["floor"])
	assert.Equal(t, &actor, updated.UpdatedBy)
}

func TestAssign_EmitsWithAssigneeName(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	staff := &model.User{Name: "Kiran", Role: model.RoleAgent}
	staff.ID = uuid.New()
	f.users.users[staff.ID] = staff

	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210"}
	require.NoError(t, f.leads.Create(context.Background(), lead))

	err := f.svc.Assign(context.Background(), actor, lead.ID, &model.AssignLeadRequest{
		StaffID:     staff.ID,
		IsAssigning: true,
	})
	require.NoError(t, err)

	require.Len(t, f.emitter.events, 1)
	evt := f.emitter.events[0]
	assert.Equal(t, fanout.EventLeadAssigned, evt.Kind)
	assert.Equal(t, "Kiran", evt.AssigneeName)
	require.NotNil(t, f.leads.assignee)
	assert.Equal(t, staff.ID, **f.leads.assignee)
}

func TestAssign_UnassignClearsWithoutEvent(t *testing.T) {
	f := newFixture()
	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210"}
	require.NoError(t, f.leads.Create(context.Background(), lead))

	err := f.svc.Assign(context.Background(), uuid.New(), lead.ID, &model.AssignLeadRequest{IsAssigning: false})
	require.NoError(t, err)

	require.NotNil(t, f.leads.assignee)
	assert.Nil(t, *f.leads.assignee)
	assert.Empty(t, f.emitter.events)
}

func TestUpdateStatus_ConvertedCreatesCustomer(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	status := &model.Setting{Title: "new", Type: model.SettingTypeCustomerStatus}
	status.ID = uuid.New()
	f.settings.settings[model.SettingTypeCustomerStatus+"/new"] = status

	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210", Email: strptr("a@acme.in"), Status: model.LeadStatusOpen}
	require.NoError(t, f.leads.Create(context.Background(), lead))

	err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, model.LeadStatusConverted)
	require.NoError(t, err)

	require.Len(t, f.customers.created, 1)
	c := f.customers.created[0]
	assert.Equal(t, lead.ID, c.LeadID)
	assert.Equal(t, "Acme Corp", c.Name)
	assert.Equal(t, model.PaymentPending, c.Payment)
	assert.Equal(t, &status.ID, c.StatusID)
	assert.True(t, c.IsActive)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, "converted", f.emitter.events[0].NewStatus)
}

func TestUpdateStatus_LeavingConvertedDeletesCustomer(t *testing.T) {
	f := newFixture()
	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210", Status: model.LeadStatusConverted}
	require.NoError(t, f.leads.Create(context.Background(), lead))
	f.customers.byLead = map[uuid.UUID]*model.Customer{lead.ID: {LeadID: lead.ID}}

	err := f.svc.UpdateStatus(context.Background(), uuid.New(), lead.ID, model.LeadStatusPaused)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{lead.ID}, f.customers.deleted)
	assert.Empty(t, f.customers.created)
}

func TestUpdateStatus_LeavingConvertedWithoutCustomerSkipsDelete(t *testing.T) {
	f := newFixture()
	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210", Status: model.LeadStatusConverted}
	require.NoError(t, f.leads.Create(context.Background(), lead))

	err := f.svc.UpdateStatus(context.Background(), uuid.New(), lead.ID, model.LeadStatusPaused)
	require.NoError(t, err)

	assert.Empty(t, f.customers.deleted)
}

func TestUpdateStatus_InvalidRejected(t *testing.T) {
	f := newFixture()
	err := f.svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), "stale")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestUpdateStatus_NoopWhenUnchanged(t *testing.T) {
	f := newFixture()
	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210", Status: model.LeadStatusOpen}
	require.NoError(t, f.leads.Create(context.Background(), lead))

	require.NoError(t, f.svc.UpdateStatus(context.Background(), uuid.New(), lead.ID, model.LeadStatusOpen))
	assert.Nil(t, f.leads.statusSet)
	assert.Empty(t, f.emitter.events)
}

func TestSetFollowUp_Emits(t *testing.T) {
	f := newFixture()
	lead := &model.Lead{Name: "Acme Corp", Mobile: "9876543210"}
	require.NoError(t, f.leads.Create(context.Background(), lead))
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.SetFollowUp(context.Background(), uuid.New(), lead.ID, at))

	require.NotNil(t, f.leads.followUpSet)
	assert.Equal(t, at, *f.leads.followUpSet)
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, fanout.EventFollowUpSet, f.emitter.events[0].Kind)
	assert.Equal(t, &at, f.emitter.events[0].FollowUpAt)
}

func TestBulkImport_SkipsBadRowsKeepsRest(t *testing.T) {
	f := newFixture()
	f.leads.mobilesTaken["1112223334"] = true

	report, err := f.svc.BulkImport(context.Background(), uuid.New(), &model.BulkImportRequest{
		Rows: []model.ImportLeadRow{
			{Name: "Good One", Mobile: "9876543210"},
			{Name: "", Mobile: "9876543211"},           // missing name
			{Name: "Short Mobile", Mobile: "12345"},    // bad mobile
			{Name: "Already There", Mobile: "1112223334"},
			{Name: "Dup In Batch", Mobile: "9876543210"},
			{Name: "Good Two", Mobile: "9876543212"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, []int{2, 3, 4, 5}, report.SkippedRows)
	require.Len(t, f.leads.inserted, 2)
	assert.Equal(t, "Good One", f.leads.inserted[0].Name)
	assert.Equal(t, "Good Two", f.leads.inserted[1].Name)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, fanout.EventBulkImported, f.emitter.events[0].Kind)
	assert.Equal(t, 2, f.emitter.events[0].Count)
}

func TestBulkImport_AllRowsBadEmitsNothing(t *testing.T) {
	f := newFixture()
	report, err := f.svc.BulkImport(context.Background(), uuid.New(), &model.BulkImportRequest{
		Rows: []model.ImportLeadRow{{Name: "", Mobile: ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, []int{1}, report.SkippedRows)
	assert.Empty(t, f.emitter.events)
}
