// Package lead implements the lead lifecycle: creation, assignment, status
// transitions, follow-up scheduling, bulk import and role-scoped listing.
// Every mutation that the fanout engine cares about is recorded as an
// outbox event after the write succeeds.
package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/repository"
	"github.com/leadrail/lead-api/internal/service/fanout"
	apperrors "github.com/leadrail/lead-api/pkg/errors"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/metrics"
)

// Emitter records outbox events. Implemented by the event service.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// ImportReport summarizes a bulk import: rows that survived validation and
// the 1-based indexes of rows that were skipped.
type ImportReport struct {
	Imported    int   `json:"imported"`
	SkippedRows []int `json:"skipped_rows"`
}

type LeadService interface {
	Create(ctx context.Context, actorID uuid.UUID, req *model.CreateLeadRequest) (*model.Lead, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Lead, error)
	List(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error)
	ListOpen(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error)
	UpdateDetails(ctx context.Context, actorID, leadID uuid.UUID, req *model.UpdateLeadRequest) (*model.Lead, error)
	Assign(ctx context.Context, actorID, leadID uuid.UUID, req *model.AssignLeadRequest) error
	UpdateStatus(ctx context.Context, actorID, leadID uuid.UUID, status model.LeadStatus) error
	UpdatePriority(ctx context.Context, leadID uuid.UUID, priority model.LeadPriority) error
	SetFollowUp(ctx context.Context, actorID, leadID uuid.UUID, at time.Time) error
	BulkImport(ctx context.Context, actorID uuid.UUID, req *model.BulkImportRequest) (*ImportReport, error)
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

const (
	sourceCacheTTL     = time.Minute
	sourceCacheCleanup = 5 * time.Minute
)

type Service struct {
	repo         repository.LeadRepository
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
	settingRepo  repository.SettingRepository
	emitter      Emitter
	logger       *logger.Logger
	metrics      *metrics.Metrics
	sourceCache  *cache.Cache
}

func NewService(
	repo repository.LeadRepository,
	userRepo repository.UserRepository,
	customerRepo repository.CustomerRepository,
	settingRepo repository.SettingRepository,
	emitter Emitter,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		settingRepo:  settingRepo,
		emitter:      emitter,
		logger:       log,
		metrics:      m,
		sourceCache:  cache.New(sourceCacheTTL, sourceCacheCleanup),
	}
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req *model.CreateLeadRequest) (*model.Lead, error) {
	if err := s.checkDuplicates(ctx, req.Email, req.Mobile, uuid.Nil); err != nil {
		return nil, err
	}

	sourceID, err := s.resolveSource(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	lead := &model.Lead{
		Name:              req.Name,
		Email:             req.Email,
		Mobile:            req.Mobile,
		Whatsapp:          req.Whatsapp,
		Location:          req.Location,
		InterestedProduct: req.InterestedProduct,
		LeadValue:         req.LeadValue,
		SourceID:          sourceID,
		Status:            model.LeadStatusNew,
		Priority:          model.LeadPriorityNotAssigned,
		CreatedBy:         actorID,
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.emit(ctx, fanout.Event{
		Kind:     fanout.EventLeadCreated,
		ActorID:  actorID,
		LeadID:   lead.ID,
		LeadName: lead.Name,
	})

	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error) {
	if filters == nil {
		filters = &model.LeadFilters{}
	}
	return s.repo.List(ctx, role, userID, filters)
}

// ListOpen lists only leads still in the open status, scoped by role the
// same way List is.
func (s *Service) ListOpen(ctx context.Context, role model.Role, userID uuid.UUID, filters *model.LeadFilters) (*model.LeadPage, error) {
	if filters == nil {
		filters = &model.LeadFilters{}
	}
	filters.OpenOnly = true
	filters.Status = ""
	return s.repo.List(ctx, role, userID, filters)
}

func (s *Service) UpdateDetails(ctx context.Context, actorID, leadID uuid.UUID, req *model.UpdateLeadRequest) (*model.Lead, error) {
	lead, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}

	email := lead.Email
	if req.Email != nil {
		email = req.Email
	}
	mobile := lead.Mobile
	if req.Mobile != nil {
		mobile = *req.Mobile
	}
	if err := s.checkDuplicates(ctx, email, mobile, leadID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		lead.Name = *req.Name
	}
	lead.Email = email
	lead.Mobile = mobile
	if req.Whatsapp != nil {
		lead.Whatsapp = req.Whatsapp
	}
	if req.Location != nil {
		lead.Location = req.Location
	}
	if req.InterestedProduct != nil {
		lead.InterestedProduct = req.InterestedProduct
	}
	if req.LeadValue != nil {
		lead.LeadValue = *req.LeadValue
	}
	if req.Source != nil {
		sourceID, err := s.resolveSource(ctx, *req.Source)
		if err != nil {
			return nil, err
		}
		lead.SourceID = sourceID
	}

	// Form values merge per key; untouched keys survive.
	if len(req.FormValues) > 0 {
		if lead.FormValues == nil {
			lead.FormValues = model.JSONMap{}
		}
		for k, v := range req.FormValues {
			lead.FormValues[k] = v
		}
	}

	lead.UpdatedBy = &actorID
	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

func (s *Service) Assign(ctx context.Context, actorID, leadID uuid.UUID, req *model.AssignLeadRequest) error {
	lead, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return err
	}

	if !req.IsAssigning {
		if err := s.repo.UpdateAssignment(ctx, leadID, nil, actorID); err != nil {
			return fmt.Errorf("failed to unassign lead: %w", err)
		}
		return nil
	}

	staff, err := s.userRepo.Get(ctx, req.StaffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("staff member", err)
		}
		return err
	}

	if err := s.repo.UpdateAssignment(ctx, leadID, &staff.ID, actorID); err != nil {
		return fmt.Errorf("failed to assign lead: %w", err)
	}

	s.emit(ctx, fanout.Event{
		Kind:         fanout.EventLeadAssigned,
		ActorID:      actorID,
		LeadID:       leadID,
		LeadName:     lead.Name,
		AssigneeID:   &staff.ID,
		AssigneeName: staff.Name,
	})
	return nil
}

// UpdateStatus moves the lead through the pipeline. Reaching "converted"
// creates the customer record; leaving it removes the record again.
func (s *Service) UpdateStatus(ctx context.Context, actorID, leadID uuid.UUID, status model.LeadStatus) error {
	if !status.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid lead status: %s", status), nil)
	}

	lead, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.Status == status {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, leadID, status, actorID); err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	switch {
	case status == model.LeadStatusConverted:
		if err := s.createCustomer(ctx, lead, actorID); err != nil {
			return err
		}
	case lead.Status == model.LeadStatusConverted:
		customer, err := s.customerRepo.GetByLeadID(ctx, leadID)
		if err != nil {
			return fmt.Errorf("failed to look up customer record: %w", err)
		}
		if customer != nil {
			if err := s.customerRepo.DeleteByLeadID(ctx, leadID); err != nil {
				return fmt.Errorf("failed to remove customer record: %w", err)
			}
		}
	}

	s.emit(ctx, fanout.Event{
		Kind:      fanout.EventStatusChanged,
		ActorID:   actorID,
		LeadID:    leadID,
		LeadName:  lead.Name,
		NewStatus: string(status),
	})
	return nil
}

func (s *Service) UpdatePriority(ctx context.Context, leadID uuid.UUID, priority model.LeadPriority) error {
	if !priority.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid lead priority: %s", priority), nil)
	}
	if err := s.repo.UpdatePriority(ctx, leadID, priority); err != nil {
		return fmt.Errorf("failed to update lead priority: %w", err)
	}
	return nil
}

func (s *Service) SetFollowUp(ctx context.Context, actorID, leadID uuid.UUID, at time.Time) error {
	lead, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return err
	}

	if err := s.repo.SetNextFollowUp(ctx, leadID, at, actorID); err != nil {
		return fmt.Errorf("failed to set follow-up: %w", err)
	}

	s.emit(ctx, fanout.Event{
		Kind:       fanout.EventFollowUpSet,
		ActorID:    actorID,
		LeadID:     leadID,
		LeadName:   lead.Name,
		FollowUpAt: &at,
	})
	return nil
}

// BulkImport validates each row independently. A bad row is skipped and
// reported by its 1-based index; the remaining rows still import.
func (s *Service) BulkImport(ctx context.Context, actorID uuid.UUID, req *model.BulkImportRequest) (*ImportReport, error) {
	report := &ImportReport{SkippedRows: []int{}}
	leads := make([]*model.Lead, 0, len(req.Rows))
	seenMobiles := map[string]struct{}{}

	for i, row := range req.Rows {
		if !s.importable(ctx, row, seenMobiles) {
			report.SkippedRows = append(report.SkippedRows, i+1)
			continue
		}
		seenMobiles[row.Mobile] = struct{}{}

		sourceID, err := s.resolveSource(ctx, row.Source)
		if err != nil {
			return nil, err
		}
		leads = append(leads, &model.Lead{
			Name:              row.Name,
			Email:             row.Email,
			Mobile:            row.Mobile,
			Whatsapp:          row.Whatsapp,
			Location:          row.Location,
			InterestedProduct: row.InterestedProduct,
			LeadValue:         row.LeadValue,
			SourceID:          sourceID,
			Status:            model.LeadStatusNew,
			Priority:          model.LeadPriorityNotAssigned,
			CreatedBy:         actorID,
		})
	}

	if len(leads) > 0 {
		if err := s.repo.InsertMany(ctx, leads); err != nil {
			return nil, fmt.Errorf("failed to import leads: %w", err)
		}
		s.emit(ctx, fanout.Event{
			Kind:    fanout.EventBulkImported,
			ActorID: actorID,
			Count:   len(leads),
		})
	}

	report.Imported = len(leads)
	return report, nil
}

func (s *Service) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return s.repo.DeleteMany(ctx, ids)
}

func (s *Service) importable(ctx context.Context, row model.ImportLeadRow, seenMobiles map[string]struct{}) bool {
	if row.Name == "" || len(row.Mobile) != 10 {
		return false
	}
	if _, dup := seenMobiles[row.Mobile]; dup {
		return false
	}
	if exists, err := s.repo.ExistsByMobile(ctx, row.Mobile, uuid.Nil); err != nil || exists {
		return false
	}
	if row.Email != nil && *row.Email != "" {
		if exists, err := s.repo.ExistsByEmail(ctx, *row.Email, uuid.Nil); err != nil || exists {
			return false
		}
	}
	return true
}

func (s *Service) createCustomer(ctx context.Context, lead *model.Lead, actorID uuid.UUID) error {
	var statusID *uuid.UUID
	setting, err := s.settingRepo.FindByTitleAndType(ctx, "new", model.SettingTypeCustomerStatus)
	if err != nil {
		return fmt.Errorf("failed to resolve customer status: %w", err)
	}
	if setting != nil {
		statusID = &setting.ID
	}

	customer := &model.Customer{
		LeadID:    lead.ID,
		Name:      lead.Name,
		Mobile:    lead.Mobile,
		Email:     lead.Email,
		Payment:   model.PaymentPending,
		StatusID:  statusID,
		IsActive:  true,
		CreatedBy: actorID,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (s *Service) checkDuplicates(ctx context.Context, email *string, mobile string, exclude uuid.UUID) error {
	if email != nil && *email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, *email, exclude)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return apperrors.Conflict("a lead with this email already exists", nil)
		}
	}
	exists, err := s.repo.ExistsByMobile(ctx, mobile, exclude)
	if err != nil {
		return fmt.Errorf("failed to check mobile: %w", err)
	}
	if exists {
		return apperrors.Conflict("a lead with this mobile number already exists", nil)
	}
	return nil
}

// resolveSource maps a source label to its setting id, tolerating unknown
// labels. An empty label means no source. Lookups are cached briefly so a
// bulk import resolving the same label per row hits the database once.
func (s *Service) resolveSource(ctx context.Context, source string) (*uuid.UUID, error) {
	if source == "" {
		return nil, nil
	}
	if cached, found := s.sourceCache.Get(source); found {
		return cached.(*uuid.UUID), nil
	}
	setting, err := s.settingRepo.FindByTitleAndType(ctx, source, model.SettingTypeLeadSource)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lead source: %w", err)
	}
	var id *uuid.UUID
	if setting != nil {
		id = &setting.ID
	}
	s.sourceCache.Set(source, id, cache.DefaultExpiration)
	return id, nil
}

// emit records the fanout event. A committed mutation never fails on a
// lost event write; the drop is logged and counted instead.
func (s *Service) emit(ctx context.Context, evt fanout.Event) {
	if err := s.emitter.Emit(ctx, string(evt.Kind), evt); err != nil {
		s.metrics.OutboxEventsDropped.Inc()
		s.logger.Error(err, "failed to record lead event",
			"kind", string(evt.Kind),
			"lead_id", evt.LeadID.String())
	}
}
