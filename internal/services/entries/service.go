package entries

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/session"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// GeneralErrorKey holds entry errors that do not belong to a field.
const GeneralErrorKey = "general"

type Config struct {
	EnableSaveData             bool `yaml:"enable_save_data" envconfig:"ENABLE_SAVE_DATA"`
	EnableSaveDataPerFormBasis bool `yaml:"enable_save_data_per_form_basis" envconfig:"ENABLE_SAVE_DATA_PER_FORM_BASIS"`
}

type FormProvider interface {
	GetByID(ctx context.Context, id int64) (*models.Form, error)
	Fields(form *models.Form) ([]fields.Field, error)
}

type StatusProvider interface {
	GetDefaultID(ctx context.Context) (int64, error)
}

type EntryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ListByForm(ctx context.Context, formID int64, limit, offset int) ([]*models.Entry, error)
	Create(ctx context.Context, entry *models.Entry, values map[string]any) (int64, error)
	Update(ctx context.Context, entry *models.Entry, values map[string]any) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type RelationRepository interface {
	DeleteForSource(ctx context.Context, fieldID, sourceID int64, siteID *int64) error
	Insert(ctx context.Context, relations []models.Relation) error
}

type Forwarder interface {
	PostForm(ctx context.Context, target string, values url.Values) (*httpclient.Response, error)
}

type Dependencies struct {
	DB        database.DB
	Logger    ectologger.Logger
	Forms     FormProvider
	Statuses  StatusProvider
	Entries   EntryRepository
	Relations RelationRepository
	Bus       *events.Bus
	Forwarder Forwarder
}

type Service struct {
	cfg       Config
	db        database.DB
	logger    ectologger.Logger
	forms     FormProvider
	statuses  StatusProvider
	entries   EntryRepository
	relations RelationRepository
	bus       *events.Bus
	forwarder Forwarder
}

func NewService(cfg Config, deps Dependencies) *Service {
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{
		cfg:       cfg,
		db:        deps.DB,
		logger:    deps.Logger,
		forms:     deps.Forms,
		statuses:  deps.Statuses,
		entries:   deps.Entries,
		relations: deps.Relations,
		bus:       bus,
		forwarder: deps.Forwarder,
	}
}

func owner(ctx context.Context) string {
	if userID := appctx.GetUserID(ctx); userID != "" {
		return "user:" + userID
	}
	return appctx.GetSessionID(ctx)
}

// GetEntry returns the entry the session is filling in for the form, or a new
// one with the default status.
func (s *Service) GetEntry(ctx context.Context, store session.Store, form *models.Form) (*models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "entries.GetEntry")
	defer span.End()

	if store != nil {
		active, err := store.GetActiveEntry(ctx, form.Handle)
		if err != nil {
			return nil, err
		}
		if active != nil && active.FormID == form.ID {
			if err := s.normalizeStored(form, active); err != nil {
				return nil, err
			}
			active.Errors = errors.ValidationErrors{}
			return active, nil
		}
	}

	statusID, err := s.statuses.GetDefaultID(ctx)
	if err != nil {
		return nil, err
	}

	entry := models.NewEntry(form)
	entry.StatusID = statusID
	entry.SiteID = appctx.GetSiteID(ctx)
	entry.Owner = owner(ctx)
	return entry, nil
}

// normalizeStored turns serialized values back into field values. A value a
// field can no longer read is dropped.
func (s *Service) normalizeStored(form *models.Form, entry *models.Entry) error {
	formFields, err := s.forms.Fields(form)
	if err != nil {
		return err
	}

	values := make(map[string]any, len(formFields))
	for _, field := range formFields {
		raw, ok := entry.Values[field.Handle()]
		if !ok {
			continue
		}
		value, err := field.NormalizeValue(raw, entry)
		if err != nil {
			s.logger.WithFields(map[string]any{
				"entry_id": entry.ID,
				"field":    field.Handle(),
			}).WithError(err).Warn("dropping stored value that no longer normalizes")
			continue
		}
		values[field.Handle()] = value
	}
	entry.Values = values
	entry.FormHandle = form.Handle
	return nil
}

func (s *Service) GetEntryByID(ctx context.Context, id int64) (*models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "entries.GetEntryByID")
	defer span.End()

	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	form, err := s.forms.GetByID(ctx, entry.FormID)
	if err != nil {
		return nil, err
	}
	if err := s.normalizeStored(form, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) ListEntries(ctx context.Context, formID int64, limit, offset int) ([]*models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "entries.ListEntries")
	defer span.End()

	if _, err := s.forms.GetByID(ctx, formID); err != nil {
		return nil, err
	}
	return s.entries.ListByForm(ctx, formID, limit, offset)
}

// DeleteEntry removes the entry and its relation rows.
func (s *Service) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "entries.DeleteEntry")
	defer span.End()

	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.entries.Delete(ctx, id)
	if err != nil || !deleted {
		return false, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"entry_id": id,
		"form_id":  entry.FormID,
	}).Info("deleted entry")
	s.bus.AfterDeleteEntry(ctx, entry)
	return true, nil
}

// ValidateEntry normalizes the entry values in place and records field errors
// on the entry. It reports whether the entry is valid.
func (s *Service) ValidateEntry(ctx context.Context, entry *models.Entry) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "entries.ValidateEntry")
	defer span.End()

	form, err := s.forms.GetByID(ctx, entry.FormID)
	if err != nil {
		return false, err
	}
	formFields, err := s.forms.Fields(form)
	if err != nil {
		return false, err
	}
	entry.FormHandle = form.Handle
	return s.validate(ctx, entry, formFields), nil
}

func (s *Service) validate(ctx context.Context, entry *models.Entry, formFields []fields.Field) bool {
	entry.ClearErrors()

	for _, field := range formFields {
		handle := field.Handle()
		raw := entry.GetValue(handle)

		value, err := field.NormalizeValue(raw, entry)
		if err != nil {
			entry.AddError(handle, err.Error())
			continue
		}
		entry.SetValue(handle, value)

		if field.IsEmpty(value) {
			if field.Definition().Required {
				entry.AddError(handle, fmt.Sprintf("%s cannot be blank.", fieldName(field)))
			}
			continue
		}
		if messages := field.Validate(ctx, value, entry); len(messages) > 0 {
			entry.AddError(handle, messages...)
		}
	}
	return !entry.HasErrors()
}

func fieldName(field fields.Field) string {
	if name := field.Definition().Name; name != "" {
		return name
	}
	return field.Handle()
}

func serialize(entry *models.Entry, formFields []fields.Field) map[string]any {
	values := make(map[string]any, len(formFields))
	for _, field := range formFields {
		value, ok := entry.Values[field.Handle()]
		if !ok {
			continue
		}
		values[field.Handle()] = field.SerializeValue(value)
	}
	return values
}

// SaveEntry validates and persists the entry. Validation failures, vetoes from
// before-save listeners and rejected writes return false with a nil error and
// leave the messages on the entry. Any other failure rolls back and is returned.
// After commit, field after-save hooks move related assets; when a move fails
// the entry stays saved and SaveEntry returns true with ErrAssetsNotMoved.
func (s *Service) SaveEntry(ctx context.Context, entry *models.Entry) (saved bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "entries.SaveEntry")
	defer span.End()

	form, err := s.forms.GetByID(ctx, entry.FormID)
	if err != nil {
		return false, err
	}
	formFields, err := s.forms.Fields(form)
	if err != nil {
		return false, err
	}
	entry.FormHandle = form.Handle
	entry.Faked = false

	isNew := entry.IsNew()
	if !isNew {
		exists, err := s.entries.Exists(ctx, entry.ID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, httperror.NewHTTPErrorf(http.StatusNotFound, "entry %d not found", entry.ID)
		}
	}
	if entry.StatusID == 0 {
		if entry.StatusID, err = s.statuses.GetDefaultID(ctx); err != nil {
			return false, err
		}
	}
	if entry.SiteID == 0 {
		entry.SiteID = appctx.GetSiteID(ctx)
	}

	logger := s.logger.WithContext(ctx).WithFields(map[string]any{
		"form":     form.Handle,
		"entry_id": entry.ID,
	})

	if !s.validate(ctx, entry, formFields) {
		logger.WithField("errors", entry.Errors.Error()).Debug("entry failed validation")
		metrics.EntrySavesTotal.WithLabelValues(form.Handle, "invalid").Inc()
		return false, nil
	}

	event := s.bus.BeforeSaveEntry(ctx, entry)
	if !event.IsValid {
		entry.Errors.Merge(event.Errors)
		outcome := "vetoed"
		if event.FakeIt {
			entry.Faked = true
			outcome = "faked"
		}
		logger.WithField("fake_it", event.FakeIt).Info("entry save stopped by listener")
		metrics.EntrySavesTotal.WithLabelValues(form.Handle, outcome).Inc()
		return false, nil
	}

	// before-save hooks replace pending uploads with asset ids that only exist
	// if the transaction commits
	preSave := maps.Clone(entry.Values)
	start := time.Now()
	defer func() {
		if !saved {
			entry.Values = preSave
			if isNew {
				entry.ID = 0
			}
		}
		if err != nil {
			if !saved {
				metrics.EntrySavesTotal.WithLabelValues(form.Handle, "failed").Inc()
			}
			tracing.RecordError(span, err)
		}
	}()

	committed, err := s.persist(ctx, entry, formFields, isNew)
	if err != nil || !committed {
		return false, err
	}
	moveErr := s.afterSave(ctx, entry, formFields, isNew)

	metrics.EntrySaveDuration.WithLabelValues(form.Handle).Observe(time.Since(start).Seconds())
	metrics.EntrySavesTotal.WithLabelValues(form.Handle, "saved").Inc()
	logger.WithFields(map[string]any{
		"entry_id": entry.ID,
		"is_new":   isNew,
	}).Info("saved entry")

	s.bus.AfterSaveEntry(ctx, entry, isNew)
	return true, moveErr
}

// afterSave runs the field after-save hooks on the committed entry. Every
// field gets its turn; failures are collected.
func (s *Service) afterSave(ctx context.Context, entry *models.Entry, formFields []fields.Field, isNew bool) error {
	var failed []error
	for _, field := range formFields {
		if err := field.AfterEntrySave(ctx, entry, isNew); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"entry_id": entry.ID,
				"field":    field.Handle(),
			}).Error("after-save hook failed")
			failed = append(failed, fmt.Errorf("field %s: %w", field.Handle(), err))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errors.ErrAssetsNotMoved, stderrors.Join(failed...))
}

func (s *Service) persist(ctx context.Context, entry *models.Entry, formFields []fields.Field, isNew bool) (bool, error) {
	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	for _, field := range formFields {
		ok, err := field.BeforeEntrySave(ctx, entry)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	values := serialize(entry, formFields)
	if isNew {
		entry.ID, err = s.entries.Create(ctx, entry, values)
	} else {
		err = s.entries.Update(ctx, entry, values)
	}
	if stderrors.Is(err, errors.ErrNotPersisted) {
		s.logger.WithContext(ctx).WithError(err).Warn("entry row was not written")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, field := range formFields {
		relational, ok := field.(fields.Relational)
		if !ok {
			continue
		}
		targets := relational.RelationTargets(entry.GetValue(field.Handle()))
		if err := s.SaveRelations(ctx, relational, entry, targets); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SaveRelations replaces the relation rows of one field for the entry. Target
// ids are de-duplicated keeping the first occurrence and numbered from 1.
func (s *Service) SaveRelations(ctx context.Context, field fields.Relational, entry *models.Entry, targetIDs []int64) error {
	ctx, span := tracing.StartSpan(ctx, "entries.SaveRelations")
	defer span.End()

	fieldID := field.Definition().ID
	if fieldID == 0 {
		return fmt.Errorf("field %q has not been saved", field.Handle())
	}

	var siteID *int64
	if field.LocalizeRelations() {
		site := entry.SiteID
		siteID = &site
	}

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.relations.DeleteForSource(ctx, fieldID, entry.ID, siteID); err != nil {
		return err
	}

	targets := distinct(targetIDs)
	if len(targets) > 0 {
		rows := make([]models.Relation, 0, len(targets))
		for i, target := range targets {
			rows = append(rows, models.Relation{
				FieldID:      fieldID,
				SourceID:     entry.ID,
				SourceSiteID: siteID,
				TargetID:     target,
				SortOrder:    i + 1,
			})
		}
		if err := s.relations.Insert(ctx, rows); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// ForwardEntry posts the entry to the form's submit action once. Failures are
// recorded as a general error on the entry.
func (s *Service) ForwardEntry(ctx context.Context, entry *models.Entry, form *models.Form) bool {
	ctx, span := tracing.StartSpan(ctx, "entries.ForwardEntry")
	defer span.End()

	logger := s.logger.WithContext(ctx).WithFields(map[string]any{
		"form":   form.Handle,
		"target": form.SubmitAction,
	})

	if !isHTTPURL(form.SubmitAction) {
		logger.Error("submit action is not a valid URL")
		entry.AddError(GeneralErrorKey, fmt.Sprintf("%s submit action is an invalid URL: %s", form.Name, form.SubmitAction))
		metrics.EntryForwardsTotal.WithLabelValues(form.Handle, "invalid_url").Inc()
		return false
	}

	formFields, err := s.forms.Fields(form)
	if err != nil {
		logger.WithError(err).Error("failed to build form fields")
		entry.AddError(GeneralErrorKey, err.Error())
		metrics.EntryForwardsTotal.WithLabelValues(form.Handle, "error").Inc()
		return false
	}

	resp, err := s.forwarder.PostForm(ctx, form.SubmitAction, httpclient.EncodeValues(serialize(entry, formFields)))
	if err != nil {
		entry.AddError(GeneralErrorKey, err.Error())
		metrics.EntryForwardsTotal.WithLabelValues(form.Handle, "error").Inc()
		return false
	}
	if !resp.IsSuccess() {
		logger.WithField("status", resp.StatusCode).Warn("submit action rejected the entry")
		entry.AddError(GeneralErrorKey, fmt.Sprintf("%s responded with status %d", form.SubmitAction, resp.StatusCode))
		metrics.EntryForwardsTotal.WithLabelValues(form.Handle, "rejected").Inc()
		return false
	}

	logger.WithField("status", resp.StatusCode).Info("forwarded entry")
	metrics.EntryForwardsTotal.WithLabelValues(form.Handle, "success").Inc()
	return true
}

func isHTTPURL(raw string) bool {
	if err := utils.ValidateValue(raw, "required,url"); err != nil {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// UnobfuscateEmailAddresses swaps submitted option indexes of email dropdown
// fields for the addresses they stand for.
func (s *Service) UnobfuscateEmailAddresses(ctx context.Context, formID int64, submitted map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "entries.UnobfuscateEmailAddresses")
	defer span.End()

	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		return err
	}
	formFields, err := s.forms.Fields(form)
	if err != nil {
		return err
	}

	for _, field := range formFields {
		unobfuscator, ok := field.(fields.Unobfuscator)
		if !ok {
			continue
		}
		if raw, ok := submitted[field.Handle()]; ok {
			submitted[field.Handle()] = unobfuscator.Unobfuscate(raw)
		}
	}
	return nil
}

// IsDataSaved reports whether submissions of the form are persisted.
func (s *Service) IsDataSaved(form *models.Form) bool {
	saveData := s.cfg.EnableSaveData
	if (s.cfg.EnableSaveDataPerFormBasis && saveData) || form.SubmitAction != "" {
		saveData = form.SaveData
	}
	return saveData
}

// SubmitEntry handles one submission of a form: it resumes or starts the
// session's entry, assigns the submitted values, saves or validates it and
// forwards it when the form has a submit action. The entry stays active in
// the session until a submission succeeds.
func (s *Service) SubmitEntry(ctx context.Context, store session.Store, form *models.Form, submission map[string]any) (*models.Entry, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "entries.SubmitEntry")
	defer span.End()

	if err := s.UnobfuscateEmailAddresses(ctx, form.ID, submission); err != nil {
		return nil, false, err
	}

	entry, err := s.GetEntry(ctx, store, form)
	if err != nil {
		return nil, false, err
	}
	for handle, value := range submission {
		if _, ok := form.FieldByHandle(handle); ok {
			entry.SetValue(handle, value)
		}
	}
	if ip := appctx.GetRemoteIP(ctx); ip != "" {
		entry.IPAddress = ip
	}
	if ua := appctx.GetUserAgent(ctx); ua != "" {
		entry.UserAgent = ua
	}

	var success bool
	if s.IsDataSaved(form) {
		success, err = s.SaveEntry(ctx, entry)
		if success && stderrors.Is(err, errors.ErrAssetsNotMoved) {
			// saved; the assets wait in their previous folder
			s.logger.WithContext(ctx).WithError(err).Warn("entry saved with unmoved assets")
			err = nil
		}
	} else {
		success, err = s.ValidateEntry(ctx, entry)
	}
	if err != nil {
		return nil, false, err
	}

	if success && form.SubmitAction != "" {
		success = s.ForwardEntry(ctx, entry, form)
	}

	if store != nil {
		if success || entry.Faked {
			err = store.ClearActiveEntry(ctx, form.Handle)
		} else if formFields, ferr := s.forms.Fields(form); ferr != nil {
			err = ferr
		} else {
			err = store.SetActiveEntry(ctx, form.Handle, snapshotOf(entry, formFields))
		}
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to update the session entry")
		}
	}
	return entry, success, nil
}

// snapshotOf copies the entry with its values in stored form, which is what
// GetEntry normalizes when the session resumes.
func snapshotOf(entry *models.Entry, formFields []fields.Field) *models.Entry {
	snapshot := *entry
	snapshot.Values = serialize(entry, formFields)
	snapshot.Errors = nil
	return &snapshot
}
