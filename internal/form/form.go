package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/internal/metrics"
)

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrFieldNotInKind   = errors.New("field does not belong to the current kind")
)

// User-visible messages.
const (
	MsgRequired         = "Fill in all required fields (*)"
	MsgConnectionFailed = "Could not connect to the server."
	MsgLocationOK       = "GPS location obtained!"
	MsgLocationDenied   = "Location permission denied."
	MsgLocationFailed   = "Could not obtain GPS location."
)

// ResultKind classifies the message shown under the form.
type ResultKind string

const (
	ResultNone    ResultKind = ""
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
)

// Result is the inline feedback of the last action.
type Result struct {
	Kind ResultKind `json:"kind"`
	Text string     `json:"text"`
}

// State is a copy of the form for rendering.
type State struct {
	Kind       Kind              `json:"kind"`
	Fields     []Field           `json:"-"`
	Values     map[string]string `json:"values"`
	Submitting bool              `json:"submitting"`
	Result     Result            `json:"result"`
}

// Form is a single registration form whose fields and target follow the selected kind.
type Form struct {
	logger    *zap.Logger
	submitter Submitter

	mu         sync.Mutex
	kind       Kind
	values     map[string]string
	submitting bool
	result     Result
}

// New creates a form on the supplier tab.
func New(s Submitter, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Form{
		logger:    logger,
		submitter: s,
		kind:      KindSupplier,
		values:    make(map[string]string),
	}
}

// Kind returns the selected kind.
func (f *Form) Kind() Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kind
}

// Fields returns the inputs of the selected kind.
func (f *Form) Fields() []Field {
	return f.Kind().Fields()
}

// SwitchKind selects k and clears every value and the result message.
func (f *Form) SwitchKind(k Kind) error {
	if _, err := ParseKind(string(k)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kind = k
	f.values = make(map[string]string)
	f.result = Result{}
	return nil
}

// Set stores a field value. Fields outside the selected kind are rejected.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.kind.Has(field) {
		return fmt.Errorf("%w: %s is not a %s field", ErrFieldNotInKind, field, f.kind)
	}
	if value == "" {
		delete(f.values, field)
		return nil
	}
	f.values[field] = value
	return nil
}

// Value returns a field value.
func (f *Form) Value(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[field]
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Result returns the last feedback message.
func (f *Form) Result() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// State copies the form for rendering.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Kind:       f.kind,
		Fields:     f.kind.Fields(),
		Values:     maps.Clone(f.values),
		Submitting: f.submitting,
		Result:     f.result,
	}
}

// Submit validates the values and posts them to the selected kind's endpoint.
// Every outcome is also recorded in Result.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		metrics.IncFormSubmission(string(f.kind), "busy")
		return ErrSubmitInProgress
	}
	kind := f.kind
	if missing := f.missingLocked(); missing != "" {
		f.result = Result{Kind: ResultError, Text: MsgRequired}
		f.mu.Unlock()
		metrics.IncFormSubmission(string(kind), "invalid")
		return &feira.ValidationError{Field: missing, Message: MsgRequired}
	}
	payload, err := Build(kind, f.values)
	if err != nil {
		f.result = Result{Kind: ResultError, Text: errorText(err)}
		f.mu.Unlock()
		metrics.IncFormSubmission(string(kind), "invalid")
		return err
	}
	f.submitting = true
	f.result = Result{}
	f.mu.Unlock()

	err = payload.send(ctx, f.submitter)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.result = Result{Kind: ResultError, Text: errorText(err)}
		metrics.IncFormSubmission(string(kind), "error")
		f.logger.Warn("form.submit_failed",
			zap.String("kind", string(kind)),
			zap.Bool("retryable", feira.IsRetryable(err)),
			zap.Error(err))
		return err
	}
	f.result = Result{Kind: ResultSuccess, Text: fmt.Sprintf("Registration of %s completed successfully!", kind)}
	f.values = make(map[string]string)
	metrics.IncFormSubmission(string(kind), "success")
	f.logger.Info("form.submitted", zap.String("kind", string(kind)))
	return nil
}

func (f *Form) missingLocked() string {
	for _, field := range f.kind.Fields() {
		if field.Required && strings.TrimSpace(f.values[field.Name]) == "" {
			return field.Name
		}
	}
	return ""
}

func errorText(err error) string {
	if msg, ok := feira.Detail(err); ok {
		return "Error: " + msg
	}
	return "Error: " + MsgConnectionFailed
}

// UseCurrentLocation fills latitude and longitude from the locator. On failure the
// coordinates keep their previous values.
func (f *Form) UseCurrentLocation(ctx context.Context, loc geo.Locator) error {
	f.mu.Lock()
	kind := f.kind
	f.mu.Unlock()
	if !kind.Has(FieldLatitude) {
		return fmt.Errorf("%w: %s has no coordinates", ErrFieldNotInKind, kind)
	}

	p, err := loc.Locate(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		text := MsgLocationFailed
		if errors.Is(err, geo.ErrPermissionDenied) {
			text = MsgLocationDenied
		}
		f.result = Result{Kind: ResultError, Text: text}
		f.logger.Info("form.location_failed", zap.Error(err))
		return err
	}
	if f.kind != kind {
		return nil
	}
	f.values[FieldLatitude] = strconv.FormatFloat(p.Lat, 'f', -1, 64)
	f.values[FieldLongitude] = strconv.FormatFloat(p.Lon, 'f', -1, 64)
	f.result = Result{Kind: ResultSuccess, Text: MsgLocationOK}
	return nil
}
