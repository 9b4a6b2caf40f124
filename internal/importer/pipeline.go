// Package importer delivers a bundle to a GraphQL import endpoint and, when
// the server advertises one, triggers the validation of the new import.
//
// A run is strictly sequential:
//
//	probe -> upload -> classify response -> [introspect -> select -> validate]
//
// Failures up to and including response classification are fatal. Once the
// server has accepted the upload the run succeeds; the optional validation
// phase can only add warnings.
package importer

import (
	"context"
	nethttp "net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/happon/Crawl-Server/internal/bundle"
	"github.com/happon/Crawl-Server/internal/connector/http"
)

// State is a pipeline state.
type State string

const (
	StateInit                   State = "init"
	StateConnectivityChecked    State = "connectivity_checked"
	StateUploaded               State = "uploaded"
	StateIntrospectionAttempted State = "introspection_attempted"
	StateValidationAttempted    State = "validation_attempted"
	StateDone                   State = "done"
	StateFailed                 State = "failed"
)

// transitions lists the legal moves. Failed is only reachable before Uploaded.
var transitions = map[State][]State{
	StateInit:                   {StateConnectivityChecked, StateFailed},
	StateConnectivityChecked:    {StateUploaded, StateFailed},
	StateUploaded:               {StateIntrospectionAttempted, StateDone},
	StateIntrospectionAttempted: {StateValidationAttempted, StateDone},
	StateValidationAttempted:    {StateDone},
}

// Outcome is the terminal verdict of a run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ValidationStatus describes what happened in the optional validation phase.
type ValidationStatus string

const (
	ValidationNotRun      ValidationStatus = "not_run"
	ValidationDisabled    ValidationStatus = "disabled"
	ValidationUnavailable ValidationStatus = "introspection_unavailable"
	ValidationUnsupported ValidationStatus = "manual_validation_required"
	ValidationSucceeded   ValidationStatus = "succeeded"
	ValidationFailed      ValidationStatus = "failed"
)

// Result is the terminal report of one run.
type Result struct {
	RunID        string
	Outcome      Outcome
	ImportID     string
	ImportName   string
	UploadStatus string

	// Upload is set once the server accepted the bundle.
	Upload *UploadResult
	// Validation reports the optional phase; Capability is what negotiation chose.
	Validation ValidationStatus
	Capability Capability
	// Warnings are the non-fatal failures of the validation phase.
	Warnings []*Error
	// Err is the fatal failure of a failed run.
	Err *Error

	// States is every state the run passed through, in order.
	States []State
}

// State returns the state the run ended in.
func (r *Result) State() State {
	if len(r.States) == 0 {
		return StateInit
	}
	return r.States[len(r.States)-1]
}

// Succeeded reports whether the upload was accepted.
func (r *Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger (default: no-op).
func WithLogger(logger *zap.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// WithProber replaces the TCP reachability check.
func WithProber(p Prober) Option {
	return func(im *Importer) {
		if p != nil {
			im.prober = p
		}
	}
}

// WithTransport sets the HTTP transport used by each run's client.
func WithTransport(rt nethttp.RoundTripper) Option {
	return func(im *Importer) {
		im.transport = rt
	}
}

// Importer runs bundle imports against one endpoint. It holds no per-run
// state; every Run builds and releases its own HTTP client.
type Importer struct {
	cfg       Config
	endpoint  *url.URL
	logger    *zap.Logger
	prober    Prober
	transport nethttp.RoundTripper
}

// New validates cfg and returns an Importer. A missing token or endpoint is a
// fatal CodeConfig error; nothing touches the network.
func New(cfg Config, opts ...Option) (*Importer, error) {
	cfg.applyDefaults()
	endpoint, err := cfg.parseEndpoint()
	if err != nil {
		return nil, fatalError(CodeConfig, PhaseConfig, err)
	}

	im := &Importer{
		cfg:      cfg,
		endpoint: endpoint,
		logger:   zap.NewNop(),
		prober:   TCPProber{Timeout: cfg.ProbeTimeout},
	}
	for _, opt := range opts {
		opt(im)
	}
	return im, nil
}

// Endpoint returns the endpoint URL the importer posts to.
func (im *Importer) Endpoint() string {
	return im.endpoint.String()
}

// Run loads the bundle at path and imports it. A missing or empty bundle
// fails the run before any network call.
func (im *Importer) Run(ctx context.Context, path string) (*Result, error) {
	file, err := bundle.Load(path)
	if err != nil {
		r := im.newRun()
		return r.fail(fatalError(CodeBundle, PhaseBundle, err))
	}
	return im.RunFile(ctx, file)
}

// RunFile imports an already loaded bundle. The returned error is non-nil
// exactly when the result's outcome is failure.
func (im *Importer) RunFile(ctx context.Context, file *bundle.File) (*Result, error) {
	r := im.newRun()
	r.log.Info("starting import",
		zap.String("bundle", file.Path),
		zap.Int("bytes", file.Size()))

	address, err := probeAddress(im.endpoint)
	if err != nil {
		return r.fail(fatalError(CodeConfig, PhaseConfig, err))
	}
	if err := im.prober.Probe(ctx, address); err != nil {
		return r.fail(fatalError(CodeConnectivity, PhaseProbe, err))
	}
	r.advance(StateConnectivityChecked)
	r.log.Debug("endpoint reachable", zap.String("address", address))

	client := im.newClient()
	defer client.Close()

	resp, uploadErr := upload(ctx, client, file)
	if uploadErr != nil {
		return r.fail(uploadErr)
	}
	accepted, parseErr := ParseUploadResponse(resp.StatusCode, resp.Body)
	if parseErr != nil {
		return r.fail(parseErr)
	}

	r.accept(accepted)
	r.log.Info("bundle accepted",
		zap.String("import_id", accepted.ID),
		zap.String("import_name", accepted.Name),
		zap.String("upload_status", accepted.UploadStatus))

	if !im.cfg.Validate {
		r.result.Validation = ValidationDisabled
		return r.done()
	}

	fields, introErr := introspectMutations(ctx, client)
	r.advance(StateIntrospectionAttempted)
	if introErr != nil {
		r.result.Validation = ValidationUnavailable
		r.warn(introErr)
		return r.done()
	}
	r.log.Debug("mutation catalog fetched", zap.Int("fields", len(fields)))

	capability := SelectValidation(fields)
	r.result.Capability = capability
	if !capability.Supported {
		r.result.Validation = ValidationUnsupported
		r.log.Info("manual validation required", zap.String("reason", capability.Reason))
		return r.done()
	}
	if accepted.ID == "" {
		r.result.Validation = ValidationUnsupported
		r.result.Capability = Unsupported("upload response carried no import id")
		r.log.Info("manual validation required", zap.String("reason", r.result.Capability.Reason))
		return r.done()
	}

	r.log.Debug("validation operation selected",
		zap.String("operation", capability.Operation),
		zap.String("argument", capability.Argument))

	validateErr := invokeValidation(ctx, client, capability, accepted.ID)
	r.advance(StateValidationAttempted)
	if validateErr != nil {
		r.result.Validation = ValidationFailed
		r.warn(validateErr)
		return r.done()
	}
	r.result.Validation = ValidationSucceeded
	r.log.Info("import validated", zap.String("operation", capability.Operation))
	return r.done()
}

func (im *Importer) newClient() *http.Client {
	return http.NewClient(http.Config{
		Endpoint:           im.endpoint.String(),
		Auth:               http.BearerToken(im.cfg.Token),
		Timeout:            im.cfg.Timeout,
		InsecureSkipVerify: im.cfg.InsecureSkipVerify,
		Transport:          im.transport,
	})
}

// run tracks one pipeline execution.
type run struct {
	result *Result
	log    *zap.Logger
}

func (im *Importer) newRun() *run {
	id := uuid.NewString()
	return &run{
		result: &Result{
			RunID:      id,
			Validation: ValidationNotRun,
			States:     []State{StateInit},
		},
		log: im.logger.With(zap.String("run_id", id), zap.String("endpoint", im.endpoint.String())),
	}
}

func (r *run) advance(to State) {
	from := r.result.State()
	for _, allowed := range transitions[from] {
		if allowed == to {
			r.result.States = append(r.result.States, to)
			return
		}
	}
	r.log.DPanic("illegal state transition", zap.String("from", string(from)), zap.String("to", string(to)))
	r.result.States = append(r.result.States, to)
}

func (r *run) accept(u *UploadResult) {
	r.advance(StateUploaded)
	r.result.Outcome = OutcomeSuccess
	r.result.Upload = u
	r.result.ImportID = u.ID
	r.result.ImportName = u.Name
	r.result.UploadStatus = u.UploadStatus
}

func (r *run) warn(w *Error) {
	r.result.Warnings = append(r.result.Warnings, w)
	fields := []zap.Field{zap.String("code", w.Code), zap.String("phase", string(w.Phase)), zap.Error(w.Err)}
	r.log.Warn("validation skipped or failed; upload already accepted", fields...)
}

func (r *run) fail(e *Error) (*Result, error) {
	r.advance(StateFailed)
	r.result.Outcome = OutcomeFailure
	r.result.Err = e
	r.log.Error("import failed",
		zap.String("code", e.Code),
		zap.String("phase", string(e.Phase)),
		zap.Error(e.Err),
		zap.Int("graphql_errors", len(e.GraphQLErrors)))
	return r.result, e
}

func (r *run) done() (*Result, error) {
	r.advance(StateDone)
	return r.result, nil
}
