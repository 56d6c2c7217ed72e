// Package gateway exposes photo-carrying lead forms over HTTP. Each submit
// request is replayed against a fresh host form with the coordinator
// attached, so the upstream form action only ever receives the text fields
// plus the hidden URL field.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrijs2005/photoform/internal/blobstore"
	"github.com/dmitrijs2005/photoform/internal/coordinator"
	"github.com/dmitrijs2005/photoform/internal/hostform"
	"github.com/dmitrijs2005/photoform/internal/logging"
	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/dmitrijs2005/photoform/internal/netx"
	"github.com/dmitrijs2005/photoform/internal/preview"
	"github.com/dmitrijs2005/photoform/internal/upload"
	"github.com/dmitrijs2005/photoform/internal/validator"
	"github.com/gabriel-vasile/mimetype"
)

const msgUpstreamFailed = "We could not deliver your request. Please try again."

// maxMemory is how much of a multipart body is kept in memory; the rest spills to disk.
var maxMemory int64 = 32 << 20

// Options configures a Handler.
type Options struct {
	Category      string
	Constraints   validator.Constraints
	HostFieldName string
	FileFieldName string
	// UpstreamURL receives accepted submissions; empty accepts without forwarding.
	UpstreamURL string
	// LocalRoot, when set, is served under /uploads/.
	LocalRoot string
	// Attempts, when set, serves recorded attempts under /attempts/{id}.
	Attempts AttemptLookup
}

// AttemptLookup reads the attempt ledger.
type AttemptLookup interface {
	Get(ctx context.Context, id string) (*models.Attempt, []models.TaskRecord, error)
}

type Handler struct {
	opts     Options
	uploader *upload.Orchestrator
	recorder coordinator.Recorder
	client   *http.Client
	logger   logging.Logger
	mux      *http.ServeMux
}

// NewHandler wires the routes. recorder may be nil; client nil means http.DefaultClient.
func NewHandler(opts Options, store blobstore.Store, recorder coordinator.Recorder, client *http.Client, l logging.Logger) *Handler {
	if opts.HostFieldName == "" {
		opts.HostFieldName = coordinator.DefaultFieldName
	}
	if opts.FileFieldName == "" {
		opts.FileFieldName = "photos"
	}

	logger := l.With("module", "gateway")
	h := &Handler{
		opts:     opts,
		uploader: upload.NewOrchestrator(store, logger, upload.WithCategory(opts.Category)),
		recorder: recorder,
		client:   client,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /forms/{formID}/submit", h.submit)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	if opts.LocalRoot != "" {
		h.mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.LocalRoot))))
	}
	if opts.Attempts != nil {
		h.mux.HandleFunc("GET /attempts/{id}", h.attempt)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withRequestID(h.logger, h.mux).ServeHTTP(w, r)
}

type submitResponse struct {
	OK        bool     `json:"ok"`
	AttemptID string   `json:"attempt_id,omitempty"`
	Photos    []string `json:"photos,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// alerts collects the user-facing messages of one request.
type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) Alert(_ context.Context, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
}

func (a *alerts) first() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.msgs) == 0 {
		return ""
	}
	return a.msgs[0]
}

// forwarder is the host's own submit listener: it posts the form's fields
// upstream. Its result is read only after the coordinator settles.
type forwarder struct {
	form   *hostform.Form
	target string
	client *http.Client
	logger logging.Logger

	calls int
	err   error
}

func (f *forwarder) handle(ctx context.Context, _ *hostform.Event) {
	f.calls++
	if f.target == "" {
		return
	}
	if err := netx.PostForm(ctx, f.client, f.target, f.form.Values()); err != nil {
		f.logger.Error(ctx, "forward failed", "error", err)
		f.err = err
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	formID := r.PathValue("formID")
	logger := h.logger.With("request_id", RequestID(ctx), "form_id", formID)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, submitResponse{Error: "request too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, submitResponse{Error: "expected multipart/form-data"})
		return
	}
	mf := r.MultipartForm
	keepParts := false
	defer func() {
		if !keepParts {
			_ = mf.RemoveAll()
		}
	}()

	form := hostform.New(formID)
	for name, values := range r.MultipartForm.Value {
		form.DeclareField(name)
		if len(values) > 0 {
			_ = form.SetField(name, values[0])
		}
	}

	files, err := selection(r.MultipartForm.File[h.opts.FileFieldName])
	if err != nil {
		logger.Warn(ctx, "cannot read upload", "error", err)
		writeJSON(w, http.StatusBadRequest, submitResponse{Error: "unreadable file part"})
		return
	}
	logger.Debug(ctx, "selection received", "files", files.Names())

	al := &alerts{}
	coord := coordinator.New(
		coordinator.Config{FormID: formID, FieldName: h.opts.HostFieldName, Constraints: h.opts.Constraints},
		form, h.uploader, preview.NewManager(preview.NewMemoryFactory()), al, logger, h.coordinatorOptions()...,
	)
	fwd := &forwarder{form: form, target: h.opts.UpstreamURL, client: h.client, logger: logger}

	form.AddEventListener(hostform.Submit, hostform.Bubble, fwd.handle)
	form.AddEventListener(hostform.Submit, hostform.Capture, func(ctx context.Context, e *hostform.Event) {
		coord.HandleSubmit(ctx, e)
	})
	form.AddEventListener(hostform.Change, hostform.Bubble, func(ctx context.Context, _ *hostform.Event) {
		coord.HandleChange(ctx)
	})

	// No file parts means no selection was made, so there is no change event.
	if len(files) > 0 {
		form.SetFiles(ctx, files)
	}
	if msg := al.first(); msg != "" {
		// The selection was dropped on change; a browser user would not submit now.
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{Error: msg})
		return
	}

	form.Submit(ctx)

	out, err := coord.Wait(ctx)
	if err != nil {
		logger.Warn(ctx, "client went away before the attempt settled", "error", err)
		// The detached upload still reads spilled parts; they go once it settles.
		keepParts = true
		r.MultipartForm = nil
		go func() {
			_, _ = coord.Wait(context.WithoutCancel(ctx))
			if err := mf.RemoveAll(); err != nil {
				logger.Warn(ctx, "cannot remove multipart files", "error", err)
			}
		}()
		return
	}

	switch out.Result {
	case models.OutcomeRejected:
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{AttemptID: out.AttemptID, Error: al.first()})
	case models.OutcomeMissingField:
		writeJSON(w, http.StatusBadRequest, submitResponse{AttemptID: out.AttemptID, Error: al.first()})
	case models.OutcomeUploadFailed:
		writeJSON(w, http.StatusBadGateway, submitResponse{AttemptID: out.AttemptID, Error: al.first()})
	default:
		if fwd.err != nil {
			writeJSON(w, http.StatusBadGateway, submitResponse{AttemptID: out.AttemptID, Error: msgUpstreamFailed})
			return
		}
		writeJSON(w, http.StatusOK, submitResponse{OK: true, AttemptID: out.AttemptID, Photos: out.URLs})
	}
}

func (h *Handler) coordinatorOptions() []coordinator.Option {
	if h.recorder == nil {
		return nil
	}
	return []coordinator.Option{coordinator.WithRecorder(h.recorder)}
}

func (h *Handler) maxBodyBytes() int64 {
	return bodyLimit(h.opts.Constraints, maxMemory)
}

// bodyLimit allows MaxCount+1 files of up to twice MaxBytesPerFile each, plus
// mem for the text parts, so selections over either limit still parse and
// get the validator's message. The result saturates at math.MaxInt64.
func bodyLimit(c validator.Constraints, mem int64) int64 {
	if c.MaxCount < 0 || c.MaxBytesPerFile <= 0 {
		return mem
	}
	files := int64(c.MaxCount)
	if files > (math.MaxInt64-mem)/2/c.MaxBytesPerFile-1 {
		return math.MaxInt64
	}
	return (files+1)*c.MaxBytesPerFile*2 + mem
}

// selection turns multipart file headers into models.File, sniffing the
// content type when the client sent none or a generic one.
func selection(headers []*multipart.FileHeader) (models.Selection, error) {
	files := make(models.Selection, 0, len(headers))
	for _, fh := range headers {
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
			sniffed, err := sniff(fh)
			if err != nil {
				return nil, err
			}
			contentType = sniffed
		}

		files = append(files, models.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: contentType,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files, nil
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	// Drop parameters such as "; charset=utf-8".
	ct, _, _ := strings.Cut(mt.String(), ";")
	return ct, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
