package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/config"
	"github.com/pixperk/spssprep/internal/detect"
	"github.com/pixperk/spssprep/internal/encoding"
	"github.com/pixperk/spssprep/internal/pipeline"
	"github.com/pixperk/spssprep/internal/table"
)

const (
	Version = "1.0.0"

	maxUploadBytes = 64 << 20

	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Server struct {
	config    *config.Config
	logger    *zap.Logger
	workDir   string
	upgrader  websocket.Upgrader
	jobs      sync.Map // jobID -> *EncodeJob
	broadcast chan ProgressUpdate
	clients   sync.Map // clientID -> *websocket.Conn

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type EncodeJob struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Filename  string           `json:"filename"`
	Progress  []ProgressUpdate `json:"progress"`
	Summary   *JobSummary      `json:"summary,omitempty"`
	StartTime time.Time        `json:"start_time"`
	EndTime   *time.Time       `json:"end_time,omitempty"`
	Error     string           `json:"error,omitempty"`

	report *pipeline.Report
	mu     sync.RWMutex
}

type JobSummary struct {
	Rows        int                      `json:"rows"`
	Columns     int                      `json:"columns"`
	Encoded     int                      `json:"encoded"`
	Identifiers []string                 `json:"identifiers"`
	Misses      map[string]encoding.Miss `json:"misses,omitempty"`
	Duration    string                   `json:"duration"`
}

type ProgressUpdate struct {
	JobID      string    `json:"job_id"`
	Event      string    `json:"event"` // started, stage, column, miss, completed, error
	Stage      string    `json:"stage,omitempty"`
	Column     string    `json:"column,omitempty"`
	Message    string    `json:"message"`
	Percentage float64   `json:"percentage,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type DetectResponse struct {
	Filename string           `json:"filename"`
	Rows     int              `json:"rows"`
	Columns  []ColumnAnalysis `json:"columns"`
}

type ColumnAnalysis struct {
	detect.Metadata
	Suggested detect.Kind `json:"suggested"`
}

// snapshot copies the job under its read lock for encoding
func (j *EncodeJob) snapshot() EncodeJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return EncodeJob{
		ID:        j.ID,
		Status:    j.Status,
		Filename:  j.Filename,
		Progress:  append([]ProgressUpdate(nil), j.Progress...),
		Summary:   j.Summary,
		StartTime: j.StartTime,
		EndTime:   j.EndTime,
		Error:     j.Error,
	}
}

// NewServer prepares a server whose uploads and results live under workDir.
// An empty workDir gets a fresh temporary directory.
func NewServer(cfg *config.Config, logger *zap.Logger, workDir string) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if workDir == "" {
		dir, err := os.MkdirTemp("", "spssprep-serve-")
		if err != nil {
			return nil, err
		}
		workDir = dir
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:    cfg,
		logger:    logger,
		workDir:   workDir,
		broadcast: make(chan ProgressUpdate, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
	go s.broadcastUpdates()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/detect", s.handleDetect)
	mux.HandleFunc("POST /api/v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /api/v1/jobs/{id}/syntax", s.handleJobSyntax)
	mux.HandleFunc("GET /api/v1/jobs/{id}/data", s.handleJobData)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels running jobs, waits for them and disconnects clients
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.clients.Range(func(key, value interface{}) bool {
			value.(*websocket.Conn).Close()
			s.clients.Delete(key)
			return true
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
	})
}

// saveUpload copies the multipart "file" field into dir, keeping its extension
func (s *Server) saveUpload(r *http.Request, dir, base string) (path, filename string, err error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, err := table.DetectFormat("x" + ext); err != nil {
		return "", "", err
	}

	path = filepath.Join(dir, base+ext)
	if err := copyTo(path, file); err != nil {
		return "", "", err
	}
	return path, header.Filename, nil
}

func copyTo(path string, src multipart.File) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("Invalid upload: %v", err), http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp(s.workDir, "detect-")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	path, filename, err := s.saveUpload(r, dir, "input")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := table.Read(path, table.ReadOptions{Sheet: r.FormValue("sheet")})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read table: %v", err), http.StatusUnprocessableEntity)
		return
	}

	meta := detect.DetectOrdered(t)
	resp := DetectResponse{Filename: filename, Rows: t.Rows(), Columns: make([]ColumnAnalysis, len(meta))}
	for i, m := range meta {
		resp.Columns[i] = ColumnAnalysis{Metadata: m, Suggested: detect.Suggest(m)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("Invalid upload: %v", err), http.StatusBadRequest)
		return
	}

	cfg := *s.config
	if raw := r.FormValue("config"); raw != "" {
		parsed, err := config.Parse([]byte(raw))
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid config: %v", err), http.StatusBadRequest)
			return
		}
		cfg = *parsed
	}

	jobID := uuid.NewString()
	jobDir := filepath.Join(s.workDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	input, filename, err := s.saveUpload(r, jobDir, "input")
	if err != nil {
		os.RemoveAll(jobDir)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outExt := ".xlsx"
	if r.FormValue("format") == "csv" {
		outExt = ".csv"
	}
	cfg.Input = input
	cfg.InputSheet = r.FormValue("sheet")
	cfg.Output = filepath.Join(jobDir, "encoded"+outExt)
	cfg.Script = ""
	cfg.PlaceScriptBesideData = true
	cfg.SavePath = ""

	job := &EncodeJob{
		ID:        jobID,
		Status:    StatusPending,
		Filename:  filename,
		Progress:  make([]ProgressUpdate, 0),
		StartTime: time.Now(),
	}
	s.jobs.Store(jobID, job)

	s.wg.Add(1)
	go s.runEncode(job, &cfg)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "accepted",
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := make([]EncodeJob, 0)
	s.jobs.Range(func(key, value interface{}) bool {
		if job, ok := value.(*EncodeJob); ok {
			jobs = append(jobs, job.snapshot())
		}
		return true
	})
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartTime.Before(jobs[j].StartTime) })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*EncodeJob, bool) {
	jobValue, ok := s.jobs.Load(r.PathValue("id"))
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return nil, false
	}
	return jobValue.(*EncodeJob), true
}

// completedReport returns the report of a finished job or writes 409
func (s *Server) completedReport(w http.ResponseWriter, job *EncodeJob) (*pipeline.Report, bool) {
	job.mu.RLock()
	defer job.mu.RUnlock()
	if job.Status != StatusCompleted || job.report == nil {
		http.Error(w, fmt.Sprintf("Job is %s", job.Status), http.StatusConflict)
		return nil, false
	}
	return job.report, true
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job.snapshot()})
}

func (s *Server) handleJobSyntax(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	report, ok := s.completedReport(w, job)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="import.sps"`)
	io.WriteString(w, report.Script)
}

func (s *Server) handleJobData(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	report, ok := s.completedReport(w, job)
	if !ok {
		return
	}
	name := filepath.Base(report.OutputPath)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, report.OutputPath)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.NewString()
	s.clients.Store(clientID, conn)

	s.logger.Info("WebSocket client connected", zap.String("client_id", clientID))

	go func() {
		defer func() {
			s.clients.Delete(clientID)
			conn.Close()
			s.logger.Info("WebSocket client disconnected", zap.String("client_id", clientID))
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (s *Server) broadcastUpdates() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case update := <-s.broadcast:
			s.clients.Range(func(key, value interface{}) bool {
				conn := value.(*websocket.Conn)
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(update); err != nil {
					s.logger.Warn("Failed to send update to client",
						zap.String("client_id", key.(string)),
						zap.Error(err))
				}
				return true
			})
		}
	}
}

func (s *Server) sendUpdate(update ProgressUpdate) {
	if jobValue, ok := s.jobs.Load(update.JobID); ok {
		job := jobValue.(*EncodeJob)
		job.mu.Lock()
		job.Progress = append(job.Progress, update)
		job.mu.Unlock()
	}

	select {
	case s.broadcast <- update:
	default:
		s.logger.Warn("Broadcast channel full, dropping update")
	}
}

func (s *Server) runEncode(job *EncodeJob, cfg *config.Config) {
	defer s.wg.Done()

	job.mu.Lock()
	job.Status = StatusRunning
	job.mu.Unlock()

	s.sendUpdate(ProgressUpdate{
		JobID:     job.ID,
		Event:     "started",
		Message:   fmt.Sprintf("Encoding %s", job.Filename),
		Timestamp: time.Now(),
	})

	opts := &pipeline.Options{
		OnStage: func(stage pipeline.Stage, done, total int) {
			s.sendUpdate(ProgressUpdate{
				JobID:      job.ID,
				Event:      "stage",
				Stage:      string(stage),
				Message:    fmt.Sprintf("Stage %d/%d: %s", done+1, total, stage),
				Percentage: 100 * float64(done) / float64(total),
				Timestamp:  time.Now(),
			})
		},
		OnMiss: func(miss encoding.Miss) {
			s.sendUpdate(ProgressUpdate{
				JobID:     job.ID,
				Event:     "miss",
				Column:    miss.Identifier,
				Message:   fmt.Sprintf("%d values without a code: %s", miss.Count, strings.Join(miss.Values, ", ")),
				Timestamp: time.Now(),
			})
		},
	}

	report, err := pipeline.Run(s.ctx, cfg, opts)
	if err != nil {
		s.handleJobError(job, err)
		return
	}

	job.mu.Lock()
	job.report = report
	job.Summary = &JobSummary{
		Rows:        report.Rows,
		Columns:     len(report.Identifiers),
		Encoded:     report.EncodedColumns(),
		Identifiers: report.Identifiers,
		Misses:      report.Diagnostics.Misses,
		Duration:    report.Duration.String(),
	}
	job.Status = StatusCompleted
	endTime := time.Now()
	job.EndTime = &endTime
	job.mu.Unlock()

	s.sendUpdate(ProgressUpdate{
		JobID:      job.ID,
		Event:      "completed",
		Message:    fmt.Sprintf("Encoded %d of %d columns", report.EncodedColumns(), len(report.Identifiers)),
		Percentage: 100,
		Timestamp:  time.Now(),
	})
}

func (s *Server) handleJobError(job *EncodeJob, err error) {
	msg := err.Error()
	if errors.Is(err, context.Canceled) {
		msg = "cancelled"
	}

	job.mu.Lock()
	job.Status = StatusFailed
	job.Error = msg
	endTime := time.Now()
	job.EndTime = &endTime
	job.mu.Unlock()

	s.logger.Warn("Encode job failed", zap.String("job_id", job.ID), zap.Error(err))
	s.sendUpdate(ProgressUpdate{
		JobID:     job.ID,
		Event:     "error",
		Message:   msg,
		Timestamp: time.Now(),
	})
}
