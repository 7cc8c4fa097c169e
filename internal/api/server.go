package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lcflow/internal/config"
	"lcflow/internal/extract"
	"lcflow/internal/models"
	"lcflow/internal/pdftext"
	"lcflow/internal/providers"
	"lcflow/internal/schema"
	"lcflow/internal/storage"
	"lcflow/internal/util"
	"lcflow/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg       config.Config
	db        *storage.DB
	lcRepo    *storage.LCRepo
	docRepo   *storage.ExportDocRepo
	runRepo   *storage.RunRepo
	extractor *extract.Extractor
	temporal  tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	completer, err := providers.New(cfg)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:       cfg,
		db:        db,
		lcRepo:    storage.NewLCRepo(db),
		docRepo:   storage.NewExportDocRepo(db),
		runRepo:   storage.NewRunRepo(db),
		extractor: extract.New(completer),
		temporal:  tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/lcs", s.handleLCs)
	mux.HandleFunc("/lcs/", s.handleLCScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLCs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		lcs, err := s.lcRepo.ListLCs(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lcs": lcs})
	case http.MethodPost:
		s.handleLCUpload(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

// handleLCUpload ingests an LC PDF synchronously: save, extract with the
// MT700 schema, upsert the LC row and replace its requirement list.
func (s *Server) handleLCUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	fh, ok := firstSingleFile(r.MultipartForm.File)
	if !ok {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("only pdf files are accepted"))
		return
	}

	inDir := filepath.Join(s.cfg.DataInRoot, "lc")
	savedPath, err := saveUploadedFile(inDir, fh)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	lcSchema, err := schema.Lookup(string(schema.KindLetterOfCredit))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	res, err := s.extractor.ExtractFile(r.Context(), savedPath, lcSchema)
	if err != nil {
		writeErr(w, http.StatusBadGateway, fmt.Errorf("lc extraction failed: %w", err))
		return
	}
	analysis, ok := res.Record.(*schema.LetterOfCreditAnalysis)
	if !ok {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("unexpected extraction record shape"))
		return
	}

	lc := lcFromAnalysis(analysis)
	if lc.LCReference == "" {
		writeErr(w, http.StatusUnprocessableEntity, fmt.Errorf("no lc reference found in document"))
		return
	}
	lcID, err := s.lcRepo.UpsertLC(r.Context(), lc)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	reqs := make([]models.LCRequirement, 0, len(analysis.DocumentsRequired))
	for _, dr := range analysis.DocumentsRequired {
		req := models.LCRequirement{
			Name:               dr.Name,
			Quantity:           dr.Quantity,
			ValidationCriteria: dr.ValidationCriteria,
		}
		if dr.Description != nil {
			req.Description = *dr.Description
		}
		reqs = append(reqs, req)
	}
	if err := s.lcRepo.ReplaceRequirements(r.Context(), lcID, reqs); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	if text, _, err := pdftext.Extract(savedPath); err == nil && text != "" {
		textPath := filepath.Join(s.cfg.DataOutRoot, lcID, "lc_text.txt")
		_ = util.WriteTextAtomic(textPath, text)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"lc_id":        lcID,
		"lc_reference": lc.LCReference,
		"requirements": len(reqs),
		"page_count":   res.PageCount,
		"model":        res.Call.Model,
	})
}

func (s *Server) handleLCScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/lcs/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	lc, err := s.lcRepo.GetByReference(r.Context(), parts[0])
	if err != nil {
		// The path segment may be the lc_id instead of the reference.
		lc, err = s.lcRepo.GetByID(r.Context(), parts[0])
	}
	if err != nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("lc not found"))
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		reqs, err := s.lcRepo.ListRequirements(r.Context(), lc.LCID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lc": lc, "requirements": reqs})
		return
	}

	switch parts[1] {
	case "export-documents":
		s.handleExportDocuments(w, r, lc)
	case "export-progress":
		s.handleExportProgress(w, r, lc)
	case "classify":
		s.handleClassify(w, r, lc)
	case "classifications":
		s.handleClassifications(w, r, lc)
	case "classification-summary":
		s.handleClassificationSummary(w, r, lc)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

// handleExportDocuments accepts a multipart batch of export PDFs and starts
// the extraction workflow over the saved directory.
func (s *Server) handleExportDocuments(w http.ResponseWriter, r *http.Request, lc models.LetterOfCredit) {
	switch r.Method {
	case http.MethodGet:
		docs, err := s.docRepo.ListExportDocs(r.Context(), lc.LCID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	case http.MethodPost:
		if err := r.ParseMultipartForm(256 << 20); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			if single, ok := firstSingleFile(r.MultipartForm.File); ok {
				files = append(files, single)
			}
		}
		if len(files) == 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
			return
		}

		inDir := filepath.Join(s.cfg.DataInRoot, lc.LCID, "export")
		saved := make([]string, 0, len(files))
		for _, fh := range files {
			if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
				continue
			}
			path, err := saveUploadedFile(inDir, fh)
			if err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			saved = append(saved, filepath.Base(path))
		}
		if len(saved) == 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("no pdf files were provided"))
			return
		}

		wfID := "export-" + lc.LCID
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                                       wfID,
			TaskQueue:                                s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.ExportBatchWorkflow, workflows.ExportBatchInput{
			LCID:     lc.LCID,
			InputDir: inDir,
		})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"uploaded":    saved,
			"workflow_id": we.GetID(),
			"run_id":      we.GetRunID(),
		})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleExportProgress(w http.ResponseWriter, r *http.Request, lc models.LetterOfCredit) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var prog workflows.ExportBatchProgress
	resp, err := s.temporal.QueryWorkflow(r.Context(), "export-"+lc.LCID, "", workflows.QueryGetBatchProgress)
	if err != nil {
		// No live workflow to query; derive progress from persisted rows.
		docs, dErr := s.docRepo.ListExportDocs(r.Context(), lc.LCID)
		if dErr != nil {
			writeErr(w, http.StatusInternalServerError, dErr)
			return
		}
		per := make(map[string]string, len(docs))
		failed := 0
		for _, d := range docs {
			status := "done"
			if d.DocumentName == "EXTRACTION FAILED" {
				status = "failed"
				failed++
			}
			per[d.Filename] = status
		}
		writeJSON(w, http.StatusOK, workflows.ExportBatchProgress{
			LCID:        lc.LCID,
			Total:       len(docs),
			Done:        len(docs),
			Failed:      failed,
			PerDocument: per,
		})
		return
	}
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request, lc models.LetterOfCredit) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	runID := uuid.NewString()
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        "classify-" + runID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.ClassificationRunWorkflow, workflows.ClassificationRunInput{
		LCID:  lc.LCID,
		RunID: runID,
		Model: s.cfg.Model,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"classification_run_id": runID,
		"workflow_id":           we.GetID(),
		"run_id":                we.GetRunID(),
	})
}

func (s *Server) handleClassifications(w http.ResponseWriter, r *http.Request, lc models.LetterOfCredit) {
	switch r.Method {
	case http.MethodGet:
		run, err := s.runRepo.LatestRun(r.Context(), lc.LCID)
		if err == storage.ErrNoRuns {
			writeJSON(w, http.StatusOK, map[string]any{"run": nil, "decisions": []any{}})
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		decisions, err := s.runRepo.ListDecisions(r.Context(), run.RunID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"run": run, "decisions": decisions})
	case http.MethodDelete:
		result, err := s.runRepo.Reset(r.Context(), lc.LCID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleClassificationSummary(w http.ResponseWriter, r *http.Request, lc models.LetterOfCredit) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	summary, err := s.runRepo.Summarize(r.Context(), lc.LCID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lc_reference": lc.LCReference,
		"requirements": summary,
	})
}

func lcFromAnalysis(a *schema.LetterOfCreditAnalysis) models.LetterOfCredit {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.TrimSpace(*p)
	}
	return models.LetterOfCredit{
		LCReference:              str(a.LCReference),
		SequenceOfTotal:          str(a.SequenceOfTotal),
		DateOfIssue:              str(a.DateOfIssue),
		ApplicableRules:          str(a.ApplicableRules),
		Applicant:                str(a.Applicant),
		ApplicantBank:            str(a.ApplicantBank),
		Beneficiary:              str(a.Beneficiary),
		AvailableWithBank:        str(a.AvailableWithBank),
		ReimbursingBank:          str(a.ReimbursingBank),
		AdvisingBank:             str(a.AdvisingBank),
		InstructionsToBank:       str(a.InstructionsToBank),
		CreditAmount:             str(a.CreditAmount),
		PercentTolerance:         str(a.PercentTolerance),
		MaxCreditAmount:          str(a.MaxCreditAmount),
		AdditionalAmounts:        str(a.AdditionalAmounts),
		FormOfCredit:             str(a.FormOfCredit),
		Availability:             str(a.Availability),
		DraftTenor:               str(a.DraftTenor),
		Drawee:                   str(a.Drawee),
		MixedPaymentDetails:      str(a.MixedPaymentDetails),
		DeferredPaymentDetails:   str(a.DeferredPaymentDetails),
		ConfirmationInstructions: str(a.ConfirmationInstructions),
		ExpiryDateAndPlace:       str(a.ExpiryDateAndPlace),
		PeriodForPresentation:    str(a.PeriodForPresentation),
		PartialShipments:         str(a.PartialShipments),
		Transshipment:            str(a.Transshipment),
		LatestShipmentDate:       str(a.LatestShipmentDate),
		ShipmentPeriod:           str(a.ShipmentPeriod),
		DispatchPlace:            str(a.DispatchPlace),
		PortOfLoading:            str(a.PortOfLoading),
		PortOfDischarge:          str(a.PortOfDischarge),
		FinalDestination:         str(a.FinalDestination),
		GoodsDescription:         str(a.GoodsDescription),
		AdditionalConditions:     str(a.AdditionalConditions),
		Charges:                  str(a.Charges),
		IncotermRule:             str(a.IncotermRule),
		IncotermYear:             str(a.IncotermYear),
		IncotermNamedPlace:       str(a.IncotermNamedPlace),
		RulebookVersions:         a.RulebookVersions,
	}
}

// saveUploadedFile writes the upload atomically into dstDir. If the name is
// already taken by different content, the new file gets a content-hash
// prefix instead of overwriting.
func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (string, error) {
	if err := util.EnsureDir(dstDir); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	safeName := filepath.Base(fh.Filename)
	finalPath := util.SafeJoin(dstDir, safeName)
	if _, statErr := os.Stat(finalPath); statErr == nil {
		f, oErr := os.Open(tmp.Name())
		if oErr != nil {
			return "", oErr
		}
		sum, hErr := util.SHA256HexFromReader(f)
		f.Close()
		if hErr != nil {
			return "", hErr
		}
		finalPath = util.SafeJoin(dstDir, sum[:12]+"_"+safeName)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("atomic move upload: %w", err)
	}
	return finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	msg := "Request failed."
	if err != nil {
		msg = err.Error()
	}
	if code >= 500 {
		low := strings.ToLower(msg)
		switch {
		case strings.Contains(low, "relation") && strings.Contains(low, "does not exist"):
			msg = "Database schema is not initialized. Run migrations and retry."
		case strings.Contains(low, "connection refused"), strings.Contains(low, "dial tcp"):
			msg = "Database connection is unavailable. Check local services and retry."
		}
	}
	writeJSON(w, code, map[string]any{"error": msg})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
