package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"lcflow/internal/classify"
	"lcflow/internal/config"
	"lcflow/internal/extract"
	"lcflow/internal/models"
	"lcflow/internal/providers"
	"lcflow/internal/schema"
	"lcflow/internal/util"

	"github.com/joho/godotenv"
)

// Standalone pipeline runner: extract one PDF or a directory of PDFs
// without the API and worker, or run the per-requirement matcher over
// previously produced artifacts.
func main() {
	var (
		file       = flag.String("file", "", "Extract a single PDF")
		dir        = flag.String("dir", "", "Extract every PDF in a directory")
		schemaName = flag.String("schema", "simple", "Extraction schema (default|simple|lc)")
		out        = flag.String("out", "", "Output JSON path")
		match      = flag.Bool("match", false, "Run per-requirement matching instead of extraction")
		lcPath     = flag.String("lc", "", "LC extraction JSON (match mode)")
		docsPath   = flag.String("docs", "", "Export batch artifact JSON (match mode)")
	)
	flag.Parse()

	_ = godotenv.Load(".env")
	cfg := config.Load()
	completer, err := providers.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	switch {
	case *match:
		if *lcPath == "" || *docsPath == "" || *out == "" {
			log.Fatal("match mode requires -lc, -docs and -out")
		}
		if err := runMatch(ctx, completer, *lcPath, *docsPath, *out); err != nil {
			log.Fatal(err)
		}
	case *file != "":
		if *out == "" {
			log.Fatal("-out is required")
		}
		s, err := schema.Lookup(*schemaName)
		if err != nil {
			log.Fatal(err)
		}
		res, err := extract.New(completer).ExtractFile(ctx, *file, s)
		if err != nil {
			log.Fatal(err)
		}
		if err := util.WriteJSONAtomic(*out, res.Record); err != nil {
			log.Fatal(err)
		}
		log.Printf("extracted %s (%d pages, model=%s) -> %s", *file, res.PageCount, res.Call.Model, *out)
	case *dir != "":
		if *out == "" {
			log.Fatal("-out is required")
		}
		s, err := schema.Lookup(*schemaName)
		if err != nil {
			log.Fatal(err)
		}
		batch := extract.NewBatchExtractor(extract.New(completer), "export_doc")
		artifact, err := batch.ExtractDir(ctx, *dir, s)
		if err != nil {
			log.Fatal(err)
		}
		if err := artifact.Save(*out); err != nil {
			log.Fatal(err)
		}
		meta := artifact.ExtractionMetadata
		log.Printf("extracted %d documents (%d ok, %d failed) -> %s", meta.TotalDocuments, meta.Succeeded, meta.Failed, *out)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runMatch(ctx context.Context, completer providers.Completer, lcPath, docsPath, out string) error {
	lcRaw, err := os.ReadFile(lcPath)
	if err != nil {
		return fmt.Errorf("read lc json: %w", err)
	}
	var lc schema.LetterOfCreditAnalysis
	if err := json.Unmarshal(lcRaw, &lc); err != nil {
		return fmt.Errorf("decode lc json: %w", err)
	}
	reqs := make([]models.LCRequirement, 0, len(lc.DocumentsRequired))
	for i, dr := range lc.DocumentsRequired {
		req := models.LCRequirement{
			RequirementID:      fmt.Sprintf("doc_%03d", i+1),
			Name:               dr.Name,
			Quantity:           dr.Quantity,
			ValidationCriteria: dr.ValidationCriteria,
		}
		if dr.Description != nil {
			req.Description = *dr.Description
		}
		reqs = append(reqs, req)
	}

	docsRaw, err := os.ReadFile(docsPath)
	if err != nil {
		return fmt.Errorf("read export artifact: %w", err)
	}
	var artifact struct {
		Documents []struct {
			DocumentID       string                         `json:"document_id"`
			ExtractionResult *schema.SimpleDocumentAnalysis `json:"extraction_result"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(docsRaw, &artifact); err != nil {
		return fmt.Errorf("decode export artifact: %w", err)
	}
	docs := make([]classify.MatcherDocument, 0, len(artifact.Documents))
	for _, d := range artifact.Documents {
		if d.ExtractionResult == nil {
			continue
		}
		docs = append(docs, classify.MatcherDocument{
			Name:     d.ExtractionResult.DocumentName,
			Summary:  d.ExtractionResult.Summary,
			FullText: d.ExtractionResult.FullDescription,
		})
	}

	report := classify.NewRequirementMatcher(completer).Run(ctx, reqs, docs)
	if err := util.WriteJSONAtomic(out, report); err != nil {
		return err
	}
	log.Printf("matched %d requirements against %d documents -> %s", report.TotalRequirements, report.TotalDocuments, out)
	return nil
}
