package models

import "time"

// LetterOfCredit mirrors the MT700 field set extracted from an LC document.
// LCReference is the natural key used across the extraction and
// classification boundary.
type LetterOfCredit struct {
	LCID                     string            `json:"lc_id"`
	LCReference              string            `json:"lc_reference"`
	SequenceOfTotal          string            `json:"sequence_of_total,omitempty"`
	DateOfIssue              string            `json:"date_of_issue,omitempty"`
	ApplicableRules          string            `json:"applicable_rules,omitempty"`
	Applicant                string            `json:"applicant,omitempty"`
	ApplicantBank            string            `json:"applicant_bank,omitempty"`
	Beneficiary              string            `json:"beneficiary,omitempty"`
	AvailableWithBank        string            `json:"available_with_bank,omitempty"`
	ReimbursingBank          string            `json:"reimbursing_bank,omitempty"`
	AdvisingBank             string            `json:"advising_bank,omitempty"`
	InstructionsToBank       string            `json:"instructions_to_bank,omitempty"`
	CreditAmount             string            `json:"credit_amount,omitempty"`
	PercentTolerance         string            `json:"percent_tolerance,omitempty"`
	MaxCreditAmount          string            `json:"max_credit_amount,omitempty"`
	AdditionalAmounts        string            `json:"additional_amounts,omitempty"`
	FormOfCredit             string            `json:"form_of_credit,omitempty"`
	Availability             string            `json:"availability,omitempty"`
	DraftTenor               string            `json:"draft_tenor,omitempty"`
	Drawee                   string            `json:"drawee,omitempty"`
	MixedPaymentDetails      string            `json:"mixed_payment_details,omitempty"`
	DeferredPaymentDetails   string            `json:"deferred_payment_details,omitempty"`
	ConfirmationInstructions string            `json:"confirmation_instructions,omitempty"`
	ExpiryDateAndPlace       string            `json:"expiry_date_and_place,omitempty"`
	PeriodForPresentation    string            `json:"period_for_presentation,omitempty"`
	PartialShipments         string            `json:"partial_shipments,omitempty"`
	Transshipment            string            `json:"transshipment,omitempty"`
	LatestShipmentDate       string            `json:"latest_shipment_date,omitempty"`
	ShipmentPeriod           string            `json:"shipment_period,omitempty"`
	DispatchPlace            string            `json:"dispatch_place,omitempty"`
	PortOfLoading            string            `json:"port_of_loading,omitempty"`
	PortOfDischarge          string            `json:"port_of_discharge,omitempty"`
	FinalDestination         string            `json:"final_destination,omitempty"`
	GoodsDescription         string            `json:"goods_description,omitempty"`
	AdditionalConditions     string            `json:"additional_conditions,omitempty"`
	Charges                  string            `json:"charges,omitempty"`
	IncotermRule             string            `json:"incoterm_rule,omitempty"`
	IncotermYear             string            `json:"incoterm_year,omitempty"`
	IncotermNamedPlace       string            `json:"incoterm_named_place,omitempty"`
	RulebookVersions         map[string]string `json:"rulebook_versions,omitempty"`
	CreatedAt                time.Time         `json:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at"`
}

// LCRequirement is one line item a beneficiary must satisfy. RequirementID
// follows the doc_NNN numbering scheme and is immutable once the LC is stored.
type LCRequirement struct {
	LCID               string    `json:"lc_id"`
	RequirementID      string    `json:"requirement_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Quantity           int       `json:"quantity"`
	ValidationCriteria []string  `json:"validation_criteria,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ExportDocument is one uploaded shipment document's extracted facts.
// DocumentID follows the export_doc_NNN numbering scheme, unique per LC.
// The classification fields are denormalized copies of the latest decision;
// the decision table is the source of truth.
type ExportDocument struct {
	LCID                string    `json:"lc_id"`
	DocumentID          string    `json:"document_id"`
	Filename            string    `json:"filename"`
	FilePath            string    `json:"file_path,omitempty"`
	FileSizeBytes       int64     `json:"file_size_bytes"`
	DocumentName        string    `json:"document_name,omitempty"`
	Summary             string    `json:"summary,omitempty"`
	FullDescription     string    `json:"full_description,omitempty"`
	ExtractionTimestamp time.Time `json:"extraction_timestamp"`

	MatchedRequirementID string   `json:"matched_requirement_id,omitempty"`
	ConfidenceScore      *float64 `json:"confidence_score,omitempty"`
	Reasoning            string   `json:"reasoning,omitempty"`
	IsMatched            bool     `json:"is_matched"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ClassificationRun is one audit unit over an LC's export documents.
// Status and TotalMatchesFound are mutated exactly once, at the end.
type ClassificationRun struct {
	RunID                string    `json:"run_id"`
	LCID                 string    `json:"lc_id"`
	TotalExportDocs      int       `json:"total_export_docs"`
	TotalLCRequirements  int       `json:"total_lc_requirements"`
	TotalMatchesFound    int       `json:"total_matches_found"`
	ModelUsed            string    `json:"model_used,omitempty"`
	Status               string    `json:"status"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	RunTimestamp         time.Time `json:"run_timestamp"`
}

// ClassificationDecision is one (export document, requirement) verdict owned
// by exactly one run. RequirementID is empty when the document matched
// nothing ("OTHER" selection or below-threshold confidence).
type ClassificationDecision struct {
	RunID            string    `json:"run_id"`
	ExportDocumentID string    `json:"export_document_id"`
	RequirementID    string    `json:"lc_requirement_id,omitempty"`
	ConfidenceScore  float64   `json:"confidence_score"`
	Reasoning        string    `json:"reasoning,omitempty"`
	IsMatched        bool      `json:"is_matched"`
	DecidedAt        time.Time `json:"decided_at"`
}

// ResetResult reports what a classification reset removed for an LC.
type ResetResult struct {
	ClassificationsDeleted    int `json:"classifications_deleted"`
	ClassificationRunsDeleted int `json:"classification_runs_deleted"`
	ExportDocumentsReset      int `json:"export_documents_reset"`
}
