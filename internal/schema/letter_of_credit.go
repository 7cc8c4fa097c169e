package schema

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DocumentRequirement is one document an exporter must present under an LC.
type DocumentRequirement struct {
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	Quantity           int      `json:"quantity"`
	ValidationCriteria []string `json:"validation_criteria"`
}

// LetterOfCreditAnalysis is the MT700-based extraction record. Field names
// follow the MT700 tag map and are preserved on the wire, since downstream
// consumers join on them.
type LetterOfCreditAnalysis struct {
	LCReference              *string               `json:"LC_REFERENCE"`
	SequenceOfTotal          *string               `json:"SEQUENCE_OF_TOTAL"`
	DateOfIssue              *string               `json:"DATE_OF_ISSUE"`
	ApplicableRules          *string               `json:"APPLICABLE_RULES"`
	Applicant                *string               `json:"APPLICANT"`
	ApplicantBank            *string               `json:"APPLICANT_BANK"`
	Beneficiary              *string               `json:"BENEFICIARY"`
	AvailableWithBank        *string               `json:"AVAILABLE_WITH_BANK"`
	ReimbursingBank          *string               `json:"REIMBURSING_BANK"`
	AdvisingBank             *string               `json:"ADVISING_BANK"`
	InstructionsToBank       *string               `json:"INSTRUCTIONS_TO_BANK"`
	CreditAmount             *string               `json:"CREDIT_AMOUNT"`
	PercentTolerance         *string               `json:"PERCENT_TOLERANCE"`
	MaxCreditAmount          *string               `json:"MAX_CREDIT_AMOUNT"`
	AdditionalAmounts        *string               `json:"ADDITIONAL_AMOUNTS"`
	FormOfCredit             *string               `json:"FORM_OF_CREDIT"`
	Availability             *string               `json:"AVAILABILITY"`
	DraftTenor               *string               `json:"DRAFT_TENOR"`
	Drawee                   *string               `json:"DRAWEE"`
	MixedPaymentDetails      *string               `json:"MIXED_PAYMENT_DETAILS"`
	DeferredPaymentDetails   *string               `json:"DEFERRED_PAYMENT_DETAILS"`
	ConfirmationInstructions *string               `json:"CONFIRMATION_INSTRUCTIONS"`
	ExpiryDateAndPlace       *string               `json:"EXPIRY_DATE_AND_PLACE"`
	PeriodForPresentation    *string               `json:"PERIOD_FOR_PRESENTATION"`
	PartialShipments         *string               `json:"PARTIAL_SHIPMENTS"`
	Transshipment            *string               `json:"TRANSSHIPMENT"`
	LatestShipmentDate       *string               `json:"LATEST_SHIPMENT_DATE"`
	ShipmentPeriod           *string               `json:"SHIPMENT_PERIOD"`
	DispatchPlace            *string               `json:"DISPATCH_PLACE"`
	PortOfLoading            *string               `json:"PORT_OF_LOADING"`
	PortOfDischarge          *string               `json:"PORT_OF_DISCHARGE"`
	FinalDestination         *string               `json:"FINAL_DESTINATION"`
	GoodsDescription         *string               `json:"GOODS_DESCRIPTION"`
	DocumentsRequired        []DocumentRequirement `json:"DOCUMENTS_REQUIRED"`
	AdditionalConditions     *string               `json:"ADDITIONAL_CONDITIONS"`
	Charges                  *string               `json:"CHARGES"`
	IncotermRule             *string               `json:"INCOTERM_RULE"`
	IncotermYear             *string               `json:"INCOTERM_YEAR"`
	IncotermNamedPlace       *string               `json:"INCOTERM_NAMED_PLACE"`
	RulebookVersions         map[string]string     `json:"RULEBOOK_VERSIONS"`
}

type LetterOfCreditSchema struct{}

func (LetterOfCreditSchema) Kind() Kind     { return KindLetterOfCredit }
func (LetterOfCreditSchema) NewRecord() any { return &LetterOfCreditAnalysis{} }

func (LetterOfCreditSchema) Instructions() string {
	return `This appears to be a Letter of Credit (LC) document. Extract information into the MT700-based structure below.
For each field, look for the corresponding information in the document. If a field is not present or unclear, set it to null.

EXTRACTION GUIDELINES:
- Reference & Scope: LC number, issue date, applicable rules (UCP, ISBP, etc.)
- Parties: All banks and trading parties involved
- Amounts: Credit amounts, tolerances, additional amounts
- Payment: Form of credit, availability, draft terms, confirmation
- Expiry: Expiry dates, presentation periods, shipment restrictions
- Shipment: Loading/discharge ports, destinations, shipment dates
- Goods: Description of merchandise or services
- Documents: For DOCUMENTS_REQUIRED, create a list where each document has:
  * name: The exact document name as stated (e.g. "Commercial Invoice", "Bill of Lading")
  * description: All specific requirements, conditions, and details for that document
  * quantity: Extract the actual number of copies required from phrases like "four fold" = 4, "two fold" = 2, "duplicate" = 2, "triplicate" = 3, "in [X] copies" = X. If no quantity is specified, use 1.
  * validation_criteria: A comprehensive list of specific, actionable validation criteria extracted from the document description. Analyze EVERY requirement, condition, specification, and restriction mentioned for each document. Include criteria about:
    - Document authenticity (original, certified, laminated, etc.)
    - Required signatures, stamps, seals
    - Content requirements (what must be stated/shown)
    - Format/presentation requirements
    - Issuing authority requirements
    - Compliance with regulations/standards
    - Age/date restrictions
    - Specific wordings or certifications required
    - Bank stamps or endorsements needed
    - Prohibited alternatives (e.g. "short form not acceptable")
    DO NOT include quantity/copy requirements as those are captured in the quantity field. Extract EVERY validation requirement from the description text.
- Charges: Fee allocation between parties
- Incoterms: Trade terms if specified (CIF, FOB, etc.)

Extract exactly as the fields appear in the document. Preserve original wording and formatting.
For documents, separate each distinct document type into its own object with precise name and detailed description.`
}

func (LetterOfCreditSchema) JSONExample() string {
	return `{
  "LC_REFERENCE": "string or null",
  "SEQUENCE_OF_TOTAL": "string or null",
  "DATE_OF_ISSUE": "string or null",
  "APPLICABLE_RULES": "string or null",
  "APPLICANT": "string or null",
  "APPLICANT_BANK": "string or null",
  "BENEFICIARY": "string or null",
  "AVAILABLE_WITH_BANK": "string or null",
  "REIMBURSING_BANK": "string or null",
  "ADVISING_BANK": "string or null",
  "INSTRUCTIONS_TO_BANK": "string or null",
  "CREDIT_AMOUNT": "string or null",
  "PERCENT_TOLERANCE": "string or null",
  "MAX_CREDIT_AMOUNT": "string or null",
  "ADDITIONAL_AMOUNTS": "string or null",
  "FORM_OF_CREDIT": "string or null",
  "AVAILABILITY": "string or null",
  "DRAFT_TENOR": "string or null",
  "DRAWEE": "string or null",
  "MIXED_PAYMENT_DETAILS": "string or null",
  "DEFERRED_PAYMENT_DETAILS": "string or null",
  "CONFIRMATION_INSTRUCTIONS": "string or null",
  "EXPIRY_DATE_AND_PLACE": "string or null",
  "PERIOD_FOR_PRESENTATION": "string or null",
  "PARTIAL_SHIPMENTS": "string or null",
  "TRANSSHIPMENT": "string or null",
  "LATEST_SHIPMENT_DATE": "string or null",
  "SHIPMENT_PERIOD": "string or null",
  "DISPATCH_PLACE": "string or null",
  "PORT_OF_LOADING": "string or null",
  "PORT_OF_DISCHARGE": "string or null",
  "FINAL_DESTINATION": "string or null",
  "GOODS_DESCRIPTION": "string or null",
  "DOCUMENTS_REQUIRED": [
    {
      "name": "Commercial Invoice",
      "description": "Signed in duplicate stating goods, quantity, unit price, total amount, etc.",
      "quantity": 2,
      "validation_criteria": [
        "Must be manually signed",
        "Must state goods, quantity, unit price, total amount",
        "Must quote LC number and date",
        "Must show FOB value, freight and insurance separately"
      ]
    },
    {
      "name": "Bill of Lading",
      "description": "Full set of clean on-board marine bills of lading marked freight prepaid, made out to order of issuing bank, showing applicant as notify party. Short form not acceptable.",
      "quantity": 2,
      "validation_criteria": [
        "Must be clean (no adverse remarks)",
        "Must be on-board type (not received for shipment)",
        "Must be marked freight prepaid",
        "Must be made out to order of issuing bank",
        "Must show applicant as notify party with full address",
        "Short form bills of lading not acceptable"
      ]
    }
  ],
  "ADDITIONAL_CONDITIONS": "string or null",
  "CHARGES": "string or null",
  "INCOTERM_RULE": "string or null",
  "INCOTERM_YEAR": "string or null",
  "INCOTERM_NAMED_PLACE": "string or null",
  "RULEBOOK_VERSIONS": {"UCP": "600", "ISBP": "821"}
}`
}

const lcJSONSchemaDoc = `{
  "type": "object",
  "properties": {
    "LC_REFERENCE": {"type": ["string", "null"]},
    "DATE_OF_ISSUE": {"type": ["string", "null"]},
    "APPLICANT": {"type": ["string", "null"]},
    "BENEFICIARY": {"type": ["string", "null"]},
    "CREDIT_AMOUNT": {"type": ["string", "null"]},
    "GOODS_DESCRIPTION": {"type": ["string", "null"]},
    "DOCUMENTS_REQUIRED": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "description": {"type": ["string", "null"]},
          "quantity": {"type": "integer", "minimum": 1},
          "validation_criteria": {"type": ["array", "null"], "items": {"type": "string"}}
        },
        "required": ["name"]
      }
    },
    "RULEBOOK_VERSIONS": {"type": ["object", "null"]}
  }
}`

var lcJSONSchema = jsonschema.MustCompileString("letter_of_credit.json", lcJSONSchemaDoc)

func (LetterOfCreditSchema) JSONSchemaDoc() json.RawMessage {
	return json.RawMessage(lcJSONSchemaDoc)
}

func (LetterOfCreditSchema) ValidateJSON(data []byte) error {
	return validateAgainst(lcJSONSchema, data)
}
