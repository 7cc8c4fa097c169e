package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lcflow/internal/models"
)

type LCRepo struct {
	db *DB
}

func NewLCRepo(db *DB) *LCRepo {
	return &LCRepo{db: db}
}

const lcColumns = `lc_id::text, lc_reference,
  COALESCE(sequence_of_total,''), COALESCE(date_of_issue,''), COALESCE(applicable_rules,''),
  COALESCE(applicant,''), COALESCE(applicant_bank,''), COALESCE(beneficiary,''),
  COALESCE(available_with_bank,''), COALESCE(reimbursing_bank,''), COALESCE(advising_bank,''),
  COALESCE(instructions_to_bank,''), COALESCE(credit_amount,''), COALESCE(percent_tolerance,''),
  COALESCE(max_credit_amount,''), COALESCE(additional_amounts,''), COALESCE(form_of_credit,''),
  COALESCE(availability,''), COALESCE(draft_tenor,''), COALESCE(drawee,''),
  COALESCE(mixed_payment_details,''), COALESCE(deferred_payment_details,''), COALESCE(confirmation_instructions,''),
  COALESCE(expiry_date_and_place,''), COALESCE(period_for_presentation,''), COALESCE(partial_shipments,''),
  COALESCE(transshipment,''), COALESCE(latest_shipment_date,''), COALESCE(shipment_period,''),
  COALESCE(dispatch_place,''), COALESCE(port_of_loading,''), COALESCE(port_of_discharge,''),
  COALESCE(final_destination,''), COALESCE(goods_description,''), COALESCE(additional_conditions,''),
  COALESCE(charges,''), COALESCE(incoterm_rule,''), COALESCE(incoterm_year,''), COALESCE(incoterm_named_place,''),
  COALESCE(rulebook_versions,'{}'::jsonb), created_at, updated_at`

func scanLC(row pgx.Row) (models.LetterOfCredit, error) {
	var lc models.LetterOfCredit
	err := row.Scan(
		&lc.LCID, &lc.LCReference,
		&lc.SequenceOfTotal, &lc.DateOfIssue, &lc.ApplicableRules,
		&lc.Applicant, &lc.ApplicantBank, &lc.Beneficiary,
		&lc.AvailableWithBank, &lc.ReimbursingBank, &lc.AdvisingBank,
		&lc.InstructionsToBank, &lc.CreditAmount, &lc.PercentTolerance,
		&lc.MaxCreditAmount, &lc.AdditionalAmounts, &lc.FormOfCredit,
		&lc.Availability, &lc.DraftTenor, &lc.Drawee,
		&lc.MixedPaymentDetails, &lc.DeferredPaymentDetails, &lc.ConfirmationInstructions,
		&lc.ExpiryDateAndPlace, &lc.PeriodForPresentation, &lc.PartialShipments,
		&lc.Transshipment, &lc.LatestShipmentDate, &lc.ShipmentPeriod,
		&lc.DispatchPlace, &lc.PortOfLoading, &lc.PortOfDischarge,
		&lc.FinalDestination, &lc.GoodsDescription, &lc.AdditionalConditions,
		&lc.Charges, &lc.IncotermRule, &lc.IncotermYear, &lc.IncotermNamedPlace,
		&lc.RulebookVersions, &lc.CreatedAt, &lc.UpdatedAt,
	)
	return lc, err
}

// UpsertLC stores an LC keyed by its reference and returns the lc_id.
// Re-extracting the same LC updates the row in place; the id is stable.
func (r *LCRepo) UpsertLC(ctx context.Context, lc models.LetterOfCredit) (string, error) {
	if lc.LCReference == "" {
		return "", fmt.Errorf("lc_reference is required")
	}
	var lcID string
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO letters_of_credit (
  lc_id, lc_reference, sequence_of_total, date_of_issue, applicable_rules,
  applicant, applicant_bank, beneficiary, available_with_bank, reimbursing_bank,
  advising_bank, instructions_to_bank, credit_amount, percent_tolerance,
  max_credit_amount, additional_amounts, form_of_credit, availability,
  draft_tenor, drawee, mixed_payment_details, deferred_payment_details,
  confirmation_instructions, expiry_date_and_place, period_for_presentation,
  partial_shipments, transshipment, latest_shipment_date, shipment_period,
  dispatch_place, port_of_loading, port_of_discharge, final_destination,
  goods_description, additional_conditions, charges, incoterm_rule,
  incoterm_year, incoterm_named_place, rulebook_versions
) VALUES (
  $1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''),
  NULLIF($8,''), NULLIF($9,''), NULLIF($10,''), NULLIF($11,''), NULLIF($12,''),
  NULLIF($13,''), NULLIF($14,''), NULLIF($15,''), NULLIF($16,''), NULLIF($17,''),
  NULLIF($18,''), NULLIF($19,''), NULLIF($20,''), NULLIF($21,''), NULLIF($22,''),
  NULLIF($23,''), NULLIF($24,''), NULLIF($25,''), NULLIF($26,''), NULLIF($27,''),
  NULLIF($28,''), NULLIF($29,''), NULLIF($30,''), NULLIF($31,''), NULLIF($32,''),
  NULLIF($33,''), NULLIF($34,''), NULLIF($35,''), NULLIF($36,''), NULLIF($37,''),
  NULLIF($38,''), NULLIF($39,''), $40
)
ON CONFLICT (lc_reference)
DO UPDATE SET
  sequence_of_total = EXCLUDED.sequence_of_total,
  date_of_issue = EXCLUDED.date_of_issue,
  applicable_rules = EXCLUDED.applicable_rules,
  applicant = EXCLUDED.applicant,
  applicant_bank = EXCLUDED.applicant_bank,
  beneficiary = EXCLUDED.beneficiary,
  available_with_bank = EXCLUDED.available_with_bank,
  reimbursing_bank = EXCLUDED.reimbursing_bank,
  advising_bank = EXCLUDED.advising_bank,
  instructions_to_bank = EXCLUDED.instructions_to_bank,
  credit_amount = EXCLUDED.credit_amount,
  percent_tolerance = EXCLUDED.percent_tolerance,
  max_credit_amount = EXCLUDED.max_credit_amount,
  additional_amounts = EXCLUDED.additional_amounts,
  form_of_credit = EXCLUDED.form_of_credit,
  availability = EXCLUDED.availability,
  draft_tenor = EXCLUDED.draft_tenor,
  drawee = EXCLUDED.drawee,
  mixed_payment_details = EXCLUDED.mixed_payment_details,
  deferred_payment_details = EXCLUDED.deferred_payment_details,
  confirmation_instructions = EXCLUDED.confirmation_instructions,
  expiry_date_and_place = EXCLUDED.expiry_date_and_place,
  period_for_presentation = EXCLUDED.period_for_presentation,
  partial_shipments = EXCLUDED.partial_shipments,
  transshipment = EXCLUDED.transshipment,
  latest_shipment_date = EXCLUDED.latest_shipment_date,
  shipment_period = EXCLUDED.shipment_period,
  dispatch_place = EXCLUDED.dispatch_place,
  port_of_loading = EXCLUDED.port_of_loading,
  port_of_discharge = EXCLUDED.port_of_discharge,
  final_destination = EXCLUDED.final_destination,
  goods_description = EXCLUDED.goods_description,
  additional_conditions = EXCLUDED.additional_conditions,
  charges = EXCLUDED.charges,
  incoterm_rule = EXCLUDED.incoterm_rule,
  incoterm_year = EXCLUDED.incoterm_year,
  incoterm_named_place = EXCLUDED.incoterm_named_place,
  rulebook_versions = EXCLUDED.rulebook_versions,
  updated_at = NOW()
RETURNING lc_id::text`,
		uuid.NewString(), lc.LCReference, lc.SequenceOfTotal, lc.DateOfIssue, lc.ApplicableRules,
		lc.Applicant, lc.ApplicantBank, lc.Beneficiary, lc.AvailableWithBank, lc.ReimbursingBank,
		lc.AdvisingBank, lc.InstructionsToBank, lc.CreditAmount, lc.PercentTolerance,
		lc.MaxCreditAmount, lc.AdditionalAmounts, lc.FormOfCredit, lc.Availability,
		lc.DraftTenor, lc.Drawee, lc.MixedPaymentDetails, lc.DeferredPaymentDetails,
		lc.ConfirmationInstructions, lc.ExpiryDateAndPlace, lc.PeriodForPresentation,
		lc.PartialShipments, lc.Transshipment, lc.LatestShipmentDate, lc.ShipmentPeriod,
		lc.DispatchPlace, lc.PortOfLoading, lc.PortOfDischarge, lc.FinalDestination,
		lc.GoodsDescription, lc.AdditionalConditions, lc.Charges, lc.IncotermRule,
		lc.IncotermYear, lc.IncotermNamedPlace, lc.RulebookVersions,
	).Scan(&lcID)
	if err != nil {
		return "", fmt.Errorf("upsert lc: %w", err)
	}
	return lcID, nil
}

// ReplaceRequirements swaps the LC's requirement list atomically, numbering
// entries doc_001, doc_002, ... in list order.
func (r *LCRepo) ReplaceRequirements(ctx context.Context, lcID string, reqs []models.LCRequirement) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace requirements: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lc_requirements WHERE lc_id=$1`, lcID); err != nil {
		return fmt.Errorf("clear requirements: %w", err)
	}
	for i, req := range reqs {
		reqID := fmt.Sprintf("doc_%03d", i+1)
		quantity := req.Quantity
		if quantity < 1 {
			quantity = 1
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO lc_requirements (lc_id, requirement_id, name, description, quantity, validation_criteria)
VALUES ($1, $2, $3, NULLIF($4,''), $5, $6)`,
			lcID, reqID, req.Name, req.Description, quantity, req.ValidationCriteria,
		); err != nil {
			return fmt.Errorf("insert requirement %s: %w", reqID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace requirements: %w", err)
	}
	return nil
}

func (r *LCRepo) GetByReference(ctx context.Context, reference string) (models.LetterOfCredit, error) {
	lc, err := scanLC(r.db.Pool.QueryRow(ctx,
		`SELECT `+lcColumns+` FROM letters_of_credit WHERE lc_reference=$1`, reference))
	if err != nil {
		return models.LetterOfCredit{}, fmt.Errorf("get lc by reference: %w", err)
	}
	return lc, nil
}

func (r *LCRepo) GetByID(ctx context.Context, lcID string) (models.LetterOfCredit, error) {
	lc, err := scanLC(r.db.Pool.QueryRow(ctx,
		`SELECT `+lcColumns+` FROM letters_of_credit WHERE lc_id=$1`, lcID))
	if err != nil {
		return models.LetterOfCredit{}, fmt.Errorf("get lc by id: %w", err)
	}
	return lc, nil
}

func (r *LCRepo) ListLCs(ctx context.Context) ([]models.LetterOfCredit, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+lcColumns+` FROM letters_of_credit ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list lcs: %w", err)
	}
	defer rows.Close()

	out := make([]models.LetterOfCredit, 0)
	for rows.Next() {
		lc, err := scanLC(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lc: %w", err)
		}
		out = append(out, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lcs: %w", err)
	}
	return out, nil
}

func (r *LCRepo) ListRequirements(ctx context.Context, lcID string) ([]models.LCRequirement, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT lc_id::text, requirement_id, name, COALESCE(description,''), quantity,
       COALESCE(validation_criteria,'[]'::jsonb), created_at
FROM lc_requirements
WHERE lc_id=$1
ORDER BY requirement_id`, lcID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	out := make([]models.LCRequirement, 0)
	for rows.Next() {
		var req models.LCRequirement
		if err := rows.Scan(&req.LCID, &req.RequirementID, &req.Name, &req.Description,
			&req.Quantity, &req.ValidationCriteria, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requirements: %w", err)
	}
	return out, nil
}
