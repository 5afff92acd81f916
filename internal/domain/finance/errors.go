package finance

import "github.com/schoolerp/feeledger/internal/domain/shared"

// Finance error codes. Validation-type codes surface as HTTP 400.
const (
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeExceedsBalance      = "EXCEEDS_BALANCE"
	CodeExceedsRefundable   = "EXCEEDS_REFUNDABLE"
	CodeNegativeFinalAmount = "NEGATIVE_FINAL_AMOUNT"
	CodeInvalidMethod       = "INVALID_PAYMENT_METHOD"
	CodeMissingField        = "MISSING_FIELD"
	CodeInvariantViolation  = "LEDGER_INVARIANT_VIOLATION"
	CodeStructureInUse      = "FEE_STRUCTURE_IN_USE"
	CodeStructureInactive   = "FEE_STRUCTURE_INACTIVE"
)

// ValidationCodes lists finance codes that are client input errors.
var ValidationCodes = []string{
	CodeInvalidAmount,
	CodeExceedsBalance,
	CodeExceedsRefundable,
	CodeNegativeFinalAmount,
	CodeInvalidMethod,
	CodeMissingField,
	CodeStructureInactive,
}

func invalid(message string) error {
	return shared.NewDomainError(shared.CodeInvalidInput, message)
}

func invalidState(message string) error {
	return shared.NewDomainError(shared.CodeInvalidState, message)
}
