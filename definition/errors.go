package definition

import (
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/pipelinedef/errors"
)

// ErrorCode is the machine-readable status code produced by this subsystem,
// per the taxonomy in spec.md §7.
type ErrorCode string

const (
	CodeOK                                ErrorCode = "OK"
	CodeNodeWrongKindConfiguration        ErrorCode = "NODE_WRONG_KIND_CONFIGURATION"
	CodeMissingEntryOrExit                ErrorCode = "MISSING_ENTRY_OR_EXIT"
	CodeMultipleEntryNodes                ErrorCode = "MULTIPLE_ENTRY_NODES"
	CodeMultipleExitNodes                 ErrorCode = "MULTIPLE_EXIT_NODES"
	CodeNodeNameDuplicate                 ErrorCode = "NODE_NAME_DUPLICATE"
	CodeCycleFound                        ErrorCode = "CYCLE_FOUND"
	CodeContainsUnconnectedNodes          ErrorCode = "CONTAINS_UNCONNECTED_NODES"
	CodeReferingToMissingNode             ErrorCode = "REFERING_TO_MISSING_NODE"
	CodeReferingToMissingModel            ErrorCode = "REFERING_TO_MISSING_MODEL"
	CodeReferingToMissingModelOutput      ErrorCode = "REFERING_TO_MISSING_MODEL_OUTPUT"
	CodeReferingToMissingDataSource       ErrorCode = "REFERING_TO_MISSING_DATA_SOURCE"
	CodeConnectionToMissingNodeInput      ErrorCode = "CONNECTION_TO_MISSING_NODE_INPUT"
	CodeNotAllInputsConnected             ErrorCode = "NOT_ALL_INPUTS_CONNECTED"
	CodeInvalidShape                      ErrorCode = "INVALID_SHAPE"
	CodeInvalidPrecision                  ErrorCode = "INVALID_PRECISION"
	CodeForbiddenModelDynamicParameter    ErrorCode = "FORBIDDEN_MODEL_DYNAMIC_PARAMETER"
	CodeModelVersionNotLoadedYet          ErrorCode = "MODEL_VERSION_NOT_LOADED_YET"
	CodeModelVersionNotLoadedAnymore      ErrorCode = "MODEL_VERSION_NOT_LOADED_ANYMORE"
	CodeModelMissing                      ErrorCode = "MODEL_MISSING"
	CodeUnknownError                      ErrorCode = "UNKNOWN_ERROR"
)

// Error is the domain error type this subsystem returns from validation,
// lifecycle, and metadata operations.
type Error struct {
	Code    ErrorCode
	Message string
	// Detail carries diagnostic context: a cycle path, the list of
	// unfed input names, the offending node/model name, and so on.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newError builds an Error with an optional printf-style detail.
func newError(code ErrorCode, message string, detailFormat string, args ...any) *Error {
	detail := ""
	if detailFormat != "" {
		detail = fmt.Sprintf(detailFormat, args...)
	}
	return &Error{Code: code, Message: message, Detail: detail}
}

// httpStatusByCode mirrors the AIP-193-inspired mapping the toolkit's own
// errors package uses elsewhere, specialized to this subsystem's codes.
var httpStatusByCode = map[ErrorCode]int{
	CodeOK:                             http.StatusOK,
	CodeNodeWrongKindConfiguration:     http.StatusUnprocessableEntity,
	CodeMissingEntryOrExit:             http.StatusUnprocessableEntity,
	CodeMultipleEntryNodes:             http.StatusUnprocessableEntity,
	CodeMultipleExitNodes:              http.StatusUnprocessableEntity,
	CodeNodeNameDuplicate:              http.StatusUnprocessableEntity,
	CodeCycleFound:                     http.StatusUnprocessableEntity,
	CodeContainsUnconnectedNodes:       http.StatusUnprocessableEntity,
	CodeReferingToMissingNode:          http.StatusUnprocessableEntity,
	CodeReferingToMissingModel:         http.StatusNotFound,
	CodeReferingToMissingModelOutput:   http.StatusUnprocessableEntity,
	CodeReferingToMissingDataSource:    http.StatusUnprocessableEntity,
	CodeConnectionToMissingNodeInput:   http.StatusUnprocessableEntity,
	CodeNotAllInputsConnected:          http.StatusUnprocessableEntity,
	CodeInvalidShape:                   http.StatusUnprocessableEntity,
	CodeInvalidPrecision:               http.StatusUnprocessableEntity,
	CodeForbiddenModelDynamicParameter: http.StatusUnprocessableEntity,
	CodeModelVersionNotLoadedYet:       http.StatusServiceUnavailable,
	CodeModelVersionNotLoadedAnymore:   http.StatusGone,
	CodeModelMissing:                   http.StatusNotFound,
	CodeUnknownError:                   http.StatusInternalServerError,
}

// retryableByCode mirrors errors.IsRetryableCode for the subset of this
// subsystem's codes that represent a transient condition.
var retryableByCode = map[ErrorCode]bool{
	CodeModelVersionNotLoadedYet: true,
}

// AppError adapts a definition.Error onto the toolkit's transport-facing
// errors.AppError, the same layering used by the kafka and other domain
// packages in this module.
func (e *Error) AppError() *apperrors.AppError {
	status, ok := httpStatusByCode[e.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	appCode := apperrors.ErrCodeInvalidInput
	switch e.Code {
	case CodeReferingToMissingModel, CodeModelMissing:
		appCode = apperrors.ErrCodeNotFound
	case CodeModelVersionNotLoadedYet:
		appCode = apperrors.ErrCodeServiceUnavailable
	case CodeModelVersionNotLoadedAnymore:
		appCode = apperrors.ErrCodeConflict
	case CodeUnknownError:
		appCode = apperrors.ErrCodeInternal
	}
	return (&apperrors.AppError{
		Code:       appCode,
		Message:    e.Message,
		HTTPStatus: status,
		Retryable:  retryableByCode[e.Code],
		Details:    map[string]any{"definition_code": string(e.Code), "detail": e.Detail},
	})
}
