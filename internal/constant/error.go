package constant

const (
	ERR_VALIDATION_CODE            = "VALIDATION_ERROR"
	ERR_NOT_FOUND_ERROR            = "NOT_FOUND_ERROR"
	ERR_NOT_PERMITTED_CODE         = "NOT_PERMITTED_ERROR"
	ERR_INTERNAL_SERVER_ERROR_CODE = "INTERNAL_SERVER_ERROR"

	ERR_INTERNAL_SERVER_ERROR_MESSAGE = "Something went wrong. If the problem persists, please contact a network administrator"
)
