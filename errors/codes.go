package errors

// ErrorCode identifies an application error in API responses
type ErrorCode int32

const (
	ErrorCode_HTTP_OK          ErrorCode = 200
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1006

	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2001
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2002

	ErrorCode_MEETING_NOT_FOUND       ErrorCode = 3001
	ErrorCode_MEETING_INVALID_STATE   ErrorCode = 3002
	ErrorCode_RECORDING_MISSING       ErrorCode = 3003
	ErrorCode_RECORDING_EMPTY         ErrorCode = 3004
	ErrorCode_RECORDING_TOO_LARGE     ErrorCode = 3005
	ErrorCode_RECORDING_UNSUPPORTED   ErrorCode = 3006
	ErrorCode_RECORDING_UPLOAD_FAILED ErrorCode = 3007

	ErrorCode_ACTION_ITEM_NOT_FOUND     ErrorCode = 4001
	ErrorCode_ACTION_ITEM_INVALID_STATE ErrorCode = 4002

	ErrorCode_DISPATCH_FAILED ErrorCode = 5003

	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = 6002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                   "HTTP_OK",
	ErrorCode_INTERNAL:                  "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:          "INVALID_ARGUMENT",
	ErrorCode_UNAUTHENTICATED:           "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:           "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:        "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:        "AUTH_TOKEN_EXPIRED",
	ErrorCode_MEETING_NOT_FOUND:         "MEETING_NOT_FOUND",
	ErrorCode_MEETING_INVALID_STATE:     "MEETING_INVALID_STATE",
	ErrorCode_RECORDING_MISSING:         "RECORDING_MISSING",
	ErrorCode_RECORDING_EMPTY:           "RECORDING_EMPTY",
	ErrorCode_RECORDING_TOO_LARGE:       "RECORDING_TOO_LARGE",
	ErrorCode_RECORDING_UNSUPPORTED:     "RECORDING_UNSUPPORTED",
	ErrorCode_RECORDING_UPLOAD_FAILED:   "RECORDING_UPLOAD_FAILED",
	ErrorCode_ACTION_ITEM_NOT_FOUND:     "ACTION_ITEM_NOT_FOUND",
	ErrorCode_ACTION_ITEM_INVALID_STATE: "ACTION_ITEM_INVALID_STATE",
	ErrorCode_DISPATCH_FAILED:           "DISPATCH_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:     "DB_TRANSACTION_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
