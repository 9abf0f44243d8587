package constants

// Sync Error Codes
// These constants classify failures of a sync invocation

// Transport errors (remote archive)
const (
	ErrCodeNetworkError   = "NETWORK_ERROR"
	ErrCodeRemoteNotFound = "REMOTE_NOT_FOUND"
	ErrCodeRemoteStatus   = "REMOTE_STATUS"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeCircuitOpen    = "CIRCUIT_OPEN"
)

// Data errors (file content)
const (
	ErrCodeMalformedRow  = "MALFORMED_ROW"
	ErrCodeNoDataMember  = "NO_DATA_MEMBER"
	ErrCodeStationMixed  = "STATION_MISMATCH"
	ErrCodeStoreFailure  = "STORE_FAILURE"
	ErrCodeSchemaInvalid = "SCHEMA_INVALID"
)

// Configuration errors
const (
	ErrCodeUnknownDataset        = "UNKNOWN_DATASET"
	ErrCodeEmptyStationSelection = "EMPTY_STATION_SELECTION"
	ErrCodeInvalidMode           = "INVALID_MODE"
	ErrCodeInvalidStationList    = "INVALID_STATION_LIST"
	ErrCodeConfigMalformed       = "CONFIG_MALFORMED"
)

// Error Messages
// Human-readable messages corresponding to error codes

var SyncErrorMessages = map[string]string{
	// Transport
	ErrCodeNetworkError:   "Unable to reach the DWD open data archive",
	ErrCodeRemoteNotFound: "The requested file or directory does not exist on the archive",
	ErrCodeRemoteStatus:   "The archive answered with an unexpected status",
	ErrCodeRateLimited:    "The archive rejected the request because of rate limiting",
	ErrCodeCircuitOpen:    "Too many consecutive transport failures, requests are suspended",

	// Data
	ErrCodeMalformedRow:  "A row does not match the dataset's column layout",
	ErrCodeNoDataMember:  "The archive file does not contain a produkt_* data member",
	ErrCodeStationMixed:  "The file contains rows of a different station",
	ErrCodeStoreFailure:  "Writing to the local store failed",
	ErrCodeSchemaInvalid: "The local table does not have the expected layout",

	// Configuration
	ErrCodeUnknownDataset:        "The requested dataset is not configured",
	ErrCodeEmptyStationSelection: "No stations were selected and all_stations is not enabled",
	ErrCodeInvalidMode:           "Exactly one of stations, historical or recent must be chosen",
	ErrCodeInvalidStationList:    "The station list cannot be parsed",
	ErrCodeConfigMalformed:       "The configuration is invalid",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := SyncErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
