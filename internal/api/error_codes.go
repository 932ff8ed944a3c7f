// internal/api/error_codes.go
package api

// API error code constants.
const (
	// Generic
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorForbidden     = "FORBIDDEN"
	ErrorUnauthorized  = "UNAUTHORIZED"

	// Project workflow
	ErrorProjectNotFound  = "PROJECT_NOT_FOUND"
	ErrorProjectInvalid   = "PROJECT_INVALID"
	ErrorArticleInvalid   = "ARTICLE_INVALID"
	ErrorStrategyInvalid  = "STRATEGY_INVALID"
	ErrorScriptInvalid    = "SCRIPT_INVALID"
	ErrorShotInvalid      = "SHOT_INVALID"
	ErrorPersonaUnknown   = "PERSONA_UNKNOWN"
	ErrorPersonaNotOnTeam = "PERSONA_NOT_ON_TEAM"

	// Chat and LLM
	ErrorLLMServiceUnavailable = "LLM_SERVICE_UNAVAILABLE"
	ErrorLLMConfigInvalid      = "LLM_CONFIG_INVALID"
	ErrorChatFailed            = "CHAT_FAILED"

	// Export
	ErrorExportFailed        = "EXPORT_FAILED"
	ErrorExportFormatInvalid = "EXPORT_FORMAT_INVALID"
)
