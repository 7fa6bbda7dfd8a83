// Package telemetry provides privacy-compliant error tracking. Reporting is
// strictly opt-in: nothing leaves the process unless sentry.enabled is set in
// the configuration, and every outgoing event passes through the privacy
// scrubbers first.
package telemetry

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/getsentry/sentry-go"

	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/privacy"
)

// DeferredMessage represents a message that was captured before Sentry initialization
type DeferredMessage struct {
	Message   string
	Level     sentry.Level
	Component string
	Timestamp time.Time
}

var (
	sentryInitialized bool
	deferredMessages  []DeferredMessage
	deferredMutex     sync.Mutex
	testMode          atomic.Bool // bypasses the settings check in tests
)

// Package-level logger specific to the telemetry service
var (
	serviceLogger   *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "telemetry.log")
	serviceLevelVar.Set(slog.LevelInfo)

	serviceLogger, closeLogger, err = logging.NewFileLogger(logFilePath, "telemetry", serviceLevelVar)
	if err != nil {
		// Fallback: log the error and disable service logging without panicking
		log.Printf("Failed to initialize telemetry file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		serviceLogger = slog.New(fbHandler).With("service", "telemetry")
		closeLogger = func() error { return nil }
	}
}

// PlatformInfo holds privacy-safe platform information for telemetry
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	Container    bool   `json:"container"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

// collectPlatformInfo gathers privacy-safe platform information for telemetry
func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		Container:    conf.RunningInContainer(),
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// InitSentry initializes the Sentry SDK with privacy-compliant settings.
// It only initializes Sentry if explicitly enabled by the user.
func InitSentry(settings *conf.Settings) error {
	// Telemetry is opt-in
	if !settings.Sentry.Enabled {
		log.Println("Sentry telemetry is disabled (opt-in required)")
		return nil
	}

	if settings.Sentry.Debug {
		serviceLevelVar.Set(slog.LevelDebug)
		serviceLogger.Info("telemetry debug logging enabled")
	}

	if err := initializeSentrySDK(settings); err != nil {
		return err
	}

	configureSentryScope(settings)

	// Route enhanced errors through Sentry from now on
	InitializeErrorIntegration(true)

	deferredCount := processDeferredMessages()
	logInitializationSuccess(settings, deferredCount)

	return nil
}

// initializeSentrySDK initializes the Sentry SDK with privacy-compliant options
func initializeSentrySDK(settings *conf.Settings) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Sentry.DSN,
		SampleRate: 1.0,   // Capture all errors by default
		Debug:      false, // Keep SDK debug off, service logger covers diagnostics

		// Privacy-compliant settings
		AttachStacktrace: false, // Stack traces can leak file system paths
		Environment:      "production",
		ServerName:       "", // Explicitly clear server name to prevent hostname leakage

		Release: fmt.Sprintf("propscope@%s", settings.Version),

		// BeforeSend filters sensitive data from every outgoing event
		BeforeSend: createBeforeSendHook(settings),
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry_init").
			Build()
	}

	return nil
}

// createBeforeSendHook creates the BeforeSend hook for privacy filtering
func createBeforeSendHook(settings *conf.Settings) func(*sentry.Event, *sentry.EventHint) *sentry.Event {
	debug := settings.Sentry.Debug
	return func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
		if debug {
			serviceLogger.Debug("applying privacy filters to event",
				"event_id", event.EventID,
				"has_user_data", !event.User.IsEmpty(),
				"has_server_name", event.ServerName != "",
				"contexts_count", len(event.Contexts),
				"extra_count", len(event.Extra),
				"tags_count", len(event.Tags),
			)
		}
		filtered := applyPrivacyFilters(event)
		if debug {
			serviceLogger.Debug("privacy filters applied",
				"event_id", filtered.EventID,
				"remaining_contexts", len(filtered.Contexts),
				"remaining_extra", len(filtered.Extra),
				"remaining_tags", len(filtered.Tags),
			)
		}
		return filtered
	}
}

// applyPrivacyFilters strips identifying data from a Sentry event before it
// is sent. Only the whitelisted extra fields survive.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	// Clear user data and server name
	event.User = sentry.User{}
	event.ServerName = ""

	// Remove contexts that describe the host machine
	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	// Remove extra fields except allowed ones
	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	// Remove sensitive tags
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}

// configureSentryScope configures the global Sentry scope with system information
func configureSentryScope(settings *conf.Settings) {
	platformInfo := collectPlatformInfo()

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		// System ID identifies the installation, not the host or the user
		scope.SetTag("system_id", settings.SystemID)

		scope.SetTag("os", platformInfo.OS)
		scope.SetTag("arch", platformInfo.Architecture)
		scope.SetTag("container", fmt.Sprintf("%t", platformInfo.Container))

		scope.SetContext("application", map[string]any{
			"name":      "PropScope",
			"version":   settings.Version,
			"system_id": settings.SystemID,
		})

		scope.SetContext("platform", map[string]any{
			"os":           platformInfo.OS,
			"architecture": platformInfo.Architecture,
			"container":    platformInfo.Container,
			"num_cpu":      platformInfo.NumCPU,
			"go_version":   platformInfo.GoVersion,
		})
	})
}

// processDeferredMessages sends messages captured before Sentry was ready
func processDeferredMessages() int {
	deferredMutex.Lock()
	sentryInitialized = true
	messagesToProcess := make([]DeferredMessage, len(deferredMessages))
	copy(messagesToProcess, deferredMessages)
	deferredMessages = nil
	deferredMutex.Unlock()

	for _, msg := range messagesToProcess {
		CaptureMessage(msg.Message, msg.Level, msg.Component)
	}

	return len(messagesToProcess)
}

// logInitializationSuccess logs the successful initialization of Sentry
func logInitializationSuccess(settings *conf.Settings, deferredCount int) {
	platformInfo := collectPlatformInfo()

	serviceLogger.Info("Sentry telemetry initialized",
		"system_id", settings.SystemID,
		"version", settings.Version,
		"debug", settings.Sentry.Debug,
		"platform", platformInfo.OS,
		"arch", platformInfo.Architecture,
		"deferred_messages", deferredCount,
	)

	if deferredCount > 0 {
		log.Printf("Sentry telemetry initialized successfully, processed %d deferred messages (System ID: %s)",
			deferredCount, settings.SystemID)
	} else {
		log.Printf("Sentry telemetry initialized successfully (opt-in enabled, System ID: %s)", settings.SystemID)
	}
}

// InitializeErrorIntegration routes enhanced errors from the errors package
// through Sentry and installs the privacy scrubber.
func InitializeErrorIntegration(enabled bool) {
	errors.SetTelemetryReporter(errors.NewSentryReporter(enabled))
	errors.SetPrivacyScrubber(ScrubMessage)
}

// ScrubMessage removes sensitive data from a message before it leaves the
// process. Exposed so other packages can scrub without importing privacy
// directly.
func ScrubMessage(message string) string {
	return privacy.ScrubMessage(message)
}

// telemetryEnabled reports whether events may be sent. Tests bypass the
// settings check through testMode.
func telemetryEnabled() bool {
	if testMode.Load() {
		return true
	}
	settings := conf.GetSettings()
	return settings != nil && settings.Sentry.Enabled
}

// CaptureError captures an error with privacy-compliant context. Intended for
// errors that do not flow through the errors package, such as recovered
// panics.
func CaptureError(err error, component string) {
	if !telemetryEnabled() {
		return
	}

	scrubbedErrorMsg := privacy.ScrubMessage(err.Error())

	serviceLogger.Debug("sending error event",
		"event_type", "error",
		"component", component,
		"error_type", fmt.Sprintf("%T", err),
		"scrubbed_message", scrubbedErrorMsg,
	)

	sentry.WithScope(func(scope *sentry.Scope) {
		errorTitle := generateErrorTitle(err, component)

		scope.SetTag("component", component)
		scope.SetTag("error_title", errorTitle)
		scope.SetContext("error", map[string]any{
			"type":             fmt.Sprintf("%T", err),
			"scrubbed_message": scrubbedErrorMsg,
		})

		// Custom fingerprint groups recurring panics by title and component
		scope.SetFingerprint([]string{errorTitle, component})

		event := sentry.NewEvent()
		event.Level = sentry.LevelError
		event.Message = scrubbedErrorMsg
		event.Exception = []sentry.Exception{{
			Type:  errorTitle,
			Value: scrubbedErrorMsg,
		}}

		sentry.CaptureEvent(event)
	})
}

// CaptureMessage captures a message with privacy-compliant context
func CaptureMessage(message string, level sentry.Level, component string) {
	if !telemetryEnabled() {
		return
	}

	scrubbedMessage := privacy.ScrubMessage(message)

	serviceLogger.Debug("sending message event",
		"event_type", "message",
		"sentry_level", string(level),
		"component", component,
		"scrubbed_message", scrubbedMessage,
	)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetLevel(level)
		sentry.CaptureMessage(scrubbedMessage)
	})
}

// CaptureMessageDeferred captures a message for later processing if Sentry is
// not yet initialized. If Sentry is already initialized, it sends immediately.
func CaptureMessageDeferred(message string, level sentry.Level, component string) {
	if !telemetryEnabled() {
		return
	}

	deferredMutex.Lock()
	defer deferredMutex.Unlock()

	if sentryInitialized {
		CaptureMessage(message, level, component)
		return
	}

	deferredMessages = append(deferredMessages, DeferredMessage{
		Message:   message,
		Level:     level,
		Component: component,
		Timestamp: time.Now(),
	})

	serviceLogger.Debug("deferring message for later processing",
		"sentry_level", string(level),
		"component", component,
		"deferred_count", len(deferredMessages),
	)
}

// Flush ensures all buffered events are sent to Sentry
func Flush(timeout time.Duration) {
	if !telemetryEnabled() {
		return
	}
	sentry.Flush(timeout)
}

// CloseServiceLogger closes the telemetry service log file
func CloseServiceLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}

// generateErrorTitle creates a readable error title for Sentry grouping.
// It parses common runtime errors and panic messages.
func generateErrorTitle(err error, component string) string {
	errorType := parseErrorType(err.Error())

	if component != "" && component != "unknown" {
		return fmt.Sprintf("%s: %s", titleCaseComponent(component), errorType)
	}

	return errorType
}

// parseErrorType extracts a human-readable error type from the error message
func parseErrorType(errMsg string) string {
	switch {
	case strings.Contains(errMsg, "nil pointer dereference"):
		return "Nil Pointer Dereference"
	case strings.Contains(errMsg, "index out of range"):
		return "Index Out of Range"
	case strings.Contains(errMsg, "slice bounds out of range"):
		return "Slice Bounds Out of Range"
	case strings.Contains(errMsg, "integer divide by zero"):
		return "Integer Divide by Zero"
	case strings.Contains(errMsg, "invalid memory address"):
		return "Invalid Memory Access"
	case strings.Contains(errMsg, "send on closed channel"):
		return "Send on Closed Channel"
	case strings.Contains(errMsg, "close of closed channel"):
		return "Close of Closed Channel"
	case strings.Contains(errMsg, "concurrent map"):
		return "Concurrent Map Access"
	case strings.Contains(errMsg, "interface conversion"):
		return "Interface Conversion Failed"
	case strings.HasPrefix(errMsg, "panic:"):
		panicMsg := strings.TrimSpace(strings.TrimPrefix(errMsg, "panic:"))
		if len(panicMsg) > 50 {
			panicMsg = panicMsg[:50] + "..."
		}
		return fmt.Sprintf("Panic: %s", panicMsg)
	default:
		// Truncate very long messages
		if len(errMsg) > 60 {
			return errMsg[:60] + "..."
		}
		return errMsg
	}
}

// titleCaseComponent converts component names to title case for readability.
// Examples: "api" -> "API", "taxbenefit" -> "Taxbenefit".
func titleCaseComponent(component string) string {
	// Handle common abbreviations
	component = strings.ReplaceAll(component, "http", "HTTP ")
	component = strings.ReplaceAll(component, "api", "API ")
	component = strings.ReplaceAll(component, "bbl", "BBL ")

	component = strings.ReplaceAll(component, "_", " ")

	words := strings.Fields(component)
	for i, word := range words {
		if word == "" {
			continue
		}
		// Skip abbreviations that are already upper case
		if strings.ToUpper(word) == word {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
