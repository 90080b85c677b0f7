package catlog

import "github.com/Station-Manager/catlog/engine"

const (
	// ServiceName is the DI/service locator name for the logging facade.
	ServiceName = "catlog"
	emptyString = ""
)

const (
	// EnvProfileError sends engine diagnostics at warn and above to the named file.
	EnvProfileError = "CATLOG_PROFILE_ERROR"
	// EnvProfileDebug sends all engine diagnostics to the named file.
	EnvProfileDebug = "CATLOG_PROFILE_DEBUG"

	defaultMDCLimit = 1024
)

const (
	errMsgNilConfig     = "Catlog config is nil."
	errMsgNilService    = "Catlog service is nil."
	errMsgNilEngine     = "Engine constructor returned nil."
	errMsgConfigInvalid = "Catlog configuration is invalid."
	errMsgDefaultCat    = "Default category cannot be resolved."
	errMsgRecordRestore = "Record function cannot be restored."
)

// Built-in levels. Rule text may define more in [levels].
const (
	LevelDebug  = engine.LevelDebug
	LevelInfo   = engine.LevelInfo
	LevelNotice = engine.LevelNotice
	LevelWarn   = engine.LevelWarn
	LevelError  = engine.LevelError
	LevelFatal  = engine.LevelFatal
)
