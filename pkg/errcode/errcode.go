package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	ReadFileError
	WorkDirError

	// Logging errors
	CreateLogFileError

	// Config errors
	ConfigLoadError
	ConfigGenerateError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBTableCheckError
	DBQueryTablesError
	DBDropTableError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaMigrateError

	// Design errors
	DesignConfigError
	DesignNotFoundError

	// Tabular errors
	TabularReadError
	TabularHeaderError
	TabularTypeError

	// Resolution errors
	ResolutionLookupError
	ResolutionAmbiguousError
	ResolutionThawListError

	// Validation errors
	ValidationError
	RequiredPropertyError
	PlatePositionError
	WellGroupError
	SampleIDGenError

	// Transform errors
	EngineNotFoundError
	ScriptMissingError
	ScriptExecError
	ExchangeError

	// Persistence errors
	PersistenceError
	BatchSaveError
	RunSaveError
	PropertySaveError
	LineageError
)
