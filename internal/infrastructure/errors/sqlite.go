package errors

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// Extended codes are checked first; they refine ErrConstraint.
var sqliteExtendedCodes = map[sqlite3.ErrNoExtended]ErrorCode{
	sqlite3.ErrConstraintUnique:     ErrCodeDuplicate,
	sqlite3.ErrConstraintPrimaryKey: ErrCodeDuplicate,
	sqlite3.ErrConstraintForeignKey: ErrCodeConstraint,
	sqlite3.ErrConstraintCheck:      ErrCodeConstraint,
	sqlite3.ErrConstraintNotNull:    ErrCodeConstraint,
}

var sqlitePrimaryCodes = map[sqlite3.ErrNo]ErrorCode{
	sqlite3.ErrConstraint: ErrCodeConstraint,
	sqlite3.ErrCorrupt:    ErrCodeCorruption,
	sqlite3.ErrNotADB:     ErrCodeCorruption,
	sqlite3.ErrPerm:       ErrCodePermission,
	sqlite3.ErrAuth:       ErrCodePermission,
	sqlite3.ErrReadonly:   ErrCodePermission,
	sqlite3.ErrBusy:       ErrCodeBusy,
	sqlite3.ErrLocked:     ErrCodeBusy,
	sqlite3.ErrCantOpen:   ErrCodeConnection,
	sqlite3.ErrIoErr:      ErrCodeConnection,
	sqlite3.ErrFull:       ErrCodeDiskSpace,
	sqlite3.ErrSchema:     ErrCodeSchema,
	sqlite3.ErrMisuse:     ErrCodeStorage,
	sqlite3.ErrInternal:   ErrCodeStorage,
}

// classifySQLiteError maps a go-sqlite3 driver error to an ErrorCode.
// Anything else is ErrCodeUnknown.
func classifySQLiteError(err error) ErrorCode {
	var driverErr sqlite3.Error
	if !errors.As(err, &driverErr) {
		return ErrCodeUnknown
	}
	if code, ok := sqliteExtendedCodes[driverErr.ExtendedCode]; ok {
		return code
	}
	if code, ok := sqlitePrimaryCodes[driverErr.Code]; ok {
		return code
	}
	return ErrCodeUnknown
}
