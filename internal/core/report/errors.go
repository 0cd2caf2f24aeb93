package report

import "errors"

var (
	ErrInvalidInput    = errors.New("report: invalid input")
	ErrInvalidID       = errors.New("report: invalid id")
	ErrOwnerRequired   = errors.New("report: owner is required")
	ErrOwnerNotFound   = errors.New("report: owner employee not found")
	ErrReportNotFound  = errors.New("report: not found")
	ErrDuplicateDate   = errors.New("report: report for the date already exists")
	ErrStorageConflict = errors.New("report: storage conflict")
)
