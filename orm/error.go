package orm

import "github.com/coderi421/rowkit/orm/internal/errs"

// 将内部的 sentinel error 暴露出去
var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errs.ErrNoRows

	ErrPointerOnly      = errs.ErrPointerOnly
	ErrNoHandlerFound   = errs.ErrNoHandlerFound
	ErrIncompleteRecord = errs.ErrIncompleteRecord
	ErrRecordFrozen     = errs.ErrRecordFrozen
	ErrMismatchedType   = errs.ErrMismatchedType
	ErrUnboundParameter = errs.ErrUnboundParameter
	ErrDuplicateTable   = errs.ErrDuplicateTable
	ErrNullTable        = errs.ErrNullTable
	ErrNullDatabase     = errs.ErrNullDatabase
	ErrInsertZeroRow    = errs.ErrInsertZeroRow
)
