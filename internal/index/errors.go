package index

import "errors"

// ErrPathUnusable reports that the database path could not be opened or
// created. Callers should use errors.Is(err, ErrPathUnusable).
var ErrPathUnusable = errors.New("findex: database path unusable")

// ErrVersionMismatch reports an incompatible on-disk version stamp.
// Callers should use errors.Is(err, ErrVersionMismatch).
var ErrVersionMismatch = errors.New("findex: version mismatch")

// ErrCorruption reports that the codec detected a truncated or
// non-monotonic record while decoding. Callers should use
// errors.Is(err, ErrCorruption).
var ErrCorruption = errors.New("findex: corruption")

// ErrBusy reports that a second writer attempted to begin a write
// transaction while one was already open. Callers should use
// errors.Is(err, ErrBusy).
var ErrBusy = errors.New("findex: busy")

// ErrContractViolation reports a precondition breach by the caller, such as
// adding a document id that already exists. This is a programmer error and
// is not expected to be recovered from at runtime.
var ErrContractViolation = errors.New("findex: contract violation")

// ErrUnsupported reports an operation this build deliberately leaves
// unimplemented (ReplaceDocument with the url field set).
var ErrUnsupported = errors.New("findex: unsupported operation")
