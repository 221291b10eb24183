// Package errors provides standardized error handling patterns for CattleNet components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// Classification lets the ingest pipeline and the document store make informed
// decisions about retries and graceful degradation without error string
// matching at call sites. A malformed telemetry payload is Invalid and is
// dropped; a store write timeout is Transient and may be retried; a broken
// configuration is Fatal and stops startup.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if tag == "" {
//	    return errors.ErrMissingTag
//	}
//
// Wrap errors with component context:
//
//	if err := store.Insert(ctx, collection, doc); err != nil {
//	    return errors.WrapTransient(err, "DocStore", "Insert", "kv put")
//	}
//
// Check classification for handling decisions:
//
//	if err := process(msg); err != nil {
//	    if errors.IsInvalid(err) {
//	        // drop the message, count it, move on
//	    } else if errors.IsFatal(err) {
//	        return err
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: underlying error"
//
// which keeps log lines grep-able by component and operation.
package errors
