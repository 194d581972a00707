package entity

import (
	"errors"
	"fmt"

	"github.com/LeMaitre4523/quelquechose-v6/internal/provider"
)

// ErrNormalization marks records the provider handed over with a
// required field missing. The batch is expected to skip the record and
// continue.
var ErrNormalization = errors.New("normalization failed")

// NormalizationError reports which required field was missing on which
// entity family.
type NormalizationError struct {
	Entity string
	Field  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization failed: %s is missing required field %q", e.Entity, e.Field)
}

func (e *NormalizationError) Unwrap() error { return ErrNormalization }

// ErrUnmappedRecipientType marks a recipient resource type the mapping
// table does not know. This is a contract error (the upstream enum grew
// without this table following), so it must surface loudly instead of
// defaulting: the affected discussion is skipped, the batch proceeds.
var ErrUnmappedRecipientType = errors.New("unmapped recipient type")

// UnmappedRecipientTypeError carries the unknown value for diagnostics.
type UnmappedRecipientTypeError struct {
	Value provider.ResourceKind
}

func (e *UnmappedRecipientTypeError) Error() string {
	return fmt.Sprintf("unmapped recipient type: %d", e.Value)
}

func (e *UnmappedRecipientTypeError) Unwrap() error { return ErrUnmappedRecipientType }

// ErrUnmappedAttachmentKind is the attachment-table counterpart of
// ErrUnmappedRecipientType.
var ErrUnmappedAttachmentKind = errors.New("unmapped attachment kind")

// UnmappedAttachmentKindError carries the unknown value for diagnostics.
type UnmappedAttachmentKindError struct {
	Value provider.AttachmentKind
}

func (e *UnmappedAttachmentKindError) Error() string {
	return fmt.Sprintf("unmapped attachment kind: %d", e.Value)
}

func (e *UnmappedAttachmentKindError) Unwrap() error { return ErrUnmappedAttachmentKind }
