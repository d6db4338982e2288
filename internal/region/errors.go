package region

import (
	stderrors "github.com/orizon-lang/regiongc/internal/errors"
)

// ErrFinaliserFailed describes a failed finaliser of an object in Region.
// Nothing in this package constructs it: the collector does not recover
// finaliser panics, which unwind straight through Sweep and
// ReleaseInternal.
type ErrFinaliserFailed struct {
	Region RegionID
	Cause  any
}

func (e *ErrFinaliserFailed) Error() string {
	return stderrors.NewStandardError(
		stderrors.CategorySystem,
		"FINALISER_PANIC",
		"finaliser panicked during region release",
		map[string]interface{}{"region": e.Region, "cause": e.Cause},
	).Error()
}

// errInvalidIso reports the contract violation of calling GC or SwapRoot
// against an object that is not actually the iso it claims to be.
func errInvalidIso(op string) *stderrors.StandardError {
	return stderrors.NewStandardError(
		stderrors.CategoryValidation,
		"INVALID_ISO",
		"operation "+op+" requires the region's current iso",
		nil,
	)
}

// errZeroSize reports an attempt to register a descriptor with a zero
// size, which would make the region's memory accounting meaningless.
func errZeroSize(desc string) *stderrors.StandardError {
	return stderrors.InvalidSize(0, desc)
}

// errMissingIsoFieldScan reports an AdoptSubRegion call whose descriptor
// can't actually support the cascade it is being adopted for: sweep has
// no way to discover the sub-region a member roots without
// HasPossiblyIsoFields and FindIsoFields both set.
func errMissingIsoFieldScan(name string) *stderrors.StandardError {
	return stderrors.NewStandardError(
		stderrors.CategoryValidation,
		"MISSING_ISO_FIELD_SCAN",
		"AdoptSubRegion: descriptor "+name+" must set HasPossiblyIsoFields and FindIsoFields",
		nil,
	)
}

// errNegativeRefCount reports an Acquire/Release imbalance on a
// RememberedSet-held Immutable or Cown: releasing more times than
// acquired, which Invariant 6's exclusive-ownership discipline treats as
// a contract violation rather than something to clamp and continue past.
func errNegativeRefCount(op string) *stderrors.StandardError {
	return stderrors.NewStandardError(
		stderrors.CategoryValidation,
		"NEGATIVE_REFCOUNT",
		op+": reference count went negative",
		nil,
	)
}
