// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

import "fmt"

// StatusCode is the outcome of a remote operation. The top two bits
// carry the severity: 00 good, 01 uncertain, 10 bad. A bad StatusCode
// is usable as an error.
type StatusCode uint32

const (
	StatusGood                           StatusCode = 0x00000000
	StatusUncertain                      StatusCode = 0x40000000
	StatusBadUnexpectedError             StatusCode = 0x80010000
	StatusBadCommunicationError          StatusCode = 0x80050000
	StatusBadTimeout                     StatusCode = 0x800A0000
	StatusBadServerNotConnected          StatusCode = 0x800D0000
	StatusBadNothingToDo                 StatusCode = 0x800F0000
	StatusBadUserAccessDenied            StatusCode = 0x801F0000
	StatusBadIdentityTokenRejected       StatusCode = 0x80210000
	StatusBadSessionIDInvalid            StatusCode = 0x80250000
	StatusBadSubscriptionIDInvalid       StatusCode = 0x80280000
	StatusBadNodeIDUnknown               StatusCode = 0x80340000
	StatusBadAttributeIDInvalid          StatusCode = 0x80350000
	StatusBadIndexRangeInvalid           StatusCode = 0x80360000
	StatusBadIndexRangeNoData            StatusCode = 0x80370000
	StatusBadNotWritable                 StatusCode = 0x803B0000
	StatusBadMonitoredItemIDInvalid      StatusCode = 0x80420000
	StatusBadContinuationPointInvalid    StatusCode = 0x804A0000
	StatusBadNoContinuationPoints        StatusCode = 0x804B0000
	StatusBadNoMatch                     StatusCode = 0x806F0000
	StatusBadHistoryOperationUnsupported StatusCode = 0x80720000
	StatusBadTypeMismatch                StatusCode = 0x80740000
	StatusBadMethodInvalid               StatusCode = 0x80750000
	StatusBadArgumentsMissing            StatusCode = 0x80760000
	StatusBadConditionDisabled           StatusCode = 0x80990000
	StatusBadEventIDUnknown              StatusCode = 0x809A0000
	StatusBadEntryExists                 StatusCode = 0x809F0000
	StatusBadNoEntryExists               StatusCode = 0x80A00000
	StatusBadInvalidArgument             StatusCode = 0x80AB0000
	StatusBadConditionBranchAlreadyAcked StatusCode = 0x80CF0000
)

var statusNames = map[StatusCode]string{
	StatusGood:                           "Good",
	StatusUncertain:                      "Uncertain",
	StatusBadUnexpectedError:             "BadUnexpectedError",
	StatusBadCommunicationError:          "BadCommunicationError",
	StatusBadTimeout:                     "BadTimeout",
	StatusBadServerNotConnected:          "BadServerNotConnected",
	StatusBadNothingToDo:                 "BadNothingToDo",
	StatusBadUserAccessDenied:            "BadUserAccessDenied",
	StatusBadIdentityTokenRejected:       "BadIdentityTokenRejected",
	StatusBadSessionIDInvalid:            "BadSessionIdInvalid",
	StatusBadSubscriptionIDInvalid:       "BadSubscriptionIdInvalid",
	StatusBadNodeIDUnknown:               "BadNodeIdUnknown",
	StatusBadAttributeIDInvalid:          "BadAttributeIdInvalid",
	StatusBadIndexRangeInvalid:           "BadIndexRangeInvalid",
	StatusBadIndexRangeNoData:            "BadIndexRangeNoData",
	StatusBadNotWritable:                 "BadNotWritable",
	StatusBadMonitoredItemIDInvalid:      "BadMonitoredItemIdInvalid",
	StatusBadContinuationPointInvalid:    "BadContinuationPointInvalid",
	StatusBadNoContinuationPoints:        "BadNoContinuationPoints",
	StatusBadNoMatch:                     "BadNoMatch",
	StatusBadHistoryOperationUnsupported: "BadHistoryOperationUnsupported",
	StatusBadTypeMismatch:                "BadTypeMismatch",
	StatusBadMethodInvalid:               "BadMethodInvalid",
	StatusBadArgumentsMissing:            "BadArgumentsMissing",
	StatusBadConditionDisabled:           "BadConditionDisabled",
	StatusBadEventIDUnknown:              "BadEventIdUnknown",
	StatusBadEntryExists:                 "BadEntryExists",
	StatusBadNoEntryExists:               "BadNoEntryExists",
	StatusBadInvalidArgument:             "BadInvalidArgument",
	StatusBadConditionBranchAlreadyAcked: "BadConditionBranchAlreadyAcked",
}

// StatusByName returns the code whose symbolic name is name.
func StatusByName(name string) (StatusCode, bool) {
	for code, candidate := range statusNames {
		if candidate == name {
			return code, true
		}
	}
	return 0, false
}

// IsGood reports whether the severity bits are good.
func (code StatusCode) IsGood() bool { return code&0xC0000000 == 0 }

// IsBad reports whether the severity bits are bad.
func (code StatusCode) IsBad() bool { return code&0x80000000 != 0 }

// String returns the symbolic name, or the hex value for codes without
// one.
func (code StatusCode) String() string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(code))
}

// Error implements error so bad codes can be returned and wrapped.
func (code StatusCode) Error() string { return code.String() }

// Err returns code as an error if it is bad, nil otherwise.
func (code StatusCode) Err() error {
	if code.IsBad() {
		return code
	}
	return nil
}
