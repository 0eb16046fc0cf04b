package wire

// Status is a HAP status code returned per characteristic in
// /characteristics responses.
type Status int

const (
	// StatusSuccess indicates the request succeeded.
	StatusSuccess Status = 0

	// StatusInsufficientPrivileges indicates the controller lacks privileges.
	StatusInsufficientPrivileges Status = -70401

	// StatusServiceCommunicationFailure indicates the accessory did not respond.
	StatusServiceCommunicationFailure Status = -70402

	// StatusResourceBusy indicates the resource is busy; try again.
	StatusResourceBusy Status = -70403

	// StatusReadOnly indicates a write to a read-only characteristic.
	StatusReadOnly Status = -70404

	// StatusWriteOnly indicates a read of a write-only characteristic.
	StatusWriteOnly Status = -70405

	// StatusNotificationNotSupported indicates events are not supported.
	StatusNotificationNotSupported Status = -70406

	// StatusOutOfResource indicates the accessory is out of resources.
	StatusOutOfResource Status = -70407

	// StatusOperationTimedOut indicates the operation timed out.
	StatusOperationTimedOut Status = -70408

	// StatusResourceDoesNotExist indicates the aid/iid is unknown.
	StatusResourceDoesNotExist Status = -70409

	// StatusInvalidValue indicates the written value was rejected.
	StatusInvalidValue Status = -70410
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInsufficientPrivileges:
		return "INSUFFICIENT_PRIVILEGES"
	case StatusServiceCommunicationFailure:
		return "SERVICE_COMMUNICATION_FAILURE"
	case StatusResourceBusy:
		return "RESOURCE_BUSY"
	case StatusReadOnly:
		return "READ_ONLY"
	case StatusWriteOnly:
		return "WRITE_ONLY"
	case StatusNotificationNotSupported:
		return "NOTIFICATION_NOT_SUPPORTED"
	case StatusOutOfResource:
		return "OUT_OF_RESOURCE"
	case StatusOperationTimedOut:
		return "OPERATION_TIMED_OUT"
	case StatusResourceDoesNotExist:
		return "RESOURCE_DOES_NOT_EXIST"
	case StatusInvalidValue:
		return "INVALID_VALUE"
	default:
		return "UNKNOWN"
	}
}
