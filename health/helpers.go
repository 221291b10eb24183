package health

import "time"

func newStatus(component, state, message string, healthy bool) Status {
	return Status{
		Component: component,
		Healthy:   healthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy reports a component as fully operational, stamped now.
func NewHealthy(component, message string) Status {
	return newStatus(component, "healthy", message, true)
}

// NewUnhealthy reports a component as down. The pipeline uses this for a
// lost broker connection or a station feed that stopped arriving.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, "unhealthy", message, false)
}

// NewDegraded reports a component that still works but below par, such
// as a gateway answering slowly while the bus reconnects.
func NewDegraded(component, message string) Status {
	return newStatus(component, "degraded", message, false)
}

// Aggregate folds sub-statuses into one status for the parent component.
// Any unhealthy child makes the parent unhealthy; otherwise any degraded
// child makes it degraded; a process with no registered children counts
// as healthy.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(component, "No sub-components to aggregate")
	}

	worst := 0 // 0 healthy, 1 degraded, 2 unhealthy
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			worst = 2
		case sub.IsDegraded() && worst < 1:
			worst = 1
		}
		if worst == 2 {
			break
		}
	}

	var status Status
	switch worst {
	case 2:
		status = NewUnhealthy(component, "One or more sub-components are unhealthy")
	case 1:
		status = NewDegraded(component, "One or more sub-components are degraded")
	default:
		status = NewHealthy(component, "All sub-components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)

	return status
}
