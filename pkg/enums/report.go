package enums

import "fmt"

// ReportReason categorizes why a submission was reported.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "Spam"
	ReportReasonIncorrectWork ReportReason = "Incorrect Work"
	ReportReasonInappropriate ReportReason = "Inappropriate Content"
	ReportReasonOther         ReportReason = "Other"
)

var validReportReasons = []ReportReason{
	ReportReasonSpam,
	ReportReasonIncorrectWork,
	ReportReasonInappropriate,
	ReportReasonOther,
}

// String implements fmt.Stringer.
func (r ReportReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReportReason.
func (r ReportReason) IsValid() bool {
	for _, candidate := range validReportReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportReason converts raw input into a ReportReason.
func ParseReportReason(value string) (ReportReason, error) {
	for _, candidate := range validReportReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report reason %q", value)
}

// ReportStatus tracks moderation progress on a report.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

var validReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusResolved,
	ReportStatusDismissed,
}

// String implements fmt.Stringer.
func (r ReportStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReportStatus.
func (r ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportStatus converts raw input into a ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}
