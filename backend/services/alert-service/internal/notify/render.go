package notify

import (
	"fmt"
	"strconv"
	"strings"

	"evmalert/backend/services/alert-service/internal/models"
)

const detectedAtLayout = "2006-01-02 15:04:05"

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// ConditionLabel returns the headline used in logs and email subjects.
func ConditionLabel(condition models.ConditionType) string {
	switch condition {
	case models.ConditionLowBattery:
		return "Low battery detected on vehicle"
	case models.ConditionFaultCode:
		return "Fault detected on vehicle"
	case models.ConditionHighTemperature:
		return "High battery temperature detected on vehicle"
	case models.ConditionLowSegmentVoltage:
		return "Low segment voltage detected on vehicle"
	default:
		return "Condition detected on vehicle"
	}
}

// Render builds the notification text for an admitted candidate.
func Render(c models.AlertCandidate) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID: %s\n", c.DeviceID)
	sb.WriteString(detailLines(c))
	sb.WriteString("\nDetected at:\n")
	sb.WriteString(c.DetectedAt.Format(detectedAtLayout))

	return Message{
		Subject: fmt.Sprintf("Alert: %s %s", ConditionLabel(c.Condition), c.DeviceID),
		Body:    sb.String(),
	}
}

func detailLines(c models.AlertCandidate) string {
	switch c.Condition {
	case models.ConditionFaultCode:
		return fmt.Sprintf("Fault: %s\nDescription: %s", c.FaultCode, DescribeFault(c.FaultCode))
	case models.ConditionLowSegmentVoltage:
		return "Low segment voltage detected\n" + strings.TrimRight(c.SegmentMessage, "\n")
	case models.ConditionLowBattery:
		return "Low charge, %: " + formatValue(c.Value)
	case models.ConditionHighTemperature:
		return "High battery temperature, °C: " + formatValue(c.Value)
	default:
		return formatValue(c.Value)
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
