package strategy

import "strings"

const (
	unknownCustomer = "unknown"
	defaultDevice   = "device"
)

func segment(topic string, i int) string {
	parts := strings.Split(topic, "/")
	if i >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[i])
}

// CustomerOf returns the first topic level, or "unknown".
func CustomerOf(topic string) string {
	if s := segment(topic, 0); s != "" {
		return s
	}
	return unknownCustomer
}

// DeviceOf returns the second topic level, or "device".
func DeviceOf(topic string) string {
	if s := segment(topic, 1); s != "" {
		return s
	}
	return defaultDevice
}
