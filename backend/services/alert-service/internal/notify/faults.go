package notify

// faultDescriptions decodes the fault codes the monitor watches for.
var faultDescriptions = map[string]string{
	"P0A78": "Drive motor \"A\" inverter performance",
	"P0AFA": "Hybrid/EV battery system voltage low",
	"P0562": "System voltage low",
}

// DescribeFault returns the human readable meaning of a fault code.
func DescribeFault(code string) string {
	if desc, ok := faultDescriptions[code]; ok {
		return desc
	}
	return "no description available"
}
