package components

// String returns the display name for a MobState.
func (m MobState) String() string {
	names := MobStateNames()
	if int(m) < len(names) {
		return names[m]
	}
	return "Unknown"
}

// MobStateNames returns the display names for all mob states.
// The order matches the MobState constants.
func MobStateNames() []string {
	return []string{"Alive", "Critical", "Dead"}
}

// BleedSeverity buckets a bleed amount into the examine text shown to
// observers. Thresholds are fractions of the max bleed amount.
func BleedSeverity(amount, maxAmount float64) string {
	if amount <= 0 || maxAmount <= 0 {
		return ""
	}
	switch frac := amount / maxAmount; {
	case frac > 0.75:
		return "bleeding profusely"
	case frac > 0.5:
		return "bleeding heavily"
	case frac > 0.25:
		return "bleeding"
	default:
		return "bleeding lightly"
	}
}

// BloodLevelDescription describes a blood level for examine text.
func BloodLevelDescription(level, threshold float64) string {
	if level < threshold {
		return "looks pale"
	}
	return ""
}
