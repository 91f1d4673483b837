package llm

// config.go provides extraction helpers for the generic options maps
// passed with each invocation.

// ExtractOptionalInt pulls an int from an options map. Returns
// defaultVal when the key is absent, has the wrong type, or fails the
// validator.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, valid func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}
	if valid != nil && !valid(intVal) {
		return defaultVal
	}
	return intVal
}

// ExtractOptionalString pulls a string from an options map with the
// same fallback rules as ExtractOptionalInt.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, valid func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}
	if valid != nil && !valid(strVal) {
		return defaultVal
	}
	return strVal
}

// ExtractOptionalFloat64 pulls a float64 from an options map with the
// same fallback rules as ExtractOptionalInt.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, valid func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	if valid != nil && !valid(floatVal) {
		return defaultVal
	}
	return floatVal
}

// ExtractOptionalBool pulls a bool from an options map, returning
// defaultVal when absent or mistyped.
func ExtractOptionalBool(opts map[string]any, key string, defaultVal bool) bool {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	boolVal, ok := val.(bool)
	if !ok {
		return defaultVal
	}
	return boolVal
}
