package config

// ConfigError reports a missing or invalid configuration key.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Key + ": " + e.Reason
}

// ErrorKind classifies the error; JSON logs render it as the error's kind.
func (e *ConfigError) ErrorKind() string {
	return "configuration"
}
