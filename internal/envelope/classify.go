package envelope

// Classification is the consumer-facing view of a response's diagnostic
// flags, each paired with its optional display text.
type Classification struct {
	CacheFallbackActive bool   `json:"cacheFallbackActive"`
	CacheFallbackText   string `json:"cacheFallbackText,omitempty"`
	PoolTimeoutActive   bool   `json:"poolTimeoutActive"`
	PoolTimeoutText     string `json:"poolTimeoutText,omitempty"`
	ErrorActive         bool   `json:"errorActive"`
	ErrorText           string `json:"errorText,omitempty"`

	// ShowingCachedSnapshot is the composite "what you're seeing is not
	// fresh" signal. Several independent upstream conditions all manifest
	// the same way to a consumer, so they collapse into one flag.
	ShowingCachedSnapshot bool `json:"showingCachedSnapshot"`
}

// Classify derives the consumer classification from an envelope. fromCache
// is set by the caller when the payload being shown was substituted from the
// local cache rather than taken from the envelope. The envelope may be nil
// when a fallback happened without any response at all.
func Classify[T any](env *Envelope[T], fromCache bool) Classification {
	c := Classification{ShowingCachedSnapshot: fromCache}
	if env == nil {
		return c
	}

	if d := env.Diagnostics; d != nil {
		c.CacheFallbackActive = active(d.CacheFallback)
		c.CacheFallbackText = text(d.CacheFallback)
		c.PoolTimeoutActive = active(d.PoolTimeout)
		c.PoolTimeoutText = text(d.PoolTimeout)
		c.ErrorActive = active(d.Error)
		c.ErrorText = text(d.Error)
	}

	if c.CacheFallbackActive || c.PoolTimeoutActive || c.ErrorActive ||
		!env.Usable() || env.Source == SourceSnapshot {
		c.ShowingCachedSnapshot = true
	}

	return c
}
