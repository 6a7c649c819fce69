package models

// Template is one channel's renderable content. Subject stays empty for
// channels without a subject concept.
type Template struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// TemplateSet maps each channel to its template for one event type.
type TemplateSet struct {
	Channels map[Channel]Template `json:"channels"`
}

// ForChannel returns the template for ch. Channels without a dedicated entry
// fall back to the in_app template.
func (ts *TemplateSet) ForChannel(ch Channel) (Template, bool) {
	if tpl, ok := ts.Channels[ch]; ok {
		return tpl, true
	}
	tpl, ok := ts.Channels[ChannelInApp]
	return tpl, ok
}
