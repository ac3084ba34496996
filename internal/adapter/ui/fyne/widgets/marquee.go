package widgets

// Marquee scrolls text that is wider than its window one rune per step.
type Marquee struct {
	runes  []rune
	width  int
	offset int
}

// marqueeGap separates the end of the text from its next pass.
const marqueeGap = "    "

// NewMarquee creates a marquee showing at most width runes.
func NewMarquee(text string, width int) *Marquee {
	m := &Marquee{width: max(width, 1)}
	m.SetText(text)
	return m
}

// SetText replaces the text and restarts the scroll.
func (m *Marquee) SetText(text string) {
	m.runes = []rune(text)
	if len(m.runes) > m.width {
		m.runes = append(m.runes, []rune(marqueeGap)...)
	}
	m.offset = 0
}

// Scrolls reports whether the text is too wide to show at once.
func (m *Marquee) Scrolls() bool {
	return len(m.runes) > m.width
}

// Frame returns the visible text.
func (m *Marquee) Frame() string {
	if !m.Scrolls() {
		return string(m.runes)
	}
	out := make([]rune, m.width)
	for i := range out {
		out[i] = m.runes[(m.offset+i)%len(m.runes)]
	}
	return string(out)
}

// Step advances the scroll by one rune and returns the new frame.
func (m *Marquee) Step() string {
	if m.Scrolls() {
		m.offset = (m.offset + 1) % len(m.runes)
	}
	return m.Frame()
}
