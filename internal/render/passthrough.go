package render

// Passthrough emits the page body untouched. Raw HTML units are published
// this way so hand-authored documents stay byte-identical.
type Passthrough struct{}

func (Passthrough) Render(page Page) ([]byte, error) {
	return page.Body, nil
}
