package viz

import "github.com/san-kum/neurospin/internal/scanner"

// SelectionFeed carries selection changes from the controller to the UI.
// It holds at most the latest selection; Notify never blocks.
type SelectionFeed struct {
	ch chan scanner.Selection
}

func NewSelectionFeed() *SelectionFeed {
	return &SelectionFeed{ch: make(chan scanner.Selection, 1)}
}

// Notify replaces any pending selection with sel. It is meant for
// scanner.Options.OnSelect.
func (f *SelectionFeed) Notify(sel scanner.Selection) {
	for {
		select {
		case f.ch <- sel:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

func (f *SelectionFeed) C() <-chan scanner.Selection { return f.ch }
