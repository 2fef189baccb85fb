package notify

// Multi fans a notification out to every non-nil notifier in order.
type Multi []Notifier

// Show implements Notifier.
func (m Multi) Show(n Notification) {
	for _, t := range m {
		if t != nil {
			t.Show(n)
		}
	}
}
