// internal/bot/reply.go
package bot

// Button is one selectable action offered to the user.
type Button struct {
	Label string
	Data  string
}

// Reply is a transport-agnostic response: message text plus an optional
// keyboard of selectable actions. A zero Reply means "nothing to deliver"
// (the input was ignored).
type Reply struct {
	Text    string
	Buttons [][]Button
}

// Empty reports whether there is nothing to deliver.
func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Buttons) == 0
}

func btn(label, data string) Button {
	return Button{Label: label, Data: data}
}

func row(buttons ...Button) []Button {
	return buttons
}
