// Package notify delivers desktop notifications.
package notify

import "github.com/gen2brain/beeep"

// Desktop sends notifications through the OS notification service.
// The zero value is usable and disabled.
type Desktop struct {
	Enabled bool
}

func (d Desktop) Notify(title, body string) error {
	if !d.Enabled {
		return nil
	}
	return beeep.Notify(title, body, "")
}
